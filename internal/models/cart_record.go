package models

import "time"

// CartRecord 购物车持久化记录（数据库存储后端）
type CartRecord struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                        // 主键
	NamespaceKey string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"namespace_key"` // 命名空间 key
	Version      int       `gorm:"not null;default:1" json:"version"`                           // 记录版本
	Payload      string    `gorm:"type:text;not null" json:"payload"`                           // 序列化后的购物车
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (CartRecord) TableName() string {
	return "cart_records"
}
