package models

import "time"

// GalleryTicket 私享图库访问凭证
type GalleryTicket struct {
	ID        uint      `gorm:"primarykey" json:"-"`                            // 主键
	SessionID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"` // 购物会话ID
	Code      string    `gorm:"type:varchar(128);not null" json:"code"`         // 访问码
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`                // 过期时间
	CreatedAt time.Time `json:"-"`                                              // 创建时间
}

// TableName 指定表名
func (GalleryTicket) TableName() string {
	return "gallery_tickets"
}

// Expired 判断凭证在给定时间是否已过期
func (t *GalleryTicket) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return !now.Before(t.ExpiresAt)
}
