package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ReceiptLine 结算回执行
type ReceiptLine struct {
	LineID      string `json:"line_id"`
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	Title       string `json:"title"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
}

// ReceiptLines 回执行列表，JSON 存储
type ReceiptLines []ReceiptLine

// Value 实现 driver.Valuer 接口
func (l ReceiptLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (l *ReceiptLines) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = ReceiptLines{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return nil
	}
}

// CheckoutReceipt 结算完成回执
type CheckoutReceipt struct {
	ID         uint         `gorm:"primarykey" json:"id"`                                      // 主键
	SessionID  string       `gorm:"type:varchar(64);index;not null" json:"session_id"`         // 购物会话ID
	PaymentRef string       `gorm:"type:varchar(191);uniqueIndex;not null" json:"payment_ref"` // 支付引用
	ItemCount  int          `gorm:"not null;default:0" json:"item_count"`                      // 商品数量
	Subtotal   Money        `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 小计
	Lines      ReceiptLines `gorm:"type:text" json:"lines"`                                    // 明细
	PaidAt     time.Time    `gorm:"index" json:"paid_at"`                                      // 完成时间
	CreatedAt  time.Time    `json:"created_at"`                                                // 创建时间
}

// TableName 指定表名
func (CheckoutReceipt) TableName() string {
	return "checkout_receipts"
}
