package repository

import (
	"errors"

	"github.com/framestock/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutReceiptRepository 结算回执数据访问接口
type CheckoutReceiptRepository interface {
	Create(receipt *models.CheckoutReceipt) error
	GetByPaymentRef(paymentRef string) (*models.CheckoutReceipt, error)
	ListBySession(sessionID string, limit int) ([]models.CheckoutReceipt, error)
}

// GormCheckoutReceiptRepository GORM 实现
type GormCheckoutReceiptRepository struct {
	db *gorm.DB
}

// NewCheckoutReceiptRepository 创建结算回执仓库
func NewCheckoutReceiptRepository(db *gorm.DB) *GormCheckoutReceiptRepository {
	return &GormCheckoutReceiptRepository{db: db}
}

// Create 写入回执，同一支付引用重复写入时忽略
func (r *GormCheckoutReceiptRepository) Create(receipt *models.CheckoutReceipt) error {
	if receipt == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_ref"}},
		DoNothing: true,
	}).Create(receipt).Error
}

// GetByPaymentRef 按支付引用查询
func (r *GormCheckoutReceiptRepository) GetByPaymentRef(paymentRef string) (*models.CheckoutReceipt, error) {
	var receipt models.CheckoutReceipt
	err := r.db.Where("payment_ref = ?", paymentRef).First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListBySession 按会话查询最近回执
func (r *GormCheckoutReceiptRepository) ListBySession(sessionID string, limit int) ([]models.CheckoutReceipt, error) {
	var receipts []models.CheckoutReceipt
	query := r.db.Where("session_id = ?", sessionID).Order("paid_at desc")
	query = applyLimit(query, limit)
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}
