package repository

import (
	"context"
	"errors"
	"time"

	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartStorage 数据库存储
type GormCartStorage struct {
	db  *gorm.DB
	key string
}

// NewGormCartStorage 创建数据库购物车存储
func NewGormCartStorage(db *gorm.DB, key string) *GormCartStorage {
	return &GormCartStorage{db: db, key: key}
}

// Load 读取购物车
func (s *GormCartStorage) Load(ctx context.Context) ([]models.CartLineItem, error) {
	var record models.CartRecord
	err := s.db.WithContext(ctx).Where("namespace_key = ?", s.key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeCartRecord([]byte(record.Payload))
}

// Save 写入购物车（按命名空间 key upsert）
func (s *GormCartStorage) Save(ctx context.Context, items []models.CartLineItem) error {
	payload, err := EncodeCartRecord(items)
	if err != nil {
		return err
	}
	record := models.CartRecord{
		NamespaceKey: s.key,
		Version:      constants.CartRecordVersion,
		Payload:      string(payload),
		UpdatedAt:    time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "updated_at"}),
	}).Create(&record).Error
}
