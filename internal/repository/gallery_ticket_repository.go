package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/framestock/internal/cache"
	"github.com/framestock/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketStorage 图库访问凭证存储
type TicketStorage interface {
	Get(ctx context.Context, sessionID string) (*models.GalleryTicket, error)
	Put(ctx context.Context, ticket *models.GalleryTicket) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryTicketStorage 内存实现
type MemoryTicketStorage struct {
	mu      sync.RWMutex
	tickets map[string]models.GalleryTicket
}

// NewMemoryTicketStorage 创建内存凭证存储
func NewMemoryTicketStorage() *MemoryTicketStorage {
	return &MemoryTicketStorage{tickets: make(map[string]models.GalleryTicket)}
}

// Get 获取凭证
func (s *MemoryTicketStorage) Get(_ context.Context, sessionID string) (*models.GalleryTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[sessionID]
	if !ok {
		return nil, nil
	}
	return &ticket, nil
}

// Put 保存凭证
func (s *MemoryTicketStorage) Put(_ context.Context, ticket *models.GalleryTicket) error {
	if ticket == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.SessionID] = *ticket
	return nil
}

// Delete 删除凭证
func (s *MemoryTicketStorage) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, sessionID)
	return nil
}

// RedisTicketStorage Redis 实现，TTL 与凭证过期时间一致
type RedisTicketStorage struct {
	prefix string
}

// NewRedisTicketStorage 创建 Redis 凭证存储
func NewRedisTicketStorage(prefix string) *RedisTicketStorage {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "gallery:ticket"
	}
	return &RedisTicketStorage{prefix: prefix}
}

func (s *RedisTicketStorage) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

// Get 获取凭证
func (s *RedisTicketStorage) Get(ctx context.Context, sessionID string) (*models.GalleryTicket, error) {
	var ticket models.GalleryTicket
	hit, err := cache.GetJSON(ctx, s.key(sessionID), &ticket)
	if err != nil || !hit {
		return nil, err
	}
	ticket.SessionID = sessionID
	return &ticket, nil
}

// Put 保存凭证
func (s *RedisTicketStorage) Put(ctx context.Context, ticket *models.GalleryTicket) error {
	if ticket == nil {
		return nil
	}
	if !cache.Enabled() {
		return cache.ErrDisabled
	}
	ttl := time.Until(ticket.ExpiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, ticket.SessionID)
	}
	return cache.SetJSON(ctx, s.key(ticket.SessionID), ticket, ttl)
}

// Delete 删除凭证
func (s *RedisTicketStorage) Delete(ctx context.Context, sessionID string) error {
	return cache.Del(ctx, s.key(sessionID))
}

// GormTicketStorage 数据库实现
type GormTicketStorage struct {
	db *gorm.DB
}

// NewGormTicketStorage 创建数据库凭证存储
func NewGormTicketStorage(db *gorm.DB) *GormTicketStorage {
	return &GormTicketStorage{db: db}
}

// Get 获取凭证
func (s *GormTicketStorage) Get(ctx context.Context, sessionID string) (*models.GalleryTicket, error) {
	var ticket models.GalleryTicket
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Put 保存凭证
func (s *GormTicketStorage) Put(ctx context.Context, ticket *models.GalleryTicket) error {
	if ticket == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at"}),
	}).Create(ticket).Error
}

// Delete 删除凭证
func (s *GormTicketStorage) Delete(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.GalleryTicket{}).Error
}
