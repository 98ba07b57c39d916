package repository

import (
	"context"
	"time"

	"github.com/framestock/internal/cache"
	"github.com/framestock/internal/models"
)

// RedisCartStorage Redis 存储
type RedisCartStorage struct {
	key string
	ttl time.Duration
}

// NewRedisCartStorage 创建 Redis 购物车存储，ttl 为 0 表示不过期
func NewRedisCartStorage(key string, ttl time.Duration) *RedisCartStorage {
	return &RedisCartStorage{key: key, ttl: ttl}
}

// Load 读取购物车
func (s *RedisCartStorage) Load(ctx context.Context) ([]models.CartLineItem, error) {
	raw, hit, err := cache.GetBytes(ctx, s.key)
	if err != nil || !hit {
		return nil, err
	}
	return DecodeCartRecord(raw)
}

// Save 写入购物车
func (s *RedisCartStorage) Save(ctx context.Context, items []models.CartLineItem) error {
	if !cache.Enabled() {
		return cache.ErrDisabled
	}
	payload, err := EncodeCartRecord(items)
	if err != nil {
		return err
	}
	return cache.SetBytes(ctx, s.key, payload, s.ttl)
}
