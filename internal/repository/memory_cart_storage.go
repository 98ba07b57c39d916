package repository

import (
	"context"
	"sync"

	"github.com/framestock/internal/models"
)

// MemoryCartStorage 进程内存储，按命名空间 key 保存序列化记录
type MemoryCartStorage struct {
	data *MemoryBlobs
	key  string
}

// MemoryBlobs 共享的内存 KV
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobs 创建内存 KV
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[string][]byte)}
}

// Get 读取
func (m *MemoryBlobs) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// Put 写入
func (m *MemoryBlobs) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.blobs[key] = stored
}

// NewMemoryCartStorage 创建内存购物车存储
func NewMemoryCartStorage(data *MemoryBlobs, key string) *MemoryCartStorage {
	if data == nil {
		data = NewMemoryBlobs()
	}
	return &MemoryCartStorage{data: data, key: key}
}

// Load 读取购物车
func (s *MemoryCartStorage) Load(_ context.Context) ([]models.CartLineItem, error) {
	raw, ok := s.data.Get(s.key)
	if !ok {
		return nil, nil
	}
	return DecodeCartRecord(raw)
}

// Save 写入购物车
func (s *MemoryCartStorage) Save(_ context.Context, items []models.CartLineItem) error {
	payload, err := EncodeCartRecord(items)
	if err != nil {
		return err
	}
	s.data.Put(s.key, payload)
	return nil
}
