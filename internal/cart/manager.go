package cart

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/repository"
)

const (
	defaultIdleTTL     = 30 * time.Minute
	defaultMaxResident = 10000
)

// StorageFactory 按会话创建存储
type StorageFactory func(sessionID string) repository.CartStorage

type residentStore struct {
	store    *Store
	leases   int
	lastUsed time.Time
}

// Manager 会话购物车管理，每个会话同一时刻只有一个 Store
// 租用中或有订阅者的 Store 不会被回收，回收后从存储重新恢复。
type Manager struct {
	mu          sync.Mutex
	stores      map[string]*residentStore
	factory     StorageFactory
	opts        []Option
	idleTTL     time.Duration
	maxResident int
	lastSweep   time.Time
	now         func() time.Time
}

// NewManager 创建会话购物车管理器
func NewManager(factory StorageFactory, opts ...Option) *Manager {
	return &Manager{
		stores:      make(map[string]*residentStore),
		factory:     factory,
		opts:        opts,
		idleTTL:     defaultIdleTTL,
		maxResident: defaultMaxResident,
		now:         time.Now,
	}
}

// WithLimits 设置空闲回收时间与驻留上限，非正数保持默认
func (m *Manager) WithLimits(idleTTL time.Duration, maxResident int) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idleTTL > 0 {
		m.idleTTL = idleTTL
	}
	if maxResident > 0 {
		m.maxResident = maxResident
	}
	return m
}

// WithClock 替换时钟
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.mu.Lock()
		m.now = now
		m.mu.Unlock()
	}
	return m
}

// Acquire 租用会话购物车，首次访问时从存储恢复；使用完毕须调用 release
func (m *Manager) Acquire(ctx context.Context, sessionID string) (*Store, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, ErrSessionRequired
	}
	if store, release, ok := m.lease(sessionID); ok {
		return store, release, nil
	}

	var storage repository.CartStorage
	if m.factory != nil {
		storage = m.factory(sessionID)
	}
	created := NewStore(ctx, storage, m.opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[sessionID]
	if !ok {
		entry = &residentStore{store: created}
		m.stores[sessionID] = entry
	}
	entry.leases++
	entry.lastUsed = m.now()
	m.evictLocked()
	return entry.store, m.releaseFunc(entry), nil
}

func (m *Manager) lease(sessionID string) (*Store, func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.stores[sessionID]
	if !ok {
		return nil, nil, false
	}
	entry.leases++
	entry.lastUsed = m.now()
	return entry.store, m.releaseFunc(entry), true
}

func (m *Manager) releaseFunc(entry *residentStore) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			entry.leases--
			entry.lastUsed = m.now()
		})
	}
}

// Sweep 回收空闲超时的 Store，返回回收数量
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepIdleLocked()
}

// evictLocked 定期回收空闲 Store，超出驻留上限时按最近使用时间回收
func (m *Manager) evictLocked() {
	now := m.now()
	if len(m.stores) > m.maxResident || now.Sub(m.lastSweep) >= m.idleTTL/2 {
		m.sweepIdleLocked()
	}
	if len(m.stores) <= m.maxResident {
		return
	}

	type candidate struct {
		sessionID string
		lastUsed  time.Time
	}
	candidates := make([]candidate, 0, len(m.stores))
	for sessionID, entry := range m.stores {
		if m.evictable(entry) {
			candidates = append(candidates, candidate{sessionID: sessionID, lastUsed: entry.lastUsed})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastUsed.Before(candidates[j].lastUsed)
	})
	// 一次多回收 10%，避免每次新建都排序
	target := m.maxResident - m.maxResident/10
	for _, c := range candidates {
		if len(m.stores) <= target {
			break
		}
		delete(m.stores, c.sessionID)
	}
	if len(m.stores) > m.maxResident {
		logger.Warnw("cart_manager_resident_over_limit", "resident", len(m.stores), "limit", m.maxResident)
	}
}

func (m *Manager) sweepIdleLocked() int {
	now := m.now()
	m.lastSweep = now
	evicted := 0
	for sessionID, entry := range m.stores {
		if m.evictable(entry) && now.Sub(entry.lastUsed) >= m.idleTTL {
			delete(m.stores, sessionID)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) evictable(entry *residentStore) bool {
	return entry.leases <= 0 && entry.store.ObserverCount() == 0
}

// Len 当前驻留的会话数
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
