package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/repository"

	"go.uber.org/zap"
)

// Snapshot 购物车只读快照
type Snapshot struct {
	Items     []models.CartLineItem `json:"items"`
	ItemCount int                   `json:"item_count"`
	Subtotal  models.Money          `json:"subtotal"`
}

// Observer 购物车变更回调
type Observer func(Snapshot)

// Option 购物车配置项
type Option func(*Store)

// WithLogger 指定日志实例
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMaxLineQuantity 单项数量上限，0 表示不限制
func WithMaxLineQuantity(max int) Option {
	return func(s *Store) {
		if max > 0 {
			s.maxLineQuantity = max
		}
	}
}

// Store 购物车状态，负责内存状态、持久化与派生合计
type Store struct {
	mu              sync.Mutex
	storage         repository.CartStorage
	items           []models.CartLineItem
	observers       map[int]Observer
	nextObserver    int
	maxLineQuantity int
	log             *zap.SugaredLogger
}

// NewStore 创建购物车并从存储恢复，存储损坏或读取失败时以空购物车启动
func NewStore(ctx context.Context, storage repository.CartStorage, opts ...Option) *Store {
	s := &Store{
		storage:   storage,
		observers: make(map[int]Observer),
		log:       logger.Named("cart"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if storage == nil {
		return s
	}
	items, err := storage.Load(ctx)
	if err != nil {
		s.log.Warnw("cart_load_failed_fallback_empty", "error", err)
		return s
	}
	s.items = s.clampLoaded(items)
	return s
}

// AddItem 加入商品；相同配置的项累加数量
func (s *Store) AddItem(ctx context.Context, product models.ProductSnapshot, quantity int, options models.CartOptions) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	product.Type = normalizeType(product.Type)
	product.ID = strings.TrimSpace(product.ID)
	if product.Type == "" || product.ID == "" {
		return ErrInvalidProduct
	}
	if _, source := resolveUnitPrice(product); source == PriceSourceNone && (!product.Price.IsEmpty() || !product.PriceHD.IsEmpty()) {
		s.log.Warnw("cart_unit_price_unparsable",
			"product_id", product.ID,
			"product_type", product.Type,
			"price", string(product.Price),
			"price_hd", string(product.PriceHD),
		)
	}
	lineID := LineID(product.Type, product.ID, options)

	s.mu.Lock()
	if pos := s.indexOf(lineID); pos >= 0 {
		s.items[pos].Quantity = s.capQuantity(models.AddQuantity(s.items[pos].Quantity, quantity))
	} else {
		s.items = append(s.items, models.CartLineItem{
			ID:       lineID,
			Product:  product,
			Quantity: s.capQuantity(quantity),
			Options:  options.Clone(),
		})
	}
	return s.commitLocked(ctx)
}

// UpdateQuantity 设置数量为 max(0, n)，为 0 时移除；项不存在时不做处理
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	s.mu.Lock()
	pos := s.indexOf(lineID)
	if pos < 0 {
		s.mu.Unlock()
		return nil
	}
	if quantity <= 0 {
		s.items = append(s.items[:pos], s.items[pos+1:]...)
	} else {
		s.items[pos].Quantity = s.capQuantity(quantity)
	}
	return s.commitLocked(ctx)
}

// RemoveItem 移除购物车项；项不存在时不做处理
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	return s.UpdateQuantity(ctx, lineID, 0)
}

// Clear 清空购物车（结算完成后调用）
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	return s.commitLocked(ctx)
}

// Items 返回购物车项副本
func (s *Store) Items() []models.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Get 按 ID 获取购物车项
func (s *Store) Get(lineID string) (models.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos := s.indexOf(lineID); pos >= 0 {
		return s.items[pos].Clone(), true
	}
	return models.CartLineItem{}, false
}

// ItemCount 数量合计，每次读取时重新计算
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.items)
}

// Subtotal 小计，每次读取时重新计算
func (s *Store) Subtotal() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Subtotal(s.items)
}

// Snapshot 返回当前快照
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe 订阅变更，返回取消订阅函数
func (s *Store) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// ObserverCount 当前订阅者数量
func (s *Store) ObserverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// commitLocked 持久化当前状态并通知订阅者，调用前须持有锁，返回时已释放
func (s *Store) commitLocked(ctx context.Context) error {
	snapshot := s.snapshotLocked()
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	var err error
	if s.storage != nil {
		if saveErr := s.storage.Save(ctx, snapshot.Items); saveErr != nil {
			s.log.Errorw("cart_persist_failed", "items", len(snapshot.Items), "error", saveErr)
			err = fmt.Errorf("%w: %v", ErrPersistFailed, saveErr)
		}
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
	return err
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:     cloneItems(s.items),
		ItemCount: ItemCount(s.items),
		Subtotal:  Subtotal(s.items),
	}
}

func (s *Store) indexOf(lineID string) int {
	lineID = strings.TrimSpace(lineID)
	for i := range s.items {
		if s.items[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (s *Store) capQuantity(quantity int) int {
	if s.maxLineQuantity > 0 && quantity > s.maxLineQuantity {
		return s.maxLineQuantity
	}
	return quantity
}

// clampLoaded 对任意存储实现读出的数据重新规整，保证数量为正且不超过上限
func (s *Store) clampLoaded(items []models.CartLineItem) []models.CartLineItem {
	items = repository.NormalizeCartItems(items)
	for i := range items {
		items[i].Quantity = s.capQuantity(items[i].Quantity)
	}
	return items
}

func cloneItems(items []models.CartLineItem) []models.CartLineItem {
	out := make([]models.CartLineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
