package provider

import (
	"strings"
	"time"

	"github.com/framestock/internal/cache"
	"github.com/framestock/internal/cart"
	"github.com/framestock/internal/checkout"
	"github.com/framestock/internal/config"
	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/gallery"
	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/queue"
	"github.com/framestock/internal/repository"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	CartStorageKind     string
	CartManager         *cart.Manager
	TicketStorage       repository.TicketStorage
	CheckoutReceiptRepo repository.CheckoutReceiptRepository

	// Services
	GalleryGate     *gallery.Gate
	PaymentClient   *checkout.Client
	CheckoutService *checkout.Service
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(models.DB)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	factory, kind := BuildCartStorageFactory(&c.Config.Cart, db)
	opts := []cart.Option{cart.WithMaxLineQuantity(c.Config.Cart.MaxLineQuantity)}
	c.CartStorageKind = kind
	idleTTL := time.Duration(c.Config.Cart.IdleTTLMinutes) * time.Minute
	c.CartManager = cart.NewManager(factory, opts...).WithLimits(idleTTL, c.Config.Cart.MaxResident)
	c.TicketStorage = BuildTicketStorage(&c.Config.Gallery, db)
	if db != nil {
		c.CheckoutReceiptRepo = repository.NewCheckoutReceiptRepository(db)
	}
}

func (c *Container) initServices() {
	c.GalleryGate = gallery.NewGate(c.TicketStorage)
	c.PaymentClient = checkout.NewClient(&c.Config.Checkout)
	c.CheckoutService = checkout.NewService(c.CartManager, c.PaymentClient, c.QueueClient)
}

// BuildCartStorageFactory 按配置选择购物车存储，所选后端不可用时回退到内存
func BuildCartStorageFactory(cfg *config.CartConfig, db *gorm.DB) (cart.StorageFactory, string) {
	namespace := strings.TrimSpace(cfg.Namespace)
	kind := normalizeStorageKind(cfg.Storage)
	switch kind {
	case constants.CartStorageDatabase:
		if db == nil {
			logger.Warnw("provider_cart_storage_fallback", "storage", kind, "reason", "database not initialized")
			break
		}
		return func(sessionID string) repository.CartStorage {
			return repository.NewGormCartStorage(db, repository.NamespaceKey(namespace, sessionID))
		}, kind
	case constants.CartStorageRedis:
		if !cache.Enabled() {
			logger.Warnw("provider_cart_storage_fallback", "storage", kind, "reason", "redis disabled")
			break
		}
		ttl := time.Duration(cfg.RedisTTLHours) * time.Hour
		return func(sessionID string) repository.CartStorage {
			return repository.NewRedisCartStorage(repository.NamespaceKey(namespace, sessionID), ttl)
		}, kind
	case constants.CartStorageFile:
		dir := strings.TrimSpace(cfg.FileDir)
		if dir == "" {
			logger.Warnw("provider_cart_storage_fallback", "storage", kind, "reason", "file_dir empty")
			break
		}
		return func(sessionID string) repository.CartStorage {
			return repository.NewFileCartStorage(dir, repository.NamespaceKey(namespace, sessionID))
		}, kind
	}

	blobs := repository.NewMemoryBlobs()
	return func(sessionID string) repository.CartStorage {
		return repository.NewMemoryCartStorage(blobs, repository.NamespaceKey(namespace, sessionID))
	}, constants.CartStorageMemory
}

// BuildTicketStorage 按配置选择图库凭证存储
func BuildTicketStorage(cfg *config.GalleryConfig, db *gorm.DB) repository.TicketStorage {
	switch normalizeStorageKind(cfg.Storage) {
	case constants.CartStorageDatabase:
		if db != nil {
			return repository.NewGormTicketStorage(db)
		}
		logger.Warnw("provider_ticket_storage_fallback", "storage", constants.CartStorageDatabase, "reason", "database not initialized")
	case constants.CartStorageRedis:
		if cache.Enabled() {
			return repository.NewRedisTicketStorage("")
		}
		logger.Warnw("provider_ticket_storage_fallback", "storage", constants.CartStorageRedis, "reason", "redis disabled")
	}
	return repository.NewMemoryTicketStorage()
}

func normalizeStorageKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
