package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/framestock/internal/cart"
	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/queue"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrPaymentRefRequired = errors.New("payment reference is required")
)

// IntentCreator 支付意图创建方
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, payload PaymentIntentRequest) (string, error)
}

// ReceiptEnqueuer 结算回执投递方
type ReceiptEnqueuer interface {
	Enabled() bool
	EnqueueCheckoutReceipt(payload queue.CheckoutReceiptPayload, opts ...asynq.Option) error
}

// BeginInput 发起结算参数
type BeginInput struct {
	Shipping *ShippingDetails
	SaveInfo bool
}

// BeginResult 发起结算结果
type BeginResult struct {
	ClientSecret string       `json:"client_secret"`
	ItemCount    int          `json:"item_count"`
	Subtotal     models.Money `json:"subtotal"`
}

// CompleteResult 完成结算结果
type CompleteResult struct {
	PaymentRef    string       `json:"payment_ref"`
	ItemCount     int          `json:"item_count"`
	Subtotal      models.Money `json:"subtotal"`
	ReceiptQueued bool         `json:"receipt_queued"`
}

// Service 结算服务，读取会话购物车并对接远端支付意图接口
type Service struct {
	carts   *cart.Manager
	intents IntentCreator
	queue   ReceiptEnqueuer
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewService 创建结算服务
func NewService(carts *cart.Manager, intents IntentCreator, receipts ReceiptEnqueuer) *Service {
	return &Service{
		carts:   carts,
		intents: intents,
		queue:   receipts,
		now:     time.Now,
		log:     logger.Named("checkout"),
	}
}

// Begin 发起结算，空购物车直接拒绝
func (s *Service) Begin(ctx context.Context, sessionID string, input BeginInput) (*BeginResult, error) {
	store, release, err := s.carts.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot := store.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrCartEmpty
	}
	payload := BuildPaymentIntentRequest(snapshot.Items, input.Shipping, input.SaveInfo)
	secret, err := s.intents.CreatePaymentIntent(ctx, payload)
	if err != nil {
		s.log.Warnw("checkout_payment_intent_failed", "session_id", sessionID, "item_count", snapshot.ItemCount, "error", err)
		return nil, err
	}
	s.log.Infow("checkout_payment_intent_created", "session_id", sessionID, "item_count", snapshot.ItemCount, "subtotal", snapshot.Subtotal.String())
	return &BeginResult{
		ClientSecret: secret,
		ItemCount:    snapshot.ItemCount,
		Subtotal:     snapshot.Subtotal,
	}, nil
}

// Complete 支付确认后清空购物车并投递回执任务
// 会话实例保持驻留，已打开的 SSE 订阅可收到清空事件及之后的变更。
func (s *Service) Complete(ctx context.Context, sessionID, paymentRef string) (*CompleteResult, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, ErrPaymentRefRequired
	}
	store, release, err := s.carts.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()
	snapshot := store.Snapshot()
	result := &CompleteResult{
		PaymentRef: paymentRef,
		ItemCount:  snapshot.ItemCount,
		Subtotal:   snapshot.Subtotal,
	}

	if len(snapshot.Items) > 0 && s.queue != nil && s.queue.Enabled() {
		payload := queue.CheckoutReceiptPayload{
			SessionID:  sessionID,
			PaymentRef: paymentRef,
			ItemCount:  snapshot.ItemCount,
			Subtotal:   snapshot.Subtotal,
			Lines:      buildReceiptLines(snapshot.Items),
			PaidAt:     s.now(),
		}
		if err := s.queue.EnqueueCheckoutReceipt(payload); err != nil {
			s.log.Warnw("checkout_receipt_enqueue_failed", "session_id", sessionID, "payment_ref", paymentRef, "error", err)
		} else {
			result.ReceiptQueued = true
		}
	}

	if err := store.Clear(ctx); err != nil {
		return result, fmt.Errorf("clear cart after checkout: %w", err)
	}
	s.log.Infow("checkout_completed", "session_id", sessionID, "payment_ref", paymentRef, "item_count", result.ItemCount, "receipt_queued", result.ReceiptQueued)
	return result, nil
}

func buildReceiptLines(items []models.CartLineItem) []models.ReceiptLine {
	lines := make([]models.ReceiptLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.ReceiptLine{
			LineID:      item.ID,
			ProductID:   item.Product.ID,
			ProductType: item.Product.Type,
			Title:       item.Product.Title,
			Quantity:    item.Quantity,
			UnitPrice:   cart.UnitPrice(item.Product),
		})
	}
	return lines
}
