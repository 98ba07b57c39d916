package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/provider"
	"github.com/framestock/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCheckoutReceipt, c.handleCheckoutReceipt)
}

func (c *Consumer) handleCheckoutReceipt(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_checkout_receipt_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCheckoutReceiptPayload(task)
	if err != nil {
		logger.Warnw("worker_checkout_receipt_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	receipt := buildCheckoutReceipt(payload)
	if receipt == nil {
		logger.Debugw("worker_checkout_receipt_skip_invalid_payload", "session_id", payload.SessionID, "payment_ref", payload.PaymentRef)
		return nil
	}
	if c.Container == nil || c.CheckoutReceiptRepo == nil {
		logger.Warnw("worker_checkout_receipt_repo_missing", "payment_ref", receipt.PaymentRef)
		return errors.New("checkout receipt repository not initialized")
	}
	if err := c.CheckoutReceiptRepo.Create(receipt); err != nil {
		logger.Warnw("worker_checkout_receipt_create_failed", "payment_ref", receipt.PaymentRef, "error", err)
		return err
	}
	logger.Infow("worker_checkout_receipt_saved",
		"session_id", receipt.SessionID,
		"payment_ref", receipt.PaymentRef,
		"item_count", receipt.ItemCount,
		"subtotal", receipt.Subtotal.String(),
	)
	return nil
}

func buildCheckoutReceipt(payload queue.CheckoutReceiptPayload) *models.CheckoutReceipt {
	paymentRef := strings.TrimSpace(payload.PaymentRef)
	sessionID := strings.TrimSpace(payload.SessionID)
	if paymentRef == "" || sessionID == "" {
		return nil
	}
	lines := make(models.ReceiptLines, 0, len(payload.Lines))
	itemCount := 0
	subtotal := models.ZeroMoney()
	for _, line := range payload.Lines {
		if line.Quantity <= 0 {
			continue
		}
		lines = append(lines, line)
		itemCount += line.Quantity
		subtotal = subtotal.Add(line.UnitPrice.MulInt(line.Quantity))
	}
	if payload.ItemCount > 0 && payload.ItemCount != itemCount {
		logger.Warnw("worker_checkout_receipt_count_mismatch", "payment_ref", paymentRef, "payload_count", payload.ItemCount, "line_count", itemCount)
	}
	if !payload.Subtotal.IsZero() && !payload.Subtotal.Rounded().Equal(subtotal.Rounded()) {
		logger.Warnw("worker_checkout_receipt_subtotal_mismatch", "payment_ref", paymentRef, "payload_subtotal", payload.Subtotal.String(), "line_subtotal", subtotal.String())
	}
	return &models.CheckoutReceipt{
		SessionID:  sessionID,
		PaymentRef: paymentRef,
		ItemCount:  itemCount,
		Subtotal:   subtotal,
		Lines:      lines,
		PaidAt:     payload.PaidAt,
	}
}
