package queue

import (
	"encoding/json"
	"time"

	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskCheckoutReceipt 结算回执写入任务
	TaskCheckoutReceipt = constants.TaskCheckoutReceipt
)

// CheckoutReceiptPayload 结算回执任务载荷
type CheckoutReceiptPayload struct {
	SessionID  string               `json:"session_id"`
	PaymentRef string               `json:"payment_ref"`
	ItemCount  int                  `json:"item_count"`
	Subtotal   models.Money         `json:"subtotal"`
	Lines      []models.ReceiptLine `json:"lines"`
	PaidAt     time.Time            `json:"paid_at"`
}

// NewCheckoutReceiptTask 创建结算回执任务
func NewCheckoutReceiptTask(payload CheckoutReceiptPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutReceipt, body), nil
}

// ParseCheckoutReceiptPayload 解析结算回执任务载荷
func ParseCheckoutReceiptPayload(task *asynq.Task) (CheckoutReceiptPayload, error) {
	var payload CheckoutReceiptPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
