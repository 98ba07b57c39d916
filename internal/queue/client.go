package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/framestock/internal/config"
	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultMaxRetry      = 5
	defaultConcurrency   = 10
	maxRetryDelay        = 5 * time.Minute
	receiptTaskRetention = 24 * time.Hour
)

// taskEnqueuer asynq.Client 的入队能力
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client 队列客户端封装，未启用时所有入队操作为空操作
type Client struct {
	enqueuer taskEnqueuer
	queue    string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{queue: DefaultQueue}, nil
	}
	return &Client{enqueuer: asynq.NewClient(buildRedisOpt(cfg)), queue: DefaultQueue}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enqueuer != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.enqueuer.Close()
}

// EnqueueCheckoutReceipt 推送结算回执任务，同一支付引用只入队一次
func (c *Client) EnqueueCheckoutReceipt(payload CheckoutReceiptPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCheckoutReceiptTask(payload)
	if err != nil {
		return err
	}
	options := []asynq.Option{asynq.Queue(c.queue), asynq.MaxRetry(defaultMaxRetry)}
	if ref := strings.TrimSpace(payload.PaymentRef); ref != "" {
		options = append(options, asynq.TaskID(receiptTaskID(ref)), asynq.Retention(receiptTaskRetention))
	}
	options = append(options, opts...)
	if _, err := c.enqueuer.Enqueue(task, options...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue %s failed: %w", TaskCheckoutReceipt, err)
	}
	return nil
}

func receiptTaskID(paymentRef string) string {
	return TaskCheckoutReceipt + ":" + paymentRef
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return buildRedisOpt(cfg), asynq.Config{
		Concurrency:    concurrency,
		Queues:         queues,
		RetryDelayFunc: retryDelay,
		ErrorHandler:   asynq.ErrorHandlerFunc(logTaskError),
	}
}

// retryDelay 指数退避，上限 maxRetryDelay
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 8 {
		return maxRetryDelay
	}
	delay := time.Duration(1<<uint(n)) * time.Second
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.Warnw("queue_task_failed",
		"task", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host, port := "127.0.0.1", 6379
	opt := asynq.RedisClientOpt{}
	if cfg != nil {
		if h := strings.TrimSpace(cfg.Host); h != "" {
			host = h
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opt.Password = cfg.Password
		opt.DB = cfg.DB
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	return opt
}
