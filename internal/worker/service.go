package worker

import (
	"context"
	"errors"

	"github.com/framestock/internal/config"
	"github.com/framestock/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// taskServer asynq.Server 的运行能力
type taskServer interface {
	Run(handler asynq.Handler) error
	Shutdown()
}

// Service 结算回执消费服务
type Service struct {
	server taskServer
	mux    *asynq.ServeMux
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	return newService(asynq.NewServer(opt, serverCfg), consumer), nil
}

func newService(server taskServer, consumer *Consumer) *Service {
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: server, mux: mux}
}

// Name 服务名称
func (s *Service) Name() string { return "worker" }

// Start 阻塞消费任务，直到 Stop 被调用
func (s *Service) Start(_ context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 等待进行中的任务完成后退出
func (s *Service) Stop(_ context.Context) error {
	if s != nil && s.server != nil {
		s.server.Shutdown()
	}
	return nil
}
