package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/framestock/internal/config"
	"github.com/framestock/internal/queue"

	"github.com/hibiken/asynq"
)

type fakeTaskServer struct {
	handler  asynq.Handler
	shutdown bool
}

func (f *fakeTaskServer) Run(handler asynq.Handler) error {
	f.handler = handler
	return nil
}

func (f *fakeTaskServer) Shutdown() { f.shutdown = true }

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, NewConsumer(nil)); !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("expected ErrQueueDisabled, got %v", err)
	}
	if _, err := NewService(&config.QueueConfig{Enabled: true}, nil); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}

func TestServiceRegistersReceiptHandler(t *testing.T) {
	server := &fakeTaskServer{}
	svc := newService(server, NewConsumer(nil))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mux, ok := server.handler.(*asynq.ServeMux)
	if !ok {
		t.Fatalf("expected serve mux handler, got %T", server.handler)
	}
	if _, pattern := mux.Handler(asynq.NewTask(queue.TaskCheckoutReceipt, nil)); pattern != queue.TaskCheckoutReceipt {
		t.Fatalf("receipt handler not registered, pattern=%q", pattern)
	}
	if err := svc.Stop(context.Background()); err != nil || !server.shutdown {
		t.Fatalf("stop should shut the server down")
	}
}
