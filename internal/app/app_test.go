package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/framestock/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool

	mu      sync.Mutex
	stopped bool
	order   *[]string
	release chan struct{}
}

func newFakeService(name string, order *[]string) *fakeService {
	return &fakeService{name: name, order: order, release: make(chan struct{})}
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if !s.block {
		return s.startErr
	}
	select {
	case <-ctx.Done():
	case <-s.release:
	}
	return nil
}

func (s *fakeService) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return nil
}

func (s *fakeService) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	var order []string
	failing := newFakeService("failing", &order)
	failing.startErr = errors.New("boom")
	blocking := newFakeService("blocking", &order)
	blocking.block = true

	runner := NewRunner(blocking, failing)
	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
	if !failing.wasStopped() || !blocking.wasStopped() {
		t.Fatalf("expected all services stopped")
	}
	if len(order) != 2 || order[0] != "failing" || order[1] != "blocking" {
		t.Fatalf("expected reverse stop order, got %v", order)
	}
}

func TestRunnerReturnsNilOnContextCancel(t *testing.T) {
	svc := newFakeService("blocking", nil)
	svc.block = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(svc).Run(ctx, time.Second, nil)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop after cancel")
	}
	if !svc.wasStopped() {
		t.Fatalf("expected service stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if names := NewRunner(nil, newFakeService("http", nil)).Services(); len(names) != 1 || names[0] != "http" {
		t.Fatalf("unexpected services: %v", names)
	}
}

func TestBuildRunnerRejectsInvalidMode(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := &config.Config{}
	if _, err := BuildRunner(cfg, "cron"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := BuildRunner(cfg, ModeWorker); !errors.Is(err, ErrQueueRequired) {
		t.Fatalf("expected ErrQueueRequired, got %v", err)
	}
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll {
		t.Fatalf("expected default mode all, got %q", opts.Mode)
	}
	if opts.ShutdownTimeout != defaultShutdownTimeout {
		t.Fatalf("unexpected shutdown timeout: %v", opts.ShutdownTimeout)
	}
	if opts.Logger == nil {
		t.Fatalf("expected default logger")
	}
}
