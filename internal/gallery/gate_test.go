package gallery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/framestock/internal/models"
	"github.com/framestock/internal/repository"
)

type brokenTicketStorage struct{}

func (brokenTicketStorage) Get(context.Context, string) (*models.GalleryTicket, error) {
	return nil, errors.New("storage down")
}
func (brokenTicketStorage) Put(context.Context, *models.GalleryTicket) error { return nil }
func (brokenTicketStorage) Delete(context.Context, string) error             { return nil }

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestGateNoTicket(t *testing.T) {
	gate := NewGate(repository.NewMemoryTicketStorage())
	if got := gate.Check(context.Background(), "s1"); got != DecisionNoTicket {
		t.Fatalf("want no_ticket got %s", got)
	}
	if got := gate.Check(context.Background(), ""); got != DecisionNoTicket {
		t.Fatalf("blank session want no_ticket got %s", got)
	}
}

func TestGateAllowsValidTicket(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	gate := NewGate(repository.NewMemoryTicketStorage()).WithClock(fixedClock(now))
	if err := gate.Store(ctx, "s1", Ticket{Code: "X9", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if got := gate.Check(ctx, "s1"); got != DecisionAllow {
		t.Fatalf("want allow got %s", got)
	}
	current, err := gate.Current(ctx, "s1")
	if err != nil || current == nil || current.Code != "X9" {
		t.Fatalf("unexpected current ticket: %v %v", current, err)
	}
}

func TestGateExpiredTicketIsClearedOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	storage := repository.NewMemoryTicketStorage()
	gate := NewGate(storage).WithClock(fixedClock(now))
	if err := gate.Store(ctx, "s1", Ticket{Code: "X9", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	gate.WithClock(fixedClock(now.Add(time.Minute)))
	if got := gate.Check(ctx, "s1"); got != DecisionExpired {
		t.Fatalf("want expired got %s", got)
	}
	if ticket, _ := storage.Get(ctx, "s1"); ticket != nil {
		t.Fatalf("expired ticket should be cleared")
	}
	if got := gate.Check(ctx, "s1"); got != DecisionNoTicket {
		t.Fatalf("second check want no_ticket got %s", got)
	}
}

func TestGateStoreValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	gate := NewGate(nil).WithClock(fixedClock(now))
	if err := gate.Store(ctx, "s1", Ticket{Code: "  ", ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrTicketInvalid) {
		t.Fatalf("want ErrTicketInvalid got %v", err)
	}
	if err := gate.Store(ctx, "s1", Ticket{Code: "X9", ExpiresAt: now}); !errors.Is(err, ErrTicketExpired) {
		t.Fatalf("want ErrTicketExpired got %v", err)
	}
	if err := gate.Store(ctx, "", Ticket{Code: "X9", ExpiresAt: now.Add(time.Hour)}); !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("want ErrSessionRequired got %v", err)
	}
}

func TestGateStorageErrorDenies(t *testing.T) {
	gate := NewGate(brokenTicketStorage{})
	if got := gate.Check(context.Background(), "s1"); got != DecisionNoTicket {
		t.Fatalf("want no_ticket got %s", got)
	}
}
