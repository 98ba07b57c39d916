package gallery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/repository"

	"go.uber.org/zap"
)

// Decision 访问判定结果
type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionNoTicket Decision = "no_ticket"
	DecisionExpired  Decision = "expired"
)

var (
	ErrTicketInvalid   = errors.New("gallery ticket code is required")
	ErrTicketExpired   = errors.New("gallery ticket already expired")
	ErrSessionRequired = errors.New("gallery session id is required")
)

// Gate 私享图库访问闸门
type Gate struct {
	storage repository.TicketStorage
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewGate 创建访问闸门
func NewGate(storage repository.TicketStorage) *Gate {
	if storage == nil {
		storage = repository.NewMemoryTicketStorage()
	}
	return &Gate{
		storage: storage,
		now:     time.Now,
		log:     logger.Named("gallery"),
	}
}

// WithClock 替换时间来源
func (g *Gate) WithClock(now func() time.Time) *Gate {
	if now != nil {
		g.now = now
	}
	return g
}

// Check 判定会话是否可以进入图库，过期凭证会先被清除
func (g *Gate) Check(ctx context.Context, sessionID string) Decision {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return DecisionNoTicket
	}
	ticket, err := g.storage.Get(ctx, sessionID)
	if err != nil {
		g.log.Warnw("gallery_ticket_load_failed", "session_id", sessionID, "error", err)
		return DecisionNoTicket
	}
	if ticket == nil || strings.TrimSpace(ticket.Code) == "" {
		return DecisionNoTicket
	}
	if ticket.Expired(g.now()) {
		if err := g.storage.Delete(ctx, sessionID); err != nil {
			g.log.Warnw("gallery_ticket_clear_failed", "session_id", sessionID, "error", err)
		}
		return DecisionExpired
	}
	return DecisionAllow
}

// Store 记录已签发的凭证
func (g *Gate) Store(ctx context.Context, sessionID string, ticket Ticket) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrSessionRequired
	}
	code := strings.TrimSpace(ticket.Code)
	if code == "" {
		return ErrTicketInvalid
	}
	if !g.now().Before(ticket.ExpiresAt) {
		return ErrTicketExpired
	}
	return g.storage.Put(ctx, &models.GalleryTicket{
		SessionID: sessionID,
		Code:      code,
		ExpiresAt: ticket.ExpiresAt,
	})
}

// Clear 清除会话凭证
func (g *Gate) Clear(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	return g.storage.Delete(ctx, sessionID)
}

// Current 返回会话当前凭证，不存在或已过期时返回 nil
func (g *Gate) Current(ctx context.Context, sessionID string) (*Ticket, error) {
	ticket, err := g.storage.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil || ticket == nil || ticket.Expired(g.now()) {
		return nil, err
	}
	return &Ticket{Code: ticket.Code, ExpiresAt: ticket.ExpiresAt}, nil
}
