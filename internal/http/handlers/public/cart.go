package public

import (
	"errors"
	"io"
	"time"

	"github.com/framestock/internal/cart"
	"github.com/framestock/internal/http/response"
	"github.com/framestock/internal/models"

	"github.com/gin-gonic/gin"
)

const cartEventsHeartbeat = 25 * time.Second

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	Product  models.ProductSnapshot `json:"product"`
	Quantity *int                   `json:"quantity"`
	Options  models.CartOptions     `json:"options"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartView 购物车响应
type CartView struct {
	cart.Snapshot
	Persisted bool `json:"persisted"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	response.Success(c, CartView{Snapshot: store.Snapshot(), Persisted: true})
}

// GetCartCount 获取购物车件数（导航栏角标）
func (h *Handler) GetCartCount(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	response.Success(c, gin.H{"item_count": store.ItemCount()})
}

// AddCartItem 加入购物车，相同配置累加数量
func (h *Handler) AddCartItem(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	h.respondMutation(c, store, store.AddItem(c.Request.Context(), req.Product, quantity, req.Options))
}

// UpdateCartItem 修改购物车项数量，小于等于 0 时移除
func (h *Handler) UpdateCartItem(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "quantity must be a number", err)
		return
	}
	h.respondMutation(c, store, store.UpdateQuantity(c.Request.Context(), c.Param("line_id"), *req.Quantity))
}

// RemoveCartItem 移除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	h.respondMutation(c, store, store.RemoveItem(c.Request.Context(), c.Param("line_id")))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	store, _, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	h.respondMutation(c, store, store.Clear(c.Request.Context()))
}

// StreamCartEvents 以 SSE 推送购物车快照
func (h *Handler) StreamCartEvents(c *gin.Context) {
	store, sessionID, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()
	events := make(chan cart.Snapshot, 8)
	unsubscribe := store.Subscribe(func(snapshot cart.Snapshot) {
		select {
		case events <- snapshot:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(cartEventsHeartbeat)
	defer heartbeat.Stop()
	ctx := c.Request.Context()

	c.SSEvent("snapshot", store.Snapshot())
	c.Writer.Flush()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot := <-events:
			c.SSEvent("snapshot", snapshot)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().Unix()})
			return true
		}
	})
	requestLog(c).Debugw("cart_events_closed", "session_id", sessionID)
}

// respondMutation 写入失败时内存状态仍然生效，响应中标记 persisted=false
func (h *Handler) respondMutation(c *gin.Context, store *cart.Store, err error) {
	if err != nil && !errors.Is(err, cart.ErrPersistFailed) {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	view := CartView{Snapshot: store.Snapshot(), Persisted: err == nil}
	if err != nil {
		requestLog(c).Warnw("cart_mutation_not_persisted", "error", err)
		response.SuccessWithMsg(c, "cart updated but not saved", view)
		return
	}
	response.Success(c, view)
}
