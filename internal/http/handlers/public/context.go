package public

import (
	"github.com/framestock/internal/cart"
	handlershared "github.com/framestock/internal/http/handlers/shared"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func getSessionID(c *gin.Context) (string, bool) {
	return handlershared.GetCartSessionID(c)
}

// sessionCart 租用当前会话的购物车，ok 为 true 时调用方须 defer release()
func (h *Handler) sessionCart(c *gin.Context) (store *cart.Store, sessionID string, release func(), ok bool) {
	sessionID, ok = getSessionID(c)
	if !ok {
		return nil, "", nil, false
	}
	store, release, err := h.CartManager.Acquire(c.Request.Context(), sessionID)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart unavailable")
		return nil, "", nil, false
	}
	return store, sessionID, release, true
}
