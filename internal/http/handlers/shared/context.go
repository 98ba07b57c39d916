package shared

import (
	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCartSessionID 读取购物会话 ID，缺失时直接返回错误响应。
func GetCartSessionID(c *gin.Context) (string, bool) {
	sessionID := c.GetString(constants.CartSessionContext)
	if sessionID == "" {
		RespondError(c, response.CodeUnauthorized, "cart session missing", nil)
		return "", false
	}
	return sessionID, true
}
