package shared

import (
	"github.com/framestock/internal/http/response"
	"github.com/framestock/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(response.RequestIDKey); id != "" {
		return logger.SW(response.RequestIDKey, id)
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
// err 链中已带 AppError 时以其业务码与消息为准。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr, ok := response.AsAppError(err)
	if !ok {
		appErr = response.WrapError(code, msg, err)
	}
	if err != nil {
		log := RequestLog(c)
		if code >= response.CodeInternal {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Warnw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
