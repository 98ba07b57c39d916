package router

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/framestock/internal/config"
	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/gallery"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"
const galleryDecisionKey = "gallery_decision"

var cartSessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Content-Type", "Accept", "Cache-Control", constants.CartSessionHeader, requestIDHeader}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")
	exposeHeader := strings.Join([]string{constants.CartSessionHeader, requestIDHeader, "Retry-After"}, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", exposeHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", c.GetString(requestIDKey),
			"session_id", c.GetString(constants.CartSessionContext),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

// CartSessionMiddleware 购物会话中间件，优先读取 Cookie，其次请求头，缺失时签发新会话
func CartSessionMiddleware(cfg config.CartConfig) gin.HandlerFunc {
	maxAge := cfg.SessionMaxAgeDay * 24 * 3600
	return func(c *gin.Context) {
		sessionID := ""
		if cookie, err := c.Cookie(constants.CartSessionCookie); err == nil {
			sessionID = strings.TrimSpace(cookie)
		}
		if !cartSessionPattern.MatchString(sessionID) {
			sessionID = strings.TrimSpace(c.GetHeader(constants.CartSessionHeader))
		}
		if !cartSessionPattern.MatchString(sessionID) {
			sessionID = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(constants.CartSessionCookie, sessionID, maxAge, "/", "", c.Request.TLS != nil, true)
		c.Writer.Header().Set(constants.CartSessionHeader, sessionID)
		c.Set(constants.CartSessionContext, sessionID)
		c.Next()
	}
}

// GalleryGateMiddleware 私享图库访问闸门；浏览器请求重定向到验证页，接口请求返回 403
func GalleryGateMiddleware(gate *gallery.Gate, gatePath string) gin.HandlerFunc {
	gatePath = strings.TrimSpace(gatePath)
	if gatePath == "" {
		gatePath = "/gallery/gate"
	}
	return func(c *gin.Context) {
		decision := gallery.DecisionNoTicket
		if gate != nil {
			decision = gate.Check(c.Request.Context(), c.GetString(constants.CartSessionContext))
		}
		c.Set(galleryDecisionKey, decision)
		if decision == gallery.DecisionAllow {
			c.Next()
			return
		}
		if wantsHTML(c) {
			c.Redirect(http.StatusFound, gatePath+"?reason="+string(decision))
			c.Abort()
			return
		}
		response.AbortWithError(c, response.CodeForbidden, "gallery access ticket required", gin.H{
			"decision":  decision,
			"gate_path": gatePath,
		})
	}
}

func wantsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html")
}
