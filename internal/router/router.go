package router

import (
	"fmt"

	"github.com/framestock/internal/cache"
	"github.com/framestock/internal/config"
	publichandlers "github.com/framestock/internal/http/handlers/public"
	"github.com/framestock/internal/http/response"
	"github.com/framestock/internal/logger"
	"github.com/framestock/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", cache.Prefix()),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		Message:       "too many checkout attempts, please retry later",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "up"
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				redisStatus = "down"
			}
		}
		response.Success(ctx, gin.H{
			"status":        "ok",
			"cart_storage":  c.CartStorageKind,
			"redis":         redisStatus,
			"queue_enabled": c.QueueClient.Enabled(),
		})
	})

	apiV1 := r.Group("/api/v1")
	apiV1.Use(CartSessionMiddleware(cfg.Cart))
	{
		cartGroup := apiV1.Group("/cart")
		{
			cartGroup.GET("", publicHandler.GetCart)
			cartGroup.GET("/count", publicHandler.GetCartCount)
			cartGroup.GET("/events", publicHandler.StreamCartEvents)
			cartGroup.POST("/items", publicHandler.AddCartItem)
			cartGroup.PUT("/items/:line_id", publicHandler.UpdateCartItem)
			cartGroup.DELETE("/items/:line_id", publicHandler.RemoveCartItem)
			cartGroup.DELETE("", publicHandler.ClearCart)
		}

		checkoutGroup := apiV1.Group("/checkout")
		{
			checkoutGroup.POST("/payment-intent", RateLimitMiddleware(cache.Client(), checkoutRule, KeyByCartSession), publicHandler.CreatePaymentIntent)
			checkoutGroup.POST("/complete", publicHandler.CompleteCheckout)
			checkoutGroup.GET("/receipts", publicHandler.ListCheckoutReceipts)
		}

		galleryGroup := apiV1.Group("/gallery")
		{
			galleryGroup.GET("/access", publicHandler.GetGalleryAccess)
			galleryGroup.POST("/access", publicHandler.StoreGalleryAccess)
			galleryGroup.DELETE("/access", publicHandler.ClearGalleryAccess)

			gated := galleryGroup.Group("")
			gated.Use(GalleryGateMiddleware(c.GalleryGate, cfg.Gallery.GatePath))
			{
				gated.GET("/items", publicHandler.ListGalleryItems)
			}
		}
	}

	return r
}
