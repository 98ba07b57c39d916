package public

import (
	"strings"

	"github.com/framestock/internal/checkout"
	"github.com/framestock/internal/constants"
	handlershared "github.com/framestock/internal/http/handlers/shared"
	"github.com/framestock/internal/http/response"
	"github.com/framestock/internal/models"

	"github.com/gin-gonic/gin"
)

// PaymentIntentRequest 发起结算请求
type PaymentIntentRequest struct {
	ShippingDetails *checkout.ShippingDetails `json:"shipping_details"`
	SaveInfo        bool                      `json:"save_info"`
}

// CompleteCheckoutRequest 支付结果回传请求
type CompleteCheckoutRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Status     string `json:"status"`
}

// CreatePaymentIntent 根据购物车创建支付意图
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	var req PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	result, err := h.CheckoutService.Begin(c.Request.Context(), sessionID, checkout.BeginInput{
		Shipping: req.ShippingDetails,
		SaveInfo: req.SaveInfo,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return
	}
	response.Success(c, result)
}

// CompleteCheckout 支付成功后清空购物车
func (h *Handler) CompleteCheckout(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	var req CompleteCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "payment reference is required", err)
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "", constants.CheckoutStatusPaid:
	case constants.CheckoutStatusPending:
		response.SuccessWithMsg(c, "payment processing", gin.H{
			"payment_ref": strings.TrimSpace(req.PaymentRef),
			"status":      constants.CheckoutStatusPending,
		})
		return
	default:
		respondError(c, response.CodeBadRequest, "payment not confirmed", nil)
		return
	}
	result, err := h.CheckoutService.Complete(c.Request.Context(), sessionID, req.PaymentRef)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout completion failed")
		return
	}
	response.Success(c, result)
}

// ListCheckoutReceipts 查询当前会话最近的结算回执
func (h *Handler) ListCheckoutReceipts(c *gin.Context) {
	sessionID, ok := getSessionID(c)
	if !ok {
		return
	}
	if h.CheckoutReceiptRepo == nil {
		response.Success(c, gin.H{"items": []models.CheckoutReceipt{}})
		return
	}
	receipts, err := h.CheckoutReceiptRepo.ListBySession(sessionID, handlershared.ParseLimit(c.Query("limit")))
	if err != nil {
		respondError(c, response.CodeInternal, "receipt query failed", err)
		return
	}
	if receipts == nil {
		receipts = []models.CheckoutReceipt{}
	}
	response.Success(c, gin.H{"items": receipts})
}
