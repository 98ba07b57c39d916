package public

import (
	"errors"

	"github.com/framestock/internal/cart"
	"github.com/framestock/internal/checkout"
	"github.com/framestock/internal/gallery"
	"github.com/framestock/internal/http/response"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var cartErrorRules = []mappedHandlerError{
	{target: cart.ErrSessionRequired, code: response.CodeUnauthorized, msg: "cart session missing"},
	{target: cart.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "quantity must be a positive integer"},
	{target: cart.ErrInvalidProduct, code: response.CodeBadRequest, msg: "product id and type are required"},
}

var checkoutErrorRules = concatMappedHandlerErrors(cartErrorRules, []mappedHandlerError{
	{target: checkout.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: checkout.ErrPaymentRefRequired, code: response.CodeBadRequest, msg: "payment reference is required"},
	{target: checkout.ErrConfigInvalid, code: response.CodeInternal, msg: "payment service not configured"},
	{target: checkout.ErrRequestFailed, code: response.CodeBadGateway, msg: "payment service unavailable, please retry"},
	{target: checkout.ErrResponseInvalid, code: response.CodeBadGateway, msg: "payment service returned an invalid response"},
})

var galleryErrorRules = []mappedHandlerError{
	{target: gallery.ErrSessionRequired, code: response.CodeUnauthorized, msg: "cart session missing"},
	{target: gallery.ErrTicketInvalid, code: response.CodeBadRequest, msg: "access code is required"},
	{target: gallery.ErrTicketExpired, code: response.CodeBadRequest, msg: "access ticket already expired"},
}
