package response

// 业务状态码，HTTP 状态始终为 200
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401 // 缺少购物会话
	CodeForbidden       = 403 // 图库访问被拒
	CodeNotFound        = 404
	CodeTooManyRequests = 429
	CodeInternal        = 500
	CodeBadGateway      = 502 // 支付服务异常
)
