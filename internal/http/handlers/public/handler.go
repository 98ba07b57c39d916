package public

import "github.com/framestock/internal/provider"

// Handler 前台接口处理器入口
// 说明：购物车、结算与图库访问均以购物会话为边界。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
