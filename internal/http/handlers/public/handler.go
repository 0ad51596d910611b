package public

import "github.com/affiliate-next/internal/provider"

// Handler 公开与推广用户侧接口处理器入口
// 说明：该处理器用于公开接口、Webhook 与推广用户自助 API。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
