package public

import (
	"github.com/affiliate-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// TrackClick 推广链接点击埋点。
// 对调用方永远返回成功，无效或缺失的推广码静默丢弃。
func (h *Handler) TrackClick(c *gin.Context) {
	refCode := c.Query("ref")
	h.ClickService.TrackClick(refCode, c.ClientIP(), c.GetHeader("User-Agent"), c.GetHeader("Referer"))
	response.Success(c, gin.H{"tracked": true})
}
