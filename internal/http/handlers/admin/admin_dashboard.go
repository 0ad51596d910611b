package admin

import (
	"github.com/affiliate-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboard 管理端仪表盘（全局统计、收入趋势与推广排行榜）
func (h *Handler) GetDashboard(c *gin.Context) {
	dashboard, err := h.AdminService.Dashboard()
	if err != nil {
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}
	response.Success(c, dashboard)
}
