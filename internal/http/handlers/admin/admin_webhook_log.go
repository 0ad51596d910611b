package admin

import (
	"strconv"
	"strings"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetAdminWebhookLogs Webhook 事件日志列表
func (h *Handler) GetAdminWebhookLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	logs, total, err := h.AdminService.WebhookLogs(repository.WebhookLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		EventType: strings.TrimSpace(c.Query("event_type")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "webhook logs fetch failed", err)
		return
	}

	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
