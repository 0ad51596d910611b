package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminPayouts 提现请求列表
func (h *Handler) GetAdminPayouts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	affiliateID, _ := strconv.ParseUint(c.Query("affiliate_id"), 10, 64)

	payouts, total, err := h.AdminService.Payouts(repository.PayoutListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: uint(affiliateID),
		Status:      strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payouts fetch failed", err)
		return
	}

	response.SuccessWithPage(c, payouts, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAdminPayout 提现请求详情
func (h *Handler) GetAdminPayout(c *gin.Context) {
	rawID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rawID == 0 {
		respondError(c, response.CodeBadRequest, "payout id invalid", nil)
		return
	}

	payout, err := h.PayoutRepo.GetByID(uint(rawID))
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	if payout == nil {
		respondError(c, response.CodeNotFound, "payout not found", nil)
		return
	}
	response.Success(c, payout)
}

// AdvancePayoutRequest 提现状态推进请求
type AdvancePayoutRequest struct {
	Status          string `json:"status" binding:"required"`
	TransactionHash string `json:"transaction_hash"`
	Notes           string `json:"notes"`
}

// AdvanceAdminPayout 推进提现状态（pending -> processing -> completed/failed）
func (h *Handler) AdvanceAdminPayout(c *gin.Context) {
	rawID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rawID == 0 {
		respondError(c, response.CodeBadRequest, "payout id invalid", nil)
		return
	}

	var req AdvancePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	payout, err := h.AdminService.AdvancePayout(uint(rawID), service.PayoutAdvanceInput{
		Status:          req.Status,
		TransactionHash: req.TransactionHash,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			respondError(c, response.CodeBadRequest, "invalid status", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "payout not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeBadRequest, "status transition not allowed", nil)
		default:
			respondError(c, response.CodeInternal, "payout update failed", err)
		}
		return
	}

	requestLog(c).Infow("payout_advanced",
		"payout_id", payout.ID,
		"affiliate_id", payout.AffiliateID,
		"status", payout.Status,
	)
	response.Success(c, payout)
}
