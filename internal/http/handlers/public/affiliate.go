package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/affiliate-next/internal/http/handlers/shared"
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetAffiliateDashboard 推广用户仪表盘
func (h *Handler) GetAffiliateDashboard(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	dashboard, err := h.AffiliateService.Dashboard(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}
	response.Success(c, dashboard)
}

// GetAffiliateEarnings 推广用户收益汇总
func (h *Handler) GetAffiliateEarnings(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	earnings, err := h.AffiliateService.Earnings(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "earnings fetch failed", err)
		return
	}
	response.Success(c, earnings)
}

// GetAffiliateReferrals 推广用户的推荐记录列表
func (h *Handler) GetAffiliateReferrals(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	referrals, total, err := h.AffiliateService.Referrals(id, status, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "referrals fetch failed", err)
		return
	}

	response.SuccessWithPage(c, referrals, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAffiliateLink 推广链接
func (h *Handler) GetAffiliateLink(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	code, link, err := h.AffiliateService.Link(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "link fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"referral_code": code,
		"referral_link": link,
	})
}

// AffiliatePayoutRequest 提现申请请求
type AffiliatePayoutRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RequestAffiliatePayout 申请提现，余额不足时返回当前可提现余额
func (h *Handler) RequestAffiliatePayout(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	var req AffiliatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	payout, available, err := h.AffiliateService.RequestPayout(id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmountInvalid):
			respondError(c, response.CodeBadRequest, "invalid amount", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		case errors.Is(err, service.ErrWalletRequired):
			respondError(c, response.CodeBadRequest, "wallet address required", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondErrorWithData(c, response.CodeBadRequest, "insufficient balance", gin.H{
				"available_balance": available,
			}, nil)
		default:
			respondError(c, response.CodeInternal, "payout request failed", err)
		}
		return
	}

	requestLog(c).Infow("payout_requested",
		"affiliate_id", id,
		"payout_id", payout.ID,
		"amount", payout.Amount,
	)
	response.Success(c, gin.H{
		"payout":            payout,
		"available_balance": available,
	})
}

// GetAffiliatePayouts 推广用户提现记录列表
func (h *Handler) GetAffiliatePayouts(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	payouts, total, err := h.AffiliateService.Payouts(id, page, pageSize)
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

// GetAffiliateProfile 当前推广用户资料
func (h *Handler) GetAffiliateProfile(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	affiliate, err := h.AffiliateRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}
	if affiliate == nil {
		respondError(c, response.CodeNotFound, "affiliate not found", nil)
		return
	}
	response.Success(c, affiliateProfileResponse(affiliate))
}

// AffiliateProfileUpdateRequest 资料更新请求，空字段保持不变
type AffiliateProfileUpdateRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	WalletAddress   *string `json:"wallet_address"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// UpdateAffiliateProfile 更新推广用户资料
func (h *Handler) UpdateAffiliateProfile(c *gin.Context) {
	id, ok := getAffiliateID(c)
	if !ok {
		return
	}

	var req AffiliateProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	affiliate, err := h.AffiliateService.UpdateProfile(id, service.ProfileUpdateInput{
		Name:            req.Name,
		Email:           req.Email,
		WalletAddress:   req.WalletAddress,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "affiliate not found", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, response.CodeConflict, "email already registered", nil)
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, "current password incorrect", nil)
		default:
			respondError(c, response.CodeInternal, "profile update failed", err)
		}
		return
	}
	response.Success(c, affiliateProfileResponse(affiliate))
}
