package public

import (
	"errors"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateRegisterRequest 推广用户注册请求
type AffiliateRegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AffiliateRegister 推广用户注册，注册后等待管理员审核
func (h *Handler) AffiliateRegister(c *gin.Context) {
	var req AffiliateRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	affiliate, err := h.AuthService.RegisterAffiliate(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, response.CodeConflict, "email already registered", nil)
		default:
			respondError(c, response.CodeInternal, "register failed", err)
		}
		return
	}

	requestLog(c).Infow("affiliate_registered",
		"affiliate_id", affiliate.ID,
		"email", affiliate.Email,
	)
	response.Success(c, affiliateProfileResponse(affiliate))
}

// AffiliateLoginRequest 推广用户登录请求
type AffiliateLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AffiliateLogin 推广用户登录
func (h *Handler) AffiliateLogin(c *gin.Context) {
	var req AffiliateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	affiliate, token, expiresAt, err := h.AuthService.AffiliateLogin(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
		case errors.Is(err, service.ErrAffiliateNotApproved):
			respondError(c, response.CodeForbidden, "account pending approval", nil)
		case errors.Is(err, service.ErrAffiliateSuspended):
			respondError(c, response.CodeForbidden, "account suspended", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"affiliate":  affiliateProfileResponse(affiliate),
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func affiliateProfileResponse(affiliate *models.Affiliate) gin.H {
	if affiliate == nil {
		return gin.H{}
	}
	return gin.H{
		"id":              affiliate.ID,
		"name":            affiliate.Name,
		"email":           affiliate.Email,
		"referral_code":   affiliate.ReferralCode,
		"wallet_address":  affiliate.WalletAddress,
		"status":          affiliate.Status,
		"total_referrals": affiliate.TotalReferrals,
		"last_login_at":   affiliate.LastLoginAt,
		"created_at":      affiliate.CreatedAt,
	}
}
