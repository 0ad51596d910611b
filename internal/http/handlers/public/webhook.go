package public

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const webhookSignatureHeader = "X-Webhook-Signature"

// SignupWebhookRequest 注册事件载荷，timestamp 可选（RFC3339）
type SignupWebhookRequest struct {
	RefCode   string     `json:"ref_code"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Timestamp *time.Time `json:"timestamp"`
}

// SignupWebhook 主站注册事件回调。
// 签名覆盖原始请求体，事件无论成败都会尽力落一条 webhook 日志。
func (h *Handler) SignupWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := c.GetRawData()
	if err != nil {
		log.Warnw("signup_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	if err := h.WebhookService.VerifySignature(body, c.GetHeader(webhookSignatureHeader)); err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventSignup, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		if errors.Is(err, service.ErrWebhookSecretMissing) {
			log.Errorw("signup_webhook_secret_missing")
			respondError(c, response.CodeInternal, "webhook not configured", nil)
			return
		}
		log.Warnw("signup_webhook_signature_invalid", "client_ip", c.ClientIP())
		respondError(c, response.CodeUnauthorized, "invalid signature", nil)
		return
	}

	var req SignupWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventSignup, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}

	result, err := h.WebhookService.HandleSignup(service.SignupInput{
		RefCode:   req.RefCode,
		UserID:    req.UserID,
		Email:     req.Email,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventSignup, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "invalid payload", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "referral code not found", nil)
		case errors.Is(err, service.ErrAffiliateNotApproved):
			respondError(c, response.CodeForbidden, "affiliate not approved", nil)
		default:
			respondError(c, response.CodeInternal, "signup event failed", err)
		}
		return
	}

	h.WebhookService.LogEvent(constants.WebhookEventSignup, string(body), c.ClientIP(), constants.WebhookLogStatusProcessed, "")
	log.Infow("signup_webhook_processed",
		"referral_id", result.ReferralID,
		"affiliate_id", result.AffiliateID,
		"duplicate", result.Duplicate,
	)
	response.Success(c, gin.H{
		"referral_id":  result.ReferralID,
		"affiliate_id": result.AffiliateID,
		"duplicate":    result.Duplicate,
	})
}

// PaymentWebhookRequest 付费事件载荷，timestamp 可选（RFC3339）
type PaymentWebhookRequest struct {
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	TransactionID string          `json:"transaction_id"`
	Timestamp     *time.Time      `json:"timestamp"`
}

// PaymentWebhook 主站付费事件回调。
// 未被推荐的用户与重复付费按无佣金成功处理，保证上游可安全重放。
func (h *Handler) PaymentWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := c.GetRawData()
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	if err := h.WebhookService.VerifySignature(body, c.GetHeader(webhookSignatureHeader)); err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventPayment, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		if errors.Is(err, service.ErrWebhookSecretMissing) {
			log.Errorw("payment_webhook_secret_missing")
			respondError(c, response.CodeInternal, "webhook not configured", nil)
			return
		}
		log.Warnw("payment_webhook_signature_invalid", "client_ip", c.ClientIP())
		respondError(c, response.CodeUnauthorized, "invalid signature", nil)
		return
	}

	var req PaymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventPayment, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		respondError(c, response.CodeBadRequest, "invalid payload", err)
		return
	}

	result, err := h.WebhookService.HandlePayment(service.PaymentInput{
		UserID:        req.UserID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
		Timestamp:     req.Timestamp,
	})
	if err != nil {
		h.WebhookService.LogEvent(constants.WebhookEventPayment, string(body), c.ClientIP(), constants.WebhookLogStatusFailed, err.Error())
		switch {
		case errors.Is(err, service.ErrInvalidPayload):
			respondError(c, response.CodeBadRequest, "invalid payload", nil)
		case errors.Is(err, service.ErrAmountInvalid):
			respondError(c, response.CodeBadRequest, "invalid amount", nil)
		default:
			respondError(c, response.CodeInternal, "payment event failed", err)
		}
		return
	}

	h.WebhookService.LogEvent(constants.WebhookEventPayment, string(body), c.ClientIP(), constants.WebhookLogStatusProcessed, "")
	log.Infow("payment_webhook_processed",
		"referral_id", result.ReferralID,
		"affiliate_id", result.AffiliateID,
		"commissioned", result.Commissioned,
		"commission", result.Commission,
	)
	response.Success(c, gin.H{
		"referral_id":  result.ReferralID,
		"affiliate_id": result.AffiliateID,
		"commissioned": result.Commissioned,
		"rate_percent": result.RatePercent,
		"commission":   result.Commission,
	})
}
