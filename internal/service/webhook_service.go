package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WebhookService Webhook 事件处理服务
type WebhookService struct {
	cfg            *config.Config
	affiliateRepo  repository.AffiliateRepository
	referralRepo   repository.ReferralRepository
	webhookLogRepo repository.WebhookLogRepository
}

// NewWebhookService 创建 Webhook 服务实例
func NewWebhookService(
	cfg *config.Config,
	affiliateRepo repository.AffiliateRepository,
	referralRepo repository.ReferralRepository,
	webhookLogRepo repository.WebhookLogRepository,
) *WebhookService {
	return &WebhookService{
		cfg:            cfg,
		affiliateRepo:  affiliateRepo,
		referralRepo:   referralRepo,
		webhookLogRepo: webhookLogRepo,
	}
}

// VerifySignature 校验请求体的 HMAC-SHA256 签名（十六进制、恒定时间比较）
func (s *WebhookService) VerifySignature(body []byte, signature string) error {
	secret := strings.TrimSpace(s.cfg.Webhook.Secret)
	if secret == "" {
		return ErrWebhookSecretMissing
	}
	provided := strings.TrimSpace(signature)
	if provided == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(provided))) {
		return ErrInvalidSignature
	}
	return nil
}

// LogEvent 记录 Webhook 事件，写入失败只打日志不影响主流程
func (s *WebhookService) LogEvent(eventType, payload, ip, status, errorMessage string) {
	entry := &models.WebhookLog{
		EventType:    eventType,
		Payload:      payload,
		IPAddress:    ip,
		Status:       status,
		ErrorMessage: errorMessage,
	}
	if err := s.webhookLogRepo.Create(entry); err != nil {
		logger.Warnw("webhook_log_write_failed",
			"event_type", eventType,
			"error", err,
		)
	}
}

// SignupInput 注册事件入参。
// Timestamp 为上游事件发生时间，缺省时用接收时间。
type SignupInput struct {
	RefCode   string
	UserID    string
	Email     string
	Timestamp *time.Time
}

// SignupResult 注册事件处理结果
type SignupResult struct {
	Duplicate   bool
	ReferralID  uint
	AffiliateID uint
}

// HandleSignup 处理注册事件。
// referred_user_id 上的唯一索引保证并发重复注册只落一条记录。
func (s *WebhookService) HandleSignup(input SignupInput) (*SignupResult, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrInvalidPayload
	}

	affiliate, err := s.affiliateRepo.GetByCode(input.RefCode)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}
	if affiliate.Status != constants.AffiliateStatusApproved {
		return nil, ErrAffiliateNotApproved
	}

	existing, err := s.referralRepo.GetByReferredUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &SignupResult{Duplicate: true, ReferralID: existing.ID, AffiliateID: existing.AffiliateID}, nil
	}

	signedUpAt := time.Now()
	if input.Timestamp != nil && !input.Timestamp.IsZero() {
		signedUpAt = *input.Timestamp
	}
	referral := &models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: userID,
		ReferredEmail:  strings.TrimSpace(input.Email),
		Status:         constants.ReferralStatusSignedUp,
		SignedUpAt:     signedUpAt,
	}

	err = s.referralRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.referralRepo.WithTx(tx).Create(referral); err != nil {
			return err
		}
		return s.affiliateRepo.WithTx(tx).IncrementTotalReferrals(affiliate.ID)
	})
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.referralRepo.GetByReferredUserID(userID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return &SignupResult{Duplicate: true, ReferralID: existing.ID, AffiliateID: existing.AffiliateID}, nil
			}
		}
		return nil, err
	}

	return &SignupResult{ReferralID: referral.ID, AffiliateID: affiliate.ID}, nil
}

// PaymentInput 付费事件入参。
// Timestamp 为上游事件发生时间，缺省时用接收时间。
type PaymentInput struct {
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	TransactionID string
	Timestamp     *time.Time
}

// PaymentResult 付费事件处理结果
type PaymentResult struct {
	Commissioned bool
	ReferralID   uint
	AffiliateID  uint
	RatePercent  decimal.Decimal
	Commission   decimal.Decimal
}

// HandlePayment 处理付费事件。
// 首次付费在一个事务内锁定推荐记录、按付费前的已付费数计档并冻结佣金，
// 重复事件与未知用户按无佣金成功处理。
func (s *WebhookService) HandlePayment(input PaymentInput) (*PaymentResult, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrInvalidPayload
	}
	if !input.Amount.IsPositive() {
		return nil, ErrAmountInvalid
	}
	transactionID := strings.TrimSpace(input.TransactionID)
	if transactionID == "" {
		return nil, ErrInvalidPayload
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = constants.DefaultCurrency
	}

	result := &PaymentResult{}
	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		txReferrals := s.referralRepo.WithTx(tx)

		referral, err := txReferrals.GetByReferredUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if referral == nil {
			return nil
		}
		result.ReferralID = referral.ID
		result.AffiliateID = referral.AffiliateID
		if referral.Status == constants.ReferralStatusPaid {
			return nil
		}

		priorPaid, err := txReferrals.CountPaidByAffiliate(referral.AffiliateID)
		if err != nil {
			return err
		}

		rate, commission := CommissionForPayment(priorPaid, input.Amount)
		paidAt := time.Now()
		if input.Timestamp != nil && !input.Timestamp.IsZero() {
			paidAt = *input.Timestamp
		}
		payment := models.NewMoneyFromDecimal(input.Amount)
		rateMoney := models.NewMoneyFromDecimal(rate)
		commissionMoney := models.NewMoneyFromDecimal(commission)

		referral.Status = constants.ReferralStatusPaid
		referral.PaymentAmount = &payment
		referral.CommissionRate = &rateMoney
		referral.CommissionAmount = &commissionMoney
		referral.Currency = currency
		referral.TransactionID = transactionID
		referral.PaidAt = &paidAt
		if err := txReferrals.Update(referral); err != nil {
			return err
		}

		result.Commissioned = true
		result.RatePercent = rate
		result.Commission = commission
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
