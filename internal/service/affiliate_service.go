package service

import (
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AffiliateService 推广用户自助服务
type AffiliateService struct {
	cfg           *config.Config
	authService   *AuthService
	affiliateRepo repository.AffiliateRepository
	referralRepo  repository.ReferralRepository
	payoutRepo    repository.PayoutRepository
	clickRepo     repository.ClickRepository
}

// NewAffiliateService 创建推广用户服务实例
func NewAffiliateService(
	cfg *config.Config,
	authService *AuthService,
	affiliateRepo repository.AffiliateRepository,
	referralRepo repository.ReferralRepository,
	payoutRepo repository.PayoutRepository,
	clickRepo repository.ClickRepository,
) *AffiliateService {
	return &AffiliateService{
		cfg:           cfg,
		authService:   authService,
		affiliateRepo: affiliateRepo,
		referralRepo:  referralRepo,
		payoutRepo:    payoutRepo,
		clickRepo:     clickRepo,
	}
}

// AffiliateDashboard 推广用户仪表盘数据
type AffiliateDashboard struct {
	TotalClicks     int64                             `json:"total_clicks"`
	TotalSignups    int64                             `json:"total_signups"`
	PaidConversions int64                             `json:"paid_conversions"`
	ConversionRate  decimal.Decimal                   `json:"conversion_rate"`
	TotalEarnings   decimal.Decimal                   `json:"total_earnings"`
	PaidOut         decimal.Decimal                   `json:"paid_out"`
	PendingEarnings decimal.Decimal                   `json:"pending_earnings"`
	DailyStats      []repository.ReferralDailyStatRow `json:"daily_stats"`
	DailyClicks     []repository.ClickDailyCountRow   `json:"daily_clicks"`
}

// Dashboard 查询推广用户仪表盘（含近 30 天趋势）
func (s *AffiliateService) Dashboard(affiliateID uint) (*AffiliateDashboard, error) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	clicks, err := s.clickRepo.CountByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	stats, err := s.referralRepo.GetCommissionStats(affiliateID)
	if err != nil {
		return nil, err
	}
	earned, err := s.referralRepo.SumPaidCommissionByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	paidOut, err := s.payoutRepo.SumByAffiliate(affiliateID, []string{constants.PayoutStatusCompleted})
	if err != nil {
		return nil, err
	}
	outstanding, err := s.payoutRepo.SumByAffiliate(affiliateID, OutstandingPayoutStatuses())
	if err != nil {
		return nil, err
	}

	endAt := time.Now().Add(24 * time.Hour).Truncate(24 * time.Hour)
	startAt := endAt.AddDate(0, 0, -30)
	daily, err := s.referralRepo.ListDailyStats(affiliateID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	dailyClicks, err := s.clickRepo.ListDailyCounts(affiliateID, startAt, endAt)
	if err != nil {
		return nil, err
	}

	// 转化率 = 注册数 / 点击数，付费转化单独展示
	conversionRate := decimal.Zero
	if clicks > 0 {
		conversionRate = decimal.NewFromInt(affiliate.TotalReferrals).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(clicks)).
			Round(2)
	}

	return &AffiliateDashboard{
		TotalClicks:     clicks,
		TotalSignups:    affiliate.TotalReferrals,
		PaidConversions: stats.PaidCount,
		ConversionRate:  conversionRate,
		TotalEarnings:   earned,
		PaidOut:         paidOut,
		PendingEarnings: ClampBalance(AvailableBalance(earned, outstanding)),
		DailyStats:      daily,
		DailyClicks:     dailyClicks,
	}, nil
}

// AffiliateEarnings 推广用户收益明细
type AffiliateEarnings struct {
	TotalEarned      decimal.Decimal                        `json:"total_earned"`
	AvailableBalance decimal.Decimal                        `json:"available_balance"`
	PaidOut          decimal.Decimal                        `json:"paid_out"`
	PendingPayouts   decimal.Decimal                        `json:"pending_payouts"`
	PaidReferrals    int64                                  `json:"paid_referrals"`
	AvgCommission    decimal.Decimal                        `json:"avg_commission"`
	MaxCommission    decimal.Decimal                        `json:"max_commission"`
	MonthlyBreakdown []repository.ReferralMonthlyEarningRow `json:"monthly_breakdown"`
}

// Earnings 查询推广用户收益汇总（含 12 个月按月明细）
func (s *AffiliateService) Earnings(affiliateID uint) (*AffiliateEarnings, error) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	earned, err := s.referralRepo.SumPaidCommissionByAffiliate(affiliateID)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.payoutRepo.SumByAffiliate(affiliateID, OutstandingPayoutStatuses())
	if err != nil {
		return nil, err
	}
	paidOut, err := s.payoutRepo.SumByAffiliate(affiliateID, []string{constants.PayoutStatusCompleted})
	if err != nil {
		return nil, err
	}
	pending, err := s.payoutRepo.SumByAffiliate(affiliateID, []string{
		constants.PayoutStatusPending,
		constants.PayoutStatusProcessing,
	})
	if err != nil {
		return nil, err
	}
	stats, err := s.referralRepo.GetCommissionStats(affiliateID)
	if err != nil {
		return nil, err
	}
	monthly, err := s.referralRepo.ListMonthlyEarnings(affiliateID, time.Now().AddDate(0, -12, 0))
	if err != nil {
		return nil, err
	}

	return &AffiliateEarnings{
		TotalEarned:      earned,
		AvailableBalance: ClampBalance(AvailableBalance(earned, outstanding)),
		PaidOut:          paidOut,
		PendingPayouts:   pending,
		PaidReferrals:    stats.PaidCount,
		AvgCommission:    stats.AvgCommission,
		MaxCommission:    stats.MaxCommission,
		MonthlyBreakdown: monthly,
	}, nil
}

// Referrals 查询推广用户的推荐记录
func (s *AffiliateService) Referrals(affiliateID uint, status string, page, pageSize int) ([]models.Referral, int64, error) {
	return s.referralRepo.List(repository.ReferralListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: affiliateID,
		Status:      status,
	})
}

// Link 生成推广链接
func (s *AffiliateService) Link(affiliateID uint) (string, string, error) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return "", "", err
	}
	if affiliate == nil {
		return "", "", ErrNotFound
	}
	base := strings.TrimRight(strings.TrimSpace(s.cfg.Site.URL), "/")
	return affiliate.ReferralCode, base + "/?ref=" + affiliate.ReferralCode, nil
}

// RequestPayout 申请提现。
// 余额校验与提现写入在同一事务内完成，并锁定推广用户行以串行化并发申请。
// 第二个返回值始终为申请时点的可用余额（已取非负）。
func (s *AffiliateService) RequestPayout(affiliateID uint, amount decimal.Decimal) (*models.Payout, decimal.Decimal, error) {
	available := decimal.Zero
	if !amount.IsPositive() {
		return nil, available, ErrAmountInvalid
	}

	var payout *models.Payout
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		txAffiliates := s.affiliateRepo.WithTx(tx)
		txReferrals := s.referralRepo.WithTx(tx)
		txPayouts := s.payoutRepo.WithTx(tx)

		affiliate, err := txAffiliates.GetByIDForUpdate(affiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrNotFound
		}
		if strings.TrimSpace(affiliate.WalletAddress) == "" {
			return ErrWalletRequired
		}

		earned, err := txReferrals.SumPaidCommissionByAffiliate(affiliateID)
		if err != nil {
			return err
		}
		outstanding, err := txPayouts.SumByAffiliate(affiliateID, OutstandingPayoutStatuses())
		if err != nil {
			return err
		}
		available = ClampBalance(AvailableBalance(earned, outstanding))
		if amount.GreaterThan(available) {
			return ErrInsufficientBalance
		}

		payout = &models.Payout{
			AffiliateID:   affiliateID,
			Amount:        models.NewMoneyFromDecimal(amount),
			WalletAddress: affiliate.WalletAddress,
			Status:        constants.PayoutStatusPending,
			RequestedAt:   time.Now(),
		}
		return txPayouts.Create(payout)
	})
	if err != nil {
		return nil, available, err
	}
	return payout, available, nil
}

// Payouts 查询推广用户的提现记录
func (s *AffiliateService) Payouts(affiliateID uint, page, pageSize int) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(repository.PayoutListFilter{
		Page:        page,
		PageSize:    pageSize,
		AffiliateID: affiliateID,
	})
}

// ProfileUpdateInput 资料更新入参，空字段表示保持不变
type ProfileUpdateInput struct {
	Name            string
	Email           string
	WalletAddress   *string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile 更新推广用户资料，改密码需要校验当前密码
func (s *AffiliateService) UpdateProfile(affiliateID uint, input ProfileUpdateInput) (*models.Affiliate, error) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		affiliate.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(input.Email)); email != "" && email != affiliate.Email {
		existing, err := s.affiliateRepo.GetByEmail(email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != affiliateID {
			return nil, ErrEmailTaken
		}
		affiliate.Email = email
	}
	if input.WalletAddress != nil {
		affiliate.WalletAddress = strings.TrimSpace(*input.WalletAddress)
	}
	if input.NewPassword != "" {
		if err := s.authService.VerifyPassword(affiliate.PasswordHash, input.CurrentPassword); err != nil {
			return nil, ErrInvalidPassword
		}
		hash, err := s.authService.HashPassword(input.NewPassword)
		if err != nil {
			return nil, err
		}
		affiliate.PasswordHash = hash
	}

	if err := s.affiliateRepo.Update(affiliate); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return affiliate, nil
}
