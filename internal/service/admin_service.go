package service

import (
	"context"
	"strings"
	"time"

	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 仪表盘聚合查询较重，短 TTL 缓存兜底；状态变更时主动失效。
const (
	adminDashboardCacheKey = "admin:dashboard"
	adminDashboardCacheTTL = time.Minute
)

// AdminService 管理端服务
type AdminService struct {
	cfg            *config.Config
	affiliateRepo  repository.AffiliateRepository
	referralRepo   repository.ReferralRepository
	payoutRepo     repository.PayoutRepository
	webhookLogRepo repository.WebhookLogRepository
	dashboardRepo  repository.DashboardRepository
}

// NewAdminService 创建管理端服务实例
func NewAdminService(
	cfg *config.Config,
	affiliateRepo repository.AffiliateRepository,
	referralRepo repository.ReferralRepository,
	payoutRepo repository.PayoutRepository,
	webhookLogRepo repository.WebhookLogRepository,
	dashboardRepo repository.DashboardRepository,
) *AdminService {
	return &AdminService{
		cfg:            cfg,
		affiliateRepo:  affiliateRepo,
		referralRepo:   referralRepo,
		payoutRepo:     payoutRepo,
		webhookLogRepo: webhookLogRepo,
		dashboardRepo:  dashboardRepo,
	}
}

// AdminDashboard 管理端仪表盘数据
type AdminDashboard struct {
	Overview      repository.DashboardOverviewRow           `json:"overview"`
	RevenueTrends []repository.DashboardRevenueTrendRow     `json:"revenue_trends"`
	TopAffiliates []repository.DashboardAffiliateRankingRow `json:"top_affiliates"`
}

// Dashboard 查询管理端仪表盘（全局统计 + 近 30 天趋势 + 排行榜）
func (s *AdminService) Dashboard() (*AdminDashboard, error) {
	ctx := context.Background()
	var cached AdminDashboard
	if hit, err := cache.GetJSON(ctx, adminDashboardCacheKey, &cached); err != nil {
		logger.Warnw("admin_dashboard_cache_read_failed", "error", err)
	} else if hit {
		return &cached, nil
	}

	overview, err := s.dashboardRepo.GetOverview()
	if err != nil {
		return nil, err
	}

	endAt := time.Now().Add(24 * time.Hour).Truncate(24 * time.Hour)
	startAt := endAt.AddDate(0, 0, -30)
	trends, err := s.dashboardRepo.GetRevenueTrends(startAt, endAt)
	if err != nil {
		return nil, err
	}

	top, err := s.dashboardRepo.GetTopAffiliates(10)
	if err != nil {
		return nil, err
	}

	dashboard := &AdminDashboard{
		Overview:      overview,
		RevenueTrends: trends,
		TopAffiliates: top,
	}
	if err := cache.SetJSON(ctx, adminDashboardCacheKey, dashboard, adminDashboardCacheTTL); err != nil {
		logger.Warnw("admin_dashboard_cache_write_failed", "error", err)
	}
	return dashboard, nil
}

// invalidateDashboardCache 状态变更后失效仪表盘缓存
func (s *AdminService) invalidateDashboardCache() {
	if err := cache.Del(context.Background(), adminDashboardCacheKey); err != nil {
		logger.Warnw("admin_dashboard_cache_invalidate_failed", "error", err)
	}
}

// AffiliateWithStats 推广用户及其统计
type AffiliateWithStats struct {
	models.Affiliate
	Stats repository.AffiliateStatsAggregate `json:"stats"`
}

// Affiliates 查询推广用户列表（带统计）
func (s *AdminService) Affiliates(filter repository.AffiliateListFilter) ([]AffiliateWithStats, int64, error) {
	rows, total, err := s.affiliateRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	stats, err := s.affiliateRepo.GetStatsBatch(ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]AffiliateWithStats, 0, len(rows))
	for _, row := range rows {
		result = append(result, AffiliateWithStats{
			Affiliate: row,
			Stats:     stats[row.ID],
		})
	}
	return result, total, nil
}

// AffiliateDetail 推广用户详情
type AffiliateDetail struct {
	Affiliate        models.Affiliate                   `json:"affiliate"`
	Stats            repository.AffiliateStatsAggregate `json:"stats"`
	AvailableBalance decimal.Decimal                    `json:"available_balance"`
	RecentReferrals  []models.Referral                  `json:"recent_referrals"`
	RecentPayouts    []models.Payout                    `json:"recent_payouts"`
}

// GetAffiliateDetail 查询推广用户详情
func (s *AdminService) GetAffiliateDetail(id uint) (*AffiliateDetail, error) {
	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	stats, err := s.affiliateRepo.GetStatsBatch([]uint{id})
	if err != nil {
		return nil, err
	}
	outstanding, err := s.payoutRepo.SumByAffiliate(id, OutstandingPayoutStatuses())
	if err != nil {
		return nil, err
	}
	referrals, err := s.referralRepo.ListRecentByAffiliate(id, 10)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payoutRepo.ListRecentByAffiliate(id, 10)
	if err != nil {
		return nil, err
	}

	return &AffiliateDetail{
		Affiliate:        *affiliate,
		Stats:            stats[id],
		AvailableBalance: ClampBalance(AvailableBalance(stats[id].TotalEarnings, outstanding)),
		RecentReferrals:  referrals,
		RecentPayouts:    payouts,
	}, nil
}

// UpdateAffiliateStatus 更新推广用户审核状态
func (s *AdminService) UpdateAffiliateStatus(id uint, status string) (*models.Affiliate, error) {
	normalized := strings.TrimSpace(status)
	switch normalized {
	case constants.AffiliateStatusPending,
		constants.AffiliateStatusApproved,
		constants.AffiliateStatusRejected,
		constants.AffiliateStatusSuspended:
	default:
		return nil, ErrInvalidStatus
	}

	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrNotFound
	}

	if err := s.affiliateRepo.UpdateStatus(id, normalized, time.Now()); err != nil {
		return nil, err
	}
	affiliate.Status = normalized
	s.invalidateDashboardCache()
	return affiliate, nil
}

// Referrals 查询推荐记录列表
func (s *AdminService) Referrals(filter repository.ReferralListFilter) ([]models.Referral, int64, error) {
	return s.referralRepo.List(filter)
}

// Payouts 查询提现请求列表
func (s *AdminService) Payouts(filter repository.PayoutListFilter) ([]models.Payout, int64, error) {
	return s.payoutRepo.List(filter)
}

// WebhookLogs 查询 Webhook 日志列表
func (s *AdminService) WebhookLogs(filter repository.WebhookLogListFilter) ([]models.WebhookLog, int64, error) {
	return s.webhookLogRepo.List(filter)
}

// payoutTransitionAllowed 提现状态机：
// pending -> processing/completed/failed，processing -> completed/failed，终态不可变。
func payoutTransitionAllowed(from, to string) bool {
	switch from {
	case constants.PayoutStatusPending:
		return to == constants.PayoutStatusProcessing ||
			to == constants.PayoutStatusCompleted ||
			to == constants.PayoutStatusFailed
	case constants.PayoutStatusProcessing:
		return to == constants.PayoutStatusCompleted ||
			to == constants.PayoutStatusFailed
	default:
		return false
	}
}

// PayoutAdvanceInput 提现状态推进入参
type PayoutAdvanceInput struct {
	Status          string
	TransactionHash string
	Notes           string
}

// AdvancePayout 推进提现状态，进入终态时写入处理时间。
func (s *AdminService) AdvancePayout(id uint, input PayoutAdvanceInput) (*models.Payout, error) {
	target := strings.TrimSpace(input.Status)
	switch target {
	case constants.PayoutStatusProcessing,
		constants.PayoutStatusCompleted,
		constants.PayoutStatusFailed:
	default:
		return nil, ErrInvalidStatus
	}

	var payout *models.Payout
	err := s.payoutRepo.Transaction(func(tx *gorm.DB) error {
		txPayouts := s.payoutRepo.WithTx(tx)

		row, err := txPayouts.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotFound
		}
		if !payoutTransitionAllowed(row.Status, target) {
			return ErrInvalidTransition
		}

		row.Status = target
		if hash := strings.TrimSpace(input.TransactionHash); hash != "" {
			row.TransactionHash = hash
		}
		if notes := strings.TrimSpace(input.Notes); notes != "" {
			row.Notes = notes
		}
		if target == constants.PayoutStatusCompleted || target == constants.PayoutStatusFailed {
			now := time.Now()
			row.ProcessedAt = &now
		}
		if err := txPayouts.Update(row); err != nil {
			return err
		}
		payout = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateDashboardCache()
	return payout, nil
}
