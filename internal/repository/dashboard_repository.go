package repository

import (
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardRepository 全局仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview() (DashboardOverviewRow, error)
	GetRevenueTrends(startAt, endAt time.Time) ([]DashboardRevenueTrendRow, error)
	GetTopAffiliates(limit int) ([]DashboardAffiliateRankingRow, error)
}

// DashboardOverviewRow 全局总览原始统计结果
type DashboardOverviewRow struct {
	TotalAffiliates     int64
	PendingAffiliates   int64
	ApprovedAffiliates  int64
	TotalReferrals      int64
	PaidReferrals       int64
	TotalClicks         int64
	TotalRevenue        decimal.Decimal
	TotalCommissions    decimal.Decimal
	PendingPayoutCount  int64
	PendingPayoutAmount decimal.Decimal
	TotalPaidOut        decimal.Decimal
}

// DashboardRevenueTrendRow 收入趋势统计行
type DashboardRevenueTrendRow struct {
	Day         string
	Payments    int64
	Revenue     decimal.Decimal
	Commissions decimal.Decimal
}

// DashboardAffiliateRankingRow 推广用户排行原始行
type DashboardAffiliateRankingRow struct {
	AffiliateID   uint
	Name          string
	Email         string
	ReferralCode  string
	PaidReferrals int64
	TotalEarnings decimal.Decimal
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取全局总览统计
func (r *GormDashboardRepository) GetOverview() (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{
		TotalRevenue:        decimal.Zero,
		TotalCommissions:    decimal.Zero,
		PendingPayoutAmount: decimal.Zero,
		TotalPaidOut:        decimal.Zero,
	}

	affiliateBase := func() *gorm.DB {
		return r.db.Model(&models.Affiliate{})
	}
	if err := affiliateBase().Count(&result.TotalAffiliates).Error; err != nil {
		return result, err
	}
	if err := affiliateBase().Where("status = ?", constants.AffiliateStatusPending).Count(&result.PendingAffiliates).Error; err != nil {
		return result, err
	}
	if err := affiliateBase().Where("status = ?", constants.AffiliateStatusApproved).Count(&result.ApprovedAffiliates).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Referral{}).Count(&result.TotalReferrals).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Referral{}).
		Where("status = ?", constants.ReferralStatusPaid).
		Count(&result.PaidReferrals).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Click{}).Count(&result.TotalClicks).Error; err != nil {
		return result, err
	}

	var revenueRow struct {
		Revenue     decimal.Decimal `gorm:"column:revenue"`
		Commissions decimal.Decimal `gorm:"column:commissions"`
	}
	if err := r.db.Model(&models.Referral{}).
		Where("status = ?", constants.ReferralStatusPaid).
		Select("COALESCE(SUM(payment_amount), 0) AS revenue, COALESCE(SUM(commission_amount), 0) AS commissions").
		Scan(&revenueRow).Error; err != nil {
		return result, err
	}
	result.TotalRevenue = revenueRow.Revenue.Round(2)
	result.TotalCommissions = revenueRow.Commissions.Round(2)

	var payoutRow struct {
		Total  int64           `gorm:"column:total"`
		Amount decimal.Decimal `gorm:"column:amount"`
	}
	if err := r.db.Model(&models.Payout{}).
		Where("status = ?", constants.PayoutStatusPending).
		Select("COUNT(*) AS total, COALESCE(SUM(amount), 0) AS amount").
		Scan(&payoutRow).Error; err != nil {
		return result, err
	}
	result.PendingPayoutCount = payoutRow.Total
	result.PendingPayoutAmount = payoutRow.Amount.Round(2)

	var paidOutRow struct {
		Amount decimal.Decimal `gorm:"column:amount"`
	}
	if err := r.db.Model(&models.Payout{}).
		Where("status = ?", constants.PayoutStatusCompleted).
		Select("COALESCE(SUM(amount), 0) AS amount").
		Scan(&paidOutRow).Error; err != nil {
		return result, err
	}
	result.TotalPaidOut = paidOutRow.Amount.Round(2)

	return result, nil
}

// GetRevenueTrends 获取收入与佣金趋势
func (r *GormDashboardRepository) GetRevenueTrends(startAt, endAt time.Time) ([]DashboardRevenueTrendRow, error) {
	var rows []struct {
		Day         string
		Total       int64
		Revenue     decimal.Decimal
		Commissions decimal.Decimal
	}
	paidDay := dayExpr("paid_at")
	if err := r.db.Model(&models.Referral{}).
		Select(paidDay+" as day, COUNT(*) as total, COALESCE(SUM(payment_amount), 0) as revenue, COALESCE(SUM(commission_amount), 0) as commissions").
		Where("status = ? AND paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ?", constants.ReferralStatusPaid, startAt, endAt).
		Group(paidDay).
		Order("day asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]DashboardRevenueTrendRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, DashboardRevenueTrendRow{
			Day:         row.Day,
			Payments:    row.Total,
			Revenue:     row.Revenue.Round(2),
			Commissions: row.Commissions.Round(2),
		})
	}
	return result, nil
}

// GetTopAffiliates 获取推广用户排行榜（按佣金总额）
func (r *GormDashboardRepository) GetTopAffiliates(limit int) ([]DashboardAffiliateRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := make([]DashboardAffiliateRankingRow, 0)
	if err := r.db.Model(&models.Referral{}).
		Select(`
			referrals.affiliate_id as affiliate_id,
			COALESCE(affiliates.name, '') as name,
			COALESCE(affiliates.email, '') as email,
			COALESCE(affiliates.referral_code, '') as referral_code,
			COUNT(*) as paid_referrals,
			COALESCE(SUM(referrals.commission_amount), 0) as total_earnings
		`).
		Joins("LEFT JOIN affiliates ON affiliates.id = referrals.affiliate_id").
		Where("referrals.status = ?", constants.ReferralStatusPaid).
		Group("referrals.affiliate_id, affiliates.name, affiliates.email, affiliates.referral_code").
		Order("total_earnings DESC, paid_referrals DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
