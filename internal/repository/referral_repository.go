package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐记录数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	Create(referral *models.Referral) error
	Update(referral *models.Referral) error
	GetByReferredUserID(userID string) (*models.Referral, error)
	GetByReferredUserIDForUpdate(userID string) (*models.Referral, error)
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
	ListRecentByAffiliate(affiliateID uint, limit int) ([]models.Referral, error)
	CountPaidByAffiliate(affiliateID uint) (int64, error)
	SumPaidCommissionByAffiliate(affiliateID uint) (decimal.Decimal, error)
	GetCommissionStats(affiliateID uint) (ReferralCommissionStats, error)
	ListDailyStats(affiliateID uint, startAt, endAt time.Time) ([]ReferralDailyStatRow, error)
	ListMonthlyEarnings(affiliateID uint, startAt time.Time) ([]ReferralMonthlyEarningRow, error)
}

// ReferralCommissionStats 佣金统计（已付费推荐）
type ReferralCommissionStats struct {
	PaidCount     int64
	AvgCommission decimal.Decimal
	MaxCommission decimal.Decimal
}

// ReferralDailyStatRow 按天的推荐统计行
type ReferralDailyStatRow struct {
	Day      string
	Signups  int64
	Paid     int64
	Earnings decimal.Decimal
}

// ReferralMonthlyEarningRow 按月的佣金统计行
type ReferralMonthlyEarningRow struct {
	Month    string
	Paid     int64
	Earnings decimal.Decimal
}

// GormReferralRepository GORM 推荐记录仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐记录仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建推荐记录
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// Update 保存推荐记录
func (r *GormReferralRepository) Update(referral *models.Referral) error {
	return r.db.Save(referral).Error
}

// GetByReferredUserID 按外部用户ID查询推荐记录
func (r *GormReferralRepository) GetByReferredUserID(userID string) (*models.Referral, error) {
	normalized := strings.TrimSpace(userID)
	if normalized == "" {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Where("referred_user_id = ?", normalized).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// GetByReferredUserIDForUpdate 按外部用户ID锁定查询推荐记录（付费转换串行化）
func (r *GormReferralRepository) GetByReferredUserIDForUpdate(userID string) (*models.Referral, error) {
	normalized := strings.TrimSpace(userID)
	if normalized == "" {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referred_user_id = ?", normalized).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// List 查询推荐记录列表
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{})
	if filter.AffiliateID != 0 {
		query = query.Where("affiliate_id = ?", filter.AffiliateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Referral
	if err := query.Preload("Affiliate").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListRecentByAffiliate 查询推广用户最近的推荐记录
func (r *GormReferralRepository) ListRecentByAffiliate(affiliateID uint, limit int) ([]models.Referral, error) {
	if affiliateID == 0 {
		return []models.Referral{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var rows []models.Referral
	if err := r.db.Where("affiliate_id = ?", affiliateID).
		Order("id desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPaidByAffiliate 统计推广用户的已付费推荐数
func (r *GormReferralRepository) CountPaidByAffiliate(affiliateID uint) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Referral{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, constants.ReferralStatusPaid).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumPaidCommissionByAffiliate 汇总推广用户的已付费佣金总额
func (r *GormReferralRepository) SumPaidCommissionByAffiliate(affiliateID uint) (decimal.Decimal, error) {
	if affiliateID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Referral{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, constants.ReferralStatusPaid).
		Select("COALESCE(SUM(commission_amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// GetCommissionStats 查询佣金统计（均值与峰值）
func (r *GormReferralRepository) GetCommissionStats(affiliateID uint) (ReferralCommissionStats, error) {
	result := ReferralCommissionStats{
		AvgCommission: decimal.Zero,
		MaxCommission: decimal.Zero,
	}
	if affiliateID == 0 {
		return result, nil
	}
	var row struct {
		Total int64           `gorm:"column:total"`
		Avg   decimal.Decimal `gorm:"column:avg_commission"`
		Max   decimal.Decimal `gorm:"column:max_commission"`
	}
	if err := r.db.Model(&models.Referral{}).
		Where("affiliate_id = ? AND status = ?", affiliateID, constants.ReferralStatusPaid).
		Select("COUNT(*) AS total, COALESCE(AVG(commission_amount), 0) AS avg_commission, COALESCE(MAX(commission_amount), 0) AS max_commission").
		Scan(&row).Error; err != nil {
		return result, err
	}
	result.PaidCount = row.Total
	result.AvgCommission = row.Avg.Round(2)
	result.MaxCommission = row.Max.Round(2)
	return result, nil
}

// ListDailyStats 查询按天的注册/付费/佣金统计
func (r *GormReferralRepository) ListDailyStats(affiliateID uint, startAt, endAt time.Time) ([]ReferralDailyStatRow, error) {
	type signupRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day      string
		Total    int64
		Earnings decimal.Decimal
	}

	signupDay := dayExpr("created_at")
	signupQuery := r.db.Model(&models.Referral{}).
		Select(signupDay + " as day, COUNT(*) as total").
		Where("created_at >= ? AND created_at < ?", startAt, endAt)
	if affiliateID != 0 {
		signupQuery = signupQuery.Where("affiliate_id = ?", affiliateID)
	}
	var signups []signupRow
	if err := signupQuery.Group(signupDay).Order("day asc").Scan(&signups).Error; err != nil {
		return nil, err
	}

	paidDay := dayExpr("paid_at")
	paidQuery := r.db.Model(&models.Referral{}).
		Select(paidDay + " as day, COUNT(*) as total, COALESCE(SUM(commission_amount), 0) as earnings").
		Where("status = ? AND paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ?", constants.ReferralStatusPaid, startAt, endAt)
	if affiliateID != 0 {
		paidQuery = paidQuery.Where("affiliate_id = ?", affiliateID)
	}
	var paids []paidRow
	if err := paidQuery.Group(paidDay).Order("day asc").Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]paidRow, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item
	}

	seen := make(map[string]struct{}, len(signups)+len(paids))
	result := make([]ReferralDailyStatRow, 0, len(signups)+len(paids))
	push := func(day string, signupTotal int64) {
		if day == "" {
			return
		}
		if _, ok := seen[day]; ok {
			return
		}
		seen[day] = struct{}{}
		paid := paidMap[day]
		result = append(result, ReferralDailyStatRow{
			Day:      day,
			Signups:  signupTotal,
			Paid:     paid.Total,
			Earnings: paid.Earnings.Round(2),
		})
	}
	for _, item := range signups {
		push(item.Day, item.Total)
	}
	for _, item := range paids {
		push(item.Day, 0)
	}
	return result, nil
}

// ListMonthlyEarnings 查询按月的佣金统计
func (r *GormReferralRepository) ListMonthlyEarnings(affiliateID uint, startAt time.Time) ([]ReferralMonthlyEarningRow, error) {
	if affiliateID == 0 {
		return []ReferralMonthlyEarningRow{}, nil
	}
	expr := monthExpr(r.db, "paid_at")
	var rows []struct {
		Month    string
		Total    int64
		Earnings decimal.Decimal
	}
	if err := r.db.Model(&models.Referral{}).
		Select(expr+" as month, COUNT(*) as total, COALESCE(SUM(commission_amount), 0) as earnings").
		Where("affiliate_id = ? AND status = ? AND paid_at IS NOT NULL AND paid_at >= ?",
			affiliateID, constants.ReferralStatusPaid, startAt).
		Group(expr).
		Order("month asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]ReferralMonthlyEarningRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, ReferralMonthlyEarningRow{
			Month:    row.Month,
			Paid:     row.Total,
			Earnings: row.Earnings.Round(2),
		})
	}
	return result, nil
}
