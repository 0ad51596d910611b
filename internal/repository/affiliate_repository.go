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

// AffiliateRepository 推广用户数据访问接口
type AffiliateRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AffiliateRepository

	GetByID(id uint) (*models.Affiliate, error)
	GetByIDForUpdate(id uint) (*models.Affiliate, error)
	GetByEmail(email string) (*models.Affiliate, error)
	GetByCode(code string) (*models.Affiliate, error)
	Create(affiliate *models.Affiliate) error
	Update(affiliate *models.Affiliate) error
	UpdateStatus(id uint, status string, updatedAt time.Time) error
	UpdateLastLogin(id uint, loginAt time.Time) error
	IncrementTotalReferrals(id uint) error
	List(filter AffiliateListFilter) ([]models.Affiliate, int64, error)
	GetStatsBatch(ids []uint) (map[uint]AffiliateStatsAggregate, error)
}

// AffiliateStatsAggregate 推广用户统计聚合
type AffiliateStatsAggregate struct {
	ClickCount     int64
	SignupCount    int64
	PaidCount      int64
	TotalEarnings  decimal.Decimal
	PendingPayouts int64
}

// GormAffiliateRepository GORM 推广用户仓储
type GormAffiliateRepository struct {
	db *gorm.DB
}

// NewAffiliateRepository 创建推广用户仓储
func NewAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateRepository) WithTx(tx *gorm.DB) AffiliateRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAffiliateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 按ID查询推广用户
func (r *GormAffiliateRepository) GetByID(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByIDForUpdate 按ID锁定查询推广用户（用于串行化余额校验）
func (r *GormAffiliateRepository) GetByIDForUpdate(id uint) (*models.Affiliate, error) {
	if id == 0 {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&affiliate, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByEmail 按邮箱查询推广用户
func (r *GormAffiliateRepository) GetByEmail(email string) (*models.Affiliate, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Where("email = ?", normalized).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// GetByCode 按推广码查询推广用户
func (r *GormAffiliateRepository) GetByCode(code string) (*models.Affiliate, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var affiliate models.Affiliate
	if err := r.db.Where("referral_code = ?", normalized).First(&affiliate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

// Create 创建推广用户
func (r *GormAffiliateRepository) Create(affiliate *models.Affiliate) error {
	return r.db.Create(affiliate).Error
}

// Update 保存推广用户
func (r *GormAffiliateRepository) Update(affiliate *models.Affiliate) error {
	return r.db.Save(affiliate).Error
}

// UpdateStatus 更新推广用户状态
func (r *GormAffiliateRepository) UpdateStatus(id uint, status string, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     strings.TrimSpace(status),
			"updated_at": updatedAt,
		}).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *GormAffiliateRepository) UpdateLastLogin(id uint, loginAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Update("last_login_at", loginAt).Error
}

// IncrementTotalReferrals 累计推荐注册数加一
func (r *GormAffiliateRepository) IncrementTotalReferrals(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.Affiliate{}).
		Where("id = ?", id).
		Update("total_referrals", gorm.Expr("total_referrals + 1")).Error
}

// List 查询推广用户列表
func (r *GormAffiliateRepository) List(filter AffiliateListFilter) ([]models.Affiliate, int64, error) {
	query := r.db.Model(&models.Affiliate{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		operator := likeOperator(r.db)
		query = query.Where(
			"(name "+operator+" ? OR email "+operator+" ? OR referral_code "+operator+" ?)",
			like, like, like,
		)
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

	var rows []models.Affiliate
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetStatsBatch 批量汇总推广用户统计信息
func (r *GormAffiliateRepository) GetStatsBatch(ids []uint) (map[uint]AffiliateStatsAggregate, error) {
	result := make(map[uint]AffiliateStatsAggregate, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	for _, id := range ids {
		if id == 0 {
			continue
		}
		result[id] = AffiliateStatsAggregate{TotalEarnings: decimal.Zero}
	}

	var clickRows []struct {
		AffiliateID uint  `gorm:"column:affiliate_id"`
		Total       int64 `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Click{}).
		Select("affiliate_id, COUNT(*) AS total").
		Where("affiliate_id IN ?", ids).
		Group("affiliate_id").
		Scan(&clickRows).Error; err != nil {
		return nil, err
	}
	for _, row := range clickRows {
		item := result[row.AffiliateID]
		item.ClickCount = row.Total
		result[row.AffiliateID] = item
	}

	var signupRows []struct {
		AffiliateID uint  `gorm:"column:affiliate_id"`
		Total       int64 `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Referral{}).
		Select("affiliate_id, COUNT(*) AS total").
		Where("affiliate_id IN ?", ids).
		Group("affiliate_id").
		Scan(&signupRows).Error; err != nil {
		return nil, err
	}
	for _, row := range signupRows {
		item := result[row.AffiliateID]
		item.SignupCount = row.Total
		result[row.AffiliateID] = item
	}

	var paidRows []struct {
		AffiliateID uint            `gorm:"column:affiliate_id"`
		Total       int64           `gorm:"column:total"`
		Earnings    decimal.Decimal `gorm:"column:earnings"`
	}
	if err := r.db.Model(&models.Referral{}).
		Select("affiliate_id, COUNT(*) AS total, COALESCE(SUM(commission_amount), 0) AS earnings").
		Where("affiliate_id IN ? AND status = ?", ids, constants.ReferralStatusPaid).
		Group("affiliate_id").
		Scan(&paidRows).Error; err != nil {
		return nil, err
	}
	for _, row := range paidRows {
		item := result[row.AffiliateID]
		item.PaidCount = row.Total
		item.TotalEarnings = row.Earnings.Round(2)
		result[row.AffiliateID] = item
	}

	var payoutRows []struct {
		AffiliateID uint  `gorm:"column:affiliate_id"`
		Total       int64 `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Payout{}).
		Select("affiliate_id, COUNT(*) AS total").
		Where("affiliate_id IN ? AND status = ?", ids, constants.PayoutStatusPending).
		Group("affiliate_id").
		Scan(&payoutRows).Error; err != nil {
		return nil, err
	}
	for _, row := range payoutRows {
		item := result[row.AffiliateID]
		item.PendingPayouts = row.Total
		result[row.AffiliateID] = item
	}

	return result, nil
}
