package repository

import (
	"time"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// ClickRepository 点击记录数据访问接口
type ClickRepository interface {
	Create(click *models.Click) error
	CountByAffiliate(affiliateID uint) (int64, error)
	CountAll() (int64, error)
	ListDailyCounts(affiliateID uint, startAt, endAt time.Time) ([]ClickDailyCountRow, error)
}

// ClickDailyCountRow 按天的点击统计行
type ClickDailyCountRow struct {
	Day   string
	Total int64
}

// GormClickRepository GORM 点击记录仓储
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击记录仓储
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// Create 创建点击记录
func (r *GormClickRepository) Create(click *models.Click) error {
	return r.db.Create(click).Error
}

// CountByAffiliate 统计推广用户的点击数
func (r *GormClickRepository) CountByAffiliate(affiliateID uint) (int64, error) {
	if affiliateID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Click{}).
		Where("affiliate_id = ?", affiliateID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountAll 统计全部点击数
func (r *GormClickRepository) CountAll() (int64, error) {
	var total int64
	if err := r.db.Model(&models.Click{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListDailyCounts 查询按天的点击统计
func (r *GormClickRepository) ListDailyCounts(affiliateID uint, startAt, endAt time.Time) ([]ClickDailyCountRow, error) {
	day := dayExpr("created_at")
	query := r.db.Model(&models.Click{}).
		Select(day + " as day, COUNT(*) as total").
		Where("created_at >= ? AND created_at < ?", startAt, endAt)
	if affiliateID != 0 {
		query = query.Where("affiliate_id = ?", affiliateID)
	}
	var rows []ClickDailyCountRow
	if err := query.Group(day).Order("day asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
