package repository

import (
	"strings"

	"github.com/affiliate-next/internal/models"

	"gorm.io/gorm"
)

// WebhookLogRepository Webhook 日志数据访问接口
type WebhookLogRepository interface {
	Create(log *models.WebhookLog) error
	List(filter WebhookLogListFilter) ([]models.WebhookLog, int64, error)
}

// GormWebhookLogRepository GORM Webhook 日志仓储
type GormWebhookLogRepository struct {
	db *gorm.DB
}

// NewWebhookLogRepository 创建 Webhook 日志仓储
func NewWebhookLogRepository(db *gorm.DB) *GormWebhookLogRepository {
	return &GormWebhookLogRepository{db: db}
}

// Create 创建 Webhook 日志
func (r *GormWebhookLogRepository) Create(log *models.WebhookLog) error {
	return r.db.Create(log).Error
}

// List 查询 Webhook 日志列表
func (r *GormWebhookLogRepository) List(filter WebhookLogListFilter) ([]models.WebhookLog, int64, error) {
	query := r.db.Model(&models.WebhookLog{})
	if eventType := strings.TrimSpace(filter.EventType); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.WebhookLog
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
