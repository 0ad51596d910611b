package service

import (
	"errors"
	"strings"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"
)

// ClickService 点击追踪服务。
// 追踪端点对调用方永远成功，无效推广码静默丢弃，落库走异步队列。
type ClickService struct {
	affiliateRepo repository.AffiliateRepository
	clickRepo     repository.ClickRepository
	queueClient   *queue.Client
}

// NewClickService 创建点击追踪服务实例
func NewClickService(
	affiliateRepo repository.AffiliateRepository,
	clickRepo repository.ClickRepository,
	queueClient *queue.Client,
) *ClickService {
	return &ClickService{
		affiliateRepo: affiliateRepo,
		clickRepo:     clickRepo,
		queueClient:   queueClient,
	}
}

// TrackClick 记录一次推广链接点击。
// 未知或未审核通过的推广码不产生任何记录；队列不可用时降级为同步写入。
func (s *ClickService) TrackClick(refCode, ip, userAgent, referrerURL string) {
	code := strings.TrimSpace(refCode)
	if code == "" {
		return
	}

	affiliate, err := s.affiliateRepo.GetByCode(code)
	if err != nil {
		logger.Warnw("click_track_lookup_failed", "ref_code", code, "error", err)
		return
	}
	if affiliate == nil || affiliate.Status != constants.AffiliateStatusApproved {
		return
	}

	payload := queue.ClickRecordPayload{
		AffiliateID: affiliate.ID,
		IPAddress:   ip,
		UserAgent:   userAgent,
		ReferrerURL: referrerURL,
	}
	if err := s.queueClient.EnqueueClickRecord(payload); err != nil {
		if !errors.Is(err, queue.ErrQueueDisabled) {
			logger.Warnw("click_enqueue_failed", "affiliate_id", affiliate.ID, "error", err)
		}
		if err := s.RecordClick(payload); err != nil {
			logger.Warnw("click_inline_record_failed", "affiliate_id", affiliate.ID, "error", err)
		}
	}
}

// RecordClick 点击落库，由队列消费者或降级路径调用
func (s *ClickService) RecordClick(payload queue.ClickRecordPayload) error {
	if payload.AffiliateID == 0 {
		return nil
	}
	return s.clickRepo.Create(&models.Click{
		AffiliateID: payload.AffiliateID,
		IPAddress:   payload.IPAddress,
		UserAgent:   payload.UserAgent,
		ReferrerURL: payload.ReferrerURL,
	})
}
