package worker

import (
	"context"
	"encoding/json"

	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/provider"
	"github.com/affiliate-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskClickRecord, c.handleClickRecord)
}

func (c *Consumer) handleClickRecord(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_click_record_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ClickRecordPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_click_record_unmarshal_failed", "error", err)
		return err
	}
	if payload.AffiliateID == 0 {
		logger.Debugw("worker_click_record_skip_invalid_payload", "affiliate_id", payload.AffiliateID)
		return nil
	}
	if c.ClickService == nil {
		logger.Warnw("worker_click_record_skip_click_service_nil", "affiliate_id", payload.AffiliateID)
		return nil
	}
	if err := c.ClickService.RecordClick(payload); err != nil {
		logger.Warnw("worker_click_record_failed", "affiliate_id", payload.AffiliateID, "error", err)
		return err
	}
	return nil
}
