package queue

import (
	"encoding/json"
	"errors"

	"github.com/affiliate-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskClickRecord 点击落库任务
	TaskClickRecord = constants.TaskClickRecord
)

// ErrQueueDisabled 队列未启用时的入队错误，调用方可据此降级为同步写入
var ErrQueueDisabled = errors.New("queue disabled")

// ClickRecordPayload 点击落库任务载荷
type ClickRecordPayload struct {
	AffiliateID uint   `json:"affiliate_id"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
	ReferrerURL string `json:"referrer_url"`
}

// NewClickRecordTask 创建点击落库任务
func NewClickRecordTask(payload ClickRecordPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClickRecord, body), nil
}
