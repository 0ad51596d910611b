package models

import "time"

// WebhookLog Webhook 事件处理日志（仅追加，写入失败不影响主流程）
type WebhookLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                       // 主键
	EventType    string    `gorm:"type:varchar(32);not null;index" json:"event_type"`          // 事件类型
	Payload      string    `gorm:"type:text" json:"payload"`                                   // 原始请求体
	IPAddress    string    `gorm:"type:varchar(64)" json:"ip_address"`                         // 来源IP
	Status       string    `gorm:"type:varchar(20);not null;index" json:"status"`              // 处理结果
	ErrorMessage string    `gorm:"type:varchar(512)" json:"error_message"`                     // 失败原因
	CreatedAt    time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
}

// TableName 指定表名
func (WebhookLog) TableName() string {
	return "webhook_logs"
}
