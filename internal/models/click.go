package models

import "time"

// Click 推广链接点击记录（仅追加）
type Click struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                       // 主键
	AffiliateID uint      `gorm:"not null;index" json:"affiliate_id"`                         // 推广用户ID
	IPAddress   string    `gorm:"type:varchar(64)" json:"ip_address"`                         // 客户端IP
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	ReferrerURL string    `gorm:"type:varchar(1024)" json:"referrer_url"`                     // 来源地址
	CreatedAt   time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 推广用户
}

// TableName 指定表名
func (Click) TableName() string {
	return "clicks"
}
