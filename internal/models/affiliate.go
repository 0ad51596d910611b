package models

import (
	"time"

	"gorm.io/gorm"
)

// Affiliate 推广用户表
type Affiliate struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                 // 主键
	Name           string         `gorm:"type:varchar(128);not null" json:"name"`               // 昵称
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`                    // 登录邮箱
	PasswordHash   string         `gorm:"not null" json:"-"`                                    // 密码哈希（不返回给前端）
	ReferralCode   string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"referral_code"` // 推广码
	WalletAddress  string         `gorm:"type:varchar(128)" json:"wallet_address"`              // 收款钱包地址
	Status         string         `gorm:"type:varchar(20);not null;index" json:"status"`        // 状态
	TotalReferrals int64          `gorm:"not null;default:0" json:"total_referrals"`            // 累计推荐注册数
	LastLoginAt    *time.Time     `json:"last_login_at"`                                        // 最后登录时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                           // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间
}

// TableName 指定表名
func (Affiliate) TableName() string {
	return "affiliates"
}
