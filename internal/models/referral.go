package models

import "time"

// Referral 推荐记录表（一条记录对应一个被推荐用户）
type Referral struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                      // 主键
	AffiliateID      uint       `gorm:"not null;index" json:"affiliate_id"`                        // 推广用户ID
	ReferredUserID   string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"referred_user_id"` // 外部系统用户ID
	ReferredEmail    string     `gorm:"type:varchar(255)" json:"referred_email"`                   // 被推荐用户邮箱
	Status           string     `gorm:"type:varchar(20);not null;index" json:"status"`             // 状态（signed_up/paid）
	PaymentAmount    *Money     `gorm:"type:decimal(20,2)" json:"payment_amount,omitempty"`        // 付费金额（付费后冻结）
	CommissionRate   *Money     `gorm:"type:decimal(10,2)" json:"commission_rate,omitempty"`       // 佣金比例（百分比，付费时冻结）
	CommissionAmount *Money     `gorm:"type:decimal(20,2)" json:"commission_amount,omitempty"`     // 佣金金额（付费时冻结）
	Currency         string     `gorm:"type:varchar(16)" json:"currency"`                          // 结算币种
	TransactionID    string     `gorm:"type:varchar(128)" json:"transaction_id"`                   // 外部交易号
	SignedUpAt       time.Time  `gorm:"index" json:"signed_up_at"`                                 // 注册时间
	PaidAt           *time.Time `gorm:"index" json:"paid_at,omitempty"`                            // 付费时间
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                // 更新时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 推广用户
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
