package models

import "time"

// Payout 提现请求表
type Payout struct {
	ID              uint       `gorm:"primarykey" json:"id"`                              // 主键
	AffiliateID     uint       `gorm:"not null;index" json:"affiliate_id"`                // 推广用户ID
	Amount          Money      `gorm:"type:decimal(20,2);not null" json:"amount"`         // 提现金额
	WalletAddress   string     `gorm:"type:varchar(128);not null" json:"wallet_address"`  // 申请时的钱包地址快照
	Status          string     `gorm:"type:varchar(20);not null;index" json:"status"`     // 状态
	TransactionHash string     `gorm:"type:varchar(128)" json:"transaction_hash"`         // 链上交易哈希
	Notes           string     `gorm:"type:varchar(512)" json:"notes"`                    // 管理员备注
	RequestedAt     time.Time  `gorm:"index" json:"requested_at"`                         // 申请时间
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`                            // 终态处理时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                        // 更新时间

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"` // 推广用户
}

// TableName 指定表名
func (Payout) TableName() string {
	return "payouts"
}
