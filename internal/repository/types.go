package repository

import "time"

// AffiliateListFilter 查询推广用户列表的过滤条件
type AffiliateListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReferralListFilter 查询推荐记录列表的过滤条件
type ReferralListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PayoutListFilter 查询提现请求列表的过滤条件
type PayoutListFilter struct {
	Page        int
	PageSize    int
	AffiliateID uint
	Status      string
}

// WebhookLogListFilter 查询 Webhook 日志列表的过滤条件
type WebhookLogListFilter struct {
	Page      int
	PageSize  int
	EventType string
	Status    string
}
