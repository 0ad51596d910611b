package constants

// 推广用户状态常量
const (
	AffiliateStatusPending   = "pending"
	AffiliateStatusApproved  = "approved"
	AffiliateStatusRejected  = "rejected"
	AffiliateStatusSuspended = "suspended"
)

// 推荐记录状态常量
const (
	ReferralStatusSignedUp = "signed_up"
	ReferralStatusPaid     = "paid"
)

// 提现请求状态常量
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

// Webhook 事件类型常量
const (
	WebhookEventSignup  = "signup"
	WebhookEventPayment = "payment"
)

// Webhook 处理结果常量
const (
	WebhookLogStatusProcessed = "processed"
	WebhookLogStatusFailed    = "failed"
)

// 佣金梯度常量（按单个推广用户累计已付费推荐数计档）
const (
	CommissionTier1RatePercent = 10
	CommissionTier2RatePercent = 20
	CommissionTierThreshold    = 50
)

// 默认结算币种
const DefaultCurrency = "USDT"

// 推广码长度
const ReferralCodeLength = 8

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskClickRecord = "click:record"
)
