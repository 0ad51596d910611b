package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 业务哨兵错误，处理器通过 errors.Is 映射为响应码。
var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrEmailTaken           = errors.New("email already registered")
	ErrAffiliateNotApproved = errors.New("affiliate not approved")
	ErrAffiliateSuspended   = errors.New("affiliate suspended")
	ErrWalletRequired       = errors.New("wallet address required")
	ErrAmountInvalid        = errors.New("amount must be positive")
	ErrInvalidPayload       = errors.New("invalid payload")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
)

// isUniqueViolation 判断是否唯一键冲突（sqlite 与 postgres 报错文案不同）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
