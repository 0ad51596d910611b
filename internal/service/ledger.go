package service

import (
	"github.com/affiliate-next/internal/constants"

	"github.com/shopspring/decimal"
)

// OutstandingPayoutStatuses 占用余额的提现状态。
// failed 的提现会把金额退回可用余额。
func OutstandingPayoutStatuses() []string {
	return []string{
		constants.PayoutStatusPending,
		constants.PayoutStatusProcessing,
		constants.PayoutStatusCompleted,
	}
}

// AvailableBalance 可用余额 = 已付费佣金总额 - 占用余额的提现总额。
// 返回带符号的结果，历史数据异常时可能为负。
func AvailableBalance(paidCommissions, outstandingPayouts decimal.Decimal) decimal.Decimal {
	return paidCommissions.Sub(outstandingPayouts).Round(2)
}

// ClampBalance 对外展示用的余额，负数一律按零处理。
func ClampBalance(balance decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return balance.Round(2)
}
