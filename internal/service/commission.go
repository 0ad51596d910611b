package service

import (
	"github.com/affiliate-next/internal/constants"

	"github.com/shopspring/decimal"
)

// CommissionForPayment 按推广用户的历史已付费推荐数计算佣金档位。
// priorPaidCount 为本次付费之前该推广用户已有的付费推荐数；
// 达到阈值后进入高档位，比例以百分比返回并冻结到推荐记录上。
func CommissionForPayment(priorPaidCount int64, amount decimal.Decimal) (ratePercent, commission decimal.Decimal) {
	rate := int64(constants.CommissionTier1RatePercent)
	if priorPaidCount >= constants.CommissionTierThreshold {
		rate = constants.CommissionTier2RatePercent
	}
	ratePercent = decimal.NewFromInt(rate).Round(2)
	commission = amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
	return ratePercent, commission
}
