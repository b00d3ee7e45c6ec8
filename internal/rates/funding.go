// internal/rates/funding.go
package rates

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/fixedpoint"
)

// 비율 팩터는 10^28 스케일입니다. 10^-28을 곱하면 기간당 %가 됩니다.
const factorDecimals = 28

// FundingRatePerPeriod는 한 방향 포지션의 기간당 펀딩률(%)을 계산합니다.
// 큰 쪽은 팩터만큼 내고(음수), 작은 쪽은 열린 이자 비율만큼 증폭해서
// 받습니다(양수). 작은 쪽 열린 이자가 0이면 받을 것도 없습니다.
func FundingRatePerPeriod(
	fundingFactorPerSecond *big.Int,
	longsPayShorts bool,
	isLong bool,
	longOpenInterestUSD, shortOpenInterestUSD decimal.Decimal,
	periodSeconds int64,
) decimal.Decimal {
	factorPerSecond := fixedpoint.ToHuman(fundingFactorPerSecond, factorDecimals)
	period := decimal.NewFromInt(periodSeconds)

	isLargerSide := isLong == longsPayShorts
	if isLargerSide {
		return factorPerSecond.Neg().Mul(period)
	}

	larger, smaller := longOpenInterestUSD, shortOpenInterestUSD
	if !longsPayShorts {
		larger, smaller = shortOpenInterestUSD, longOpenInterestUSD
	}

	if smaller.Sign() <= 0 {
		return decimal.Zero
	}

	ratio := larger.Div(smaller)
	return ratio.Mul(factorPerSecond).Mul(period)
}

// BorrowRatePerPeriod는 기간당 보로잉 비용(%)을 계산합니다.
// 보로잉은 항상 비용이므로 부호 없이 반환합니다.
func BorrowRatePerPeriod(borrowingFactorPerSecond *big.Int, periodSeconds int64) decimal.Decimal {
	return fixedpoint.ToHuman(borrowingFactorPerSecond, factorDecimals).
		Mul(decimal.NewFromInt(periodSeconds))
}
