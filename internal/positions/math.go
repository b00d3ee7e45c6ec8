// internal/positions/math.go
package positions

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
)

// 청산가 계산에 쓰는 포지션 종료 수수료 팩터입니다.
// 가격 영향이 양수인 종료는 0.05%, 음수인 종료는 0.07%를 냅니다.
var (
	closingFeeFactorPositive = decimal.NewFromFloat(0.0005)
	closingFeeFactorNegative = decimal.NewFromFloat(0.0007)

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// AcceptablePrice는 마크 가격에 슬리피지를 반영한 허용 가격을 계산합니다.
// 진입 롱과 청산 숏은 위쪽으로, 진입 숏과 청산 롱은 아래쪽으로 양보합니다.
func AcceptablePrice(markPrice, slippage decimal.Decimal, isLong, isOpen bool) decimal.Decimal {
	if isLong == isOpen {
		return markPrice.Mul(one.Add(slippage))
	}
	return markPrice.Mul(one.Sub(slippage))
}

// ValidateExecutionPrice는 리더 컨트랙트가 추정한 체결가가 허용 가격 안에
// 있는지 검사합니다. 벗어나면 SlippageExceededError를 반환합니다.
func ValidateExecutionPrice(executionPrice, acceptablePrice decimal.Decimal, isLong, isOpen bool) error {
	exceeded := false
	if isLong == isOpen {
		// 진입 롱 / 청산 숏: 허용 가격보다 비싸게 체결되면 실패
		exceeded = executionPrice.GreaterThan(acceptablePrice)
	} else {
		// 진입 숏 / 청산 롱: 허용 가격보다 싸게 체결되면 실패
		exceeded = executionPrice.LessThan(acceptablePrice)
	}

	if exceeded {
		return &SlippageExceededError{
			ExecutionPrice:  executionPrice,
			AcceptablePrice: acceptablePrice,
			IsLong:          isLong,
			IsOpen:          isOpen,
		}
	}
	return nil
}

// Leverage는 포지션 크기와 담보 가치로 레버리지를 계산합니다
func Leverage(sizeUSD, collateralUSD decimal.Decimal) (decimal.Decimal, error) {
	if collateralUSD.IsZero() {
		return decimal.Zero, ErrZeroCollateral
	}
	return sizeUSD.Div(collateralUSD), nil
}

// PercentProfit은 레버리지를 반영한 손익률(%)을 계산합니다.
// 롱은 마크 가격이 진입가보다 높을 때, 숏은 낮을 때 양수입니다.
func PercentProfit(entryPrice, markPrice, leverage decimal.Decimal, isLong bool) decimal.Decimal {
	if entryPrice.IsZero() {
		return decimal.Zero
	}
	ratio := markPrice.Div(entryPrice)
	if isLong {
		return ratio.Sub(one).Mul(leverage).Mul(hundred)
	}
	return one.Sub(ratio).Mul(leverage).Mul(hundred)
}

// LiquidationInputs는 청산가 계산에 필요한 원시값 묶음입니다.
// USD 값은 모두 10^30 스케일, 토큰 수량은 토큰 decimals 스케일입니다.
type LiquidationInputs struct {
	SizeInUSD        *big.Int
	SizeInTokens     *big.Int
	CollateralAmount *big.Int
	CollateralUSD    *big.Int
	CollateralToken  common.Address
	IndexToken       common.Address
	IndexDecimals    int32

	PendingFundingFeesUSD   *big.Int
	PendingBorrowingFeesUSD *big.Int

	MinCollateralUSD    *big.Int // 데이터스토어의 체인 전역 최소 담보
	MinCollateralFactor *big.Int // 마켓별 최소 담보 팩터

	IsLong bool
}

// LiquidationPrice는 포지션의 청산 가격을 USD(사람 단위)로 계산합니다.
// 청산 가격이 정의되지 않는 포지션(크기 0, 분모 0, 음수 결과)은
// 두 번째 반환값이 false입니다.
//
// 청산 시점의 가격 영향은 0으로 가정합니다. 실제 체결에서는 마켓의
// 최대 가격 영향 한도가 적용되지만, 이 추정에는 반영하지 않습니다.
func LiquidationPrice(in LiquidationInputs) (decimal.Decimal, bool) {
	if in.SizeInUSD == nil || in.SizeInUSD.Sign() <= 0 {
		return decimal.Zero, false
	}
	if in.SizeInTokens == nil || in.SizeInTokens.Sign() <= 0 {
		return decimal.Zero, false
	}

	sizeUSD := fixedpoint.ToHuman(in.SizeInUSD, fixedpoint.Precision)

	// 종료 수수료는 가격 영향이 양수라고 보고 낮은 팩터를 적용합니다
	closingFeeUSD := sizeUSD.Mul(closingFeeFactorPositive)
	pendingFeesUSD := bigToUSD(in.PendingFundingFeesUSD).Add(bigToUSD(in.PendingBorrowingFeesUSD))
	totalFeesUSD := pendingFeesUSD.Add(closingFeeUSD)

	// 유지 담보: max(사이즈 × 마켓 팩터, 체인 전역 최소값)
	minCollateralFactor := in.MinCollateralFactor
	if minCollateralFactor == nil {
		minCollateralFactor = new(big.Int)
	}
	liqCollateralRaw := fixedpoint.ApplyFactorBig(in.SizeInUSD, minCollateralFactor)
	if in.MinCollateralUSD != nil && liqCollateralRaw.Cmp(in.MinCollateralUSD) < 0 {
		liqCollateralRaw = in.MinCollateralUSD
	}
	liqCollateralUSD := fixedpoint.ToHuman(liqCollateralRaw, fixedpoint.Precision)

	var price decimal.Decimal

	if isSameUnderlying(in.CollateralToken, in.IndexToken) {
		// 담보가 인덱스 자산 그 자체인 경우: 담보 수량이 포지션 크기와
		// 같은 단위이므로 분모에 합산/차감됩니다
		if in.IsLong {
			denominator := new(big.Int).Add(in.SizeInTokens, in.CollateralAmount)
			if denominator.Sign() == 0 {
				return decimal.Zero, false
			}
			numerator := sizeUSD.Add(liqCollateralUSD).Add(totalFeesUSD)
			price = numerator.Div(fixedpoint.ToHuman(denominator, in.IndexDecimals))
		} else {
			denominator := new(big.Int).Sub(in.SizeInTokens, in.CollateralAmount)
			if denominator.Sign() == 0 {
				return decimal.Zero, false
			}
			numerator := sizeUSD.Sub(liqCollateralUSD).Sub(totalFeesUSD)
			price = numerator.Div(fixedpoint.ToHuman(denominator, in.IndexDecimals))
		}
	} else {
		remainingCollateralUSD := fixedpoint.ToHuman(in.CollateralUSD, fixedpoint.Precision).
			Sub(pendingFeesUSD).
			Sub(closingFeeUSD)

		sizeInTokens := fixedpoint.ToHuman(in.SizeInTokens, in.IndexDecimals)
		if in.IsLong {
			price = liqCollateralUSD.Sub(remainingCollateralUSD).Add(sizeUSD).Div(sizeInTokens)
		} else {
			price = liqCollateralUSD.Sub(remainingCollateralUSD).Sub(sizeUSD).Div(sizeInTokens.Neg())
		}
	}

	if price.Sign() <= 0 {
		return decimal.Zero, false
	}
	return price, true
}

// bigToUSD는 10^30 스케일 정수를 사람 단위 USD로 바꿉니다. nil은 0입니다.
func bigToUSD(value *big.Int) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return fixedpoint.ToHuman(value, fixedpoint.Precision)
}

// isSameUnderlying은 담보와 인덱스가 같은 기초 자산인지 판정합니다.
// 레거시 WBTC 담보는 합성 BTC 인덱스와 같은 자산으로 칩니다.
func isSameUnderlying(collateral, index common.Address) bool {
	return gmx.AliasLegacyWrapped(collateral) == gmx.AliasLegacyWrapped(index)
}
