// internal/fixedpoint/fixedpoint.go
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision은 GMX v2의 고정소수점 자릿수입니다. 모든 USD/비율 값은
// 10^30 스케일 정수로 표현됩니다.
const Precision = 30

var expandedPrecision = Expand10(Precision)

// Expand10은 10^n을 big.Int로 반환합니다
func Expand10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ApplyFactorBig은 value * factor / 10^30을 정수 연산으로 계산합니다.
// 온체인 호출에 들어가는 값은 절대 float을 거치면 안 됩니다.
func ApplyFactorBig(value, factor *big.Int) *big.Int {
	product := new(big.Int).Mul(value, factor)
	return product.Quo(product, expandedPrecision)
}

// ApplyFactor는 value * factor / 10^30의 decimal 버전입니다.
// 사람이 읽는 비율(펀딩률 등) 계산에 사용합니다.
func ApplyFactor(value, factor decimal.Decimal) decimal.Decimal {
	return value.Mul(factor).Div(decimal.New(1, Precision))
}

// ToProtocol은 사람 단위 수량을 10^decimals 스케일 정수로 변환합니다.
// 정수 캐스팅 시 소수부는 0 방향으로 버립니다.
func ToProtocol(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

// ToHuman은 10^decimals 스케일 정수를 사람 단위 수량으로 변환합니다
func ToHuman(amount *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(amount, -decimals)
}

// USDToProtocol은 USD 금액을 10^30 스케일 정수로 변환합니다
func USDToProtocol(usd decimal.Decimal) *big.Int {
	return ToProtocol(usd, Precision)
}

// OracleToUSD는 오라클 정밀도(30 - 토큰 decimals)의 가격을
// 사람 단위 USD 가격으로 변환합니다
func OracleToUSD(price decimal.Decimal, tokenDecimals int32) decimal.Decimal {
	return price.Shift(tokenDecimals - Precision)
}
