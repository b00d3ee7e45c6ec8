package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token은 GMX infra API가 반환하는 토큰 메타데이터를 표현합니다
type Token struct {
	Address  common.Address // 토큰 컨트랙트 주소
	Symbol   string         // 심볼 (예: WETH, USDC)
	Decimals int32          // 토큰 자체의 소수점 자릿수
}

// PriceQuote는 서명된 오라클 가격의 min/max 쌍입니다.
// 값의 스케일은 30 - 토큰 decimals (오라클 정밀도)입니다.
type PriceQuote struct {
	Min *big.Int
	Max *big.Int
}

// OracleDecimals는 이 토큰 가격의 오라클 정밀도를 반환합니다
func (t Token) OracleDecimals() int32 {
	return 30 - t.Decimals
}
