package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Position은 리더 컨트랙트가 보고한 오픈 포지션을 가공한 결과입니다
type Position struct {
	Account          common.Address // 포지션 소유 계정
	Market           common.Address // 마켓 주소
	MarketSymbol     string         // 마켓 심볼
	CollateralToken  common.Address // 담보 토큰 주소
	CollateralSymbol string         // 담보 토큰 심볼
	IsLong           bool           // 롱/숏 여부

	SizeInUSD        decimal.Decimal // 포지션 크기 (USD, 사람 단위)
	SizeInTokens     *big.Int        // 포지션 크기 (인덱스 토큰 단위, 원시값)
	CollateralAmount *big.Int        // 담보 수량 (토큰 단위, 원시값)
	CollateralUSD    decimal.Decimal // 담보 가치 (USD, 사람 단위)

	EntryPrice    decimal.Decimal // 평균 진입가 (USD)
	MarkPrice     decimal.Decimal // 마크 가격 (USD)
	Leverage      decimal.Decimal // 레버리지
	PercentProfit decimal.Decimal // 손익률 (%)

	BorrowingFactor                *big.Int // 진입 시점 보로잉 팩터
	FundingFeeAmountPerSize        *big.Int // 사이즈당 펀딩 수수료
	LongTokenClaimableFundingUSD   *big.Int // 롱 토큰 청구 가능 펀딩 (사이즈당)
	ShortTokenClaimableFundingUSD  *big.Int // 숏 토큰 청구 가능 펀딩 (사이즈당)
}

// Key는 포지션 맵에서 쓰는 "SYMBOL_long|short" 형태의 키를 반환합니다
func (p Position) Key() string {
	direction := "short"
	if p.IsLong {
		direction = "long"
	}
	return p.MarketSymbol + "_" + direction
}
