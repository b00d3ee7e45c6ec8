package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// OrderRequest는 사용자가 전달하는 사람 단위의 주문 요청입니다.
// 주소 대신 심볼만 넘겨도 리졸버가 채워 넣습니다.
type OrderRequest struct {
	Chain Chain

	// 주소 또는 심볼 중 하나만 있으면 됩니다
	IndexTokenAddress      *common.Address
	IndexTokenSymbol       string
	CollateralTokenAddress *common.Address
	CollateralTokenSymbol  string
	StartTokenAddress      *common.Address
	StartTokenSymbol       string
	OutTokenAddress        *common.Address
	OutTokenSymbol         string

	IsLong *bool // 필수, 추론하지 않음

	// {SizeDeltaUSD, InitialCollateralDelta, Leverage} 중 둘이 있으면
	// 나머지 하나를 계산합니다
	SizeDeltaUSD           *decimal.Decimal // 포지션 증감 크기 (USD)
	InitialCollateralDelta *decimal.Decimal // 담보 수량 (토큰, 사람 단위)
	Leverage               *decimal.Decimal

	SlippagePercent *decimal.Decimal // 필수 (예: 0.003 == 0.3%)

	SwapPath []common.Address // 생략 시 계산됩니다
}

// ResolvedOrder는 리졸버가 완성한 프로토콜 단위의 주문입니다.
// 모든 금액은 정수이고 모든 주소는 체크섬 형식입니다.
type ResolvedOrder struct {
	Kind  OrderKind
	Chain Chain

	MarketKey         common.Address
	IndexTokenAddress common.Address
	CollateralAddress common.Address
	StartTokenAddress common.Address
	OutTokenAddress   common.Address

	IsLong bool

	SizeDeltaUSD           decimal.Decimal // 사람 단위 (검증/로그용)
	SizeDelta              *big.Int        // 10^30 스케일 정수
	InitialCollateralDelta *big.Int        // 토큰 decimals 스케일 정수

	SlippagePercent decimal.Decimal
	SwapPath        []common.Address
}

// DepositRequest는 유동성 예치 요청입니다
type DepositRequest struct {
	Chain Chain

	MarketTokenSymbol string
	MarketKey         *common.Address

	LongTokenAddress  *common.Address
	LongTokenSymbol   string
	ShortTokenAddress *common.Address
	ShortTokenSymbol  string

	// USD 금액을 주면 마크 가격으로 토큰 수량을 계산합니다
	LongTokenUSD  decimal.Decimal
	ShortTokenUSD decimal.Decimal
}

// ResolvedDeposit은 프로토콜 단위로 완성된 예치 파라미터입니다
type ResolvedDeposit struct {
	Chain     Chain
	MarketKey common.Address

	LongTokenAddress  common.Address
	ShortTokenAddress common.Address
	LongTokenAmount   *big.Int // 토큰 decimals 스케일
	ShortTokenAmount  *big.Int
}

// WithdrawalRequest는 유동성 인출 요청입니다
type WithdrawalRequest struct {
	Chain Chain

	MarketTokenSymbol string
	MarketKey         *common.Address

	OutTokenAddress *common.Address
	OutTokenSymbol  string

	GMAmount decimal.Decimal // GM 토큰 수량 (사람 단위)
}

// ResolvedWithdrawal은 프로토콜 단위로 완성된 인출 파라미터입니다
type ResolvedWithdrawal struct {
	Chain     Chain
	MarketKey common.Address

	OutTokenAddress common.Address
	GMAmount        *big.Int // 10^18 스케일
}
