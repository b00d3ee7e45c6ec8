package domain

import "github.com/ethereum/go-ethereum/common"

// Chain은 지원하는 체인을 정의합니다
type Chain string

const (
	Arbitrum  Chain = "arbitrum"
	Avalanche Chain = "avalanche"
)

// IsValid는 지원하는 체인인지 확인합니다
func (c Chain) IsValid() bool {
	return c == Arbitrum || c == Avalanche
}

// OrderType은 GMX v2 주문 유형의 온체인 enum 값을 정의합니다
type OrderType uint8

const (
	MarketSwap OrderType = iota
	LimitSwap
	MarketIncrease
	LimitIncrease
	MarketDecrease
	LimitDecrease
	StopLossDecrease
	Liquidation
)

// DecreasePositionSwapType은 청산 시 스왑 처리 방식을 정의합니다
type DecreasePositionSwapType uint8

const (
	NoSwap DecreasePositionSwapType = iota
	SwapPnlTokenToCollateralToken
	SwapCollateralTokenToPnlToken
)

// OrderKind는 리졸버가 처리하는 요청 종류를 정의합니다
type OrderKind int

const (
	KindIncrease OrderKind = iota
	KindDecrease
	KindSwap
	KindDeposit
	KindWithdrawal
)

// String은 OrderKind의 문자열 표현을 반환합니다
func (k OrderKind) String() string {
	switch k {
	case KindIncrease:
		return "increase"
	case KindDecrease:
		return "decrease"
	case KindSwap:
		return "swap"
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	default:
		return "unknown"
	}
}

// ZeroAddress는 합성(인덱스 없는) 마켓에 쓰이는 센티널 주소입니다
var ZeroAddress = common.Address{}
