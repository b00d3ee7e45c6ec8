// internal/gmx/reader.go
package gmx

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 리더/데이터스토어 컨트랙트는 외부 협력자입니다. 이 패키지는 호출의
// 위치 기반 튜플 스키마만 타입으로 고정하고, 실제 RPC 전송 구현은
// 바깥에서 주입합니다.

// RawMarket은 getMarkets가 반환하는 마켓 튜플입니다
type RawMarket struct {
	MarketToken common.Address
	IndexToken  common.Address
	LongToken   common.Address
	ShortToken  common.Address
}

// PricePair는 (min, max) 가격 쌍입니다. 오라클 정밀도 스케일입니다.
type PricePair struct {
	Min *big.Int
	Max *big.Int
}

// MarketPrices는 getMarketInfo 등에 전달하는 인덱스/롱/숏 가격 묶음입니다
type MarketPrices struct {
	IndexTokenPrice PricePair
	LongTokenPrice  PricePair
	ShortTokenPrice PricePair
}

// RawMarketInfo는 getMarketInfo 출력에서 이 SDK가 소비하는 필드만 추린 것입니다
type RawMarketInfo struct {
	Market RawMarket

	BorrowingFactorPerSecondForLongs  *big.Int
	BorrowingFactorPerSecondForShorts *big.Int

	LongsPayShorts         bool
	FundingFactorPerSecond *big.Int

	IsDisabled bool
}

// ExecutionPriceParams는 getExecutionPrice 호출 파라미터입니다
type ExecutionPriceParams struct {
	DataStore            common.Address
	MarketKey            common.Address
	IndexTokenPrice      PricePair
	PositionSizeInUSD    *big.Int
	PositionSizeInTokens *big.Int
	SizeDelta            *big.Int // 청산 시 음수
	IsLong               bool
}

// ExecutionPriceResult는 getExecutionPrice 출력입니다.
// 튜플의 0번(priceImpactUsd)과 2번(executionPrice)만 사용합니다.
type ExecutionPriceResult struct {
	PriceImpactUSD *big.Int // 10^30 스케일
	ExecutionPrice *big.Int // 오라클 정밀도 스케일
}

// SwapParams는 getSwapAmountOut 호출 파라미터입니다
type SwapParams struct {
	DataStore     common.Address
	Market        RawMarket
	TokenPrices   MarketPrices
	TokenIn       common.Address
	TokenAmountIn *big.Int
	UIFeeReceiver common.Address
}

// SwapAmountOut은 getSwapAmountOut 출력입니다
type SwapAmountOut struct {
	AmountOut      *big.Int
	PriceImpactUSD *big.Int
}

// DepositAmountParams는 getDepositAmountOut 호출 파라미터입니다
type DepositAmountParams struct {
	DataStore        common.Address
	Market           RawMarket
	TokenPrices      MarketPrices
	LongTokenAmount  *big.Int
	ShortTokenAmount *big.Int
	UIFeeReceiver    common.Address
}

// WithdrawalAmountParams는 getWithdrawalAmountOut 호출 파라미터입니다
type WithdrawalAmountParams struct {
	DataStore     common.Address
	Market        RawMarket
	TokenPrices   MarketPrices
	GMAmount      *big.Int
	UIFeeReceiver common.Address
}

// WithdrawalAmountOut은 getWithdrawalAmountOut 출력입니다
type WithdrawalAmountOut struct {
	LongTokenAmount  *big.Int
	ShortTokenAmount *big.Int
}

// RawPositionAddresses는 포지션 튜플의 주소 블록입니다
type RawPositionAddresses struct {
	Account         common.Address
	Market          common.Address
	CollateralToken common.Address
}

// RawPositionNumbers는 포지션 튜플의 숫자 블록입니다
type RawPositionNumbers struct {
	SizeInUSD                               *big.Int
	SizeInTokens                            *big.Int
	CollateralAmount                        *big.Int
	BorrowingFactor                         *big.Int
	FundingFeeAmountPerSize                 *big.Int
	LongTokenClaimableFundingAmountPerSize  *big.Int
	ShortTokenClaimableFundingAmountPerSize *big.Int
	IncreasedAtBlock                        *big.Int
	DecreasedAtBlock                        *big.Int
	IncreasedAtTime                         *big.Int
	DecreasedAtTime                         *big.Int
}

// RawPosition은 getAccountPositions가 반환하는 포지션 튜플입니다
type RawPosition struct {
	Addresses RawPositionAddresses
	Numbers   RawPositionNumbers
	IsLong    bool
}

// Reader는 GMX v2 synthetics reader 컨트랙트의 읽기 표면입니다
type Reader interface {
	GetMarkets(ctx context.Context, dataStore common.Address, start, end uint64) ([]RawMarket, error)
	GetMarketInfo(ctx context.Context, dataStore common.Address, prices MarketPrices, marketKey common.Address) (RawMarketInfo, error)
	GetExecutionPrice(ctx context.Context, params ExecutionPriceParams) (ExecutionPriceResult, error)
	GetSwapAmountOut(ctx context.Context, params SwapParams) (SwapAmountOut, error)
	GetDepositAmountOut(ctx context.Context, params DepositAmountParams) (*big.Int, error)
	GetWithdrawalAmountOut(ctx context.Context, params WithdrawalAmountParams) (WithdrawalAmountOut, error)
	GetAccountPositions(ctx context.Context, dataStore, account common.Address, start, end uint64) ([]RawPosition, error)
}

// Datastore는 해시된 키로 단일 uint256을 읽는 표면입니다
type Datastore interface {
	GetUint(ctx context.Context, key common.Hash) (*big.Int, error)
}
