// internal/gmx/keys.go
package gmx

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 데이터스토어 키는 (타입 리스트, 값 리스트)를 ABI 인코딩한 뒤
// keccak 해시해서 만듭니다. 온체인 키 생성 방식과 바이트 단위로
// 일치해야 합니다.

var (
	stringType  = mustABIType("string")
	bytes32Type = mustABIType("bytes32")
	addressType = mustABIType("address")
	boolType    = mustABIType("bool")
)

func mustABIType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// HashData는 타입/값 리스트를 ABI 인코딩 후 keccak 해시합니다
func HashData(types []abi.Type, values []interface{}) common.Hash {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		args[i] = abi.Argument{Type: t}
	}
	packed, err := args.Pack(values...)
	if err != nil {
		// 타입/값 리스트는 이 패키지 안에서만 구성되므로
		// 인코딩 실패는 프로그래밍 오류입니다
		panic(err)
	}
	return crypto.Keccak256Hash(packed)
}

// HashString은 문자열 하나를 키로 해시합니다
func HashString(s string) common.Hash {
	return HashData([]abi.Type{stringType}, []interface{}{s})
}

var (
	minCollateralUSDHash                   = HashString("MIN_COLLATERAL_USD")
	minCollateralFactor                    = HashString("MIN_COLLATERAL_FACTOR")
	maxPositionImpactFactorForLiquidations = HashString(
		"MAX_POSITION_IMPACT_FACTOR_FOR_LIQUIDATIONS",
	)
	accountPositionList = HashString("ACCOUNT_POSITION_LIST")
	openInterest        = HashString("OPEN_INTEREST")

	poolAmount                = HashString("POOL_AMOUNT")
	reserveFactor             = HashString("RESERVE_FACTOR")
	openInterestReserveFactor = HashString("OPEN_INTEREST_RESERVE_FACTOR")

	depositGasLimit                 = HashString("DEPOSIT_GAS_LIMIT")
	withdrawalGasLimit              = HashString("WITHDRAWAL_GAS_LIMIT")
	singleSwapGasLimit              = HashString("SINGLE_SWAP_GAS_LIMIT")
	swapOrderGasLimit               = HashString("SWAP_ORDER_GAS_LIMIT")
	increaseOrderGasLimit           = HashString("INCREASE_ORDER_GAS_LIMIT")
	decreaseOrderGasLimit           = HashString("DECREASE_ORDER_GAS_LIMIT")
	executionGasFeeBaseAmount       = HashString("EXECUTION_GAS_FEE_BASE_AMOUNT")
	executionGasFeeMultiplierFactor = HashString(
		"EXECUTION_GAS_FEE_MULTIPLIER_FACTOR",
	)
)

// MinCollateralUSDKey는 전역 최소 담보 USD 키를 반환합니다
func MinCollateralUSDKey() common.Hash {
	return minCollateralUSDHash
}

// MinCollateralFactorKey는 마켓별 최소 담보 팩터 키를 반환합니다
func MinCollateralFactorKey(market common.Address) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType},
		[]interface{}{minCollateralFactor, market},
	)
}

// MaxPositionImpactFactorForLiquidationsKey는 청산 가격 임팩트 상한 키를 반환합니다
func MaxPositionImpactFactorForLiquidationsKey(market common.Address) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType},
		[]interface{}{maxPositionImpactFactorForLiquidations, market},
	)
}

// AccountPositionListKey는 계정의 포지션 키 목록 키를 반환합니다
func AccountPositionListKey(account common.Address) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType},
		[]interface{}{accountPositionList, account},
	)
}

// OpenInterestKey는 (마켓, 담보 토큰, 방향)별 미결제약정 키를 반환합니다
func OpenInterestKey(market, collateralToken common.Address, isLong bool) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType, addressType, boolType},
		[]interface{}{openInterest, market, collateralToken, isLong},
	)
}

// PoolAmountKey는 (마켓, 토큰)별 풀 보유량 키를 반환합니다
func PoolAmountKey(market, token common.Address) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType, addressType},
		[]interface{}{poolAmount, market, token},
	)
}

// ReserveFactorKey는 (마켓, 방향)별 풀 예약 비율 키를 반환합니다
func ReserveFactorKey(market common.Address, isLong bool) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType, boolType},
		[]interface{}{reserveFactor, market, isLong},
	)
}

// OpenInterestReserveFactorKey는 (마켓, 방향)별 미결제약정 예약 비율 키를 반환합니다
func OpenInterestReserveFactorKey(market common.Address, isLong bool) common.Hash {
	return HashData(
		[]abi.Type{bytes32Type, addressType, boolType},
		[]interface{}{openInterestReserveFactor, market, isLong},
	)
}

// 가스 한도 키들
func DepositGasLimitKey() common.Hash { return depositGasLimit }

func WithdrawalGasLimitKey() common.Hash { return withdrawalGasLimit }

func SingleSwapGasLimitKey() common.Hash { return singleSwapGasLimit }

func SwapOrderGasLimitKey() common.Hash { return swapOrderGasLimit }

func IncreaseOrderGasLimitKey() common.Hash { return increaseOrderGasLimit }

func DecreaseOrderGasLimitKey() common.Hash { return decreaseOrderGasLimit }

func ExecutionGasFeeBaseAmountKey() common.Hash { return executionGasFeeBaseAmount }

func ExecutionGasFeeMultiplierFactorKey() common.Hash {
	return executionGasFeeMultiplierFactor
}
