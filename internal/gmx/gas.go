// internal/gmx/gas.go
package gmx

import (
	"context"
	"fmt"
	"math/big"

	"github.com/assist-by/hermes/internal/fixedpoint"
)

// GasLimits는 실행 수수료 계산에 필요한 데이터스토어 가스 한도 모음입니다
type GasLimits struct {
	Deposit       *big.Int
	Withdrawal    *big.Int
	SingleSwap    *big.Int
	SwapOrder     *big.Int
	IncreaseOrder *big.Int
	DecreaseOrder *big.Int

	EstimatedFeeBaseGasLimit     *big.Int
	EstimatedFeeMultiplierFactor *big.Int
}

// FetchGasLimits는 데이터스토어에서 가스 한도들을 읽어옵니다
func FetchGasLimits(ctx context.Context, ds Datastore) (GasLimits, error) {
	var limits GasLimits

	var err error
	if limits.Deposit, err = ds.GetUint(ctx, DepositGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("deposit 가스 한도 조회 실패: %w", err)
	}
	if limits.Withdrawal, err = ds.GetUint(ctx, WithdrawalGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("withdrawal 가스 한도 조회 실패: %w", err)
	}
	if limits.SingleSwap, err = ds.GetUint(ctx, SingleSwapGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("single swap 가스 한도 조회 실패: %w", err)
	}
	if limits.SwapOrder, err = ds.GetUint(ctx, SwapOrderGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("swap order 가스 한도 조회 실패: %w", err)
	}
	if limits.IncreaseOrder, err = ds.GetUint(ctx, IncreaseOrderGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("increase order 가스 한도 조회 실패: %w", err)
	}
	if limits.DecreaseOrder, err = ds.GetUint(ctx, DecreaseOrderGasLimitKey()); err != nil {
		return GasLimits{}, fmt.Errorf("decrease order 가스 한도 조회 실패: %w", err)
	}
	if limits.EstimatedFeeBaseGasLimit, err = ds.GetUint(ctx, ExecutionGasFeeBaseAmountKey()); err != nil {
		return GasLimits{}, fmt.Errorf("기본 가스 한도 조회 실패: %w", err)
	}
	if limits.EstimatedFeeMultiplierFactor, err = ds.GetUint(ctx, ExecutionGasFeeMultiplierFactorKey()); err != nil {
		return GasLimits{}, fmt.Errorf("가스 승수 조회 실패: %w", err)
	}

	return limits, nil
}

// ExecutionFee는 주어진 작업의 최소 실행 수수료를 계산합니다.
// adjusted = base + applyFactor(operationLimit, multiplier), fee = adjusted * gasPrice
func ExecutionFee(limits GasLimits, operationLimit, gasPrice *big.Int) *big.Int {
	adjusted := new(big.Int).Add(
		limits.EstimatedFeeBaseGasLimit,
		fixedpoint.ApplyFactorBig(operationLimit, limits.EstimatedFeeMultiplierFactor),
	)
	return adjusted.Mul(adjusted, gasPrice)
}
