// internal/orders/errors.go
package orders

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingChain은 체인이 없거나 지원하지 않는 체인일 때 반환됩니다
	ErrMissingChain = errors.New("지원하는 체인 이름을 지정해야 합니다")

	// ErrMissingDirection은 롱/숏 방향이 없을 때 반환됩니다.
	// 방향은 절대 추론하지 않습니다.
	ErrMissingDirection = errors.New("포지션 방향(is_long)을 지정해야 합니다")

	// ErrMissingSlippage는 슬리피지 허용치가 없을 때 반환됩니다
	ErrMissingSlippage = errors.New("슬리피지 허용치를 지정해야 합니다")

	// ErrAmbiguousSize는 {크기, 담보, 레버리지} 중 둘 미만이 주어져
	// 나머지를 계산할 수 없을 때 반환됩니다
	ErrAmbiguousSize = errors.New("size_delta_usd, initial_collateral_delta, leverage 중 둘은 지정해야 합니다")

	// ErrCollateralTooSmall은 진입 담보 가치가 $2 미만일 때 반환됩니다
	ErrCollateralTooSmall = errors.New("포지션 담보는 $2를 넘어야 합니다")

	// ErrMissingAmount는 스왑/인출에 수량이 없을 때 반환됩니다
	ErrMissingAmount = errors.New("수량을 지정해야 합니다")

	// ErrInvalidFraction은 청산 비율이 (0, 1] 범위를 벗어났을 때 반환됩니다
	ErrInvalidFraction = errors.New("청산 비율은 0 초과 1 이하이어야 합니다")
)

// ResolutionError는 어느 필드를 채우다 실패했는지를 담는 래퍼입니다
type ResolutionError struct {
	Field string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("주문 파라미터 해석 실패 (%s): %v", e.Field, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// InvalidCollateralError는 요청한 마켓에서 쓸 수 없는 담보를 가리킵니다
type InvalidCollateralError struct {
	Collateral common.Address
	MarketKey  common.Address
}

func (e *InvalidCollateralError) Error() string {
	return fmt.Sprintf("마켓 %s에서 쓸 수 없는 담보입니다: %s",
		e.MarketKey.Hex(), e.Collateral.Hex())
}

// MaxLeverageError는 요청 레버리지가 한도를 넘었을 때 반환됩니다
type MaxLeverageError struct {
	Requested decimal.Decimal
	Limit     decimal.Decimal
}

func (e *MaxLeverageError) Error() string {
	return fmt.Sprintf("요청 레버리지 x%s은(는) 한도 x%s을(를) 넘습니다",
		e.Requested.StringFixed(2), e.Limit.String())
}
