// internal/positions/errors.go
package positions

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	// ErrZeroCollateral은 담보 0으로 레버리지를 계산할 때 반환됩니다
	ErrZeroCollateral = errors.New("담보가 0인 포지션의 레버리지는 정의되지 않습니다")
)

// ProcessingError는 개별 포지션 가공 실패를 감싸는 에러입니다.
// 한 포지션이 실패해도 나머지 포지션 처리는 계속됩니다.
type ProcessingError struct {
	Market common.Address
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("포지션 가공 실패 (마켓 %s): %v", e.Market.Hex(), e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// SlippageExceededError는 예상 체결가가 허용 가격을 벗어난 경우입니다
type SlippageExceededError struct {
	ExecutionPrice  decimal.Decimal
	AcceptablePrice decimal.Decimal
	IsLong          bool
	IsOpen          bool
}

func (e *SlippageExceededError) Error() string {
	return fmt.Sprintf(
		"예상 체결가 %s이(가) 허용 가격 %s을(를) 벗어났습니다 (long=%v, open=%v)",
		e.ExecutionPrice.String(), e.AcceptablePrice.String(), e.IsLong, e.IsOpen,
	)
}
