package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyFactorBig(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		factor string
		want   string
	}{
		{
			name:   "팩터 1.0 적용",
			value:  "5000000000000000000000000000000",
			factor: "1000000000000000000000000000000",
			want:   "5000000000000000000000000000000",
		},
		{
			name:   "0.0005 수수료 팩터",
			value:  "5000000000000000000000000000000", // $5
			factor: "500000000000000000000000000",     // 0.0005
			want:   "2500000000000000000000000000",    // $0.0025
		},
		{
			name:   "0 값",
			value:  "0",
			factor: "1000000000000000000000000000000",
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, _ := new(big.Int).SetString(tt.value, 10)
			factor, _ := new(big.Int).SetString(tt.factor, 10)
			want, _ := new(big.Int).SetString(tt.want, 10)

			got := ApplyFactorBig(value, factor)
			if got.Cmp(want) != 0 {
				t.Errorf("ApplyFactorBig() = %s, want %s", got, want)
			}
		})
	}
}

func TestToProtocolTruncates(t *testing.T) {
	// 정수 캐스팅은 항상 0 방향으로 버려야 합니다
	amount := decimal.RequireFromString("1.9999999")
	got := ToProtocol(amount, 6)
	want := big.NewInt(1999999)
	if got.Cmp(want) != 0 {
		t.Errorf("ToProtocol(1.9999999, 6) = %s, want %s", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	// 정수 x에 대해 to_protocol(to_human(x, d), d) == x
	decimalsList := []int32{6, 8, 18, 30}
	values := []int64{0, 1, 7, 123456789, 999999999999}

	for _, d := range decimalsList {
		for _, v := range values {
			x := big.NewInt(v)
			back := ToProtocol(ToHuman(x, d), d)
			if back.Cmp(x) != 0 {
				t.Errorf("decimals=%d: round trip of %s = %s", d, x, back)
			}
		}
	}
}

func TestOracleToUSD(t *testing.T) {
	// USDC(6 decimals)의 오라클 가격은 10^24 스케일
	price := decimal.New(1, 24)
	got := OracleToUSD(price, 6)
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("OracleToUSD = %s, want 1", got)
	}
}

func TestUSDToProtocol(t *testing.T) {
	got := USDToProtocol(decimal.NewFromInt(5))
	want, _ := new(big.Int).SetString("5000000000000000000000000000000", 10)
	if got.Cmp(want) != 0 {
		t.Errorf("USDToProtocol(5) = %s, want %s", got, want)
	}
}
