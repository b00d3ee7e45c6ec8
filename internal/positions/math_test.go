package positions

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
)

func usd(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Expand10(30))
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), fixedpoint.Expand10(18))
}

func TestAcceptablePrice(t *testing.T) {
	mark := decimal.NewFromInt(1000)
	slippage := decimal.NewFromFloat(0.003)

	tests := []struct {
		name   string
		isLong bool
		isOpen bool
		want   string
	}{
		{name: "진입 롱은 위로 양보", isLong: true, isOpen: true, want: "1003"},
		{name: "진입 숏은 아래로 양보", isLong: false, isOpen: true, want: "997"},
		{name: "청산 롱은 아래로 양보", isLong: true, isOpen: false, want: "997"},
		{name: "청산 숏은 위로 양보", isLong: false, isOpen: false, want: "1003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AcceptablePrice(mark, slippage, tt.isLong, tt.isOpen)
			if got.String() != tt.want {
				t.Errorf("허용 가격: got %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestValidateExecutionPrice(t *testing.T) {
	acceptable := decimal.NewFromInt(1000)

	tests := []struct {
		name      string
		execution int64
		isLong    bool
		isOpen    bool
		wantErr   bool
	}{
		{name: "진입 롱 허용 범위 안", execution: 999, isLong: true, isOpen: true},
		{name: "진입 롱 허용 가격 초과", execution: 1001, isLong: true, isOpen: true, wantErr: true},
		{name: "진입 숏 허용 범위 안", execution: 1001, isLong: false, isOpen: true},
		{name: "진입 숏 허용 가격 미만", execution: 999, isLong: false, isOpen: true, wantErr: true},
		{name: "청산 롱 허용 가격 미만", execution: 999, isLong: true, isOpen: false, wantErr: true},
		{name: "청산 숏 허용 가격 초과", execution: 1001, isLong: false, isOpen: false, wantErr: true},
		{name: "허용 가격과 같으면 통과", execution: 1000, isLong: true, isOpen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExecutionPrice(
				decimal.NewFromInt(tt.execution), acceptable, tt.isLong, tt.isOpen)

			if tt.wantErr {
				var slippageErr *SlippageExceededError
				if !errors.As(err, &slippageErr) {
					t.Fatalf("SlippageExceededError가 아닌 결과: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("검증 실패: %v", err)
			}
		})
	}
}

func TestLeverage(t *testing.T) {
	leverage, err := Leverage(decimal.NewFromInt(10000), decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("레버리지 계산 실패: %v", err)
	}
	if !leverage.Equal(decimal.NewFromInt(20)) {
		t.Errorf("레버리지: got %s, want 20", leverage.String())
	}

	if _, err := Leverage(decimal.NewFromInt(10000), decimal.Zero); !errors.Is(err, ErrZeroCollateral) {
		t.Errorf("담보 0: got %v, want ErrZeroCollateral", err)
	}
}

func TestPercentProfit(t *testing.T) {
	entry := decimal.NewFromInt(1000)
	leverage := decimal.NewFromInt(10)

	tests := []struct {
		name   string
		mark   int64
		isLong bool
		want   string
	}{
		{name: "롱은 가격 상승이 이익", mark: 1100, isLong: true, want: "100"},
		{name: "롱은 가격 하락이 손실", mark: 900, isLong: true, want: "-100"},
		{name: "숏은 가격 하락이 이익", mark: 900, isLong: false, want: "100"},
		{name: "숏은 가격 상승이 손실", mark: 1100, isLong: false, want: "-100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentProfit(entry, decimal.NewFromInt(tt.mark), leverage, tt.isLong)
			if got.String() != tt.want {
				t.Errorf("손익률: got %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestLiquidationPriceCrossCollateral(t *testing.T) {
	indexToken := common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc := common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")

	// 공통: 크기 $10,000 / 2 ETH, 마켓 팩터 1% → 유지 담보 $100,
	// 종료 수수료 $5 (0.05%)
	base := LiquidationInputs{
		SizeInUSD:           usd(10_000),
		SizeInTokens:        eth(2),
		CollateralAmount:    big.NewInt(1_000_000_000), // 1,000 USDC
		CollateralUSD:       usd(1_000),
		CollateralToken:     usdc,
		IndexToken:          indexToken,
		IndexDecimals:       18,
		MinCollateralUSD:    usd(10),
		MinCollateralFactor: fixedpoint.Expand10(28), // 0.01
	}

	t.Run("롱", func(t *testing.T) {
		in := base
		in.IsLong = true

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		// (100 - 995 + 10000) / 2 = 4552.5
		if price.String() != "4552.5" {
			t.Errorf("청산가: got %s, want 4552.5", price.String())
		}
	})

	t.Run("숏", func(t *testing.T) {
		in := base
		in.IsLong = false

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		// (100 - 995 - 10000) / -2 = 5447.5
		if price.String() != "5447.5" {
			t.Errorf("청산가: got %s, want 5447.5", price.String())
		}
	})

	t.Run("담보가 너무 크면 롱 청산가 없음", func(t *testing.T) {
		in := base
		in.IsLong = true
		in.CollateralUSD = usd(50_000)

		if _, ok := LiquidationPrice(in); ok {
			t.Error("음수 청산가가 정의된 것으로 나왔습니다")
		}
	})

	t.Run("미수 수수료는 청산가를 끌어올립니다", func(t *testing.T) {
		in := base
		in.IsLong = true
		in.PendingBorrowingFeesUSD = usd(100)

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		// remaining = 1000 - 100 - 5 = 895 → (100 - 895 + 10000) / 2 = 4602.5
		if price.String() != "4602.5" {
			t.Errorf("청산가: got %s, want 4602.5", price.String())
		}
	})
}

func TestLiquidationPriceSameUnderlying(t *testing.T) {
	indexToken := common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")

	base := LiquidationInputs{
		SizeInUSD:           usd(10_000),
		SizeInTokens:        eth(2),
		CollateralAmount:    eth(1),
		CollateralToken:     indexToken,
		IndexToken:          indexToken,
		IndexDecimals:       18,
		MinCollateralUSD:    usd(10),
		MinCollateralFactor: fixedpoint.Expand10(28),
	}

	t.Run("롱은 담보가 분모에 더해집니다", func(t *testing.T) {
		in := base
		in.IsLong = true

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		// (10000 + 100 + 5) / 3 ETH
		want := decimal.NewFromInt(10105).Div(decimal.NewFromInt(3))
		if !price.Equal(want) {
			t.Errorf("청산가: got %s, want %s", price.String(), want.String())
		}
	})

	t.Run("숏은 담보가 분모에서 빠집니다", func(t *testing.T) {
		in := base
		in.IsLong = false

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		// (10000 - 100 - 5) / 1 ETH
		if price.String() != "9895" {
			t.Errorf("청산가: got %s, want 9895", price.String())
		}
	})

	t.Run("크기와 담보가 같은 숏은 분모 0", func(t *testing.T) {
		in := base
		in.IsLong = false
		in.CollateralAmount = eth(2)

		if _, ok := LiquidationPrice(in); ok {
			t.Error("분모 0인데 청산가가 나왔습니다")
		}
	})

	t.Run("레거시 WBTC 담보는 합성 BTC와 같은 자산", func(t *testing.T) {
		in := base
		in.CollateralToken = gmx.LegacyWBTC
		in.IndexToken = gmx.SyntheticBTC
		in.IndexDecimals = 8
		in.SizeInTokens = big.NewInt(200_000_000) // 2 BTC
		in.CollateralAmount = big.NewInt(100_000_000)
		in.IsLong = true

		price, ok := LiquidationPrice(in)
		if !ok {
			t.Fatal("청산가가 정의되지 않았습니다")
		}
		want := decimal.NewFromInt(10105).Div(decimal.NewFromInt(3))
		if !price.Equal(want) {
			t.Errorf("청산가: got %s, want %s", price.String(), want.String())
		}
	})
}

func TestLiquidationPriceDegenerate(t *testing.T) {
	if _, ok := LiquidationPrice(LiquidationInputs{
		SizeInUSD:    big.NewInt(0),
		SizeInTokens: eth(1),
	}); ok {
		t.Error("크기 0인 포지션에 청산가가 나왔습니다")
	}

	if _, ok := LiquidationPrice(LiquidationInputs{
		SizeInUSD:    usd(100),
		SizeInTokens: big.NewInt(0),
	}); ok {
		t.Error("토큰 수량 0인 포지션에 청산가가 나왔습니다")
	}
}
