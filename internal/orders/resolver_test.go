package orders

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/markets"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/tokens"
)

var (
	usdcAddr = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	wethAddr = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	gmxAddr  = common.HexToAddress("0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a")

	gmxMarket = common.HexToAddress("0x55391D178Ce46e7AC8eaAEa50A72D1A5a8A622Da")
	ethMarket = common.HexToAddress("0x70d95587d40A2caf56bd97485aB3Eec10Bee6336")
	btcMarket = common.HexToAddress("0x47c031236e19d024b42f8AE6780E44A573170703")
)

func testTokens() tokens.Catalog {
	return tokens.NewCatalog(map[common.Address]domain.Token{
		usdcAddr:         {Address: usdcAddr, Symbol: "USDC", Decimals: 6},
		wethAddr:         {Address: wethAddr, Symbol: "ETH", Decimals: 18},
		gmxAddr:          {Address: gmxAddr, Symbol: "GMX", Decimals: 18},
		gmx.LegacyWBTC:   {Address: gmx.LegacyWBTC, Symbol: "WBTC.b", Decimals: 8},
		gmx.SyntheticBTC: {Address: gmx.SyntheticBTC, Symbol: "BTC", Decimals: 8},
	})
}

func testMarkets(t *testing.T) markets.Catalog {
	t.Helper()
	contracts, err := gmx.ContractsFor(domain.Arbitrum)
	if err != nil {
		t.Fatalf("컨트랙트 목록 조회 실패: %v", err)
	}
	return markets.NewCatalog(map[common.Address]domain.Market{
		gmxMarket: {
			Address: gmxMarket, IndexToken: gmxAddr,
			LongToken: gmxAddr, ShortToken: usdcAddr,
			Symbol: "GMX", IndexDecimals: 18, LongDecimals: 18, ShortDecimals: 6,
		},
		ethMarket: {
			Address: ethMarket, IndexToken: wethAddr,
			LongToken: wethAddr, ShortToken: usdcAddr,
			Symbol: "ETH", IndexDecimals: 18, LongDecimals: 18, ShortDecimals: 6,
		},
		btcMarket: {
			Address: btcMarket, IndexToken: gmx.SyntheticBTC,
			LongToken: gmx.LegacyWBTC, ShortToken: usdcAddr,
			Symbol: "BTC", IndexDecimals: 8, LongDecimals: 8, ShortDecimals: 6,
		},
	}, contracts.HubToken)
}

func resolverPrices() pricefeed.Snapshot {
	return pricefeed.Snapshot{
		// USDC $1, ETH $3,000, GMX $25 (오라클 정밀도 스케일)
		usdcAddr: {Min: fixedpoint.Expand10(24), Max: fixedpoint.Expand10(24)},
		wethAddr: {
			Min: new(big.Int).Mul(big.NewInt(3000), fixedpoint.Expand10(12)),
			Max: new(big.Int).Mul(big.NewInt(3000), fixedpoint.Expand10(12)),
		},
		gmxAddr: {
			Min: new(big.Int).Mul(big.NewInt(25), fixedpoint.Expand10(12)),
			Max: new(big.Int).Mul(big.NewInt(25), fixedpoint.Expand10(12)),
		},
	}
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(domain.Arbitrum, testTokens(), testMarkets(t), resolverPrices())
}

func ptr[T any](v T) *T { return &v }

func baseIncreaseRequest() domain.OrderRequest {
	return domain.OrderRequest{
		Chain:                 domain.Arbitrum,
		IndexTokenSymbol:      "GMX",
		StartTokenSymbol:      "USDC",
		CollateralTokenSymbol: "USDC",
		IsLong:                ptr(true),
		SizeDeltaUSD:          ptr(decimal.NewFromInt(5)),
		Leverage:              ptr(decimal.NewFromInt(1)),
		SlippagePercent:       ptr(decimal.NewFromFloat(0.003)),
	}
}

func TestResolveIncrease(t *testing.T) {
	resolver := testResolver(t)

	order, err := resolver.ResolveIncrease(baseIncreaseRequest())
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	if order.MarketKey != gmxMarket {
		t.Errorf("마켓: got %s, want %s", order.MarketKey.Hex(), gmxMarket.Hex())
	}
	if order.CollateralAddress != usdcAddr {
		t.Errorf("담보: got %s", order.CollateralAddress.Hex())
	}
	// $5 × 10^30
	wantSize := new(big.Int).Mul(big.NewInt(5), fixedpoint.Expand10(30))
	if order.SizeDelta.Cmp(wantSize) != 0 {
		t.Errorf("포지션 크기: got %s, want %s", order.SizeDelta, wantSize)
	}
	// $5 / $1 = 5 USDC → 5 × 10^6
	if order.InitialCollateralDelta.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Errorf("담보 수량: got %s, want 5000000", order.InitialCollateralDelta)
	}
	// 시작 토큰과 담보가 같으면 스왑이 필요 없습니다
	if len(order.SwapPath) != 0 {
		t.Errorf("스왑 경로: got %v, want 빈 경로", order.SwapPath)
	}
}

func TestResolveIncreaseWithSwapPath(t *testing.T) {
	resolver := testResolver(t)

	req := baseIncreaseRequest()
	req.IndexTokenSymbol = "BTC"
	req.CollateralTokenSymbol = "BTC"
	req.SizeDeltaUSD = ptr(decimal.NewFromInt(100))

	order, err := resolver.ResolveIncrease(req)
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	// tickers API의 BTC는 합성 BTC 마켓으로, 담보 BTC는 레거시 WBTC로 풉니다
	if order.MarketKey != btcMarket {
		t.Errorf("마켓: got %s, want %s", order.MarketKey.Hex(), btcMarket.Hex())
	}
	if order.CollateralAddress != gmx.LegacyWBTC {
		t.Errorf("담보: got %s, want 레거시 WBTC", order.CollateralAddress.Hex())
	}
	// USDC → WBTC는 BTC 홈 마켓 한 홉입니다
	if len(order.SwapPath) != 1 || order.SwapPath[0] != btcMarket {
		t.Errorf("스왑 경로: got %v, want [%s]", order.SwapPath, btcMarket.Hex())
	}
}

func TestResolveIncreaseValidation(t *testing.T) {
	resolver := testResolver(t)

	tests := []struct {
		name    string
		mutate  func(*domain.OrderRequest)
		wantErr error
	}{
		{
			name:    "지원하지 않는 체인",
			mutate:  func(r *domain.OrderRequest) { r.Chain = "solana" },
			wantErr: ErrMissingChain,
		},
		{
			name:    "방향 누락",
			mutate:  func(r *domain.OrderRequest) { r.IsLong = nil },
			wantErr: ErrMissingDirection,
		},
		{
			name:    "슬리피지 누락",
			mutate:  func(r *domain.OrderRequest) { r.SlippagePercent = nil },
			wantErr: ErrMissingSlippage,
		},
		{
			name: "크기 정보 부족",
			mutate: func(r *domain.OrderRequest) {
				r.SizeDeltaUSD = nil
				r.Leverage = nil
			},
			wantErr: ErrAmbiguousSize,
		},
		{
			name: "담보 $2 미만",
			mutate: func(r *domain.OrderRequest) {
				r.SizeDeltaUSD = ptr(decimal.NewFromInt(1))
			},
			wantErr: ErrCollateralTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseIncreaseRequest()
			tt.mutate(&req)

			_, err := resolver.ResolveIncrease(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveIncreaseMaxLeverage(t *testing.T) {
	resolver := testResolver(t)

	req := baseIncreaseRequest()
	req.Leverage = nil
	req.SizeDeltaUSD = ptr(decimal.NewFromInt(1500))
	req.InitialCollateralDelta = ptr(decimal.NewFromInt(10)) // $10 담보에 x150

	_, err := resolver.ResolveIncrease(req)
	var maxLev *MaxLeverageError
	if !errors.As(err, &maxLev) {
		t.Fatalf("MaxLeverageError가 아닌 결과: %v", err)
	}
	if !maxLev.Requested.Equal(decimal.NewFromInt(150)) {
		t.Errorf("요청 레버리지: got %s, want 150", maxLev.Requested.String())
	}
}

func TestResolveIncreaseInvalidCollateral(t *testing.T) {
	resolver := testResolver(t)

	req := baseIncreaseRequest()
	req.CollateralTokenSymbol = "ETH" // GMX 마켓의 구성 토큰이 아님

	_, err := resolver.ResolveIncrease(req)
	var invalid *InvalidCollateralError
	if !errors.As(err, &invalid) {
		t.Fatalf("InvalidCollateralError가 아닌 결과: %v", err)
	}
}

func TestResolveIncreaseUnknownToken(t *testing.T) {
	resolver := testResolver(t)

	req := baseIncreaseRequest()
	req.IndexTokenSymbol = "DOGE"

	_, err := resolver.ResolveIncrease(req)
	var unknown *tokens.UnknownTokenError
	if !errors.As(err, &unknown) {
		t.Fatalf("UnknownTokenError로 풀리지 않는 에러: %v", err)
	}
	var resolution *ResolutionError
	if !errors.As(err, &resolution) || resolution.Field != "index_token" {
		t.Errorf("실패 필드가 기록되지 않았습니다: %v", err)
	}
}

func TestResolveDecreaseFullClose(t *testing.T) {
	resolver := testResolver(t)

	req := domain.OrderRequest{
		Chain:                  domain.Arbitrum,
		IndexTokenSymbol:       "GMX",
		StartTokenSymbol:       "USDC",
		CollateralTokenSymbol:  "USDC",
		IsLong:                 ptr(true),
		SizeDeltaUSD:           ptr(decimal.NewFromInt(5000)),
		InitialCollateralDelta: ptr(decimal.NewFromInt(1000)),
		SlippagePercent:        ptr(decimal.NewFromFloat(0.003)),
	}

	order, err := resolver.ResolveDecrease(req)
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	wantSize := new(big.Int).Mul(big.NewInt(5000), fixedpoint.Expand10(30))
	if order.SizeDelta.Cmp(wantSize) != 0 {
		t.Errorf("포지션 크기: got %s, want %s", order.SizeDelta, wantSize)
	}
	// 감액 주문에는 스왑 경로가 붙지 않습니다
	if len(order.SwapPath) != 0 {
		t.Errorf("스왑 경로: got %v, want 빈 경로", order.SwapPath)
	}
	if order.Kind != domain.KindDecrease {
		t.Errorf("주문 종류: got %s", order.Kind)
	}
}

func openGMXPosition() domain.Position {
	return domain.Position{
		Market:           gmxMarket,
		MarketSymbol:     "GMX",
		CollateralToken:  usdcAddr,
		CollateralSymbol: "USDC",
		IsLong:           true,

		SizeInUSD:        decimal.NewFromInt(5000),
		SizeInTokens:     new(big.Int).Mul(big.NewInt(200), fixedpoint.Expand10(18)),
		CollateralAmount: big.NewInt(1_000_000_000), // 1,000 USDC
	}
}

func TestDecreaseFromPositionFullClose(t *testing.T) {
	resolver := testResolver(t)

	one := decimal.NewFromInt(1)
	order, err := resolver.DecreaseFromPosition(
		openGMXPosition(), "USDC", one, one, decimal.NewFromFloat(0.003))
	if err != nil {
		t.Fatalf("변환 실패: %v", err)
	}

	if order.Kind != domain.KindDecrease {
		t.Errorf("주문 종류: got %s", order.Kind)
	}
	if order.MarketKey != gmxMarket || order.IndexTokenAddress != gmxAddr {
		t.Errorf("마켓 정보가 포지션과 다릅니다: %s / %s",
			order.MarketKey.Hex(), order.IndexTokenAddress.Hex())
	}
	wantSize := new(big.Int).Mul(big.NewInt(5000), fixedpoint.Expand10(30))
	if order.SizeDelta.Cmp(wantSize) != 0 {
		t.Errorf("포지션 크기: got %s, want %s", order.SizeDelta, wantSize)
	}
	if order.InitialCollateralDelta.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Errorf("담보 수량: got %s, want 1000000000", order.InitialCollateralDelta)
	}
	// 인출 토큰이 담보 토큰과 같으면 스왑이 필요 없습니다
	if len(order.SwapPath) != 0 {
		t.Errorf("스왑 경로: got %v, want 빈 경로", order.SwapPath)
	}
}

func TestDecreaseFromPositionPartialWithSwap(t *testing.T) {
	resolver := testResolver(t)

	half := decimal.NewFromFloat(0.5)
	order, err := resolver.DecreaseFromPosition(
		openGMXPosition(), "ETH", half, half, decimal.NewFromFloat(0.003))
	if err != nil {
		t.Fatalf("변환 실패: %v", err)
	}

	wantSize := new(big.Int).Mul(big.NewInt(2500), fixedpoint.Expand10(30))
	if order.SizeDelta.Cmp(wantSize) != 0 {
		t.Errorf("포지션 크기: got %s, want %s", order.SizeDelta, wantSize)
	}
	if order.InitialCollateralDelta.Cmp(big.NewInt(500_000_000)) != 0 {
		t.Errorf("담보 수량: got %s, want 500000000", order.InitialCollateralDelta)
	}
	// USDC 담보를 ETH로 받으려면 ETH 홈 마켓 한 홉이 필요합니다
	if len(order.SwapPath) != 1 || order.SwapPath[0] != ethMarket {
		t.Errorf("스왑 경로: got %v, want [%s]", order.SwapPath, ethMarket.Hex())
	}
	if order.OutTokenAddress != wethAddr {
		t.Errorf("인출 토큰: got %s", order.OutTokenAddress.Hex())
	}
}

func TestDecreaseFromPositionValidation(t *testing.T) {
	resolver := testResolver(t)
	slippage := decimal.NewFromFloat(0.003)
	one := decimal.NewFromInt(1)

	if _, err := resolver.DecreaseFromPosition(
		openGMXPosition(), "USDC", decimal.Zero, one, slippage,
	); !errors.Is(err, ErrInvalidFraction) {
		t.Errorf("비율 0: got %v, want ErrInvalidFraction", err)
	}

	if _, err := resolver.DecreaseFromPosition(
		openGMXPosition(), "USDC", one, decimal.NewFromFloat(1.5), slippage,
	); !errors.Is(err, ErrInvalidFraction) {
		t.Errorf("비율 1.5: got %v, want ErrInvalidFraction", err)
	}

	if _, err := resolver.DecreaseFromPosition(
		openGMXPosition(), "USDC", one, one, decimal.Zero,
	); !errors.Is(err, ErrMissingSlippage) {
		t.Errorf("슬리피지 0: got %v, want ErrMissingSlippage", err)
	}

	unknown := openGMXPosition()
	unknown.Market = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	var resolution *ResolutionError
	if _, err := resolver.DecreaseFromPosition(
		unknown, "USDC", one, one, slippage,
	); !errors.As(err, &resolution) || resolution.Field != "market_key" {
		t.Errorf("카탈로그에 없는 마켓: got %v", err)
	}
}

func TestResolveSwap(t *testing.T) {
	resolver := testResolver(t)

	order, err := resolver.ResolveSwap(domain.OrderRequest{
		Chain:                  domain.Arbitrum,
		StartTokenSymbol:       "USDC",
		OutTokenSymbol:         "ETH",
		InitialCollateralDelta: ptr(decimal.NewFromInt(100)),
		SlippagePercent:        ptr(decimal.NewFromFloat(0.003)),
	})
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	if len(order.SwapPath) != 1 || order.SwapPath[0] != ethMarket {
		t.Errorf("스왑 경로: got %v, want [%s]", order.SwapPath, ethMarket.Hex())
	}
	if order.InitialCollateralDelta.Cmp(big.NewInt(100_000_000)) != 0 {
		t.Errorf("수량: got %s, want 100000000", order.InitialCollateralDelta)
	}
	if order.SizeDelta.Sign() != 0 {
		t.Errorf("스왑 주문의 포지션 크기는 0이어야 합니다: %s", order.SizeDelta)
	}
	// 전송할 토큰은 시작 토큰입니다
	if order.CollateralAddress != usdcAddr {
		t.Errorf("전송 토큰: got %s", order.CollateralAddress.Hex())
	}
}

func TestResolveDeposit(t *testing.T) {
	resolver := testResolver(t)

	deposit, err := resolver.ResolveDeposit(domain.DepositRequest{
		Chain:             domain.Arbitrum,
		MarketTokenSymbol: "GMX",
		ShortTokenUSD:     decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	if deposit.MarketKey != gmxMarket {
		t.Errorf("마켓: got %s, want %s", deposit.MarketKey.Hex(), gmxMarket.Hex())
	}
	// 지정하지 않은 쪽은 마켓 기본 토큰입니다
	if deposit.LongTokenAddress != gmxAddr {
		t.Errorf("롱 토큰: got %s", deposit.LongTokenAddress.Hex())
	}
	if deposit.LongTokenAmount.Sign() != 0 {
		t.Errorf("롱 수량: got %s, want 0", deposit.LongTokenAmount)
	}
	// $100 / $1 = 100 USDC
	if deposit.ShortTokenAmount.Cmp(big.NewInt(100_000_000)) != 0 {
		t.Errorf("숏 수량: got %s, want 100000000", deposit.ShortTokenAmount)
	}
}

func TestResolveDepositZeroSideSkipsPriceLookup(t *testing.T) {
	// GMX 가격이 없는 스냅샷에서도 롱 수량이 0이면 예치가 됩니다
	prices := pricefeed.Snapshot{
		usdcAddr: {Min: fixedpoint.Expand10(24), Max: fixedpoint.Expand10(24)},
	}
	resolver := NewResolver(domain.Arbitrum, testTokens(), testMarkets(t), prices)

	_, err := resolver.ResolveDeposit(domain.DepositRequest{
		Chain:             domain.Arbitrum,
		MarketTokenSymbol: "GMX",
		ShortTokenUSD:     decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("가격 없는 쪽이 0인데 실패했습니다: %v", err)
	}
}

func TestResolveWithdrawal(t *testing.T) {
	resolver := testResolver(t)

	withdrawal, err := resolver.ResolveWithdrawal(domain.WithdrawalRequest{
		Chain:             domain.Arbitrum,
		MarketTokenSymbol: "GMX",
		OutTokenSymbol:    "USDC",
		GMAmount:          decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("해석 실패: %v", err)
	}

	// GM 토큰은 18자리 고정입니다
	want := new(big.Int).Mul(big.NewInt(10), fixedpoint.Expand10(18))
	if withdrawal.GMAmount.Cmp(want) != 0 {
		t.Errorf("GM 수량: got %s, want %s", withdrawal.GMAmount, want)
	}
}

func TestResolveWithdrawalInvalidOutToken(t *testing.T) {
	resolver := testResolver(t)

	_, err := resolver.ResolveWithdrawal(domain.WithdrawalRequest{
		Chain:             domain.Arbitrum,
		MarketTokenSymbol: "GMX",
		OutTokenSymbol:    "ETH", // GMX 마켓의 구성 토큰이 아님
		GMAmount:          decimal.NewFromInt(10),
	})
	var invalid *InvalidWithdrawalTokenError
	if !errors.As(err, &invalid) {
		t.Fatalf("InvalidWithdrawalTokenError가 아닌 결과: %v", err)
	}
}
