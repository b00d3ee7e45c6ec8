// internal/orders/builder.go
package orders

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/markets"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/positions"
)

// defaultExecutionBuffer는 실행 수수료에 곱하는 여유 배수입니다.
// 가스 급등으로 킵퍼 실행이 실패하지 않도록 최소값보다 넉넉히 보냅니다.
var defaultExecutionBuffer = decimal.NewFromFloat(1.3)

// Step은 익스체인지 라우터 multicall의 한 호출입니다. Method는 라우터
// 함수 이름이고, 파라미터 구조체의 필드 순서가 ABI 인수 순서입니다.
type Step interface {
	Method() string
}

// SendWnt는 래핑된 네이티브 토큰(실행 수수료 포함)을 볼트로 보냅니다
type SendWnt struct {
	Receiver common.Address
	Amount   *big.Int
}

func (SendWnt) Method() string { return "sendWnt" }

// SendTokens는 ERC-20 토큰을 볼트로 보냅니다
type SendTokens struct {
	Token    common.Address
	Receiver common.Address
	Amount   *big.Int
}

func (SendTokens) Method() string { return "sendTokens" }

// CreateOrderAddresses는 createOrder 튜플의 주소 블록입니다
type CreateOrderAddresses struct {
	Receiver             common.Address
	CancellationReceiver common.Address
	CallbackContract     common.Address
	UIFeeReceiver        common.Address
	Market               common.Address
	InitialCollateral    common.Address
	SwapPath             []common.Address
}

// CreateOrderNumbers는 createOrder 튜플의 숫자 블록입니다
type CreateOrderNumbers struct {
	SizeDeltaUSD                 *big.Int
	InitialCollateralDeltaAmount *big.Int
	TriggerPrice                 *big.Int
	AcceptablePrice              *big.Int
	ExecutionFee                 *big.Int
	CallbackGasLimit             *big.Int
	MinOutputAmount              *big.Int
	ValidFromTime                *big.Int
}

// CreateOrderParams는 익스체인지 라우터 createOrder의 전체 튜플입니다
type CreateOrderParams struct {
	Addresses CreateOrderAddresses
	Numbers   CreateOrderNumbers

	OrderType                domain.OrderType
	DecreasePositionSwapType domain.DecreasePositionSwapType

	IsLong                  bool
	ShouldUnwrapNativeToken bool
	AutoCancel              bool
	ReferralCode            [32]byte
}

func (*CreateOrderParams) Method() string { return "createOrder" }

// CreateDepositParams는 createDeposit의 전체 튜플입니다
type CreateDepositParams struct {
	Receiver          common.Address
	CallbackContract  common.Address
	UIFeeReceiver     common.Address
	Market            common.Address
	InitialLongToken  common.Address
	InitialShortToken common.Address

	LongTokenSwapPath  []common.Address
	ShortTokenSwapPath []common.Address

	MinMarketTokens         *big.Int
	ShouldUnwrapNativeToken bool
	ExecutionFee            *big.Int
	CallbackGasLimit        *big.Int
}

func (*CreateDepositParams) Method() string { return "createDeposit" }

// CreateWithdrawalParams는 createWithdrawal의 전체 튜플입니다
type CreateWithdrawalParams struct {
	Receiver         common.Address
	CallbackContract common.Address
	UIFeeReceiver    common.Address
	Market           common.Address

	LongTokenSwapPath  []common.Address
	ShortTokenSwapPath []common.Address

	MinLongTokenAmount      *big.Int
	MinShortTokenAmount     *big.Int
	ShouldUnwrapNativeToken bool
	ExecutionFee            *big.Int
	CallbackGasLimit        *big.Int
}

func (*CreateWithdrawalParams) Method() string { return "createWithdrawal" }

// Plan은 서명해 보내기 직전의 multicall 묶음입니다
type Plan struct {
	Router common.Address // 익스체인지 라우터 주소
	Value  *big.Int       // 트랜잭션 value (wei)

	ExecutionFee *big.Int // 여유 배수가 반영된 실행 수수료
	Steps        []Step
}

// Builder는 완성된 주문을 multicall 계획으로 조립합니다
type Builder struct {
	reader    gmx.Reader
	datastore gmx.Datastore
	contracts gmx.Contracts
	markets   markets.Catalog
	prices    pricefeed.Snapshot

	wallet          common.Address
	executionBuffer decimal.Decimal
}

// BuilderOption은 빌더 설정을 바꾸는 함수입니다
type BuilderOption func(*Builder)

// WithExecutionBuffer는 실행 수수료 여유 배수를 설정합니다
func WithExecutionBuffer(buffer decimal.Decimal) BuilderOption {
	return func(b *Builder) {
		b.executionBuffer = buffer
	}
}

// NewBuilder는 주문 빌더를 생성합니다
func NewBuilder(
	reader gmx.Reader,
	datastore gmx.Datastore,
	contracts gmx.Contracts,
	marketCatalog markets.Catalog,
	prices pricefeed.Snapshot,
	wallet common.Address,
	opts ...BuilderOption,
) *Builder {
	b := &Builder{
		reader:    reader,
		datastore: datastore,
		contracts: contracts,
		markets:   marketCatalog,
		prices:    prices,

		wallet:          wallet,
		executionBuffer: defaultExecutionBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildIncrease는 포지션 진입/증액 multicall을 조립합니다
func (b *Builder) BuildIncrease(ctx context.Context, order domain.ResolvedOrder, gasPrice *big.Int) (Plan, error) {
	return b.buildPosition(ctx, order, gasPrice, true)
}

// BuildDecrease는 포지션 청산/감액 multicall을 조립합니다
func (b *Builder) BuildDecrease(ctx context.Context, order domain.ResolvedOrder, gasPrice *big.Int) (Plan, error) {
	return b.buildPosition(ctx, order, gasPrice, false)
}

func (b *Builder) buildPosition(ctx context.Context, order domain.ResolvedOrder, gasPrice *big.Int, isOpen bool) (Plan, error) {
	limits, err := gmx.FetchGasLimits(ctx, b.datastore)
	if err != nil {
		return Plan{}, err
	}

	operationLimit := limits.DecreaseOrder
	orderType := domain.MarketDecrease
	if isOpen {
		operationLimit = limits.IncreaseOrder
		orderType = domain.MarketIncrease
	}
	fee := b.bufferedFee(limits, operationLimit, gasPrice)

	market, err := b.markets.ByKey(order.MarketKey)
	if err != nil {
		return Plan{}, err
	}

	indexPair, err := b.prices.PricePair(market.IndexToken)
	if err != nil {
		return Plan{}, err
	}
	markUSD, err := b.prices.MarkPriceUSD(market.IndexToken, market.IndexDecimals)
	if err != nil {
		return Plan{}, err
	}

	oracleDecimals := fixedpoint.Precision - market.IndexDecimals
	acceptableUSD := positions.AcceptablePrice(markUSD, order.SlippagePercent, order.IsLong, isOpen)
	acceptableRaw := fixedpoint.ToProtocol(acceptableUSD, oracleDecimals)

	log.Printf("마크 가격: $%s, 허용 가격: $%s", markUSD.StringFixed(4), acceptableUSD.StringFixed(4))

	// 감액은 크기 변화가 음수여야 가격 영향이 올바르게 추정됩니다
	sizeDeltaForImpact := new(big.Int).Set(order.SizeDelta)
	if !isOpen {
		sizeDeltaForImpact.Neg(sizeDeltaForImpact)
	}

	execution, err := b.reader.GetExecutionPrice(ctx, gmx.ExecutionPriceParams{
		DataStore:            b.contracts.Datastore,
		MarketKey:            order.MarketKey,
		IndexTokenPrice:      indexPair,
		PositionSizeInUSD:    new(big.Int),
		PositionSizeInTokens: new(big.Int),
		SizeDelta:            sizeDeltaForImpact,
		IsLong:               order.IsLong,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("체결 가격 추정 실패: %w", err)
	}

	executionUSD := fixedpoint.ToHuman(execution.ExecutionPrice, oracleDecimals)
	log.Printf("예상 체결 가격: $%s", executionUSD.StringFixed(4))

	if err := positions.ValidateExecutionPrice(executionUSD, acceptableUSD, order.IsLong, isOpen); err != nil {
		return Plan{}, err
	}

	// 진입 주문은 현재 마크 가격을 트리거 슬롯에 싣습니다
	triggerPrice := new(big.Int)
	if isOpen {
		triggerPrice = rawMarkPrice(indexPair)
	}

	params := &CreateOrderParams{
		Addresses: CreateOrderAddresses{
			Receiver:             b.wallet,
			CancellationReceiver: b.wallet,
			UIFeeReceiver:        domain.ZeroAddress,
			Market:               order.MarketKey,
			InitialCollateral:    order.CollateralAddress,
			SwapPath:             order.SwapPath,
		},
		Numbers: CreateOrderNumbers{
			SizeDeltaUSD:                 order.SizeDelta,
			InitialCollateralDeltaAmount: order.InitialCollateralDelta,
			TriggerPrice:                 triggerPrice,
			AcceptablePrice:              acceptableRaw,
			ExecutionFee:                 fee,
			CallbackGasLimit:             new(big.Int),
			MinOutputAmount:              new(big.Int),
			ValidFromTime:                new(big.Int),
		},
		OrderType:                orderType,
		DecreasePositionSwapType: domain.NoSwap,
		IsLong:                   order.IsLong,
		ShouldUnwrapNativeToken:  true,
	}

	return b.assembleOrderSteps(order, params, fee, isOpen), nil
}

// BuildSwap은 토큰 스왑 multicall을 조립합니다. 최소 출력량은 경로의
// 각 홉을 리더로 추정하고 홉마다 슬리피지를 깎아 계산합니다.
func (b *Builder) BuildSwap(ctx context.Context, order domain.ResolvedOrder, gasPrice *big.Int) (Plan, error) {
	if len(order.SwapPath) == 0 {
		return Plan{}, &ResolutionError{Field: "swap_path", Err: fmt.Errorf("스왑 경로가 비어 있습니다")}
	}

	limits, err := gmx.FetchGasLimits(ctx, b.datastore)
	if err != nil {
		return Plan{}, err
	}
	operationLimit := limits.SingleSwap
	if len(order.SwapPath) > 1 {
		operationLimit = limits.SwapOrder
	}
	fee := b.bufferedFee(limits, operationLimit, gasPrice)

	amountOut, err := b.estimateSwapOut(ctx, order.SwapPath[0], order.StartTokenAddress, order.InitialCollateralDelta)
	if err != nil {
		return Plan{}, err
	}

	if len(order.SwapPath) > 1 {
		// 두 번째 홉은 허브 토큰으로 들어갑니다
		amountOut, err = b.estimateSwapOut(ctx, order.SwapPath[1], b.contracts.HubToken,
			haircut(amountOut, order.SlippagePercent))
		if err != nil {
			return Plan{}, err
		}
	}
	minOutputAmount := haircut(amountOut, order.SlippagePercent)

	params := &CreateOrderParams{
		Addresses: CreateOrderAddresses{
			Receiver:             b.wallet,
			CancellationReceiver: b.wallet,
			UIFeeReceiver:        domain.ZeroAddress,
			Market:               domain.ZeroAddress, // 스왑은 마켓 슬롯을 쓰지 않습니다
			InitialCollateral:    order.StartTokenAddress,
			SwapPath:             order.SwapPath,
		},
		Numbers: CreateOrderNumbers{
			SizeDeltaUSD:                 new(big.Int),
			InitialCollateralDeltaAmount: order.InitialCollateralDelta,
			TriggerPrice:                 new(big.Int),
			AcceptablePrice:              new(big.Int),
			ExecutionFee:                 fee,
			CallbackGasLimit:             new(big.Int),
			MinOutputAmount:              minOutputAmount,
			ValidFromTime:                new(big.Int),
		},
		OrderType:                domain.MarketSwap,
		DecreasePositionSwapType: domain.NoSwap,
		ShouldUnwrapNativeToken:  true,
	}

	return b.assembleOrderSteps(order, params, fee, true), nil
}

// assembleOrderSteps는 담보 토큰 종류에 따라 multicall 구성을 결정합니다.
// 네이티브가 아닌 담보로 여는 주문만 sendTokens가 필요하고, 네이티브
// 담보는 담보 수량을 트랜잭션 value에 얹습니다. 청산은 수수료만 보냅니다.
func (b *Builder) assembleOrderSteps(order domain.ResolvedOrder, params *CreateOrderParams, fee *big.Int, isOpen bool) Plan {
	vault := b.contracts.OrderVault
	value := new(big.Int).Set(fee)

	var steps []Step
	if order.CollateralAddress != b.contracts.WrappedNative && isOpen {
		steps = []Step{
			SendWnt{Receiver: vault, Amount: value},
			SendTokens{Token: order.CollateralAddress, Receiver: vault, Amount: order.InitialCollateralDelta},
			params,
		}
	} else {
		if isOpen {
			value.Add(value, order.InitialCollateralDelta)
		}
		steps = []Step{
			SendWnt{Receiver: vault, Amount: value},
			params,
		}
	}

	return Plan{
		Router:       b.contracts.ExchangeRouter,
		Value:        value,
		ExecutionFee: fee,
		Steps:        steps,
	}
}

// BuildDeposit은 유동성 예치 multicall을 조립합니다
func (b *Builder) BuildDeposit(ctx context.Context, deposit domain.ResolvedDeposit, gasPrice *big.Int) (Plan, error) {
	limits, err := gmx.FetchGasLimits(ctx, b.datastore)
	if err != nil {
		return Plan{}, err
	}
	fee := b.bufferedFee(limits, limits.Deposit, gasPrice)

	market, err := b.markets.ByKey(deposit.MarketKey)
	if err != nil {
		return Plan{}, err
	}

	// 금액이 0인 쪽은 마켓 기본 토큰으로 되돌립니다
	initialLong := deposit.LongTokenAddress
	if deposit.LongTokenAmount.Sign() == 0 {
		initialLong = market.LongToken
	}
	initialShort := deposit.ShortTokenAddress
	if deposit.ShortTokenAmount.Sign() == 0 {
		initialShort = market.ShortToken
	}

	longSwapPath, err := b.depositSwapPath(initialLong, market.LongToken)
	if err != nil {
		return Plan{}, err
	}
	shortSwapPath, err := b.depositSwapPath(initialShort, market.ShortToken)
	if err != nil {
		return Plan{}, err
	}

	tokenPrices, err := b.prices.MarketPrices(market)
	if err != nil {
		return Plan{}, err
	}

	minMarketTokens, err := b.reader.GetDepositAmountOut(ctx, gmx.DepositAmountParams{
		DataStore:        b.contracts.Datastore,
		Market:           rawMarket(market),
		TokenPrices:      tokenPrices,
		LongTokenAmount:  deposit.LongTokenAmount,
		ShortTokenAmount: deposit.ShortTokenAmount,
		UIFeeReceiver:    domain.ZeroAddress,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("GM 토큰 수량 추정 실패: %w", err)
	}

	params := &CreateDepositParams{
		Receiver:          b.wallet,
		UIFeeReceiver:     domain.ZeroAddress,
		Market:            deposit.MarketKey,
		InitialLongToken:  initialLong,
		InitialShortToken: initialShort,

		LongTokenSwapPath:  longSwapPath,
		ShortTokenSwapPath: shortSwapPath,

		MinMarketTokens:         minMarketTokens,
		ShouldUnwrapNativeToken: true,
		ExecutionFee:            fee,
		CallbackGasLimit:        new(big.Int),
	}

	vault := b.contracts.DepositVault
	wntAmount := new(big.Int)
	var steps []Step

	appendSide := func(token common.Address, amount *big.Int) {
		if amount.Sign() == 0 {
			return
		}
		if token != b.contracts.WrappedNative {
			steps = append(steps, SendTokens{Token: token, Receiver: vault, Amount: amount})
			return
		}
		wntAmount.Add(wntAmount, amount)
	}
	appendSide(initialLong, deposit.LongTokenAmount)
	appendSide(initialShort, deposit.ShortTokenAmount)

	value := new(big.Int).Add(wntAmount, fee)
	steps = append(steps, SendWnt{Receiver: vault, Amount: value}, params)

	return Plan{
		Router:       b.contracts.ExchangeRouter,
		Value:        value,
		ExecutionFee: fee,
		Steps:        steps,
	}, nil
}

// BuildWithdrawal은 유동성 인출 multicall을 조립합니다. 인출 토큰이
// 아닌 쪽은 인출 토큰으로 스왑되도록 경로를 붙입니다.
func (b *Builder) BuildWithdrawal(ctx context.Context, withdrawal domain.ResolvedWithdrawal, gasPrice *big.Int) (Plan, error) {
	limits, err := gmx.FetchGasLimits(ctx, b.datastore)
	if err != nil {
		return Plan{}, err
	}
	fee := b.bufferedFee(limits, limits.Withdrawal, gasPrice)

	market, err := b.markets.ByKey(withdrawal.MarketKey)
	if err != nil {
		return Plan{}, err
	}

	longSwapPath, err := b.depositSwapPath(market.LongToken, withdrawal.OutTokenAddress)
	if err != nil {
		return Plan{}, err
	}
	shortSwapPath, err := b.depositSwapPath(market.ShortToken, withdrawal.OutTokenAddress)
	if err != nil {
		return Plan{}, err
	}

	tokenPrices, err := b.prices.MarketPrices(market)
	if err != nil {
		return Plan{}, err
	}

	amounts, err := b.reader.GetWithdrawalAmountOut(ctx, gmx.WithdrawalAmountParams{
		DataStore:     b.contracts.Datastore,
		Market:        rawMarket(market),
		TokenPrices:   tokenPrices,
		GMAmount:      withdrawal.GMAmount,
		UIFeeReceiver: domain.ZeroAddress,
	})
	if err != nil {
		return Plan{}, fmt.Errorf("인출 수량 추정 실패: %w", err)
	}

	params := &CreateWithdrawalParams{
		Receiver:      b.wallet,
		UIFeeReceiver: domain.ZeroAddress,
		Market:        withdrawal.MarketKey,

		LongTokenSwapPath:  longSwapPath,
		ShortTokenSwapPath: shortSwapPath,

		MinLongTokenAmount:      amounts.LongTokenAmount,
		MinShortTokenAmount:     amounts.ShortTokenAmount,
		ShouldUnwrapNativeToken: true,
		ExecutionFee:            fee,
		CallbackGasLimit:        new(big.Int),
	}

	vault := b.contracts.WithdrawalVault
	return Plan{
		Router:       b.contracts.ExchangeRouter,
		Value:        new(big.Int).Set(fee),
		ExecutionFee: fee,
		Steps: []Step{
			SendWnt{Receiver: vault, Amount: fee},
			SendTokens{Token: withdrawal.MarketKey, Receiver: vault, Amount: withdrawal.GMAmount},
			params,
		},
	}, nil
}

// bufferedFee는 실행 수수료에 여유 배수를 곱합니다
func (b *Builder) bufferedFee(limits gmx.GasLimits, operationLimit, gasPrice *big.Int) *big.Int {
	fee := gmx.ExecutionFee(limits, operationLimit, gasPrice)
	return decimal.NewFromBigInt(fee, 0).Mul(b.executionBuffer).BigInt()
}

// estimateSwapOut은 한 홉의 출력 토큰 수량을 리더로 추정합니다
func (b *Builder) estimateSwapOut(ctx context.Context, marketKey, tokenIn common.Address, amountIn *big.Int) (*big.Int, error) {
	market, err := b.markets.ByKey(marketKey)
	if err != nil {
		return nil, err
	}
	tokenPrices, err := b.prices.MarketPrices(market)
	if err != nil {
		return nil, err
	}

	out, err := b.reader.GetSwapAmountOut(ctx, gmx.SwapParams{
		DataStore:     b.contracts.Datastore,
		Market:        rawMarket(market),
		TokenPrices:   tokenPrices,
		TokenIn:       tokenIn,
		TokenAmountIn: amountIn,
		UIFeeReceiver: domain.ZeroAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("스왑 출력량 추정 실패 (%s): %w", market.Symbol, err)
	}
	return out.AmountOut, nil
}

// depositSwapPath는 두 토큰이 다를 때만 스왑 경로를 계산합니다
func (b *Builder) depositSwapPath(from, to common.Address) ([]common.Address, error) {
	if from == to {
		return nil, nil
	}
	path, _, err := b.markets.SwapRoute(from, to)
	if err != nil {
		return nil, &ResolutionError{Field: "swap_path", Err: err}
	}
	return path, nil
}

// haircut은 수량에서 슬리피지만큼 깎습니다
func haircut(amount *big.Int, slippage decimal.Decimal) *big.Int {
	remaining := decimal.NewFromInt(1).Sub(slippage)
	return decimal.NewFromBigInt(amount, 0).Mul(remaining).BigInt()
}

// rawMarkPrice는 (min+max)/2 마크 가격을 오라클 정밀도 정수로 계산합니다
func rawMarkPrice(pair gmx.PricePair) *big.Int {
	sum := new(big.Int).Add(pair.Min, pair.Max)
	return sum.Quo(sum, big.NewInt(2))
}

// rawMarket은 카탈로그 마켓을 리더 호출용 튜플로 되돌립니다
func rawMarket(market domain.Market) gmx.RawMarket {
	return gmx.RawMarket{
		MarketToken: market.Address,
		IndexToken:  market.IndexToken,
		LongToken:   market.LongToken,
		ShortToken:  market.ShortToken,
	}
}
