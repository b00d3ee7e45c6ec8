// internal/orders/resolver.go
package orders

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/markets"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/tokens"
)

// MaxLeverage는 컨트랙트가 허용하는 최대 레버리지입니다.
// TODO: 마켓별 한도가 컨트랙트 파라미터로 바뀌었으므로 조회로 대체
var MaxLeverage = decimal.NewFromInt(100)

// minCollateralUSD는 진입 주문이 요구하는 최소 담보 가치입니다
var minCollateralUSD = decimal.NewFromInt(2)

// Resolver는 사람 단위의 주문 요청을 정해진 순서로 채워 프로토콜 단위의
// 주문으로 완성합니다. 주소 없이 심볼만 있어도 동작합니다.
type Resolver struct {
	chain   domain.Chain
	tokens  tokens.Catalog
	markets markets.Catalog
	prices  pricefeed.Snapshot
}

// NewResolver는 리졸버를 생성합니다
func NewResolver(
	chain domain.Chain,
	tokenCatalog tokens.Catalog,
	marketCatalog markets.Catalog,
	prices pricefeed.Snapshot,
) *Resolver {
	return &Resolver{
		chain:   chain,
		tokens:  tokenCatalog,
		markets: marketCatalog,
		prices:  prices,
	}
}

// ResolveIncrease는 포지션 진입/증액 요청을 완성합니다
func (r *Resolver) ResolveIncrease(req domain.OrderRequest) (domain.ResolvedOrder, error) {
	return r.resolvePosition(req, domain.KindIncrease)
}

// ResolveDecrease는 포지션 청산/감액 요청을 완성합니다.
// 감액 주문에는 스왑 경로가 필요 없습니다.
func (r *Resolver) ResolveDecrease(req domain.OrderRequest) (domain.ResolvedOrder, error) {
	return r.resolvePosition(req, domain.KindDecrease)
}

// resolvePosition은 진입/청산 공통의 해석 순서를 수행합니다.
// 체인 → 토큰 주소 → 마켓 → 담보 검증 → 스왑 경로 → 수량 삼각 계산 →
// 단위 변환 → 사후 검증 순이며, 단위 변환은 반드시 마지막입니다.
func (r *Resolver) resolvePosition(req domain.OrderRequest, kind domain.OrderKind) (domain.ResolvedOrder, error) {
	if err := r.checkChain(req.Chain); err != nil {
		return domain.ResolvedOrder{}, err
	}
	if req.IsLong == nil {
		return domain.ResolvedOrder{}, ErrMissingDirection
	}
	if req.SlippagePercent == nil {
		return domain.ResolvedOrder{}, ErrMissingSlippage
	}

	index, err := r.resolveToken("index_token", req.IndexTokenAddress, req.IndexTokenSymbol, false)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}
	start, err := r.resolveToken("start_token", req.StartTokenAddress, req.StartTokenSymbol, true)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}
	collateral, err := r.resolveToken("collateral_token", req.CollateralTokenAddress, req.CollateralTokenSymbol, true)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	market, err := r.resolveMarket(index)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	if collateral != market.LongToken && collateral != market.ShortToken {
		return domain.ResolvedOrder{}, &InvalidCollateralError{
			Collateral: collateral, MarketKey: market.Address,
		}
	}

	swapPath := req.SwapPath
	if swapPath == nil && kind == domain.KindIncrease {
		swapPath, _, err = r.markets.SwapRoute(start, collateral)
		if err != nil {
			return domain.ResolvedOrder{}, &ResolutionError{Field: "swap_path", Err: err}
		}
	}

	startToken, err := r.tokens.ByAddress(start)
	if err != nil {
		return domain.ResolvedOrder{}, &ResolutionError{Field: "start_token", Err: err}
	}

	sizeUSD, collateralTokens, err := r.triangulate(req, startToken)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	collateralValueUSD, err := r.collateralUSD(collateralTokens, startToken)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	if collateralValueUSD.IsZero() {
		return domain.ResolvedOrder{}, ErrAmbiguousSize
	}
	requested := sizeUSD.Div(collateralValueUSD)
	if requested.GreaterThan(MaxLeverage) {
		return domain.ResolvedOrder{}, &MaxLeverageError{Requested: requested, Limit: MaxLeverage}
	}

	if kind == domain.KindIncrease && collateralValueUSD.LessThan(minCollateralUSD) {
		return domain.ResolvedOrder{}, ErrCollateralTooSmall
	}

	// 단위 변환은 모든 계산과 검증이 끝난 뒤 한 번만 합니다
	return domain.ResolvedOrder{
		Kind:  kind,
		Chain: req.Chain,

		MarketKey:         market.Address,
		IndexTokenAddress: index,
		CollateralAddress: collateral,
		StartTokenAddress: start,

		IsLong: *req.IsLong,

		SizeDeltaUSD:           sizeUSD,
		SizeDelta:              fixedpoint.USDToProtocol(sizeUSD),
		InitialCollateralDelta: fixedpoint.ToProtocol(collateralTokens, startToken.Decimals),

		SlippagePercent: *req.SlippagePercent,
		SwapPath:        swapPath,
	}, nil
}

// DecreaseFromPosition은 조회한 오픈 포지션을 부분/전체 청산 주문으로
// 변환합니다. closeFraction은 포지션 크기에서, collateralFraction은 담보
// 수량에서 빼낼 비율입니다 (전체 청산은 둘 다 1). 인출 토큰이 담보
// 토큰과 다르면 담보에서 인출 토큰으로 가는 스왑 경로를 붙입니다.
func (r *Resolver) DecreaseFromPosition(
	position domain.Position,
	outTokenSymbol string,
	closeFraction, collateralFraction decimal.Decimal,
	slippage decimal.Decimal,
) (domain.ResolvedOrder, error) {
	if slippage.Sign() <= 0 {
		return domain.ResolvedOrder{}, ErrMissingSlippage
	}
	if !validFraction(closeFraction) || !validFraction(collateralFraction) {
		return domain.ResolvedOrder{}, ErrInvalidFraction
	}

	market, err := r.markets.ByKey(position.Market)
	if err != nil {
		return domain.ResolvedOrder{}, &ResolutionError{Field: "market_key", Err: err}
	}

	out, err := r.resolveToken("out_token", nil, outTokenSymbol, true)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	// 담보 토큰 그대로 받으면 스왑이 필요 없습니다
	var swapPath []common.Address
	if out != position.CollateralToken {
		swapPath, _, err = r.markets.SwapRoute(position.CollateralToken, out)
		if err != nil {
			return domain.ResolvedOrder{}, &ResolutionError{Field: "swap_path", Err: err}
		}
	}

	sizeUSD := position.SizeInUSD.Mul(closeFraction)
	collateralDelta := decimal.NewFromBigInt(position.CollateralAmount, 0).
		Mul(collateralFraction).BigInt()

	return domain.ResolvedOrder{
		Kind:  domain.KindDecrease,
		Chain: r.chain,

		MarketKey:         position.Market,
		IndexTokenAddress: market.IndexToken,
		CollateralAddress: position.CollateralToken,
		OutTokenAddress:   out,

		IsLong: position.IsLong,

		SizeDeltaUSD:           sizeUSD,
		SizeDelta:              fixedpoint.USDToProtocol(sizeUSD),
		InitialCollateralDelta: collateralDelta,

		SlippagePercent: slippage,
		SwapPath:        swapPath,
	}, nil
}

func validFraction(f decimal.Decimal) bool {
	return f.Sign() > 0 && f.LessThanOrEqual(decimal.NewFromInt(1))
}

// ResolveSwap은 토큰 스왑 요청을 완성합니다. 포지션 크기 계산은 없고
// 시작 토큰 수량과 경로만 필요합니다.
func (r *Resolver) ResolveSwap(req domain.OrderRequest) (domain.ResolvedOrder, error) {
	if err := r.checkChain(req.Chain); err != nil {
		return domain.ResolvedOrder{}, err
	}
	if req.SlippagePercent == nil {
		return domain.ResolvedOrder{}, ErrMissingSlippage
	}
	if req.InitialCollateralDelta == nil {
		return domain.ResolvedOrder{}, ErrMissingAmount
	}

	start, err := r.resolveToken("start_token", req.StartTokenAddress, req.StartTokenSymbol, true)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}
	out, err := r.resolveToken("out_token", req.OutTokenAddress, req.OutTokenSymbol, false)
	if err != nil {
		return domain.ResolvedOrder{}, err
	}

	swapPath := req.SwapPath
	if swapPath == nil {
		swapPath, _, err = r.markets.SwapRoute(start, out)
		if err != nil {
			return domain.ResolvedOrder{}, &ResolutionError{Field: "swap_path", Err: err}
		}
	}

	startToken, err := r.tokens.ByAddress(start)
	if err != nil {
		return domain.ResolvedOrder{}, &ResolutionError{Field: "start_token", Err: err}
	}

	return domain.ResolvedOrder{
		Kind:  domain.KindSwap,
		Chain: req.Chain,

		StartTokenAddress: start,
		CollateralAddress: start,
		OutTokenAddress:   out,

		SizeDelta:              new(big.Int),
		InitialCollateralDelta: fixedpoint.ToProtocol(*req.InitialCollateralDelta, startToken.Decimals),

		SlippagePercent: *req.SlippagePercent,
		SwapPath:        swapPath,
	}, nil
}

func (r *Resolver) checkChain(chain domain.Chain) error {
	if !chain.IsValid() {
		return ErrMissingChain
	}
	if chain != r.chain {
		return &ResolutionError{
			Field: "chain",
			Err:   fmt.Errorf("리졸버는 %s 체인으로 구성되었습니다: %s", r.chain, chain),
		}
	}
	return nil
}

// resolveToken은 주소 또는 심볼로 토큰 주소를 찾습니다. btcAsLegacy가
// 참이면 "BTC" 심볼을 레거시 WBTC 주소로 풉니다 (담보로 실제 전송되는
// 토큰이기 때문입니다). 거짓이면 tickers API의 합성 BTC로 풉니다.
func (r *Resolver) resolveToken(field string, addr *common.Address, symbol string, btcAsLegacy bool) (common.Address, error) {
	if addr != nil {
		return *addr, nil
	}
	if symbol == "" {
		return common.Address{}, &ResolutionError{
			Field: field,
			Err:   fmt.Errorf("주소나 심볼 중 하나는 지정해야 합니다"),
		}
	}
	if btcAsLegacy && symbol == "BTC" {
		return gmx.LegacyWBTC, nil
	}

	token, err := r.tokens.BySymbol(symbol)
	if err != nil {
		return common.Address{}, &ResolutionError{Field: field, Err: err}
	}
	return token.Address, nil
}

// resolveMarket은 인덱스 토큰의 홈 마켓을 찾습니다
func (r *Resolver) resolveMarket(index common.Address) (domain.Market, error) {
	market, ok := r.markets.FindByIndexToken(gmx.AliasLegacyWrapped(index))
	if !ok {
		return domain.Market{}, &ResolutionError{
			Field: "market_key",
			Err:   &markets.NoMarketFoundError{Token: index},
		}
	}
	return market, nil
}

// triangulate는 {포지션 크기, 담보 수량, 레버리지} 중 둘로 나머지 하나를
// 계산합니다. 가격이 필요한 경우에만 시작 토큰의 마크 가격을 조회합니다.
func (r *Resolver) triangulate(req domain.OrderRequest, startToken domain.Token) (decimal.Decimal, decimal.Decimal, error) {
	size, collateral, leverage := req.SizeDeltaUSD, req.InitialCollateralDelta, req.Leverage

	switch {
	case size != nil && collateral != nil:
		return *size, *collateral, nil

	case leverage != nil && collateral != nil:
		price, err := r.startPrice(startToken)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		collateralValueUSD := collateral.Mul(price)
		return leverage.Mul(collateralValueUSD), *collateral, nil

	case size != nil && leverage != nil:
		if leverage.IsZero() {
			return decimal.Zero, decimal.Zero, ErrAmbiguousSize
		}
		price, err := r.startPrice(startToken)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		collateralValueUSD := size.Div(*leverage)
		return *size, collateralValueUSD.Div(price), nil

	default:
		return decimal.Zero, decimal.Zero, ErrAmbiguousSize
	}
}

// collateralUSD는 담보 토큰 수량의 USD 가치를 계산합니다
func (r *Resolver) collateralUSD(collateralTokens decimal.Decimal, startToken domain.Token) (decimal.Decimal, error) {
	price, err := r.startPrice(startToken)
	if err != nil {
		return decimal.Zero, err
	}
	return collateralTokens.Mul(price), nil
}

func (r *Resolver) startPrice(startToken domain.Token) (decimal.Decimal, error) {
	price, err := r.prices.MarkPriceUSD(startToken.Address, startToken.Decimals)
	if err != nil {
		return decimal.Zero, &ResolutionError{Field: "start_token_price", Err: err}
	}
	return price, nil
}
