// internal/orders/liquidity.go
package orders

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
)

// InvalidWithdrawalTokenError는 마켓 구성 토큰이 아닌 인출 토큰을 가리킵니다
type InvalidWithdrawalTokenError struct {
	OutToken  common.Address
	MarketKey common.Address
}

func (e *InvalidWithdrawalTokenError) Error() string {
	return fmt.Sprintf("마켓 %s의 구성 토큰이 아니라서 인출할 수 없습니다: %s",
		e.MarketKey.Hex(), e.OutToken.Hex())
}

// ResolveDeposit은 유동성 예치 요청을 완성합니다. USD 금액은 각 토큰의
// 마크 가격으로 토큰 수량이 되고, 금액이 0인 쪽은 가격 조회 없이 0으로
// 확정됩니다.
func (r *Resolver) ResolveDeposit(req domain.DepositRequest) (domain.ResolvedDeposit, error) {
	if err := r.checkChain(req.Chain); err != nil {
		return domain.ResolvedDeposit{}, err
	}

	market, err := r.resolveMarketForLiquidity(req.MarketKey, req.MarketTokenSymbol)
	if err != nil {
		return domain.ResolvedDeposit{}, err
	}

	longToken := market.LongToken
	if req.LongTokenAddress != nil || req.LongTokenSymbol != "" {
		longToken, err = r.resolveToken("long_token", req.LongTokenAddress, req.LongTokenSymbol, true)
		if err != nil {
			return domain.ResolvedDeposit{}, err
		}
	}

	shortToken := market.ShortToken
	if req.ShortTokenAddress != nil || req.ShortTokenSymbol != "" {
		shortToken, err = r.resolveToken("short_token", req.ShortTokenAddress, req.ShortTokenSymbol, true)
		if err != nil {
			return domain.ResolvedDeposit{}, err
		}
	}

	longAmount, err := r.sideAmount("long_token", longToken, req.LongTokenUSD)
	if err != nil {
		return domain.ResolvedDeposit{}, err
	}
	shortAmount, err := r.sideAmount("short_token", shortToken, req.ShortTokenUSD)
	if err != nil {
		return domain.ResolvedDeposit{}, err
	}

	return domain.ResolvedDeposit{
		Chain:     req.Chain,
		MarketKey: market.Address,

		LongTokenAddress:  longToken,
		ShortTokenAddress: shortToken,
		LongTokenAmount:   longAmount,
		ShortTokenAmount:  shortAmount,
	}, nil
}

// ResolveWithdrawal은 유동성 인출 요청을 완성합니다. 인출 토큰은 마켓의
// 롱 또는 숏 토큰이어야 합니다. GM 수량은 18자리 고정입니다.
func (r *Resolver) ResolveWithdrawal(req domain.WithdrawalRequest) (domain.ResolvedWithdrawal, error) {
	if err := r.checkChain(req.Chain); err != nil {
		return domain.ResolvedWithdrawal{}, err
	}
	if req.GMAmount.Sign() <= 0 {
		return domain.ResolvedWithdrawal{}, ErrMissingAmount
	}

	market, err := r.resolveMarketForLiquidity(req.MarketKey, req.MarketTokenSymbol)
	if err != nil {
		return domain.ResolvedWithdrawal{}, err
	}

	outToken, err := r.resolveToken("out_token", req.OutTokenAddress, req.OutTokenSymbol, true)
	if err != nil {
		return domain.ResolvedWithdrawal{}, err
	}

	if outToken != market.LongToken && outToken != market.ShortToken {
		return domain.ResolvedWithdrawal{}, &InvalidWithdrawalTokenError{
			OutToken: outToken, MarketKey: market.Address,
		}
	}

	return domain.ResolvedWithdrawal{
		Chain:     req.Chain,
		MarketKey: market.Address,

		OutTokenAddress: outToken,
		GMAmount:        fixedpoint.ToProtocol(req.GMAmount, 18),
	}, nil
}

// resolveMarketForLiquidity는 마켓 주소 또는 마켓 토큰 심볼로 마켓을
// 찾습니다. 심볼은 해당 토큰을 인덱스로 하는 홈 마켓으로 풉니다.
func (r *Resolver) resolveMarketForLiquidity(key *common.Address, symbol string) (domain.Market, error) {
	if key != nil {
		market, err := r.markets.ByKey(*key)
		if err != nil {
			return domain.Market{}, &ResolutionError{Field: "market_key", Err: err}
		}
		return market, nil
	}

	if symbol == "" {
		return domain.Market{}, &ResolutionError{
			Field: "market_key",
			Err:   fmt.Errorf("마켓 주소나 마켓 토큰 심볼 중 하나는 지정해야 합니다"),
		}
	}

	token, err := r.tokens.BySymbol(symbol)
	if err != nil {
		return domain.Market{}, &ResolutionError{Field: "market_token", Err: err}
	}
	return r.resolveMarket(token.Address)
}

// sideAmount는 예치 한쪽의 USD 금액을 토큰 수량으로 변환합니다.
// 0이면 가격 조회 없이 바로 0을 돌려줍니다.
func (r *Resolver) sideAmount(field string, token common.Address, usd decimal.Decimal) (*big.Int, error) {
	if usd.Sign() == 0 {
		return new(big.Int), nil
	}

	meta, err := r.tokens.ByAddress(gmx.AliasLegacyWrapped(token))
	if err != nil {
		// 레거시 주소로 직접 예치하는 경우 원래 주소로 다시 찾습니다
		meta, err = r.tokens.ByAddress(token)
		if err != nil {
			return nil, &ResolutionError{Field: field, Err: err}
		}
	}

	price, err := r.prices.MarkPriceUSD(meta.Address, meta.Decimals)
	if err != nil {
		return nil, &ResolutionError{Field: field, Err: err}
	}

	return fixedpoint.ToProtocol(usd.Div(price), meta.Decimals), nil
}
