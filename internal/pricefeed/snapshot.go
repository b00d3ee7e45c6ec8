package pricefeed

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
)

// Snapshot은 한 시점의 토큰별 서명 가격 뷰입니다. 불변으로 취급하며
// 계산 도중 갱신하지 않습니다.
type Snapshot map[common.Address]domain.PriceQuote

// PriceNotFoundError는 스냅샷에 가격이 없는 토큰을 가리킵니다.
// 해당 토큰은 아직 상장 전으로 취급합니다.
type PriceNotFoundError struct {
	Token common.Address
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("가격 스냅샷에 토큰이 없습니다: %s", e.Token.Hex())
}

// 스테이블 토큰이 서명 가격 API에 없을 때 쓰는 대체 가격(10^24 = $1, 6 decimals)
var stableFallbackPrice = fixedpoint.Expand10(24)

// Has는 토큰 가격이 스냅샷에 있는지 확인합니다
func (s Snapshot) Has(token common.Address) bool {
	_, ok := s[token]
	return ok
}

// Quote는 토큰의 min/max 가격 쌍을 반환합니다
func (s Snapshot) Quote(token common.Address) (domain.PriceQuote, error) {
	quote, ok := s[token]
	if !ok {
		return domain.PriceQuote{}, &PriceNotFoundError{Token: token}
	}
	return quote, nil
}

// MarkPrice는 min/max의 중앙값을 오라클 정밀도 스케일로 반환합니다.
// 한쪽으로 치우친 오래된 호가의 영향을 줄이기 위한 선택입니다.
func (s Snapshot) MarkPrice(token common.Address) (decimal.Decimal, error) {
	quote, err := s.Quote(token)
	if err != nil {
		return decimal.Zero, err
	}

	sum := new(big.Int).Add(quote.Min, quote.Max)
	return decimal.NewFromBigInt(sum, 0).Div(decimal.NewFromInt(2)), nil
}

// MarkPriceUSD는 마크 가격을 사람 단위 USD로 반환합니다
func (s Snapshot) MarkPriceUSD(token common.Address, tokenDecimals int32) (decimal.Decimal, error) {
	mark, err := s.MarkPrice(token)
	if err != nil {
		return decimal.Zero, err
	}
	return fixedpoint.OracleToUSD(mark, tokenDecimals), nil
}

// PricePair는 리더 호출에 넣을 (min, max) 쌍을 반환합니다
func (s Snapshot) PricePair(token common.Address) (gmx.PricePair, error) {
	quote, err := s.Quote(token)
	if err != nil {
		return gmx.PricePair{}, err
	}
	return gmx.PricePair{Min: quote.Min, Max: quote.Max}, nil
}

// MarketPrices는 마켓의 인덱스/롱/숏 가격 묶음을 구성합니다.
// 인덱스 토큰 가격이 없으면 실패하지만, 롱/숏 토큰은 서명 가격 API에
// 아직 없는 스테이블일 수 있어 $1 대체 가격을 사용합니다.
func (s Snapshot) MarketPrices(market domain.Market) (gmx.MarketPrices, error) {
	indexPair, err := s.PricePair(market.IndexToken)
	if err != nil {
		return gmx.MarketPrices{}, err
	}

	longPair, err := s.PricePair(market.LongToken)
	if err != nil {
		longPair = gmx.PricePair{Min: stableFallbackPrice, Max: stableFallbackPrice}
	}

	shortPair, err := s.PricePair(market.ShortToken)
	if err != nil {
		shortPair = gmx.PricePair{Min: stableFallbackPrice, Max: stableFallbackPrice}
	}

	return gmx.MarketPrices{
		IndexTokenPrice: indexPair,
		LongTokenPrice:  longPair,
		ShortTokenPrice: shortPair,
	}, nil
}
