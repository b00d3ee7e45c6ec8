// internal/pools/service.go
package pools

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/markets"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/rates"
)

var two = decimal.NewFromInt(2)

// Liquidity는 한 마켓의 방향별 가용 유동성(USD)입니다.
// 풀 예약 한도에서 현재 미결제약정을 뺀 값입니다.
type Liquidity struct {
	LongUSD  decimal.Decimal
	ShortUSD decimal.Decimal
}

// TVL은 한 마켓 풀의 구성 토큰과 총 예치 가치(USD)입니다
type TVL struct {
	TotalUSD   decimal.Decimal
	LongToken  common.Address
	ShortToken common.Address
}

// Service는 전체 마켓의 풀 상태(가용 유동성, TVL)를 조회합니다
type Service struct {
	datastore gmx.Datastore
	markets   markets.Catalog
	prices    pricefeed.Snapshot

	workers int
}

// NewService는 풀 상태 서비스를 생성합니다. workers가 0이면 기본값을 씁니다.
func NewService(
	datastore gmx.Datastore,
	marketCatalog markets.Catalog,
	prices pricefeed.Snapshot,
	workers int,
) *Service {
	return &Service{
		datastore: datastore,
		markets:   marketCatalog,
		prices:    prices,
		workers:   workers,
	}
}

// AvailableLiquidity는 스왑 마켓을 제외한 전체 마켓의 방향별 가용 유동성을
// 병렬로 조회합니다. 반환 맵의 키는 마켓 심볼입니다. 개별 마켓 실패는
// 두 번째 맵에 담기고 나머지 마켓 결과에는 영향을 주지 않습니다.
func (s *Service) AvailableLiquidity(ctx context.Context) (map[string]Liquidity, map[string]error) {
	tradable := s.markets.FilterSwapMarkets()
	keys := sortedKeys(tradable)

	results := make([]Liquidity, len(keys))
	var mu sync.Mutex

	errs := gmx.Parallel(ctx, s.workers, len(keys), func(ctx context.Context, i int) error {
		market, err := tradable.ByKey(keys[i])
		if err != nil {
			return err
		}

		liquidity, err := s.marketLiquidity(ctx, market)
		if err != nil {
			return err
		}

		mu.Lock()
		results[i] = liquidity
		mu.Unlock()
		return nil
	})

	out := make(map[string]Liquidity, len(keys))
	failures := make(map[string]error)
	for i, key := range keys {
		market, _ := tradable.ByKey(key)
		if errs[i] != nil {
			failures[market.Symbol] = errs[i]
			continue
		}
		out[market.Symbol] = results[i]
	}

	return out, failures
}

// PoolTVL은 스왑 마켓을 포함한 전체 마켓의 풀 예치 가치를 병렬로 조회합니다
func (s *Service) PoolTVL(ctx context.Context) (map[string]TVL, map[string]error) {
	keys := sortedKeys(s.markets)

	results := make([]TVL, len(keys))
	var mu sync.Mutex

	errs := gmx.Parallel(ctx, s.workers, len(keys), func(ctx context.Context, i int) error {
		market, err := s.markets.ByKey(keys[i])
		if err != nil {
			return err
		}

		tvl, err := s.marketTVL(ctx, market)
		if err != nil {
			return err
		}

		mu.Lock()
		results[i] = tvl
		mu.Unlock()
		return nil
	})

	out := make(map[string]TVL, len(keys))
	failures := make(map[string]error)
	for i, key := range keys {
		market, _ := s.markets.ByKey(key)
		if errs[i] != nil {
			failures[market.Symbol] = errs[i]
			continue
		}
		out[market.Symbol] = results[i]
	}

	return out, failures
}

// marketLiquidity는 단일 마켓의 방향별 가용 유동성을 계산합니다.
// 예약 한도 비율은 풀 예약 비율과 미결제약정 예약 비율 중 작은 쪽입니다.
// 숏 풀은 스테이블 토큰이라 수량을 그대로 USD로 취급하되, 단일 토큰 풀은
// 양쪽 모두 토큰 가격으로 환산하고 풀 수량을 절반으로 나눕니다.
func (s *Service) marketLiquidity(ctx context.Context, market domain.Market) (Liquidity, error) {
	tokenPrice, err := s.prices.MarkPriceUSD(market.LongToken, market.LongDecimals)
	if err != nil {
		return Liquidity{}, fmt.Errorf("롱 토큰 가격 조회 실패 (%s): %w", market.Symbol, err)
	}

	longOI, shortOI, err := rates.OpenInterestUSD(ctx, s.datastore, market)
	if err != nil {
		return Liquidity{}, fmt.Errorf("미결제약정 조회 실패 (%s): %w", market.Symbol, err)
	}

	longPool, longFactor, err := s.maxReserveInputs(ctx, market, market.LongToken, true)
	if err != nil {
		return Liquidity{}, fmt.Errorf("롱 풀 조회 실패 (%s): %w", market.Symbol, err)
	}
	shortPool, shortFactor, err := s.maxReserveInputs(ctx, market, market.ShortToken, false)
	if err != nil {
		return Liquidity{}, fmt.Errorf("숏 풀 조회 실패 (%s): %w", market.Symbol, err)
	}

	longTokens := fixedpoint.ToHuman(longPool, market.LongDecimals)
	shortTokens := fixedpoint.ToHuman(shortPool, market.ShortDecimals)
	if market.IsSingleToken() {
		longTokens = longTokens.Div(two)
		shortTokens = shortTokens.Div(two)
	}

	longMaxUSD := longTokens.Mul(longFactor).Mul(tokenPrice)

	shortMaxUSD := shortTokens.Mul(shortFactor)
	if market.IsSingleToken() {
		shortMaxUSD = shortMaxUSD.Mul(tokenPrice)
	}

	return Liquidity{
		LongUSD:  longMaxUSD.Sub(longOI),
		ShortUSD: shortMaxUSD.Sub(shortOI),
	}, nil
}

// marketTVL은 단일 마켓 풀의 총 예치 가치를 계산합니다.
// 가격이 없는 토큰은 수량을 그대로 쓰고, 숏 토큰은 스테이블로 취급합니다.
func (s *Service) marketTVL(ctx context.Context, market domain.Market) (TVL, error) {
	longPool, err := s.datastore.GetUint(ctx, gmx.PoolAmountKey(market.Address, market.LongToken))
	if err != nil {
		return TVL{}, fmt.Errorf("롱 풀 보유량 조회 실패 (%s): %w", market.Symbol, err)
	}
	shortPool, err := s.datastore.GetUint(ctx, gmx.PoolAmountKey(market.Address, market.ShortToken))
	if err != nil {
		return TVL{}, fmt.Errorf("숏 풀 보유량 조회 실패 (%s): %w", market.Symbol, err)
	}

	longTokens := fixedpoint.ToHuman(longPool, market.LongDecimals)
	shortTokens := fixedpoint.ToHuman(shortPool, market.ShortDecimals)

	longUSD := longTokens
	if price, err := s.prices.MarkPriceUSD(market.LongToken, market.LongDecimals); err == nil {
		longUSD = longTokens.Mul(price)
	}

	return TVL{
		TotalUSD:   longUSD.Add(shortTokens),
		LongToken:  market.LongToken,
		ShortToken: market.ShortToken,
	}, nil
}

// maxReserveInputs는 한쪽 풀의 보유량과 유효 예약 비율을 읽습니다
func (s *Service) maxReserveInputs(
	ctx context.Context,
	market domain.Market,
	token common.Address,
	isLong bool,
) (*big.Int, decimal.Decimal, error) {
	pool, err := s.datastore.GetUint(ctx, gmx.PoolAmountKey(market.Address, token))
	if err != nil {
		return nil, decimal.Zero, err
	}
	reserve, err := s.datastore.GetUint(ctx, gmx.ReserveFactorKey(market.Address, isLong))
	if err != nil {
		return nil, decimal.Zero, err
	}
	oiReserve, err := s.datastore.GetUint(ctx, gmx.OpenInterestReserveFactorKey(market.Address, isLong))
	if err != nil {
		return nil, decimal.Zero, err
	}

	// 풀 예약 한도와 미결제약정 한도 중 작은 쪽이 유효합니다
	factor := reserve
	if oiReserve.Cmp(reserve) < 0 {
		factor = oiReserve
	}

	return pool, fixedpoint.ToHuman(factor, fixedpoint.Precision), nil
}

func sortedKeys(catalog markets.Catalog) []common.Address {
	keys := make([]common.Address, 0, catalog.Len())
	for key := range catalog.All() {
		keys = append(keys, key)
	}
	// 병렬 결과를 인덱스로 모으기 위해 순서를 고정합니다
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Hex() < keys[j].Hex()
	})
	return keys
}
