// internal/rates/service.go
package rates

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
)

// HourSeconds는 시간당 비율 계산에 쓰는 기본 기간입니다
const HourSeconds = 3600

// MarketRates는 한 마켓의 방향별 펀딩/보로잉 비율(기간당 %)입니다
type MarketRates struct {
	FundingLong  decimal.Decimal
	FundingShort decimal.Decimal
	BorrowLong   decimal.Decimal
	BorrowShort  decimal.Decimal

	LongOpenInterestUSD  decimal.Decimal
	ShortOpenInterestUSD decimal.Decimal
}

// Service는 전체 마켓의 펀딩/보로잉 비율을 조회합니다
type Service struct {
	reader    gmx.Reader
	datastore gmx.Datastore
	contracts gmx.Contracts
	markets   markets.Catalog
	prices    pricefeed.Snapshot

	workers int
}

// NewService는 비율 서비스를 생성합니다. workers가 0이면 기본값을 씁니다.
func NewService(
	reader gmx.Reader,
	datastore gmx.Datastore,
	contracts gmx.Contracts,
	marketCatalog markets.Catalog,
	prices pricefeed.Snapshot,
	workers int,
) *Service {
	return &Service{
		reader:    reader,
		datastore: datastore,
		contracts: contracts,
		markets:   marketCatalog,
		prices:    prices,
		workers:   workers,
	}
}

// RatesPerPeriod는 스왑 마켓을 제외한 전체 마켓의 비율을 병렬로 조회합니다.
// 반환 맵의 키는 마켓 심볼입니다. 개별 마켓 실패는 두 번째 맵에 담기고
// 나머지 마켓 결과에는 영향을 주지 않습니다.
func (s *Service) RatesPerPeriod(ctx context.Context, periodSeconds int64) (map[string]MarketRates, map[string]error) {
	tradable := s.markets.FilterSwapMarkets()

	keys := make([]common.Address, 0, tradable.Len())
	for key := range tradable.All() {
		keys = append(keys, key)
	}
	// 병렬 결과를 인덱스로 모으기 위해 순서를 고정합니다
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Hex() < keys[j].Hex()
	})

	results := make([]MarketRates, len(keys))
	var mu sync.Mutex

	errs := gmx.Parallel(ctx, s.workers, len(keys), func(ctx context.Context, i int) error {
		market, err := tradable.ByKey(keys[i])
		if err != nil {
			return err
		}

		rates, err := s.marketRates(ctx, market, periodSeconds)
		if err != nil {
			return err
		}

		mu.Lock()
		results[i] = rates
		mu.Unlock()
		return nil
	})

	out := make(map[string]MarketRates, len(keys))
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

// marketRates는 단일 마켓의 비율을 계산합니다
func (s *Service) marketRates(ctx context.Context, market domain.Market, periodSeconds int64) (MarketRates, error) {
	prices, err := s.prices.MarketPrices(market)
	if err != nil {
		return MarketRates{}, fmt.Errorf("마켓 가격 구성 실패 (%s): %w", market.Symbol, err)
	}

	info, err := s.reader.GetMarketInfo(ctx, s.contracts.Datastore, prices, market.Address)
	if err != nil {
		return MarketRates{}, fmt.Errorf("마켓 정보 조회 실패 (%s): %w", market.Symbol, err)
	}

	longOI, shortOI, err := OpenInterestUSD(ctx, s.datastore, market)
	if err != nil {
		return MarketRates{}, fmt.Errorf("미결제약정 조회 실패 (%s): %w", market.Symbol, err)
	}

	return MarketRates{
		FundingLong: FundingRatePerPeriod(
			info.FundingFactorPerSecond, info.LongsPayShorts, true,
			longOI, shortOI, periodSeconds),
		FundingShort: FundingRatePerPeriod(
			info.FundingFactorPerSecond, info.LongsPayShorts, false,
			longOI, shortOI, periodSeconds),
		BorrowLong:  BorrowRatePerPeriod(info.BorrowingFactorPerSecondForLongs, periodSeconds),
		BorrowShort: BorrowRatePerPeriod(info.BorrowingFactorPerSecondForShorts, periodSeconds),

		LongOpenInterestUSD:  longOI,
		ShortOpenInterestUSD: shortOI,
	}, nil
}

// OpenInterestUSD는 (담보 토큰 × 방향) 네 슬롯의 미결제약정을 데이터스토어에서
// 읽어 방향별 USD 합으로 돌려줍니다. 단일 토큰 풀은 같은 슬롯이 두 번
// 집계되므로 절반으로 나눕니다.
func OpenInterestUSD(ctx context.Context, ds gmx.Datastore, market domain.Market) (decimal.Decimal, decimal.Decimal, error) {
	read := func(collateral common.Address, isLong bool) (*big.Int, error) {
		return ds.GetUint(ctx, gmx.OpenInterestKey(market.Address, collateral, isLong))
	}

	longViaLong, err := read(market.LongToken, true)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	longViaShort, err := read(market.ShortToken, true)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	shortViaLong, err := read(market.LongToken, false)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	shortViaShort, err := read(market.ShortToken, false)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	longOI := fixedpoint.ToHuman(new(big.Int).Add(longViaLong, longViaShort), fixedpoint.Precision)
	shortOI := fixedpoint.ToHuman(new(big.Int).Add(shortViaLong, shortViaShort), fixedpoint.Precision)

	if market.IsSingleToken() {
		two := decimal.NewFromInt(2)
		longOI = longOI.Div(two)
		shortOI = shortOI.Div(two)
	}

	return longOI, shortOI, nil
}
