// internal/positions/positions.go
package positions

import (
	"context"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/fixedpoint"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/markets"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/tokens"
)

const maxPositionsPerAccount = 1000

// Service는 계정의 오픈 포지션을 조회하고 가공합니다
type Service struct {
	reader    gmx.Reader
	datastore gmx.Datastore
	contracts gmx.Contracts
	markets   markets.Catalog
	tokens    tokens.Catalog
	prices    pricefeed.Snapshot
}

// NewService는 포지션 서비스를 생성합니다
func NewService(
	reader gmx.Reader,
	datastore gmx.Datastore,
	contracts gmx.Contracts,
	marketCatalog markets.Catalog,
	tokenCatalog tokens.Catalog,
	prices pricefeed.Snapshot,
) *Service {
	return &Service{
		reader:    reader,
		datastore: datastore,
		contracts: contracts,
		markets:   marketCatalog,
		tokens:    tokenCatalog,
		prices:    prices,
	}
}

// OpenPositions는 계정의 오픈 포지션을 "SYMBOL_long|short" 키의 맵으로
// 반환합니다. 개별 포지션 가공이 실패해도 나머지는 계속 처리하고,
// 실패는 로그로 남깁니다.
func (s *Service) OpenPositions(ctx context.Context, account common.Address) (map[string]domain.Position, error) {
	raws, err := s.reader.GetAccountPositions(ctx, s.contracts.Datastore, account, 0, maxPositionsPerAccount)
	if err != nil {
		return nil, fmt.Errorf("포지션 목록 조회 실패: %w", err)
	}

	if len(raws) == 0 {
		log.Printf("오픈 포지션이 없습니다: %s", account.Hex())
	}

	processed := make(map[string]domain.Position, len(raws))
	for _, raw := range raws {
		position, err := s.process(raw)
		if err != nil {
			log.Printf("호환되지 않는 포지션을 건너뜁니다: %v",
				&ProcessingError{Market: raw.Addresses.Market, Err: err})
			continue
		}
		processed[position.Key()] = position
	}

	return processed, nil
}

// process는 리더 컨트랙트의 원시 포지션 튜플을 사람 단위로 가공합니다
func (s *Service) process(raw gmx.RawPosition) (domain.Position, error) {
	market, err := s.markets.ByKey(raw.Addresses.Market)
	if err != nil {
		return domain.Position{}, err
	}

	collateralToken, err := s.tokens.ByAddress(raw.Addresses.CollateralToken)
	if err != nil {
		return domain.Position{}, err
	}

	markPrice, err := s.prices.MarkPriceUSD(market.IndexToken, market.IndexDecimals)
	if err != nil {
		return domain.Position{}, err
	}

	collateralPrice, err := s.prices.MarkPriceUSD(collateralToken.Address, collateralToken.Decimals)
	if err != nil {
		return domain.Position{}, err
	}

	sizeUSD := fixedpoint.ToHuman(raw.Numbers.SizeInUSD, fixedpoint.Precision)

	sizeInTokens := fixedpoint.ToHuman(raw.Numbers.SizeInTokens, market.IndexDecimals)
	if sizeInTokens.IsZero() {
		return domain.Position{}, fmt.Errorf("크기가 0인 포지션입니다")
	}
	entryPrice := sizeUSD.Div(sizeInTokens)

	collateralAmount := fixedpoint.ToHuman(raw.Numbers.CollateralAmount, collateralToken.Decimals)
	collateralUSD := collateralAmount.Mul(collateralPrice)

	leverage, err := Leverage(sizeUSD, collateralUSD)
	if err != nil {
		return domain.Position{}, err
	}

	return domain.Position{
		Account:          raw.Addresses.Account,
		Market:           raw.Addresses.Market,
		MarketSymbol:     market.Symbol,
		CollateralToken:  raw.Addresses.CollateralToken,
		CollateralSymbol: collateralToken.Symbol,
		IsLong:           raw.IsLong,

		SizeInUSD:        sizeUSD,
		SizeInTokens:     raw.Numbers.SizeInTokens,
		CollateralAmount: raw.Numbers.CollateralAmount,
		CollateralUSD:    collateralUSD,

		EntryPrice:    entryPrice,
		MarkPrice:     markPrice,
		Leverage:      leverage,
		PercentProfit: PercentProfit(entryPrice, markPrice, leverage, raw.IsLong),

		BorrowingFactor:               raw.Numbers.BorrowingFactor,
		FundingFeeAmountPerSize:       raw.Numbers.FundingFeeAmountPerSize,
		LongTokenClaimableFundingUSD:  raw.Numbers.LongTokenClaimableFundingAmountPerSize,
		ShortTokenClaimableFundingUSD: raw.Numbers.ShortTokenClaimableFundingAmountPerSize,
	}, nil
}

// EstimateLiquidationPrice는 데이터스토어의 담보 하한 파라미터를 읽어
// 포지션의 청산 가격을 추정합니다. 미수 펀딩/보로잉 수수료는 호출자가
// USD(10^30 스케일)로 전달합니다. 청산가가 정의되지 않으면 두 번째
// 반환값이 false입니다.
func (s *Service) EstimateLiquidationPrice(
	ctx context.Context,
	position domain.Position,
	pendingFundingFeesUSD, pendingBorrowingFeesUSD *decimal.Decimal,
) (decimal.Decimal, bool, error) {
	market, err := s.markets.ByKey(position.Market)
	if err != nil {
		return decimal.Zero, false, err
	}

	minCollateralUSD, err := s.datastore.GetUint(ctx, gmx.MinCollateralUSDKey())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("최소 담보 조회 실패: %w", err)
	}

	minCollateralFactor, err := s.datastore.GetUint(ctx, gmx.MinCollateralFactorKey(position.Market))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("마켓 최소 담보 팩터 조회 실패: %w", err)
	}

	pendingFunding := decimal.Zero
	if pendingFundingFeesUSD != nil {
		pendingFunding = *pendingFundingFeesUSD
	}
	pendingBorrowing := decimal.Zero
	if pendingBorrowingFeesUSD != nil {
		pendingBorrowing = *pendingBorrowingFeesUSD
	}

	price, ok := LiquidationPrice(LiquidationInputs{
		SizeInUSD:        fixedpoint.USDToProtocol(position.SizeInUSD),
		SizeInTokens:     position.SizeInTokens,
		CollateralAmount: position.CollateralAmount,
		CollateralUSD:    fixedpoint.USDToProtocol(position.CollateralUSD),
		CollateralToken:  position.CollateralToken,
		IndexToken:       market.IndexToken,
		IndexDecimals:    market.IndexDecimals,

		PendingFundingFeesUSD:   fixedpoint.USDToProtocol(pendingFunding),
		PendingBorrowingFeesUSD: fixedpoint.USDToProtocol(pendingBorrowing),

		MinCollateralUSD:    minCollateralUSD,
		MinCollateralFactor: minCollateralFactor,

		IsLong: position.IsLong,
	})
	return price, ok, nil
}
