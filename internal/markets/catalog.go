// internal/markets/catalog.go
package markets

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/gmx"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/tokens"
)

// wstETH 마켓은 토큰 API 메타데이터가 틀려서 수동으로 바로잡습니다
var (
	wstETHMarket = common.HexToAddress("0x0Cf1fb4d1FF67A3D8Ca92c9d6643F8F9be8e03E5")
	wstETHToken  = common.HexToAddress("0x5979D7b546E38E414F7E9822514be443A4800529")
)

// NoMarketFoundError는 홈 마켓이 없는 토큰을 가리킵니다
type NoMarketFoundError struct {
	Token common.Address
}

func (e *NoMarketFoundError) Error() string {
	return fmt.Sprintf("토큰의 홈 마켓을 찾지 못했습니다: %s", e.Token.Hex())
}

// MarketNotFoundError는 카탈로그에 없는 마켓 조회를 가리킵니다
type MarketNotFoundError struct {
	MarketKey common.Address
}

func (e *MarketNotFoundError) Error() string {
	return fmt.Sprintf("등록되지 않은 마켓입니다: %s", e.MarketKey.Hex())
}

// Catalog는 마켓 주소를 키로 하는 읽기 전용 마켓 스냅샷입니다
type Catalog struct {
	entries map[common.Address]domain.Market
	hub     common.Address // 스왑 경로의 기준 자산
}

// Build는 리더 컨트랙트의 원시 마켓 튜플을 가공해 카탈로그를 만듭니다.
// 인덱스 토큰의 서명 가격이 없는 마켓은 아직 상장 전으로 보고 제외합니다
// (인덱스가 zero address인 순수 스왑 마켓은 예외).
func Build(
	raws []gmx.RawMarket,
	catalog tokens.Catalog,
	prices pricefeed.Snapshot,
	contracts gmx.Contracts,
) Catalog {
	entries := make(map[common.Address]domain.Market, len(raws))

	for _, raw := range raws {
		if raw.IndexToken != domain.ZeroAddress && !prices.Has(raw.IndexToken) {
			// 상장 전 마켓
			continue
		}

		longToken, longErr := catalog.ByAddress(raw.LongToken)
		shortToken, shortErr := catalog.ByAddress(raw.ShortToken)
		if longErr != nil || shortErr != nil {
			// 담보 토큰 메타데이터가 없으면 다룰 수 없는 마켓입니다
			continue
		}

		market := domain.Market{
			Address:       raw.MarketToken,
			IndexToken:    raw.IndexToken,
			LongToken:     raw.LongToken,
			ShortToken:    raw.ShortToken,
			LongDecimals:  longToken.Decimals,
			ShortDecimals: shortToken.Decimals,
		}

		if indexToken, err := catalog.ByAddress(raw.IndexToken); err == nil {
			market.Symbol = indexToken.Symbol
			market.IndexDecimals = indexToken.Decimals

			// 단일 토큰 풀은 같은 자산의 기본 마켓과 구분하기 위해
			// "2" 접미사를 붙입니다
			if market.IsSingleToken() {
				market.Symbol += "2"
			}
		} else {
			// 인덱스 메타데이터가 없으면 순수 스왑 마켓입니다
			market.Symbol = fmt.Sprintf("SWAP %s-%s", longToken.Symbol, shortToken.Symbol)
		}

		if market.Address == wstETHMarket {
			market.Symbol = "wstETH"
			market.IndexToken = wstETHToken
		}

		entries[market.Address] = market
	}

	return Catalog{entries: entries, hub: contracts.HubToken}
}

// NewCatalog는 이미 가공된 마켓 맵으로 카탈로그를 만듭니다 (테스트용)
func NewCatalog(entries map[common.Address]domain.Market, hub common.Address) Catalog {
	return Catalog{entries: entries, hub: hub}
}

// ByKey는 마켓 주소로 마켓을 조회합니다
func (c Catalog) ByKey(key common.Address) (domain.Market, error) {
	market, ok := c.entries[key]
	if !ok {
		return domain.Market{}, &MarketNotFoundError{MarketKey: key}
	}
	return market, nil
}

// FindByIndexToken은 인덱스 토큰이 일치하는 홈 마켓을 찾습니다.
// 없으면 두 번째 반환값이 false입니다 (에러가 아님 — 호출자가 처리).
func (c Catalog) FindByIndexToken(indexToken common.Address) (domain.Market, bool) {
	for _, market := range c.entries {
		if market.IndexToken == indexToken {
			return market, true
		}
	}
	return domain.Market{}, false
}

// All은 사용 가능한 전체 마켓 맵을 반환합니다. 호출자는 수정하면 안 됩니다.
func (c Catalog) All() map[common.Address]domain.Market {
	return c.entries
}

// Len은 마켓 수를 반환합니다
func (c Catalog) Len() int {
	return len(c.entries)
}

// FilterSwapMarkets는 순수 스왑 마켓을 제외한 새 카탈로그를 반환합니다
func (c Catalog) FilterSwapMarkets() Catalog {
	filtered := make(map[common.Address]domain.Market, len(c.entries))
	for key, market := range c.entries {
		if strings.Contains(market.Symbol, "SWAP") {
			continue
		}
		filtered[key] = market
	}
	return Catalog{entries: filtered, hub: c.hub}
}

// SwapRoute는 tokenIn에서 tokenOut으로 가는 마켓 경로를 찾습니다.
//
// 두 토큰 모두 레거시 래핑 자산 치환을 거친 뒤, 기준 자산(허브)이
// 개입하는지에 따라 한 홉 또는 두 홉 경로를 만듭니다. 각 토큰은
// 자신을 인덱스로 하는 홈 마켓 하나를 스왑 앵커로 갖습니다.
func (c Catalog) SwapRoute(tokenIn, tokenOut common.Address) ([]common.Address, bool, error) {
	tokenIn = gmx.AliasLegacyWrapped(tokenIn)
	tokenOut = gmx.AliasLegacyWrapped(tokenOut)

	if tokenIn == tokenOut {
		return nil, false, nil
	}

	var anchorToken common.Address
	if tokenIn == c.hub {
		anchorToken = tokenOut
	} else {
		anchorToken = tokenIn
	}

	anchor, ok := c.FindByIndexToken(anchorToken)
	if !ok {
		return nil, false, &NoMarketFoundError{Token: anchorToken}
	}

	// 어느 쪽도 허브가 아니면 tokenOut의 홈 마켓을 거치는 두 번째 홉이
	// 필요합니다
	if tokenIn != c.hub && tokenOut != c.hub {
		second, ok := c.FindByIndexToken(tokenOut)
		if !ok {
			return nil, false, &NoMarketFoundError{Token: tokenOut}
		}
		return []common.Address{anchor.Address, second.Address}, true, nil
	}

	return []common.Address{anchor.Address}, false, nil
}
