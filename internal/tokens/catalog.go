package tokens

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/assist-by/hermes/internal/domain"
)

// Catalog는 토큰 주소를 키로 하는 읽기 전용 토큰 메타데이터 스냅샷입니다
type Catalog struct {
	entries map[common.Address]domain.Token
}

// UnknownTokenError는 카탈로그에 없는 토큰 조회를 가리킵니다
type UnknownTokenError struct {
	Query string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("GMX v2에 등록되지 않은 토큰입니다: %q", e.Query)
}

// NewCatalog는 항목 맵으로 카탈로그를 생성합니다
func NewCatalog(entries map[common.Address]domain.Token) Catalog {
	return Catalog{entries: entries}
}

// ByAddress는 주소로 토큰을 조회합니다
func (c Catalog) ByAddress(addr common.Address) (domain.Token, error) {
	token, ok := c.entries[addr]
	if !ok {
		return domain.Token{}, &UnknownTokenError{Query: addr.Hex()}
	}
	return token, nil
}

// BySymbol은 심볼로 토큰을 조회합니다. 대소문자를 구분한 완전 일치이며
// 카탈로그를 선형 탐색합니다.
func (c Catalog) BySymbol(symbol string) (domain.Token, error) {
	// tickers API 예외: BTC는 WBTC.b로 등록되어 있습니다
	if symbol == "BTC" {
		symbol = "WBTC.b"
	}

	for _, token := range c.entries {
		if token.Symbol == symbol {
			return token, nil
		}
	}
	return domain.Token{}, &UnknownTokenError{Query: symbol}
}

// Resolve는 심볼 또는 16진수 주소 문자열로 토큰을 조회합니다
func (c Catalog) Resolve(symbolOrAddress string) (domain.Token, error) {
	if common.IsHexAddress(symbolOrAddress) {
		return c.ByAddress(common.HexToAddress(symbolOrAddress))
	}
	return c.BySymbol(symbolOrAddress)
}

// Len은 카탈로그 항목 수를 반환합니다
func (c Catalog) Len() int {
	return len(c.entries)
}

// All은 전체 항목 맵을 반환합니다. 호출자는 수정하면 안 됩니다.
func (c Catalog) All() map[common.Address]domain.Token {
	return c.entries
}
