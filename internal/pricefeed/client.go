package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/assist-by/hermes/internal/domain"
)

// oracleURL은 체인별 서명 가격 API 주소입니다
var oracleURL = map[domain.Chain]string{
	domain.Arbitrum:  "https://arbitrum-api.gmxinfra.io/signed_prices/latest",
	domain.Avalanche: "https://avalanche-api.gmxinfra.io/signed_prices/latest",
}

// Client는 GMX 서명 가격 API 클라이언트를 구현합니다
type Client struct {
	url        string
	httpClient *http.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다 (테스트용)
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

// NewClient는 체인에 맞는 서명 가격 API 클라이언트를 생성합니다
func NewClient(chain domain.Chain, opts ...ClientOption) *Client {
	c := &Client{
		url:        oracleURL[chain],
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// signedPrice는 API 응답의 토큰별 가격 항목입니다
type signedPrice struct {
	TokenAddress string `json:"tokenAddress"`
	MinPriceFull string `json:"minPriceFull"`
	MaxPriceFull string `json:"maxPriceFull"`
}

type signedPricesResponse struct {
	SignedPrices []signedPrice `json:"signedPrices"`
}

// RecentPrices는 최신 서명 가격을 조회해 토큰 주소를 키로 하는
// 스냅샷으로 돌려줍니다. 이후의 모든 계산은 이 스냅샷 하나를
// 고정된 읽기로 사용해야 합니다.
func (c *Client) RecentPrices(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("가격 API 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("가격 API 응답 코드 오류: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	var decoded signedPricesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	snapshot := make(Snapshot, len(decoded.SignedPrices))
	for _, p := range decoded.SignedPrices {
		minPrice, ok := new(big.Int).SetString(p.MinPriceFull, 10)
		if !ok {
			return nil, fmt.Errorf("최소 가격 파싱 실패: %s (%s)", p.MinPriceFull, p.TokenAddress)
		}
		maxPrice, ok := new(big.Int).SetString(p.MaxPriceFull, 10)
		if !ok {
			return nil, fmt.Errorf("최대 가격 파싱 실패: %s (%s)", p.MaxPriceFull, p.TokenAddress)
		}

		snapshot[common.HexToAddress(p.TokenAddress)] = domain.PriceQuote{
			Min: minPrice,
			Max: maxPrice,
		}
	}

	return snapshot, nil
}
