package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/assist-by/hermes/internal/domain"
)

// tokensURL은 체인별 토큰 메타데이터 API 주소입니다
var tokensURL = map[domain.Chain]string{
	domain.Arbitrum:  "https://arbitrum-api.gmxinfra.io/tokens",
	domain.Avalanche: "https://avalanche-api.gmxinfra.io/tokens",
}

// Client는 GMX infra 토큰 API 클라이언트를 구현합니다
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

// NewClient는 체인에 맞는 토큰 API 클라이언트를 생성합니다
func NewClient(chain domain.Chain, opts ...ClientOption) *Client {
	c := &Client{
		url:        tokensURL[chain],
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type tokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
}

type tokensResponse struct {
	Tokens []tokenInfo `json:"tokens"`
}

// FetchCatalog는 거래 가능한 토큰 목록을 조회해 카탈로그로 만듭니다
func (c *Client) FetchCatalog(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Catalog{}, fmt.Errorf("요청 생성 실패: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Catalog{}, fmt.Errorf("토큰 API 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Catalog{}, fmt.Errorf("토큰 API 응답 코드 오류: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Catalog{}, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	var decoded tokensResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Catalog{}, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	entries := make(map[common.Address]domain.Token, len(decoded.Tokens))
	for _, info := range decoded.Tokens {
		addr := common.HexToAddress(info.Address)
		entries[addr] = domain.Token{
			Address:  addr,
			Symbol:   info.Symbol,
			Decimals: info.Decimals,
		}
	}

	return NewCatalog(entries), nil
}
