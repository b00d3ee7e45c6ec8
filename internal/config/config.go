package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/hermes/internal/domain"
)

type Config struct {
	// 체인 설정
	Chain struct {
		Name   string `envconfig:"CHAIN" default:"arbitrum"`
		RPCURL string `envconfig:"RPC_URL" required:"true"`
	}

	// 지갑 설정. 프라이빗 키는 서명 없이 조회만 할 때 생략할 수 있습니다
	Wallet struct {
		Address    string `envconfig:"WALLET_ADDRESS" required:"true"`
		PrivateKey string `envconfig:"PRIVATE_KEY"`
	}

	// 디스코드 웹훅 설정. 비워 두면 알림을 보내지 않습니다
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
		SlippagePercent float64       `envconfig:"SLIPPAGE_PERCENT" default:"0.003"`
		MaxWorkers      int           `envconfig:"MAX_WORKERS" default:"8"`
	}
}

// ChainKind는 설정된 체인 이름을 도메인 타입으로 반환합니다.
func (c *Config) ChainKind() domain.Chain {
	return domain.Chain(c.Chain.Name)
}

// WalletAddress는 설정된 지갑 주소를 체크섬 형식으로 반환합니다.
func (c *Config) WalletAddress() common.Address {
	return common.HexToAddress(c.Wallet.Address)
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if !cfg.ChainKind().IsValid() {
		return fmt.Errorf("지원하지 않는 체인입니다: %s", cfg.Chain.Name)
	}

	if !common.IsHexAddress(cfg.Wallet.Address) {
		return fmt.Errorf("지갑 주소 형식이 올바르지 않습니다: %s", cfg.Wallet.Address)
	}

	if cfg.App.SlippagePercent <= 0 || cfg.App.SlippagePercent > 0.5 {
		return fmt.Errorf("SLIPPAGE_PERCENT는 0 초과 0.5 이하이어야 합니다")
	}

	if cfg.App.RequestTimeout < 1*time.Second {
		return fmt.Errorf("REQUEST_TIMEOUT은 1초 이상이어야 합니다")
	}

	if cfg.App.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS는 1 이상이어야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
func LoadConfig() (*Config, error) {
	// .env 파일은 없어도 됩니다 (운영 환경은 환경변수만 사용)
	_ = godotenv.Load()

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
