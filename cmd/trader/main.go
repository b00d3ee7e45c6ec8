package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	osSignal "os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/assist-by/hermes/internal/config"
	"github.com/assist-by/hermes/internal/domain"
	"github.com/assist-by/hermes/internal/notification/discord"
	"github.com/assist-by/hermes/internal/pricefeed"
	"github.com/assist-by/hermes/internal/tokens"
)

func main() {
	// 명령줄 플래그 정의
	limitFlag := flag.Int("limit", 0, "출력할 토큰 수 (0이면 전체)")
	notifyFlag := flag.Bool("notify", false, "조회 결과를 Discord로 전송")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("GMX 클라이언트 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("설정 로드 실패: %v", err)
	}

	// Discord 클라이언트 생성 (웹훅이 비어 있으면 전송하지 않습니다)
	discordClient := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 종료 시그널 처리
	sigCh := make(chan os.Signal, 1)
	osSignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("종료 시그널 수신, 정리 중...")
		cancel()
	}()

	// 토큰 카탈로그 조회
	tokensClient := tokens.NewClient(cfg.ChainKind(), tokens.WithTimeout(cfg.App.RequestTimeout))
	catalog, err := tokensClient.FetchCatalog(ctx)
	if err != nil {
		reportError(discordClient, fmt.Errorf("토큰 카탈로그 조회 실패: %w", err))
		os.Exit(1)
	}
	log.Printf("토큰 %d개 조회 완료", catalog.Len())

	// 서명 가격 스냅샷 조회
	pricesClient := pricefeed.NewClient(cfg.ChainKind(), pricefeed.WithTimeout(cfg.App.RequestTimeout))
	snapshot, err := pricesClient.RecentPrices(ctx)
	if err != nil {
		reportError(discordClient, fmt.Errorf("서명 가격 조회 실패: %w", err))
		os.Exit(1)
	}

	printTokens(catalog, snapshot, *limitFlag)

	if *notifyFlag {
		message := fmt.Sprintf("✅ %s 토큰 %d개, 서명 가격 %d건 조회 완료",
			cfg.Chain.Name, catalog.Len(), len(snapshot))
		if err := discordClient.SendInfo(message); err != nil {
			log.Printf("알림 전송 실패: %v", err)
		}
	}
}

// printTokens는 카탈로그의 토큰들을 심볼 순으로 마크 가격과 함께 출력합니다
func printTokens(catalog tokens.Catalog, snapshot pricefeed.Snapshot, limit int) {
	entries := make([]domain.Token, 0, catalog.Len())
	for _, token := range catalog.All() {
		entries = append(entries, token)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	for _, token := range entries {
		mark, err := snapshot.MarkPriceUSD(token.Address, token.Decimals)
		if err != nil {
			fmt.Printf("%-10s %s (가격 없음)\n", token.Symbol, token.Address.Hex())
			continue
		}
		fmt.Printf("%-10s %s $%s\n", token.Symbol, token.Address.Hex(), mark.StringFixed(4))
	}
}

func reportError(discordClient *discord.Client, err error) {
	log.Printf("%v", err)
	if sendErr := discordClient.SendError(err); sendErr != nil {
		log.Printf("에러 알림 전송 실패: %v", sendErr)
	}
}
