package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/api"
	"github.com/wonny/stockdash/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health                               - Health check
  GET    /metrics                              - Prometheus metrics
  GET    /api/stocks/{ticker}                  - 지표 스냅샷 + 알림 + 경고
  GET    /api/stocks/{ticker}/prices           - 일봉
  POST   /api/stocks/{ticker}/refresh          - 즉시 갱신
  GET    /api/users/{user}/watchlist           - 관심종목
  PUT    /api/users/{user}/watchlist/{ticker}  - 관심종목 추가
  DELETE /api/users/{user}/watchlist/{ticker}  - 관심종목 삭제
  GET    /api/data/coverage                    - 지표 커버리지
  GET    /api/data/jobs                        - 스케줄러 실행 이력
  POST   /api/sentiment                        - 뉴스 헤드라인 감성

Example:
  go run ./cmd/stockdash api
  go run ./cmd/stockdash api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	h := api.Handlers{
		Stock:     handlers.NewStockHandler(a.indicators, a.stocks, a.series, a.collector, a.log),
		Data:      handlers.NewDataHandler(a.coverage, a.jobRuns, a.log),
		Watchlist: handlers.NewWatchlistHandler(a.watchlist, a.log),
		Sentiment: handlers.NewSentimentHandler(a.analyzer(ctx)),
	}
	server := api.New(a.cfg, a.log, api.NewRouter(h, a.metrics, a.log))

	fmt.Printf("\n✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	if err := server.Run(ctx); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
