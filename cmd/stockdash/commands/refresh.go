package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/s0_data/collector"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh [ticker...]",
	Short: "종목 지표 갱신",
	Long: `지정한 종목(또는 전체 관심종목)을 즉시 갱신합니다.

fetch → reconcile → derive → 저장 → 알림 평가 순서로 실행됩니다.

Example:
  go run ./cmd/stockdash refresh 2330.TW AAPL
  go run ./cmd/stockdash refresh 2330 2317 --market TW
  go run ./cmd/stockdash refresh --all --workers 8`,
	RunE: runRefresh,
}

var (
	refreshAll     bool
	refreshWorkers int
	refreshMarket  string
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "전체 관심종목 갱신")
	refreshCmd.Flags().IntVar(&refreshWorkers, "workers", 0, "동시 갱신 수 (기본: REFRESH_WORKERS)")
	refreshCmd.Flags().StringVar(&refreshMarket, "market", "", "접미사 없는 코드의 시장 (TW)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if !refreshAll && len(args) == 0 {
		return fmt.Errorf("give at least one ticker or --all")
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	tickers := make([]string, len(args))
	for i, t := range args {
		tickers[i] = normalize(t, refreshMarket)
	}
	if refreshAll {
		tickers, err = a.watchlist.AllTickers(ctx)
		if err != nil {
			return err
		}
	}

	workers := refreshWorkers
	if workers <= 0 {
		workers = a.cfg.Refresh.Workers
	}

	start := time.Now()
	PrintJobHeader(JobMetadata{
		JobType:   "Indicator Refresh",
		Tag:       "Refresh",
		Timestamp: start.Format("2006-01-02 15:04:05"),
		Symbols:   fmt.Sprintf("%d tickers, %d workers", len(tickers), workers),
	})

	results := a.collector.RefreshAll(ctx, tickers, collector.Config{Workers: workers})

	failed := 0
	for i, r := range results {
		if r.Error != nil {
			failed++
			PrintProgress("Refresh", fmt.Sprintf("❌ %s: %v", r.Ticker, r.Error), i+1, len(results))
			continue
		}
		PrintProgress("Refresh", fmt.Sprintf("%s: %d metrics, %d warnings, %d alerts, %d series rows",
			r.Ticker, r.Snapshot.Metrics.Len(), len(r.Snapshot.Warnings), len(r.Snapshot.Alerts()), r.SeriesCount,
		), i+1, len(results))
	}

	PrintJobCompletion(len(results)-failed, len(results), time.Since(start).Seconds())
	if failed == len(results) && failed > 0 {
		return fmt.Errorf("all %d tickers failed", failed)
	}
	return nil
}
