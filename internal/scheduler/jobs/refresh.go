package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/s0_data/collector"
	"github.com/wonny/stockdash/pkg/logger"
)

// Refresher is the collector side used by RefreshJob
type Refresher interface {
	RefreshAll(ctx context.Context, tickers []string, cfg collector.Config) []collector.RefreshResult
}

// TickerSource lists the refresh universe
type TickerSource interface {
	AllTickers(ctx context.Context) ([]string, error)
}

// RefreshJob refreshes every watched ticker
// ⭐ SSOT: 관심종목 갱신 스케줄은 이 Job에서만
type RefreshJob struct {
	refresher Refresher
	tickers   TickerSource
	schedule  string
	workers   int
	logger    *logger.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(r Refresher, tickers TickerSource, schedule string, workers int, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: r,
		tickers:   tickers,
		schedule:  schedule,
		workers:   workers,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "watchlist_refresh"
}

// Schedule returns the configured cron expression (REFRESH_SCHEDULE)
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes the watchlist. 전 종목 실패일 때만 에러 (일부 실패는 정상)
func (j *RefreshJob) Run(ctx context.Context) error {
	tickers, err := j.tickers.AllTickers(ctx)
	if err != nil {
		return fmt.Errorf("list watchlist: %w", err)
	}
	if len(tickers) == 0 {
		j.logger.Info("Watchlist is empty, nothing to refresh")
		return nil
	}

	results := j.refresher.RefreshAll(ctx, tickers, collector.Config{Workers: j.workers})

	var failed, noData int
	var lastErr error
	for _, r := range results {
		if r.Error == nil {
			continue
		}
		if errors.Is(r.Error, contracts.ErrNoData) {
			noData++
		}
		failed++
		lastErr = r.Error
	}

	j.logger.WithFields(map[string]interface{}{
		"total":   len(results),
		"failed":  failed,
		"no_data": noData,
	}).Info("Watchlist refresh finished")

	if failed == len(results) {
		return fmt.Errorf("all %d tickers failed: %w", failed, lastErr)
	}
	return nil
}
