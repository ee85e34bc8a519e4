package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
)

// SnapshotLister is the read side of the indicator repository
type SnapshotLister interface {
	ListSnapshots(ctx context.Context) ([]*contracts.IndicatorSnapshot, error)
}

// TickerLister returns the refresh universe (watchlist)
type TickerLister interface {
	AllTickers(ctx context.Context) ([]string, error)
}

// Config holds coverage thresholds
type Config struct {
	MinCoverage float64 `yaml:"min_coverage"` // 지표별 최소 커버리지 (0.8 = 80%)
}

// DefaultConfig returns the thresholds used by the scheduler
func DefaultConfig() Config {
	return Config{MinCoverage: 0.8}
}

// CoverageGate reports, per indicator, the share of watched stocks where it is known
type CoverageGate struct {
	snapshots SnapshotLister
	tickers   TickerLister
	config    Config
}

// NewCoverageGate creates a new CoverageGate instance
func NewCoverageGate(snapshots SnapshotLister, tickers TickerLister, config Config) *CoverageGate {
	return &CoverageGate{
		snapshots: snapshots,
		tickers:   tickers,
		config:    config,
	}
}

// Check builds the coverage snapshot for date
// ⭐ SSOT: 지표 커버리지 계산
func (g *CoverageGate) Check(ctx context.Context, date time.Time) (*contracts.CoverageSnapshot, error) {
	tickers, err := g.tickers.AllTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	snaps, err := g.snapshots.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return ComputeCoverage(date, tickers, snaps), nil
}

// Failing returns the indicators under the configured threshold
func (g *CoverageGate) Failing(snapshot *contracts.CoverageSnapshot) []contracts.Metric {
	return snapshot.Below(g.config.MinCoverage)
}

// ComputeCoverage counts, for every metric of the vocabulary, how many of
// tickers have it known. 스냅샷이 없는 종목은 전부 unknown으로 계산
func ComputeCoverage(date time.Time, tickers []string, snaps []*contracts.IndicatorSnapshot) *contracts.CoverageSnapshot {
	byTicker := make(map[string]*contracts.IndicatorSnapshot, len(snaps))
	for _, s := range snaps {
		byTicker[s.Ticker] = s
	}

	snapshot := &contracts.CoverageSnapshot{
		Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		TotalStocks: len(tickers),
		Coverage:    make(map[contracts.Metric]float64, len(contracts.AllMetrics)),
	}

	for _, metric := range contracts.AllMetrics {
		if len(tickers) == 0 {
			snapshot.Coverage[metric] = 0
			continue
		}

		known := 0
		for _, t := range tickers {
			if s, ok := byTicker[t]; ok && s.Metrics.Has(metric) {
				known++
			}
		}
		snapshot.Coverage[metric] = float64(known) / float64(len(tickers))
	}

	return snapshot
}
