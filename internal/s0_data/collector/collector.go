package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/s0_data/sources"
	"github.com/wonny/stockdash/internal/s1_fundamentals"
	"github.com/wonny/stockdash/internal/s2_alerts"
	"github.com/wonny/stockdash/internal/sourcepolicy"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
)

// DefaultHistory is how far back series go for a ticker with no stored bars
const DefaultHistory = 365 * 24 * time.Hour

// Collector orchestrates the refresh pipeline of one ticker:
// fetch → reconcile → derive → persist → alerts
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	registry   *sources.Registry
	policy     *sourcepolicy.Policy
	reconciler *s1_fundamentals.Reconciler
	evaluator  *s2_alerts.Evaluator
	indicators contracts.IndicatorRepository
	stocks     contracts.StockRepository
	series     contracts.TimeSeriesRepository
	metrics    *metrics.Metrics
	logger     *logger.Logger
	now        func() time.Time

	locks sync.Map // ticker → *sync.Mutex
}

// Deps holds the collaborators of a Collector
type Deps struct {
	Registry   *sources.Registry
	Policy     *sourcepolicy.Policy
	Tolerance  float64 // env tolerance, policy file overrides when > 0
	Indicators contracts.IndicatorRepository
	Stocks     contracts.StockRepository
	Series     contracts.TimeSeriesRepository
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
	Now        func() time.Time
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance
func NewCollector(d Deps) *Collector {
	tolerance := d.Tolerance
	if d.Policy == nil {
		d.Policy = sourcepolicy.Default()
	}
	if d.Policy.Reconcile.Tolerance > 0 {
		tolerance = d.Policy.Reconcile.Tolerance
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	return &Collector{
		registry:   d.Registry,
		policy:     d.Policy,
		reconciler: s1_fundamentals.NewReconciler(tolerance),
		evaluator:  s2_alerts.NewEvaluator(d.Metrics),
		indicators: d.Indicators,
		stocks:     d.Stocks,
		series:     d.Series,
		metrics:    d.Metrics,
		logger:     d.Logger.WithField("module", "collector"),
		now:        d.Now,
	}
}

// Evaluation is the in-memory result of fetch → reconcile → derive
type Evaluation struct {
	Ticker    string
	Market    contracts.Market
	Sets      []contracts.MetricSet // per source, policy order
	Result    contracts.ReconciliationResult
	Statement *contracts.StatementSnapshot
	Metrics   contracts.MetricSet // merged + derived
	Missing   []contracts.Source
}

// Alerts evaluates the alert table over the final metrics
func (e *Evaluation) Alerts() []s2_alerts.Alert {
	return s2_alerts.Fired(e.Metrics)
}

// Evaluate runs the pure part of the pipeline without touching storage.
// 모든 소스가 비면 ErrNoData
func (c *Collector) Evaluate(ctx context.Context, ticker string) (*Evaluation, error) {
	market := contracts.MarketOf(ticker)
	plan := c.registry.Plan(c.policy.For(market))
	if len(plan.Metrics) == 0 {
		return nil, fmt.Errorf("no sources configured for market %s", market)
	}

	eval := &Evaluation{Ticker: ticker, Market: market, Missing: plan.Missing}

	anyData := false
	for _, src := range plan.Metrics {
		set := src.Fetch(ctx, ticker)
		eval.Sets = append(eval.Sets, set)
		if !set.IsEmpty() {
			anyData = true
		}
	}
	if !anyData {
		return eval, contracts.ErrNoData
	}

	eval.Result = c.reconciler.ReconcileAll(eval.Sets[0], eval.Sets[1:]...)
	for _, d := range eval.Result.Discrepancies {
		c.metrics.IncReconcileWarning(string(d.Metric))
	}

	eval.Metrics = eval.Result.Merged
	if plan.Statement != nil {
		stmt := plan.Statement.FetchStatement(ctx, ticker)
		eval.Statement = &stmt
		eval.Metrics = s1_fundamentals.Derive(eval.Result.Merged, stmt)
	}

	return eval, nil
}

// RefreshResult represents the result of one ticker refresh
type RefreshResult struct {
	Ticker      string
	RunID       uuid.UUID
	Snapshot    *contracts.IndicatorSnapshot
	SeriesCount int
	Duration    time.Duration
	Error       error
}

// Refresh runs the full pipeline for one ticker and persists the outcome.
// 같은 종목은 동시에 한 번만 (프로세스 내 잠금 + DB advisory lock)
func (c *Collector) Refresh(ctx context.Context, ticker string) RefreshResult {
	start := time.Now()
	result := RefreshResult{Ticker: ticker, RunID: uuid.New()}
	log := c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"run_id": result.RunID.String(),
	})

	mu := c.lockFor(ticker)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		result.Duration = time.Since(start)
		status := "ok"
		if result.Error != nil {
			status = "error"
			if errors.Is(result.Error, contracts.ErrNoData) {
				status = "no_data"
			}
		}
		c.metrics.ObserveRefresh(string(contracts.MarketOf(ticker)), status, result.Duration)
	}()

	market := contracts.MarketOf(ticker)
	if err := c.stocks.EnsureStock(ctx, ticker, market); err != nil {
		result.Error = err
		return result
	}

	eval, err := c.Evaluate(ctx, ticker)
	if err != nil {
		log.WithError(err).Warn("Refresh produced no data")
		result.Error = err
		return result
	}

	snap, err := c.indicators.SaveSnapshot(ctx, &contracts.IndicatorSnapshot{
		Ticker:   ticker,
		Metrics:  eval.Metrics,
		Warnings: eval.Result.Warnings,
		RunID:    result.RunID,
	}, c.evaluator.Evaluate)
	if err != nil {
		result.Error = fmt.Errorf("save snapshot: %w", err)
		return result
	}
	result.Snapshot = snap

	// 프로필/시계열은 best effort: 실패해도 스냅샷은 유효
	plan := c.registry.Plan(c.policy.For(market))
	if err := c.refreshProfile(ctx, ticker, market, plan); err != nil {
		log.WithError(err).Warn("Profile refresh failed")
	}
	n, err := c.refreshSeries(ctx, ticker, plan)
	if err != nil {
		log.WithError(err).Warn("Series refresh failed")
	}
	result.SeriesCount = n

	log.WithFields(map[string]interface{}{
		"metrics":  snap.Metrics.Len(),
		"warnings": len(snap.Warnings),
		"alerts":   len(snap.Alerts()),
		"series":   n,
	}).Info("Ticker refreshed")

	return result
}

// RefreshAll refreshes tickers with at most cfg.Workers in flight
func (c *Collector) RefreshAll(ctx context.Context, tickers []string, cfg Config) []RefreshResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker_count": len(tickers),
		"workers":      workers,
	}).Info("Starting refresh")

	results := make([]RefreshResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, ticker := range tickers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = RefreshResult{Ticker: ticker, Error: err}
				return nil
			}
			results[i] = c.Refresh(ctx, ticker)
			return nil
		})
	}
	_ = g.Wait()

	successCount := 0
	for _, r := range results {
		if r.Error == nil {
			successCount++
		}
	}
	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  len(results) - successCount,
		"total":   len(results),
	}).Info("Refresh completed")

	return results
}

// refreshProfile fills empty profile fields and picks the earnings date
func (c *Collector) refreshProfile(ctx context.Context, ticker string, market contracts.Market, plan sources.Plan) error {
	profile := contracts.CompanyProfile{Ticker: ticker, Market: market}
	for _, src := range plan.Profiles {
		profile = profile.FillEmpty(src.FetchProfile(ctx, ticker))
	}

	var candidates []time.Time
	for _, src := range plan.Earnings {
		candidates = append(candidates, src.FetchEarningsDates(ctx, ticker)...)
	}
	if d, ok := s1_fundamentals.SelectEarningsDate(candidates, c.now()); ok {
		profile.EarningsDate = &d
	}

	return c.stocks.SaveProfile(ctx, profile)
}

// refreshSeries appends every series since the last stored bar
func (c *Collector) refreshSeries(ctx context.Context, ticker string, plan sources.Plan) (int, error) {
	if len(plan.Series) == 0 {
		return 0, nil
	}

	since := c.now().Add(-DefaultHistory)
	latest, err := c.series.LatestDate(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if !latest.IsZero() {
		since = latest.AddDate(0, 0, 1)
	}

	total := 0
	for _, src := range plan.Series {
		n, err := c.series.SaveSeries(ctx, src.FetchSeries(ctx, ticker, since))
		if err != nil {
			return total, fmt.Errorf("save %s series: %w", src.ID(), err)
		}
		total += n
	}
	return total, nil
}

func (c *Collector) lockFor(ticker string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(ticker, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
