package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/s0_data"
	"github.com/wonny/stockdash/internal/s0_data/collector"
	"github.com/wonny/stockdash/internal/s0_data/quality"
	"github.com/wonny/stockdash/internal/s0_data/sources"
	"github.com/wonny/stockdash/internal/sentiment"
	"github.com/wonny/stockdash/internal/sourcepolicy"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
	"github.com/wonny/stockdash/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	rdb      *redis.Client
	db       *database.DB
	policy   *sourcepolicy.Policy
	registry *sources.Registry

	// DB 없이 만든 app에서는 nil
	stocks     *s0_data.Repository
	indicators *s0_data.IndicatorRepository
	watchlist  *s0_data.WatchlistRepository
	series     *s0_data.SeriesRepository
	jobRuns    *s0_data.JobRepository
	coverage   *quality.Repository

	collector *collector.Collector
}

// loadConfig loads config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → logger → redis → (db) → sources → collector.
// withDB=false는 저장 없이 평가만 하는 명령 (alerts, sources check)
func newApp(withDB bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	a.policy, err = sourcepolicy.LoadOrDefault(cfg.Refresh.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load source policy: %w", err)
	}
	for _, w := range sourcepolicy.Warn(a.policy) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}
	if hash, err := sourcepolicy.Hash(a.policy); err == nil {
		a.log = a.log.WithField("policy_hash", hash[:12])
	}

	a.rdb, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a.registry = sources.Build(cfg, a.log, a.metrics, a.rdb)

	deps := collector.Deps{
		Registry:  a.registry,
		Policy:    a.policy,
		Tolerance: cfg.Reconcile.Tolerance,
		Metrics:   a.metrics,
		Logger:    a.log,
	}

	if withDB {
		a.db, err = database.New(cfg)
		if err != nil {
			a.rdb.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		pool := a.db.Pool
		a.stocks = s0_data.NewRepository(pool)
		a.indicators = s0_data.NewIndicatorRepository(pool)
		a.watchlist = s0_data.NewWatchlistRepository(pool)
		a.series = s0_data.NewSeriesRepository(pool)
		a.jobRuns = s0_data.NewJobRepository(pool)
		a.coverage = quality.NewRepository(pool)

		deps.Indicators = a.indicators
		deps.Stocks = a.stocks
		deps.Series = a.series
	}

	a.collector = collector.NewCollector(deps)
	return a, nil
}

// coverageGate builds the coverage gate over the stored snapshots
func (a *app) coverageGate() *quality.CoverageGate {
	return quality.NewCoverageGate(a.indicators, a.watchlist, quality.DefaultConfig())
}

// analyzer builds the headline analyzer; without GEMINI_API_KEY everything is neutral
func (a *app) analyzer(ctx context.Context) *sentiment.Analyzer {
	var classifier sentiment.Classifier
	if a.cfg.Sentiment.APIKey != "" {
		c, err := sentiment.NewGenAIClassifier(ctx, a.cfg.Sentiment.APIKey, a.cfg.Sentiment.Model)
		if err != nil {
			a.log.WithError(err).Warn("Sentiment classifier unavailable")
		} else {
			classifier = c
		}
	} else {
		a.log.Warn("GEMINI_API_KEY not set, sentiment is always neutral")
	}
	return sentiment.NewAnalyzer(classifier, a.cfg.Sentiment.MinScore, a.log)
}

// normalize applies --market to a CLI ticker argument
func normalize(ticker, market string) string {
	m := contracts.MarketOf(ticker)
	if contracts.Market(strings.ToUpper(market)) == contracts.MarketTW {
		m = contracts.MarketTW
	}
	return contracts.NormalizeTicker(ticker, m)
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
}
