package sources

import (
	"sort"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/alphavantage"
	"github.com/wonny/stockdash/internal/external/finmind"
	"github.com/wonny/stockdash/internal/external/sec"
	"github.com/wonny/stockdash/internal/external/twse"
	"github.com/wonny/stockdash/internal/external/yahoo"
	"github.com/wonny/stockdash/internal/sourcepolicy"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
	"github.com/wonny/stockdash/pkg/redis"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Registry holds the adapters by id and capability
// ⭐ SSOT: 어댑터 인스턴스는 여기서만 생성/조회
type Registry struct {
	metrics    map[contracts.Source]contracts.MetricSource
	statements map[contracts.Source]contracts.StatementSource
	profiles   map[contracts.Source]contracts.ProfileSource
	earnings   map[contracts.Source]contracts.EarningsSource
	series     map[contracts.Source]contracts.TimeSeriesSource
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		metrics:    make(map[contracts.Source]contracts.MetricSource),
		statements: make(map[contracts.Source]contracts.StatementSource),
		profiles:   make(map[contracts.Source]contracts.ProfileSource),
		earnings:   make(map[contracts.Source]contracts.EarningsSource),
		series:     make(map[contracts.Source]contracts.TimeSeriesSource),
	}
}

// Register adds an adapter. Optional capabilities are detected on the
// unwrapped source so a Cached decorator keeps them
func (r *Registry) Register(src contracts.MetricSource) {
	id := src.ID()
	r.metrics[id] = src

	raw := interface{}(src)
	if c, ok := src.(*Cached); ok {
		raw = c.Unwrap()
	}
	if s, ok := raw.(contracts.StatementSource); ok {
		r.statements[id] = s
	}
	if s, ok := raw.(contracts.ProfileSource); ok {
		r.profiles[id] = s
	}
	if s, ok := raw.(contracts.EarningsSource); ok {
		r.earnings[id] = s
	}
	if s, ok := raw.(contracts.TimeSeriesSource); ok {
		r.series[id] = s
	}
}

// CacheProfiles wraps every registered profile source with a Redis cache
func (r *Registry) CacheProfiles(cache *redis.Cache) {
	for id, s := range r.profiles {
		r.profiles[id] = NewCachedProfile(s, cache)
	}
}

// Source returns the metric adapter of id
func (r *Registry) Source(id contracts.Source) (contracts.MetricSource, bool) {
	s, ok := r.metrics[id]
	return s, ok
}

// IDs lists the registered adapters
func (r *Registry) IDs() []contracts.Source {
	ids := make([]contracts.Source, 0, len(r.metrics))
	for id := range r.metrics {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Plan is the resolved adapter list of one market, primary first
type Plan struct {
	Metrics   []contracts.MetricSource
	Statement contracts.StatementSource // nil = no derivation
	Profiles  []contracts.ProfileSource
	Earnings  []contracts.EarningsSource
	Series    []contracts.TimeSeriesSource
	Missing   []contracts.Source // named by the policy but not registered
}

// Plan resolves a market policy against the registered adapters
func (r *Registry) Plan(mp sourcepolicy.MarketPolicy) Plan {
	var plan Plan
	missing := make(map[contracts.Source]bool)

	for _, id := range mp.Sources {
		if s, ok := r.metrics[id]; ok {
			plan.Metrics = append(plan.Metrics, s)
		} else {
			missing[id] = true
		}
	}
	if mp.StatementSource != "" {
		if s, ok := r.statements[mp.StatementSource]; ok {
			plan.Statement = s
		} else {
			missing[mp.StatementSource] = true
		}
	}
	for _, id := range mp.ProfileSources {
		if s, ok := r.profiles[id]; ok {
			plan.Profiles = append(plan.Profiles, s)
		}
	}
	for _, id := range mp.EarningsSources {
		if s, ok := r.earnings[id]; ok {
			plan.Earnings = append(plan.Earnings, s)
		}
	}
	for _, id := range mp.SeriesSources {
		if s, ok := r.series[id]; ok {
			plan.Series = append(plan.Series, s)
		}
	}

	for id := range missing {
		plan.Missing = append(plan.Missing, id)
	}
	sort.Slice(plan.Missing, func(i, j int) bool { return plan.Missing[i] < plan.Missing[j] })
	return plan
}

// Build creates every provider adapter from config.
// Redis가 켜져 있으면 지표 캐시 + 공유 레이트 리밋 사용
func Build(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, rdb *redis.Client) *Registry {
	p := cfg.Providers
	opts := Options{Timeout: p.Timeout, Logger: log, Metrics: m}

	limiter := redis.NewRateLimiter(rdb, "stockdash")
	var cache *redis.Cache
	if rdb.Enabled() {
		cache = redis.NewCache(rdb, "stockdash")
	}

	newHTTP := func() *httputil.Client {
		return httputil.NewWithTimeout(cfg, log, p.Timeout)
	}

	yahooHTTP := newHTTP().WithHeader("User-Agent", browserUserAgent)
	finmindHTTP := newHTTP().WithRateLimiter(limiter, redis.FinMindRateLimit)
	twseHTTP := newHTTP().
		WithHeader("User-Agent", browserUserAgent).
		WithRateLimiter(limiter, redis.TWSERateLimit)
	secHTTP := newHTTP().
		WithHeader("User-Agent", p.SECUserAgent).
		WithLimit(10, 1).
		WithRateLimiter(limiter, redis.SECRateLimit)
	avHTTP := newHTTP().WithRateLimiter(limiter, redis.AlphaVantageRateLimit)

	secClient := sec.NewClient(secHTTP, log, p.SECBaseURL, p.SECTickersURL)
	if cache != nil {
		secClient.WithCache(cache)
	}

	adapters := []contracts.MetricSource{
		NewYahoo(yahoo.NewClient(yahooHTTP, log, p.YahooBaseURL), opts),
		NewFinMind(finmind.NewClient(finmindHTTP, log, p.FinMindBaseURL, p.FinMindToken), opts),
		NewTWSE(twse.NewClient(twseHTTP, log, p.TWSEBaseURL, p.MOPSBaseURL), cache, opts),
		NewSECEdgar(secClient, opts),
	}
	if p.AlphaVantageAPIKey != "" {
		adapters = append(adapters, NewAlphaVantage(alphavantage.NewClient(avHTTP, log, p.AlphaVantageBaseURL, p.AlphaVantageAPIKey), opts))
	} else {
		log.Warn("ALPHA_VANTAGE_API_KEY not set, alpha_vantage source disabled")
	}

	registry := NewRegistry()
	for _, a := range adapters {
		if cache != nil {
			registry.Register(NewCached(a, cache, redis.TTLMetrics))
		} else {
			registry.Register(a)
		}
	}
	if cache != nil {
		registry.CacheProfiles(cache)
	}
	return registry
}
