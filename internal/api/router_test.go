package api

import (
	"context"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/api/handlers"
	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/s0_data"
	"github.com/wonny/stockdash/internal/s0_data/collector"
	"github.com/wonny/stockdash/internal/sentiment"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
)

type memIndicators struct {
	snaps map[string]*contracts.IndicatorSnapshot
}

func (m *memIndicators) GetSnapshot(ctx context.Context, ticker string) (*contracts.IndicatorSnapshot, error) {
	if s, ok := m.snaps[ticker]; ok {
		return s, nil
	}
	return nil, database.ErrNotFound
}

func (m *memIndicators) SaveSnapshot(ctx context.Context, snap *contracts.IndicatorSnapshot, alerts func(contracts.MetricSet) string) (*contracts.IndicatorSnapshot, error) {
	snap.AlertText = alerts(snap.Metrics)
	m.snaps[snap.Ticker] = snap
	return snap, nil
}

func (m *memIndicators) ListSnapshots(ctx context.Context) ([]*contracts.IndicatorSnapshot, error) {
	return nil, nil
}

type memStocks struct{}

func (memStocks) EnsureStock(ctx context.Context, ticker string, market contracts.Market) error {
	return nil
}

func (memStocks) GetProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	if ticker == "2330.TW" {
		return &contracts.CompanyProfile{Ticker: ticker, Market: contracts.MarketTW, ShortName: "台積電"}, nil
	}
	return nil, database.ErrNotFound
}

func (memStocks) SaveProfile(ctx context.Context, p contracts.CompanyProfile) error { return nil }

// brokenStocks fails every profile read with a non-NotFound error
type brokenStocks struct{ memStocks }

func (brokenStocks) GetProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	return nil, errors.New("connection reset")
}

type memPrices struct{}

func (memPrices) GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	return []contracts.PriceBar{
		{Ticker: ticker, Date: time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC), Open: 1, High: 1.3, Low: 0.9, Close: 1.2, Volume: 80},
		{Ticker: ticker, Date: time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
	}, nil
}

type fakeRefresher struct {
	err error
}

func (f fakeRefresher) Refresh(ctx context.Context, ticker string) collector.RefreshResult {
	if f.err != nil {
		return collector.RefreshResult{Ticker: ticker, Error: f.err}
	}
	return collector.RefreshResult{
		Ticker: ticker,
		Snapshot: &contracts.IndicatorSnapshot{
			Ticker:  ticker,
			Metrics: contracts.NewMetricSet(contracts.SourceYFinance, map[contracts.Metric]float64{contracts.Beta: 1.1}),
		},
	}
}

type memWatchlist struct {
	items map[string]bool
}

func (m *memWatchlist) Add(ctx context.Context, userID int64, ticker string) error {
	m.items[ticker] = true
	return nil
}

func (m *memWatchlist) Remove(ctx context.Context, userID int64, ticker string) error {
	if !m.items[ticker] {
		return database.ErrNotFound
	}
	delete(m.items, ticker)
	return nil
}

func (m *memWatchlist) List(ctx context.Context, userID int64) ([]contracts.Watched, error) {
	var out []contracts.Watched
	for t := range m.items {
		out = append(out, contracts.Watched{UserID: userID, Ticker: t})
	}
	return out, nil
}

func (m *memWatchlist) AllTickers(ctx context.Context) ([]string, error) { return nil, nil }

type noCoverage struct{}

func (noCoverage) GetLatestSnapshot(ctx context.Context) (*contracts.CoverageSnapshot, error) {
	return nil, database.ErrNotFound
}

type noJobs struct{}

func (noJobs) Recent(ctx context.Context, limit int) ([]s0_data.JobRun, error) { return nil, nil }

func newTestRouter(t *testing.T, refreshErr error) (http.Handler, *memWatchlist) {
	t.Helper()

	indicators := &memIndicators{snaps: map[string]*contracts.IndicatorSnapshot{
		"2330.TW": {
			Ticker: "2330.TW",
			Metrics: contracts.NewMetricSet(contracts.SourceFinMind, map[contracts.Metric]float64{
				contracts.PERatio: 62.5,
				contracts.ROE:     0.25,
				contracts.Revenue: 2_890_000_000_000,
			}),
			Warnings:  []string{"pe_ratio: diff 6.00% (primary: 62.5, backup: 58.75)"},
			AlertText: "Valuation stretched (pe_ratio 62.5 > 50)",
		},
	}}
	watch := &memWatchlist{items: map[string]bool{}}
	log := logger.Nop()

	h := Handlers{
		Stock:     handlers.NewStockHandler(indicators, memStocks{}, memPrices{}, fakeRefresher{err: refreshErr}, log),
		Data:      handlers.NewDataHandler(noCoverage{}, noJobs{}, log),
		Watchlist: handlers.NewWatchlistHandler(watch, log),
		Sentiment: handlers.NewSentimentHandler(sentiment.NewAnalyzer(nil, 0, log)),
	}
	return NewRouter(h, metrics.New(), log), watch
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	rec := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestGetStock(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	// 접미사 없는 코드 + market=TW
	rec := do(t, r, http.MethodGet, "/api/stocks/2330?market=tw", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload handlers.FinancialPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "2330.TW", payload.Ticker)
	assert.Equal(t, contracts.MarketTW, payload.Market)
	require.NotNil(t, payload.Profile)
	assert.Equal(t, "台積電", payload.Profile.ShortName)
	assert.Equal(t, []string{"Valuation stretched (pe_ratio 62.5 > 50)"}, payload.Alerts)
	assert.Len(t, payload.Warnings, 1)
	assert.Equal(t, "25.00%", payload.Formatted[contracts.ROE])
	assert.Equal(t, "2.9兆", payload.Formatted[contracts.Revenue])
	assert.Equal(t, "--", payload.Formatted[contracts.Beta])
	assert.Nil(t, payload.Metrics[contracts.Beta])
	require.NotNil(t, payload.Metrics[contracts.PERatio])
	assert.Equal(t, 62.5, *payload.Metrics[contracts.PERatio])

	// 최근 두 거래일 종가 기준
	require.NotNil(t, payload.LastPrice)
	assert.Equal(t, 1.5, *payload.LastPrice)
	require.NotNil(t, payload.Change)
	assert.InDelta(t, 0.3, *payload.Change, 1e-9)
	require.NotNil(t, payload.ChangePercent)
	assert.InDelta(t, 0.25, *payload.ChangePercent, 1e-9)
	assert.Contains(t, rec.Body.String(), `"last_price":1.5`)
}

func TestGetStock_NotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	rec := do(t, r, http.MethodGet, "/api/stocks/aapl", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPrices(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(t, r, http.MethodGet, "/api/stocks/AAPL/prices?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"date":"2026-10-14"`)

	rec = do(t, r, http.MethodGet, "/api/stocks/AAPL/prices?days=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	rec := do(t, r, http.MethodPost, "/api/stocks/AAPL/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"beta":1.1`)

	r, _ = newTestRouter(t, contracts.ErrNoData)
	rec = do(t, r, http.MethodPost, "/api/stocks/AAPL/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/stocks/AAPL/refresh", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProfileErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{LogLevel: "debug"}, &buf)
	indicators := &memIndicators{snaps: map[string]*contracts.IndicatorSnapshot{
		"2330.TW": {Ticker: "2330.TW", Metrics: contracts.NewMetricSet(contracts.SourceFinMind, nil)},
	}}
	r := NewRouter(Handlers{
		Stock: handlers.NewStockHandler(indicators, brokenStocks{}, memPrices{}, fakeRefresher{}, log),
	}, metrics.New(), log)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/stocks/2330.TW"},
		{http.MethodPost, "/api/stocks/2330.TW/refresh"},
	} {
		buf.Reset()
		rec := do(t, r, req.method, req.path, "")
		require.Equal(t, http.StatusOK, rec.Code, req.path)
		assert.NotContains(t, rec.Body.String(), `"profile"`, req.path)
		assert.Contains(t, buf.String(), "Failed to get profile", req.path)
		assert.Contains(t, buf.String(), "connection reset", req.path)
	}

	// NotFound은 정상 (로그 없음)
	buf.Reset()
	r = NewRouter(Handlers{
		Stock: handlers.NewStockHandler(indicators, memStocks{}, memPrices{}, fakeRefresher{}, log),
	}, metrics.New(), log)
	rec := do(t, r, http.MethodPost, "/api/stocks/AAPL/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, buf.String(), "Failed to get profile")
}

func TestWatchlist(t *testing.T) {
	r, watch := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPut, "/api/users/7/watchlist/2317?market=TW", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, watch.items["2317.TW"])

	rec = do(t, r, http.MethodGet, "/api/users/7/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2317.TW")

	rec = do(t, r, http.MethodDelete, "/api/users/7/watchlist/2317.TW", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodDelete, "/api/users/7/watchlist/2317.TW", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/users/abc/watchlist", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCoverage_NotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/data/coverage", "").Code)

	rec := do(t, r, http.MethodGet, "/api/data/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSentiment(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/api/sentiment", `{"headlines":["TSMC beats estimates"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"headline":"TSMC beats estimates","label":"neutral"}]`, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/api/sentiment", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	do(t, r, http.MethodGet, "/health", "")

	rec := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}
