package s0_data

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// testDB connects to DATABASE_URL and applies the embedded migrations
func testDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	migrator, err := database.NewMigrator(cfg.Database.URL, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	migrator.Close()

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

// testTicker is unique per run so tests never collide with real rows
func testTicker(t *testing.T) string {
	return "T" + strings.ToUpper(uuid.NewString()[:8])
}

func cleanup(t *testing.T, db *database.DB, ticker string) {
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"price_bars", "monthly_revenue", "valuations", "margin_balances", "institutional_flows"} {
			db.Pool.Exec(ctx, "DELETE FROM data."+table+" WHERE ticker = $1", ticker)
		}
		db.Pool.Exec(ctx, "DELETE FROM data.stocks WHERE ticker = $1", ticker)
	})
}

func TestIndicatorRepository_SaveSnapshot(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ticker := testTicker(t)
	cleanup(t, db, ticker)

	require.NoError(t, NewRepository(db.Pool).EnsureStock(ctx, ticker, contracts.MarketUS))
	repo := NewIndicatorRepository(db.Pool)

	_, err := repo.GetSnapshot(ctx, ticker)
	assert.True(t, errors.Is(err, database.ErrNotFound))

	runID := uuid.New()
	set := contracts.NewMetricSet(contracts.SourceYFinance, map[contracts.Metric]float64{
		contracts.DebtToEquity: 250,
		contracts.PERatio:      18,
	})

	var evaluated contracts.MetricSet
	saved, err := repo.SaveSnapshot(ctx, &contracts.IndicatorSnapshot{
		Ticker:   ticker,
		Metrics:  set,
		Warnings: []string{"roe: diff 40.00% (primary: 0.12, backup: 0.2)"},
		RunID:    runID,
	}, func(persisted contracts.MetricSet) string {
		evaluated = persisted
		return "High leverage (debt_to_equity 250 > 200)"
	})
	require.NoError(t, err)

	assert.Equal(t, set.Values(), evaluated.Values(), "alerts run over the persisted record")
	assert.Equal(t, "High leverage (debt_to_equity 250 > 200)", saved.AlertText)

	got, err := repo.GetSnapshot(ctx, ticker)
	require.NoError(t, err)
	assert.Equal(t, contracts.SourceYFinance, got.Metrics.Source())
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, []string{"High leverage (debt_to_equity 250 > 200)"}, got.Alerts())
	assert.Len(t, got.Warnings, 1)
}

func TestRepository_SaveProfileFillsEmptyOnly(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ticker := testTicker(t)
	cleanup(t, db, ticker)

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.SaveProfile(ctx, contracts.CompanyProfile{
		Ticker: ticker, Market: contracts.MarketTW, ShortName: "台積電",
	}))

	earnings := time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveProfile(ctx, contracts.CompanyProfile{
		Ticker: ticker, Market: contracts.MarketTW, ShortName: "TSMC", Sector: "Technology", EarningsDate: &earnings,
	}))

	p, err := repo.GetProfile(ctx, ticker)
	require.NoError(t, err)
	assert.Equal(t, "台積電", p.ShortName, "existing value kept")
	assert.Equal(t, "Technology", p.Sector, "empty value filled")
	require.NotNil(t, p.EarningsDate)
	assert.True(t, earnings.Equal(p.EarningsDate.UTC()))
}

func TestSeriesRepository_Upsert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ticker := testTicker(t)
	cleanup(t, db, ticker)

	repo := NewSeriesRepository(db.Pool)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	pe := 21.5

	n, err := repo.SaveSeries(ctx, contracts.TimeSeries{
		Prices:     []contracts.PriceBar{{Ticker: ticker, Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100}},
		Valuations: []contracts.Valuation{{Ticker: ticker, Date: day, PERatio: &pe}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 같은 날짜 재저장 = 갱신
	_, err = repo.SaveSeries(ctx, contracts.TimeSeries{
		Prices: []contracts.PriceBar{{Ticker: ticker, Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.7, Volume: 120}},
	})
	require.NoError(t, err)

	bars, err := repo.GetPrices(ctx, ticker, day.AddDate(0, 0, -1), day)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 1.7, bars[0].Close)

	latest, err := repo.LatestDate(ctx, ticker)
	require.NoError(t, err)
	assert.True(t, day.Equal(latest.UTC()))

	none, err := repo.LatestDate(ctx, "NOPE"+ticker)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestWatchlistRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ticker := testTicker(t)
	cleanup(t, db, ticker)

	repo := NewWatchlistRepository(db.Pool)
	userID := time.Now().UnixNano()

	require.NoError(t, repo.Add(ctx, userID, ticker))
	require.NoError(t, repo.Add(ctx, userID, ticker), "idempotent")

	items, err := repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ticker, items[0].Ticker)

	all, err := repo.AllTickers(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, ticker)

	require.NoError(t, repo.Remove(ctx, userID, ticker))
	assert.True(t, errors.Is(repo.Remove(ctx, userID, ticker), database.ErrNotFound))
}
