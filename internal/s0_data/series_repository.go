package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockdash/internal/contracts"
)

// SeriesRepository implements contracts.TimeSeriesRepository
// ⭐ SSOT: 시계열 (가격/월매출/밸류에이션/신용/법인) 저장소는 여기서만
type SeriesRepository struct {
	pool *pgxpool.Pool
}

// NewSeriesRepository creates a new time series repository
func NewSeriesRepository(pool *pgxpool.Pool) *SeriesRepository {
	return &SeriesRepository{pool: pool}
}

const (
	upsertPrice = `
		INSERT INTO data.price_bars (ticker, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`
	upsertRevenue = `
		INSERT INTO data.monthly_revenue (ticker, period, revenue)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, period) DO UPDATE SET revenue = EXCLUDED.revenue
	`
	// 다른 소스가 채운 값을 NULL로 지우지 않음
	upsertValuation = `
		INSERT INTO data.valuations (ticker, trade_date, pe_ratio, price_to_book, dividend_yield)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			pe_ratio = COALESCE(EXCLUDED.pe_ratio, data.valuations.pe_ratio),
			price_to_book = COALESCE(EXCLUDED.price_to_book, data.valuations.price_to_book),
			dividend_yield = COALESCE(EXCLUDED.dividend_yield, data.valuations.dividend_yield)
	`
	upsertMargin = `
		INSERT INTO data.margin_balances (ticker, trade_date, margin_purchase, short_sale)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			margin_purchase = EXCLUDED.margin_purchase,
			short_sale = EXCLUDED.short_sale
	`
	upsertFlow = `
		INSERT INTO data.institutional_flows (ticker, trade_date, foreign_net, trust_net, dealer_net)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			foreign_net = EXCLUDED.foreign_net,
			trust_net = EXCLUDED.trust_net,
			dealer_net = EXCLUDED.dealer_net
	`
)

// SaveSeries upserts every record in one transaction and returns the record count
func (r *SeriesRepository) SaveSeries(ctx context.Context, ts contracts.TimeSeries) (int, error) {
	if ts.Len() == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, p := range ts.Prices {
		batch.Queue(upsertPrice, p.Ticker, truncateDay(p.Date), p.Open, p.High, p.Low, p.Close, p.Volume)
	}
	for _, m := range ts.Revenue {
		batch.Queue(upsertRevenue, m.Ticker, truncateDay(m.Period), m.Revenue)
	}
	for _, v := range ts.Valuations {
		batch.Queue(upsertValuation, v.Ticker, truncateDay(v.Date), v.PERatio, v.PriceToBook, v.DividendYield)
	}
	for _, m := range ts.Margins {
		batch.Queue(upsertMargin, m.Ticker, truncateDay(m.Date), m.MarginPurchase, m.ShortSale)
	}
	for _, f := range ts.Flows {
		batch.Queue(upsertFlow, f.Ticker, truncateDay(f.Date), f.ForeignNet, f.TrustNet, f.DealerNet)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert series record %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return batch.Len(), nil
}

// LatestDate returns the most recent price bar date (zero time if none)
func (r *SeriesRepository) LatestDate(ctx context.Context, ticker string) (time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MAX(trade_date) FROM data.price_bars WHERE ticker = $1", ticker).Scan(&latest)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("latest date %s: %w", ticker, err)
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

// GetPrices retrieves price bars for a ticker within [from, to]
func (r *SeriesRepository) GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume
		FROM data.price_bars
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, truncateDay(from), truncateDay(to))
	if err != nil {
		return nil, fmt.Errorf("get prices %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var p contracts.PriceBar
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, p)
	}
	return bars, rows.Err()
}
