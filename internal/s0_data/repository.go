package s0_data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/database"
)

// Repository handles stock rows and company profiles
// ⭐ SSOT: data.stocks 저장소는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Pool returns the underlying database pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.db
}

// EnsureStock inserts the stock row if it does not exist yet
func (r *Repository) EnsureStock(ctx context.Context, ticker string, market contracts.Market) error {
	query := `
		INSERT INTO data.stocks (ticker, market)
		VALUES ($1, $2)
		ON CONFLICT (ticker) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, ticker, string(market)); err != nil {
		return fmt.Errorf("ensure stock %s: %w", ticker, err)
	}
	return nil
}

// GetProfile returns the stored profile of ticker
func (r *Repository) GetProfile(ctx context.Context, ticker string) (*contracts.CompanyProfile, error) {
	query := `
		SELECT ticker, market, name, short_name, sector, industry, description, earnings_date
		FROM data.stocks
		WHERE ticker = $1
	`

	var p contracts.CompanyProfile
	var market string
	err := r.db.QueryRow(ctx, query, ticker).Scan(
		&p.Ticker, &market, &p.Name, &p.ShortName, &p.Sector, &p.Industry, &p.Description, &p.EarningsDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", ticker, err)
	}

	p.Market = contracts.Market(market)
	return &p, nil
}

// SaveProfile fills descriptive columns that are still empty.
// 이미 채워진 값은 덮어쓰지 않음 (earnings_date만 최신 선택값으로 갱신)
func (r *Repository) SaveProfile(ctx context.Context, p contracts.CompanyProfile) error {
	query := `
		INSERT INTO data.stocks (ticker, market, name, short_name, sector, industry, description, earnings_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker) DO UPDATE SET
			name          = CASE WHEN data.stocks.name = '' THEN EXCLUDED.name ELSE data.stocks.name END,
			short_name    = CASE WHEN data.stocks.short_name = '' THEN EXCLUDED.short_name ELSE data.stocks.short_name END,
			sector        = CASE WHEN data.stocks.sector = '' THEN EXCLUDED.sector ELSE data.stocks.sector END,
			industry      = CASE WHEN data.stocks.industry = '' THEN EXCLUDED.industry ELSE data.stocks.industry END,
			description   = CASE WHEN data.stocks.description = '' THEN EXCLUDED.description ELSE data.stocks.description END,
			earnings_date = COALESCE(EXCLUDED.earnings_date, data.stocks.earnings_date),
			updated_at    = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		p.Ticker,
		string(p.Market),
		p.Name,
		p.ShortName,
		p.Sector,
		p.Industry,
		p.Description,
		p.EarningsDate,
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Ticker, err)
	}
	return nil
}

// truncateDay keeps the calendar date (DATE columns)
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
