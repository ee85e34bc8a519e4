package s0_data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/database"
)

// WatchlistRepository implements contracts.WatchlistRepository
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(pool *pgxpool.Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// Add puts ticker on the user's watchlist (idempotent). 종목 행이 없으면 먼저 생성
func (r *WatchlistRepository) Add(ctx context.Context, userID int64, ticker string) error {
	if _, err := r.pool.Exec(ctx,
		"INSERT INTO data.stocks (ticker, market) VALUES ($1, $2) ON CONFLICT (ticker) DO NOTHING",
		ticker, string(contracts.MarketOf(ticker)),
	); err != nil {
		return fmt.Errorf("ensure stock %s: %w", ticker, err)
	}

	query := `
		INSERT INTO data.watchlist (user_id, ticker)
		VALUES ($1, $2)
		ON CONFLICT (user_id, ticker) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, userID, ticker); err != nil {
		return fmt.Errorf("add watchlist %d/%s: %w", userID, ticker, err)
	}
	return nil
}

// Remove deletes ticker from the user's watchlist
func (r *WatchlistRepository) Remove(ctx context.Context, userID int64, ticker string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM data.watchlist WHERE user_id = $1 AND ticker = $2", userID, ticker)
	if err != nil {
		return fmt.Errorf("remove watchlist %d/%s: %w", userID, ticker, err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}
	return nil
}

// List returns the user's watchlist, oldest first
func (r *WatchlistRepository) List(ctx context.Context, userID int64) ([]contracts.Watched, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT user_id, ticker, added_at FROM data.watchlist WHERE user_id = $1 ORDER BY added_at, ticker",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list watchlist %d: %w", userID, err)
	}
	defer rows.Close()

	var items []contracts.Watched
	for rows.Next() {
		var w contracts.Watched
		if err := rows.Scan(&w.UserID, &w.Ticker, &w.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// AllTickers returns every ticker watched by anyone (refresh universe)
func (r *WatchlistRepository) AllTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT DISTINCT ticker FROM data.watchlist ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("list watched tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
