package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/database"
)

// Repository handles coverage snapshot persistence
// ⭐ SSOT: 커버리지 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot saves a coverage snapshot (one per day)
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.CoverageSnapshot) error {
	coverageJSON, err := json.Marshal(snapshot.Coverage)
	if err != nil {
		return fmt.Errorf("marshal coverage: %w", err)
	}

	query := `
		INSERT INTO data.coverage_snapshots (
			snapshot_date, total_stocks, coverage, created_at
		) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (snapshot_date) DO UPDATE SET
			total_stocks = EXCLUDED.total_stocks,
			coverage = EXCLUDED.coverage,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query, snapshot.Date, snapshot.TotalStocks, coverageJSON)
	if err != nil {
		return fmt.Errorf("save coverage snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot retrieves the most recent coverage snapshot
func (r *Repository) GetLatestSnapshot(ctx context.Context) (*contracts.CoverageSnapshot, error) {
	query := `
		SELECT snapshot_date, total_stocks, coverage
		FROM data.coverage_snapshots
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var snapshot contracts.CoverageSnapshot
	var coverageJSON []byte
	err := r.pool.QueryRow(ctx, query).Scan(&snapshot.Date, &snapshot.TotalStocks, &coverageJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query coverage snapshot: %w", err)
	}

	if err := json.Unmarshal(coverageJSON, &snapshot.Coverage); err != nil {
		return nil, fmt.Errorf("unmarshal coverage: %w", err)
	}

	return &snapshot, nil
}
