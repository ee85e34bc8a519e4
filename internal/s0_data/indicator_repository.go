package s0_data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/database"
)

// IndicatorRepository implements contracts.IndicatorRepository
// ⭐ SSOT: 지표 스냅샷 + 알림 텍스트 저장소는 여기서만
type IndicatorRepository struct {
	pool *pgxpool.Pool
}

// NewIndicatorRepository creates a new indicator repository
func NewIndicatorRepository(pool *pgxpool.Pool) *IndicatorRepository {
	return &IndicatorRepository{pool: pool}
}

const selectSnapshot = `
	SELECT ticker, metrics, warnings, alert_text, run_id, updated_at
	FROM data.indicator_snapshots
`

// GetSnapshot returns the stored snapshot of ticker
func (r *IndicatorRepository) GetSnapshot(ctx context.Context, ticker string) (*contracts.IndicatorSnapshot, error) {
	snap, err := scanSnapshot(r.pool.QueryRow(ctx, selectSnapshot+" WHERE ticker = $1", ticker))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", ticker, err)
	}
	return snap, nil
}

// ListSnapshots returns every stored snapshot ordered by ticker
func (r *IndicatorRepository) ListSnapshots(ctx context.Context) ([]*contracts.IndicatorSnapshot, error) {
	rows, err := r.pool.Query(ctx, selectSnapshot+" ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*contracts.IndicatorSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// SaveSnapshot upserts metrics and warnings, then evaluates alerts over the
// row as persisted and stores the text. 같은 종목 쓰기는 advisory lock으로 직렬화
func (r *IndicatorRepository) SaveSnapshot(
	ctx context.Context,
	snap *contracts.IndicatorSnapshot,
	alerts func(contracts.MetricSet) string,
) (*contracts.IndicatorSnapshot, error) {
	metricsJSON, err := json.Marshal(snap.Metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return nil, fmt.Errorf("marshal warnings: %w", err)
	}

	var saved *contracts.IndicatorSnapshot
	err = database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := database.LockKey(ctx, tx, "indicator:"+snap.Ticker); err != nil {
			return err
		}

		upsert := `
			INSERT INTO data.indicator_snapshots (ticker, source, metrics, warnings, run_id, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (ticker) DO UPDATE SET
				source = EXCLUDED.source,
				metrics = EXCLUDED.metrics,
				warnings = EXCLUDED.warnings,
				run_id = EXCLUDED.run_id,
				updated_at = NOW()
		`
		if _, err := tx.Exec(ctx, upsert,
			snap.Ticker, string(snap.Metrics.Source()), metricsJSON, warningsJSON, snap.RunID,
		); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}

		persisted, err := scanSnapshot(tx.QueryRow(ctx, selectSnapshot+" WHERE ticker = $1", snap.Ticker))
		if err != nil {
			return fmt.Errorf("reload snapshot: %w", err)
		}

		persisted.AlertText = ""
		if alerts != nil {
			persisted.AlertText = alerts(persisted.Metrics)
		}
		if _, err := tx.Exec(ctx,
			"UPDATE data.indicator_snapshots SET alert_text = $2 WHERE ticker = $1",
			snap.Ticker, persisted.AlertText,
		); err != nil {
			return fmt.Errorf("update alert text: %w", err)
		}

		saved = persisted
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot %s: %w", snap.Ticker, err)
	}
	return saved, nil
}

func scanSnapshot(row pgx.Row) (*contracts.IndicatorSnapshot, error) {
	var snap contracts.IndicatorSnapshot
	var metricsJSON, warningsJSON []byte
	var runID uuid.NullUUID

	if err := row.Scan(&snap.Ticker, &metricsJSON, &warningsJSON, &snap.AlertText, &runID, &snap.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metricsJSON, &snap.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	if err := json.Unmarshal(warningsJSON, &snap.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if runID.Valid {
		snap.RunID = runID.UUID
	}
	return &snap, nil
}
