package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRun is one recorded execution of a scheduled job
type JobRun struct {
	ID         uuid.UUID  `json:"id"`
	JobName    string     `json:"job_name"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
}

// JobRepository records job executions (scheduler status)
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job run repository
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Start records a running job and returns its run id
func (r *JobRepository) Start(ctx context.Context, jobName string, startedAt time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx,
		"INSERT INTO data.job_runs (id, job_name, started_at) VALUES ($1, $2, $3)",
		id, jobName, startedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("start job run %s: %w", jobName, err)
	}
	return id, nil
}

// Finish closes a run
func (r *JobRepository) Finish(ctx context.Context, id uuid.UUID, success bool, message string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE data.job_runs SET finished_at = NOW(), success = $2, message = $3 WHERE id = $1",
		id, success, message,
	)
	if err != nil {
		return fmt.Errorf("finish job run %s: %w", id, err)
	}
	return nil
}

// Recent returns the latest runs of every job, newest first
func (r *JobRepository) Recent(ctx context.Context, limit int) ([]JobRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_name, started_at, finished_at, success, message
		FROM data.job_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent job runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		if err := rows.Scan(&run.ID, &run.JobName, &run.StartedAt, &run.FinishedAt, &run.Success, &run.Message); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes finished runs started before cutoff and returns how many were removed
func (r *JobRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM data.job_runs WHERE started_at < $1 AND finished_at IS NOT NULL",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("prune job runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
