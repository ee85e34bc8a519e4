package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/logger"
)

// CoverageChecker computes coverage and names the indicators under threshold
type CoverageChecker interface {
	Check(ctx context.Context, date time.Time) (*contracts.CoverageSnapshot, error)
	Failing(snapshot *contracts.CoverageSnapshot) []contracts.Metric
}

// CoverageStore persists coverage snapshots
type CoverageStore interface {
	SaveSnapshot(ctx context.Context, snapshot *contracts.CoverageSnapshot) error
}

// CoverageJob stores the daily indicator coverage report
type CoverageJob struct {
	checker CoverageChecker
	store   CoverageStore
	logger  *logger.Logger
	now     func() time.Time
}

// NewCoverageJob creates a new coverage job
func NewCoverageJob(checker CoverageChecker, store CoverageStore, log *logger.Logger) *CoverageJob {
	return &CoverageJob{
		checker: checker,
		store:   store,
		logger:  log,
		now:     time.Now,
	}
}

// Name returns the job name
func (j *CoverageJob) Name() string {
	return "coverage_report"
}

// Schedule returns the cron schedule (weekdays 7 PM, after the refresh)
func (j *CoverageJob) Schedule() string {
	return "0 0 19 * * 1-5"
}

// Run computes and stores the coverage snapshot
func (j *CoverageJob) Run(ctx context.Context) error {
	snapshot, err := j.checker.Check(ctx, j.now())
	if err != nil {
		return fmt.Errorf("coverage check: %w", err)
	}

	if err := j.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save coverage: %w", err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"total_stocks":  snapshot.TotalStocks,
		"coverage_rate": snapshot.CoverageRate(),
	})
	if failing := j.checker.Failing(snapshot); len(failing) > 0 {
		log.WithField("below_threshold", failing).Warn("Indicator coverage below threshold")
		return nil
	}
	log.Info("Coverage report stored")
	return nil
}
