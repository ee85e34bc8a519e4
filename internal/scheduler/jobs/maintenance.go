package jobs

import (
	"context"
	"time"

	"github.com/wonny/stockdash/pkg/logger"
)

// RunPruner deletes old job runs
type RunPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobRunCleanupJob drops job run records past the retention window
type JobRunCleanupJob struct {
	pruner    RunPruner
	retention time.Duration
	logger    *logger.Logger
}

// NewJobRunCleanupJob creates a new cleanup job
func NewJobRunCleanupJob(pruner RunPruner, retention time.Duration, log *logger.Logger) *JobRunCleanupJob {
	return &JobRunCleanupJob{
		pruner:    pruner,
		retention: retention,
		logger:    log,
	}
}

// Name returns the job name
func (j *JobRunCleanupJob) Name() string {
	return "job_run_cleanup"
}

// Schedule returns the cron schedule (Sunday 3 AM)
func (j *JobRunCleanupJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run executes the cleanup
func (j *JobRunCleanupJob) Run(ctx context.Context) error {
	removed, err := j.pruner.Prune(ctx, time.Now().Add(-j.retention))
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Job run cleanup completed")
	}
	return nil
}
