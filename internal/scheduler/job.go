package scheduler

import (
	"context"
	"time"
)

// Job is a unit of work run on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a cron expression with a seconds field, e.g. "0 30 17 * * 1-5" or "@daily"
	Schedule() string
}

// JobResult is one execution including its retries
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the in-memory history per job
const maxHistory = 100

// JobHistory keeps the latest results of a job, oldest first
type JobHistory struct {
	Results []JobResult
}

// AddResult appends result and drops the oldest beyond maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if n := len(h.Results); n > maxHistory {
		h.Results = append([]JobResult(nil), h.Results[n-maxHistory:]...)
	}
}

func (h *JobHistory) snapshot() *JobHistory {
	return &JobHistory{Results: append([]JobResult(nil), h.Results...)}
}

// GetLatestResults returns up to n newest results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns the failed runs
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// GetSuccessRate returns successes / runs (0 when empty)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(h.successCount()) / float64(len(h.Results))
}

func (h *JobHistory) successCount() int {
	n := 0
	for _, r := range h.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// JobStats summarises the history of one job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

func (h *JobHistory) stats(job Job) JobStats {
	ok := h.successCount()
	st := JobStats{
		JobName:      job.Name(),
		Schedule:     job.Schedule(),
		TotalRuns:    len(h.Results),
		SuccessCount: ok,
		FailureCount: len(h.Results) - ok,
		SuccessRate:  h.GetSuccessRate(),
	}
	// 최신부터 역순으로 마지막 성공/실패 탐색
	for i := len(h.Results) - 1; i >= 0; i-- {
		t := h.Results[i].StartTime
		if st.LastRun == nil {
			st.LastRun = &t
		}
		if h.Results[i].Success && st.LastSuccess == nil {
			st.LastSuccess = &t
		}
		if !h.Results[i].Success && st.LastFailure == nil {
			st.LastFailure = &t
		}
		if st.LastSuccess != nil && st.LastFailure != nil {
			break
		}
	}
	return st
}
