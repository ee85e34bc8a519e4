package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/s0_data"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// CoverageReader reads the latest coverage report
type CoverageReader interface {
	GetLatestSnapshot(ctx context.Context) (*contracts.CoverageSnapshot, error)
}

// JobReader lists recent job runs
type JobReader interface {
	Recent(ctx context.Context, limit int) ([]s0_data.JobRun, error)
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	coverage CoverageReader
	jobs     JobReader
	logger   *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(coverage CoverageReader, jobs JobReader, log *logger.Logger) *DataHandler {
	return &DataHandler{
		coverage: coverage,
		jobs:     jobs,
		logger:   log,
	}
}

// GetCoverage returns the latest indicator coverage snapshot
// GET /api/data/coverage
func (h *DataHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.coverage.GetLatestSnapshot(r.Context())
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no coverage snapshot yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get coverage snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve coverage snapshot")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":          snapshot.Date.Format("2006-01-02"),
		"total_stocks":  snapshot.TotalStocks,
		"coverage":      snapshot.Coverage,
		"coverage_rate": snapshot.CoverageRate(),
	})
}

// GetJobs returns recent scheduler runs
// GET /api/data/jobs?limit=20
func (h *DataHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.jobs.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get job runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve job runs")
		return
	}
	if runs == nil {
		runs = []s0_data.JobRun{}
	}

	respondJSON(w, http.StatusOK, runs)
}
