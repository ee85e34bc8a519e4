package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()

	m.ObserveFetch("finmind", OutcomeOK, 120*time.Millisecond)
	m.ObserveFetch("finmind", OutcomeOK, 80*time.Millisecond)
	m.ObserveFetch("twse", OutcomeEmpty, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sourceFetches.WithLabelValues("finmind", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceFetches.WithLabelValues("twse", OutcomeEmpty)))
}

func TestCounters(t *testing.T) {
	m := New()

	m.IncReconcileWarning("roe")
	m.IncAlert("high_leverage")
	m.IncAlert("high_leverage")
	m.IncHTTPRequest("GET", "/api/stocks/{ticker}", "200")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileWarnings.WithLabelValues("roe")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsFired.WithLabelValues("high_leverage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/stocks/{ticker}", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveFetch("yfinance", OutcomeError, time.Second)
		m.IncReconcileWarning("pe_ratio")
		m.IncAlert("negative_roe")
		m.ObserveRefresh("US", "ok", time.Second)
		m.IncHTTPRequest("GET", "/health", "200")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRefresh("TW", "ok", 2*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stockdash_refresh_duration_seconds"))
}
