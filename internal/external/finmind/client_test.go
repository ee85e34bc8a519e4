package finmind

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

func newTestClient(t *testing.T, token string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, logger.Nop(), server.URL, token)
}

func TestPER(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/data", r.URL.Path)
		assert.Equal(t, DatasetPER, q.Get("dataset"))
		assert.Equal(t, "2330", q.Get("data_id"))
		assert.Equal(t, "2025-01-01", q.Get("start_date"))
		assert.Equal(t, "secret", q.Get("token"))
		w.Write([]byte(`{"msg":"success","status":200,"data":[
			{"date":"2025-01-02","stock_id":"2330","dividend_yield":1.63,"PER":26.22,"PBR":7.23}
		]}`))
	})

	rows, err := client.PER(context.Background(), "2330", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 26.22, rows[0].PER)
	assert.Equal(t, 1.63, rows[0].DividendYield)
}

func TestFetch_StatusError(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("token"))
		w.Write([]byte(`{"msg":"Requests reach the upper limit.","status":402}`))
	})

	_, err := client.MonthRevenue(context.Background(), "2330", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestFetch_EmptyData(t *testing.T) {
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"success","status":200,"data":[]}`))
	})

	rows, err := client.StockInfo(context.Background(), "9999")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLatestPeriod(t *testing.T) {
	rows := []StatementRow{
		{Date: "2024-06-30", Type: "Revenue", Value: 673510177000},
		{Date: "2024-09-30", Type: "Revenue", Value: 759692143000},
		{Date: "2024-09-30", Type: "IncomeAfterTaxes", Value: 325258000000},
	}

	date, items := LatestPeriod(rows)
	assert.Equal(t, "2024-09-30", date)
	assert.Equal(t, map[string]float64{
		"Revenue":          759692143000,
		"IncomeAfterTaxes": 325258000000,
	}, items)

	date, items = LatestPeriod(nil)
	assert.Empty(t, date)
	assert.Empty(t, items)
}
