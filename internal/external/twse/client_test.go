package twse

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, logger.Nop(), server.URL, server.URL)
}

func TestParseROCDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"114年01月02日", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"114/01/02", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"99/12/31", time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"2025-01-02", time.Time{}, true},
		{"114/13/01", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseROCDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestROCYear(t *testing.T) {
	assert.Equal(t, 114, ROCYear(2025))
}

func TestValuations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchangeReport/BWIBBU", r.URL.Path)
		assert.Equal(t, "20250101", r.URL.Query().Get("date"))
		assert.Equal(t, "2330", r.URL.Query().Get("stockNo"))
		w.Write([]byte(`{"stat":"OK",
			"fields":["日期","殖利率(%)","股利年度","本益比","股價淨值比","財報年/季"],
			"data":[
				["114年01月02日","1.63","113","26.22","7.23","113/3"],
				["114年01月03日","1.61","113","-","7.31","113/3"],
				["bad date","1","113","1","1","113/3"]
			]}`))
	})

	rows, err := client.Valuations(context.Background(), "2330", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), rows[0].Date)
	require.NotNil(t, rows[0].DividendYield)
	assert.Equal(t, 1.63, *rows[0].DividendYield)
	assert.Equal(t, 26.22, *rows[0].PERatio)
	assert.Equal(t, 7.23, *rows[0].PriceToBook)

	assert.Nil(t, rows[1].PERatio, "'-' must be unknown")
}

func TestValuations_StatNotOK(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stat":"很抱歉，沒有符合條件的資料!"}`))
	})

	_, err := client.Valuations(context.Background(), "9999", time.Now())
	assert.Error(t, err)
}

const mopsHTML = `<html><body>
<table>
<tr><th>公司代號</th><th>公司名稱</th><th>當月營收</th><th>上月營收</th></tr>
<tr align=right><td align=center>1101</td><td>TCC</td><td>8,524,616</td><td>9,163,024</td></tr>
<tr align=right><td align=center>2330</td><td>TSMC</td><td>293,288,259</td><td>278,163,107</td></tr>
<tr align=right><td align=center>合計</td><td></td><td>3,000,000,000</td><td></td></tr>
<tr align=right><td align=center>2412</td><td>CHT</td><td>-</td><td></td></tr>
</table></body></html>`

func TestParseMonthlyRevenue(t *testing.T) {
	revenue, err := ParseMonthlyRevenue([]byte(mopsHTML))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{
		"1101": 8524616000,
		"2330": 293288259000,
	}, revenue)

	_, err = ParseMonthlyRevenue([]byte(`<html><body>maintenance</body></html>`))
	assert.Error(t, err)
}

func TestMonthlyRevenue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nas/t21/sii/t21sc03_114_3_0.html", r.URL.Path)
		w.Write([]byte(mopsHTML))
	})

	revenue, err := client.MonthlyRevenue(context.Background(), BoardListed, 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 293288259000.0, revenue["2330"])
}
