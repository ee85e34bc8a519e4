package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/alphavantage"
	"github.com/wonny/stockdash/internal/external/finmind"
	"github.com/wonny/stockdash/internal/external/sec"
	"github.com/wonny/stockdash/internal/external/twse"
	"github.com/wonny/stockdash/internal/external/yahoo"
	"github.com/wonny/stockdash/internal/s1_fundamentals"
	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

var fixedNow = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Timeout: 2 * time.Second,
		Logger:  logger.Nop(),
		Now:     func() time.Time { return fixedNow },
	}
}

func testHTTP() *httputil.Client {
	return httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// ============================================================================
// Lookup
// ============================================================================

func TestLookup_Candidates(t *testing.T) {
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"a": {"pe": {"raw": 15.5, "fmt": "15.50"}},
		"b": {"pe": {"raw": 99}},
		"c": {"empty": {}, "text": "12.5", "bad": "n/a"}
	}`), &doc))

	v, ok := Lookup(doc, "$.missing.pe.raw", "$.a.pe.raw", "$.b.pe.raw")
	assert.True(t, ok)
	assert.Equal(t, 15.5, v, "first present candidate wins")

	_, ok = Lookup(doc, "$.c.empty.raw", "$.c.bad")
	assert.False(t, ok)

	v, ok = Lookup(doc, "$.c.text")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	assert.Equal(t, "", LookupString(doc, "$.nope"))
}

// ============================================================================
// Failure boundary
// ============================================================================

func TestCall_RecoversPanic(t *testing.T) {
	b := newBase(contracts.SourceYFinance, testOptions())

	ok := b.call(context.Background(), "AAPL", "test", func(ctx context.Context) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})
	assert.False(t, ok)

	set := b.fetch(context.Background(), "AAPL", func(ctx context.Context) (map[contracts.Metric]float64, error) {
		panic("provider blew up")
	})
	assert.True(t, set.IsEmpty())
	assert.Equal(t, contracts.SourceYFinance, set.Source())
}

func TestCall_Timeout(t *testing.T) {
	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond
	b := newBase(contracts.SourceTWSE, opts)

	set := b.fetch(context.Background(), "2330.TW", func(ctx context.Context) (map[contracts.Metric]float64, error) {
		<-ctx.Done()
		return map[contracts.Metric]float64{contracts.PERatio: 10}, ctx.Err()
	})
	assert.True(t, set.IsEmpty(), "expired call means no data")
	assert.Equal(t, contracts.SourceTWSE, set.Source())
}

// ============================================================================
// Yahoo
// ============================================================================

const quoteSummaryJSON = `{"quoteSummary":{"result":[{
	"price": {"marketCap": {"raw": 2800000000000, "fmt": "2.8T"}, "longName": "Apple Inc.", "shortName": "Apple"},
	"summaryDetail": {"trailingPE": {"raw": 28.5}, "beta": {"raw": 1.2}, "dividendYield": {"raw": 0.0055}},
	"defaultKeyStatistics": {"trailingEps": {"raw": 6.1}, "priceToBook": {"raw": 45.1}},
	"financialData": {"returnOnEquity": {"raw": 1.47}, "debtToEquity": {"raw": 151.8}, "quickRatio": {"raw": 0.8},
		"freeCashflow": {"raw": 99000000000}, "operatingMargins": {}},
	"assetProfile": {"sector": "Technology", "industry": "Consumer Electronics", "longBusinessSummary": "Designs phones."},
	"calendarEvents": {"earnings": {"earningsDate": [{"raw": 1745971200, "fmt": "2025-04-30"}]}}
}],"error":null}}`

func newYahoo(t *testing.T, handler http.HandlerFunc) *Yahoo {
	server := newServer(t, handler)
	return NewYahoo(yahoo.NewClient(testHTTP(), logger.Nop(), server.URL), testOptions())
}

func TestYahoo_Fetch(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteSummaryJSON))
	})

	set := y.Fetch(context.Background(), "AAPL")
	assert.Equal(t, contracts.SourceYFinance, set.Source())

	expected := map[contracts.Metric]float64{
		contracts.PERatio:       28.5,
		contracts.Beta:          1.2,
		contracts.MarketCap:     2800000000000,
		contracts.DividendYield: 0.0055,
		contracts.EPS:           6.1,
		contracts.PriceToBook:   45.1,
		contracts.ROE:           1.47,
		contracts.DebtToEquity:  151.8,
		contracts.QuickRatio:    0.8,
		contracts.FreeCashFlow:  99000000000,
	}
	assert.Equal(t, expected, set.Values())
	assert.False(t, set.Has(contracts.OperatingMargin), "empty {} object is unknown")
}

func TestYahoo_ProfileAndEarnings(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(quoteSummaryJSON))
	})

	profile := y.FetchProfile(context.Background(), "AAPL")
	assert.Equal(t, "Apple Inc.", profile.Name)
	assert.Equal(t, "Technology", profile.Sector)
	assert.Equal(t, contracts.MarketUS, profile.Market)

	dates := y.FetchEarningsDates(context.Background(), "AAPL")
	require.Len(t, dates, 1)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), dates[0])
}

func TestYahoo_ServerErrorDegradesToEmpty(t *testing.T) {
	y := newYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	set := y.Fetch(context.Background(), "AAPL")
	assert.True(t, set.IsEmpty())
	assert.Equal(t, contracts.SourceYFinance, set.Source())

	assert.Empty(t, y.FetchEarningsDates(context.Background(), "AAPL"))
	assert.Equal(t, "", y.FetchProfile(context.Background(), "AAPL").Name)
}

// ============================================================================
// Alpha Vantage
// ============================================================================

func TestAlphaVantage_Fetch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Symbol":"IBM","Name":"IBM","PERatio":"22.5","DividendYield":"0.045","Beta":"None",
			"GrossProfitTTM":"30000","RevenueTTM":"60000","ReturnOnEquityTTM":"0.33"}`))
	})
	a := NewAlphaVantage(alphavantage.NewClient(testHTTP(), logger.Nop(), server.URL, "demo"), testOptions())

	set := a.Fetch(context.Background(), "IBM")
	assert.Equal(t, contracts.SourceAlphaVantage, set.Source())

	v, _ := set.Get(contracts.GrossMargin)
	assert.Equal(t, 0.5, v)
	v, _ = set.Get(contracts.DividendYield)
	assert.Equal(t, 0.045, v)
	v, _ = set.Get(contracts.Revenue)
	assert.Equal(t, 60000.0, v)
	assert.False(t, set.Has(contracts.Beta))
}

func TestAlphaVantage_ThrottledIsEmpty(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"API call frequency exceeded"}`))
	})
	a := NewAlphaVantage(alphavantage.NewClient(testHTTP(), logger.Nop(), server.URL, "demo"), testOptions())

	set := a.Fetch(context.Background(), "IBM")
	assert.True(t, set.IsEmpty())
	assert.Equal(t, contracts.SourceAlphaVantage, set.Source())
}

// ============================================================================
// FinMind
// ============================================================================

func finmindHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2330", r.URL.Query().Get("data_id"))
		var data string
		switch r.URL.Query().Get("dataset") {
		case finmind.DatasetPER:
			data = `[{"date":"2025-03-13","stock_id":"2330","dividend_yield":1.5,"PER":20,"PBR":5},
				{"date":"2025-03-14","stock_id":"2330","dividend_yield":2.0,"PER":22.5,"PBR":6.1}]`
		case finmind.DatasetMonthRevenue:
			data = `[{"date":"2025-02-01","stock_id":"2330","revenue":293288259000,"revenue_month":1,"revenue_year":2025},
				{"date":"2025-03-01","stock_id":"2330","revenue":260009000000,"revenue_month":2,"revenue_year":2025}]`
		case finmind.DatasetFinancialStatements:
			data = `[{"date":"2024-09-30","type":"Revenue","value":700},
				{"date":"2024-12-31","type":"Revenue","value":1000},
				{"date":"2024-12-31","type":"GrossProfit","value":590},
				{"date":"2024-12-31","type":"OperatingIncome","value":490},
				{"date":"2024-12-31","type":"IncomeAfterTaxes","value":400},
				{"date":"2024-12-31","type":"EPS","value":14.45}]`
		case finmind.DatasetBalanceSheet:
			data = `[{"date":"2024-12-31","type":"TotalAssets","value":6000},
				{"date":"2024-12-31","type":"EquityAttributableToOwnersOfParent","value":4000},
				{"date":"2024-12-31","type":"ShorttermBorrowings","value":100},
				{"date":"2024-12-31","type":"BondsPayable","value":900}]`
		case finmind.DatasetStockInfo:
			data = `[{"industry_category":"半導體業","stock_id":"2330","stock_name":"台積電","type":"twse"}]`
		case finmind.DatasetInstitutionalInvestor:
			data = `[{"date":"2025-03-14","buy":100,"sell":40,"name":"Foreign_Investor"},
				{"date":"2025-03-14","buy":5,"sell":10,"name":"Investment_Trust"},
				{"date":"2025-03-13","buy":1,"sell":0,"name":"Dealer_self"},
				{"date":"2025-03-14","buy":3,"sell":1,"name":"Dealer_Hedging"}]`
		default:
			data = `[]`
		}
		w.Write([]byte(`{"msg":"success","status":200,"data":` + data + `}`))
	}
}

func newFinMind(t *testing.T, handler http.HandlerFunc) *FinMind {
	server := newServer(t, handler)
	return NewFinMind(finmind.NewClient(testHTTP(), logger.Nop(), server.URL, ""), testOptions())
}

func TestFinMind_Fetch(t *testing.T) {
	f := newFinMind(t, finmindHandler(t))

	set := f.Fetch(context.Background(), "2330.TW")
	assert.Equal(t, contracts.SourceFinMind, set.Source())

	expected := map[contracts.Metric]float64{
		contracts.PERatio:         22.5,
		contracts.PriceToBook:     6.1,
		contracts.DividendYield:   0.02,
		contracts.Revenue:         260009000000,
		contracts.EPS:             14.45,
		contracts.GrossMargin:     0.59,
		contracts.OperatingMargin: 0.49,
	}
	for metric, want := range expected {
		got, ok := set.Get(metric)
		require.True(t, ok, metric)
		assert.InDelta(t, want, got, 1e-9, metric)
	}
}

func TestFinMind_Statement(t *testing.T) {
	f := newFinMind(t, finmindHandler(t))

	snap := f.FetchStatement(context.Background(), "2330.TW")
	assert.Equal(t, contracts.SourceFinMind, snap.Source)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), snap.PeriodEnd)

	assert.Equal(t, map[contracts.LineItem]float64{
		contracts.NetIncome:          400,
		contracts.TotalRevenue:       1000,
		contracts.TotalAssets:        6000,
		contracts.StockholdersEquity: 4000,
		contracts.TotalDebt:          1000,
	}, snap.Items)
}

func TestFinMind_StatementBalanceSheetDown(t *testing.T) {
	healthy := finmindHandler(t)
	f := newFinMind(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dataset") == finmind.DatasetBalanceSheet {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		healthy(w, r)
	})

	snap := f.FetchStatement(context.Background(), "2330.TW")
	assert.Equal(t, map[contracts.LineItem]float64{
		contracts.NetIncome:    400,
		contracts.TotalRevenue: 1000,
	}, snap.Items)

	// 자산/자본이 없어도 순이익률은 계산됨
	margin, ok := s1_fundamentals.DeriveRatio(contracts.ProfitMargin, snap)
	require.True(t, ok)
	assert.InDelta(t, 0.4, margin, 1e-12)
	_, ok = s1_fundamentals.DeriveRatio(contracts.ROE, snap)
	assert.False(t, ok)
}

func TestFinMind_StatementIncomeDown(t *testing.T) {
	healthy := finmindHandler(t)
	f := newFinMind(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dataset") == finmind.DatasetFinancialStatements {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		healthy(w, r)
	})

	snap := f.FetchStatement(context.Background(), "2330.TW")
	assert.True(t, snap.PeriodEnd.IsZero())
	assert.Equal(t, map[contracts.LineItem]float64{
		contracts.TotalAssets:        6000,
		contracts.StockholdersEquity: 4000,
		contracts.TotalDebt:          1000,
	}, snap.Items)
}

func TestFinMind_ProfileAndSeries(t *testing.T) {
	f := newFinMind(t, finmindHandler(t))

	profile := f.FetchProfile(context.Background(), "2330.TW")
	assert.Equal(t, "台積電", profile.ShortName)
	assert.Equal(t, "半導體業", profile.Industry)

	ts := f.FetchSeries(context.Background(), "2330.TW", fixedNow.AddDate(0, -3, 0))
	require.Len(t, ts.Revenue, 2)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ts.Revenue[0].Period)

	require.Len(t, ts.Valuations, 2)
	assert.InDelta(t, 0.015, *ts.Valuations[0].DividendYield, 1e-12)

	require.Len(t, ts.Flows, 2)
	assert.Equal(t, int64(1), ts.Flows[0].DealerNet)
	assert.Equal(t, int64(60), ts.Flows[1].ForeignNet)
	assert.Equal(t, int64(-5), ts.Flows[1].TrustNet)
	assert.Equal(t, int64(2), ts.Flows[1].DealerNet)
}

func TestFinMind_RevenueLookback(t *testing.T) {
	var starts []string
	f := newFinMind(t, func(w http.ResponseWriter, r *http.Request) {
		data := `[]`
		if r.URL.Query().Get("dataset") == finmind.DatasetMonthRevenue {
			starts = append(starts, r.URL.Query().Get("start_date"))
			if r.URL.Query().Get("start_date") <= "2025-03-01" {
				data = `[{"date":"2025-03-01","stock_id":"2330","revenue":260009000000,"revenue_month":2,"revenue_year":2025}]`
			}
		}
		w.Write([]byte(`{"msg":"success","status":200,"data":` + data + `}`))
	})

	// 2월 매출(3/1 날짜)은 3/10쯤 공시 → since=3/15에도 조회되어야 함
	ts := f.FetchSeries(context.Background(), "2330.TW", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.Len(t, ts.Revenue, 1)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), ts.Revenue[0].Period)
	assert.Equal(t, []string{"2024-12-01"}, starts)
}

func TestRevenueSince(t *testing.T) {
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), revenueSince(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), revenueSince(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, revenueSince(time.Time{}).IsZero())
}

func TestFinMind_QuotaExceededIsEmpty(t *testing.T) {
	f := newFinMind(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"Requests reach the upper limit","status":402}`))
	})

	set := f.Fetch(context.Background(), "2330.TW")
	assert.True(t, set.IsEmpty())
	assert.Equal(t, contracts.SourceFinMind, set.Source())
}

// ============================================================================
// TWSE
// ============================================================================

const mopsHTML = `<html><body><table>
<tr><th>公司代號</th><th>公司名稱</th><th>當月營收</th></tr>
<tr><td>2330</td><td>台積電</td><td>260,009,434</td></tr>
<tr><td>合計</td><td></td><td>999</td></tr>
</table></body></html>`

func TestTWSE_Fetch(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exchangeReport/BWIBBU":
			w.Write([]byte(`{"stat":"OK","fields":["日期","殖利率(%)","股利年度","本益比","股價淨值比"],
				"data":[["114年03月13日","1.50","113","21.00","6.00"],["114年03月14日","2.10","113","-","6.20"]]}`))
		case "/nas/t21/sii/t21sc03_114_2_0.html":
			w.Write([]byte(mopsHTML))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	tw := NewTWSE(twse.NewClient(testHTTP(), logger.Nop(), server.URL, server.URL), nil, testOptions())

	set := tw.Fetch(context.Background(), "2330.TW")
	assert.Equal(t, contracts.SourceTWSE, set.Source())

	yield, ok := set.Get(contracts.DividendYield)
	require.True(t, ok)
	assert.InDelta(t, 0.021, yield, 1e-12)

	pb, _ := set.Get(contracts.PriceToBook)
	assert.Equal(t, 6.2, pb)
	assert.False(t, set.Has(contracts.PERatio), "dash is unknown")

	revenue, ok := set.Get(contracts.Revenue)
	require.True(t, ok)
	assert.Equal(t, 260009434000.0, revenue)
}

func TestTWSE_DownIsEmpty(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	tw := NewTWSE(twse.NewClient(testHTTP(), logger.Nop(), server.URL, server.URL), nil, testOptions())

	set := tw.Fetch(context.Background(), "2330.TW")
	assert.True(t, set.IsEmpty())
	assert.Equal(t, contracts.SourceTWSE, set.Source())
}

func TestBoardOf(t *testing.T) {
	assert.Equal(t, twse.BoardListed, boardOf("2330.TW"))
	assert.Equal(t, twse.BoardOTC, boardOf("6488.two"))
}

// ============================================================================
// SEC EDGAR
// ============================================================================

func TestSECEdgar_FetchAndStatement(t *testing.T) {
	server := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/company_tickers.json":
			w.Write([]byte(`{"0":{"cik_str":1067983,"ticker":"BRK-B","title":"BERKSHIRE HATHAWAY INC"}}`))
		case "/api/xbrl/companyfacts/CIK0001067983.json":
			w.Write([]byte(`{"cik":1067983,"entityName":"BERKSHIRE","facts":{"us-gaap":{
				"Revenues":{"units":{"USD":[{"end":"2024-12-31","val":371000,"fp":"FY","form":"10-K","filed":"2025-02-24"}]}},
				"EarningsPerShareDiluted":{"units":{"USD/shares":[{"end":"2024-12-31","val":41.27,"fp":"FY","form":"10-K","filed":"2025-02-24"}]}},
				"NetIncomeLoss":{"units":{"USD":[{"end":"2024-12-31","val":89000,"fp":"FY","form":"10-K","filed":"2025-02-24"}]}},
				"Assets":{"units":{"USD":[{"end":"2024-12-31","val":1150000,"fp":"FY","form":"10-K","filed":"2025-02-24"}]}},
				"StockholdersEquity":{"units":{"USD":[{"end":"2024-12-31","val":650000,"fp":"FY","form":"10-K","filed":"2025-02-24"}]}}
			}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	s := NewSECEdgar(sec.NewClient(testHTTP(), logger.Nop(), server.URL, server.URL+"/files/company_tickers.json"), testOptions())

	set := s.Fetch(context.Background(), "BRK.B")
	assert.Equal(t, map[contracts.Metric]float64{
		contracts.Revenue: 371000,
		contracts.EPS:     41.27,
	}, set.Values())

	snap := s.FetchStatement(context.Background(), "BRK.B")
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), snap.PeriodEnd)
	assert.Equal(t, 89000.0, snap.Items[contracts.NetIncome])
	assert.Equal(t, 650000.0, snap.Items[contracts.StockholdersEquity])
	_, hasDebt := snap.Get(contracts.TotalDebt)
	assert.False(t, hasDebt)

	unknown := s.Fetch(context.Background(), "ZZZZ")
	assert.True(t, unknown.IsEmpty())
	assert.Equal(t, contracts.SourceSECEdgar, unknown.Source())
}
