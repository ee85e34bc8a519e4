package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

// summaryModules are the quoteSummary modules the adapter reads
var summaryModules = []string{
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
	"assetProfile",
	"calendarEvents",
}

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]interface{} `json:"result"`
		Error  *apiError                `json:"error"`
	} `json:"quoteSummary"`
}

// QuoteSummary returns the raw quoteSummary document of one ticker.
// 값은 {"raw": 0.15, "fmt": "15.00%"} 형태
func (c *Client) QuoteSummary(ctx context.Context, ticker string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("modules", strings.Join(summaryModules, ","))
	fullURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp quoteSummaryResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, err)
	}

	if e := resp.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("quoteSummary %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quoteSummary %s: empty result", ticker)
	}

	return resp.QuoteSummary.Result[0], nil
}

// Bar is one daily OHLCV row of the chart API
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches daily bars in [from, to]
func (c *Client) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", from.Unix()))
	params.Set("period2", fmt.Sprintf("%d", to.Unix()))
	params.Set("interval", "1d")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("chart %s: %w", ticker, err)
	}

	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	q := result.Indicators.Quote[0]

	var bars []Bar
	for i, ts := range result.Timestamp {
		// 휴장/미체결 행은 null
		if i >= len(q.Close) || q.Close[i] == nil || i >= len(q.Open) || q.Open[i] == nil ||
			i >= len(q.High) || q.High[i] == nil || i >= len(q.Low) || q.Low[i] == nil {
			continue
		}

		var volume int64
		if i < len(q.Volume) && q.Volume[i] != nil {
			volume = *q.Volume[i]
		}

		t := time.Unix(ts, 0).UTC()
		bars = append(bars, Bar{
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   *q.Open[i],
			High:   *q.High[i],
			Low:    *q.Low[i],
			Close:  *q.Close[i],
			Volume: volume,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}
