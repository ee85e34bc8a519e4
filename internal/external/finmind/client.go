package finmind

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

// FinMind v4 datasets
const (
	DatasetPER                   = "TaiwanStockPER"
	DatasetMonthRevenue          = "TaiwanStockMonthRevenue"
	DatasetFinancialStatements   = "TaiwanStockFinancialStatements"
	DatasetBalanceSheet          = "TaiwanStockBalanceSheet"
	DatasetStockInfo             = "TaiwanStockInfo"
	DatasetMarginPurchase        = "TaiwanStockMarginPurchaseShortSale"
	DatasetInstitutionalInvestor = "TaiwanStockInstitutionalInvestorsBuySell"
	DatasetPrice                 = "TaiwanStockPrice"
)

// Client handles communication with the FinMind open data API
// ⭐ SSOT: FinMind API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
}

// NewClient creates a new FinMind client (token optional, raises the quota)
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, token string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type envelope struct {
	Msg    string          `json:"msg"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// fetch calls /data for one dataset and decodes the data array into dest
func (c *Client) fetch(ctx context.Context, dataset, stockID string, start time.Time, dest interface{}) error {
	params := url.Values{}
	params.Set("dataset", dataset)
	if stockID != "" {
		params.Set("data_id", stockID)
	}
	if !start.IsZero() {
		params.Set("start_date", start.Format("2006-01-02"))
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	var env envelope
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/data?%s", c.baseURL, params.Encode()), &env); err != nil {
		return fmt.Errorf("%s %s: %w", dataset, stockID, err)
	}

	// 402 = 사용량 초과
	if env.Status != 200 {
		return fmt.Errorf("%s %s: status %d: %s", dataset, stockID, env.Status, env.Msg)
	}

	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", dataset, stockID, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"dataset":  dataset,
		"stock_id": stockID,
	}).Debug("Fetched FinMind dataset")

	return nil
}

// ParseDate parses FinMind's "2006-01-02" dates
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
