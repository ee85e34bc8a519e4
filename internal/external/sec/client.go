package sec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/redis"
)

// Client handles communication with SEC EDGAR (XBRL company facts)
// ⭐ SSOT: SEC EDGAR 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	tickersURL string
	cache      *redis.Cache

	mu      sync.Mutex
	tickers map[string]Company
}

// Company is one entry of company_tickers.json
type Company struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// NewClient creates a new SEC client. httpClient must carry a descriptive User-Agent
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, tickersURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tickersURL: tickersURL,
	}
}

// WithCache shares the ticker→CIK table through Redis
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// Lookup resolves a ticker to its company entry
func (c *Client) Lookup(ctx context.Context, ticker string) (Company, error) {
	tickers, err := c.tickerMap(ctx)
	if err != nil {
		return Company{}, err
	}

	company, ok := tickers[strings.ToUpper(ticker)]
	if !ok {
		return Company{}, fmt.Errorf("ticker %s not registered with SEC", ticker)
	}
	return company, nil
}

// tickerMap loads company_tickers.json once per process (and via Redis when enabled)
func (c *Client) tickerMap(ctx context.Context) (map[string]Company, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickers != nil {
		return c.tickers, nil
	}

	load := func() (interface{}, error) {
		var raw map[string]Company
		if err := c.httpClient.GetJSON(ctx, c.tickersURL, &raw); err != nil {
			return nil, fmt.Errorf("company tickers: %w", err)
		}

		byTicker := make(map[string]Company, len(raw))
		for _, company := range raw {
			byTicker[strings.ToUpper(company.Ticker)] = company
		}
		return byTicker, nil
	}

	var tickers map[string]Company
	if c.cache != nil {
		if err := c.cache.GetOrSet(ctx, redis.CIKMapKey(), &tickers, redis.TTLDaily, load); err != nil {
			return nil, err
		}
	} else {
		v, err := load()
		if err != nil {
			return nil, err
		}
		tickers = v.(map[string]Company)
	}

	c.logger.WithField("count", len(tickers)).Debug("Loaded SEC ticker map")
	c.tickers = tickers
	return tickers, nil
}
