package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

// ErrThrottled is returned when the API answers with a rate-limit note instead of data
var ErrThrottled = errors.New("alpha vantage request throttled")

// Client handles communication with the Alpha Vantage API
// https://www.alphavantage.co/documentation/
// ⭐ SSOT: Alpha Vantage 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new Alpha Vantage client (baseURL ends in /query)
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Overview is the OVERVIEW document. Every value arrives as a string
type Overview map[string]string

// Float returns the numeric value of key ("None", "-" and empty are unknown)
func (o Overview) Float(key string) (float64, bool) {
	s := strings.TrimSpace(o[key])
	switch s {
	case "", "None", "-", "null":
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Overview fetches company fundamentals for a symbol.
// 없는 종목은 빈 객체 {} 로 응답
func (c *Client) Overview(ctx context.Context, symbol string) (Overview, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var overview Overview
	if err := json.Unmarshal(body, &overview); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overview: %w", err)
	}

	if err := throttled(overview); err != nil {
		return nil, err
	}
	return overview, nil
}

// throttled detects the note bodies the API returns with HTTP 200
func throttled(doc map[string]string) error {
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := doc[key]; ok {
			return fmt.Errorf("%w: %s", ErrThrottled, msg)
		}
	}
	if msg, ok := doc["Error Message"]; ok {
		return fmt.Errorf("alpha vantage error: %s", msg)
	}
	return nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

	body, err := c.httpClient.GetBody(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", params.Get("function"), err)
	}
	return body, nil
}
