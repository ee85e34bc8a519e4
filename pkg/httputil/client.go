package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/stockdash/pkg/config"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/redis"
)

const defaultTimeout = 30 * time.Second

// Client is the outbound HTTP client of every provider adapter:
// default headers, in-process and shared throttling, retry on 5xx/429
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	headers     http.Header

	// 프로세스 내 limiter + Redis 공유 quota
	limiter   *rate.Limiter
	shared    *redis.RateLimiter
	sharedCfg redis.RateLimitConfig
}

// RetryConfig controls the exponential backoff of idempotent requests
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// New creates a client with a 30s timeout and 3 retries.
// cfg.Providers.Timeout가 있으면 그 값을 사용
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := defaultTimeout
	if cfg != nil && cfg.Providers.Timeout > 0 {
		timeout = cfg.Providers.Timeout
	}
	return NewWithTimeout(cfg, log, timeout)
}

// NewWithTimeout creates a client with an explicit timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		headers:    make(http.Header),
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// WithRetry enables retry with maxRetries attempts after the first
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry sends every request once
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithHeader adds a header sent with every request (User-Agent, Referer, ...)
func (c *Client) WithHeader(key, value string) *Client {
	c.headers.Set(key, value)
	return c
}

// WithLimit throttles this client in-process to rps requests per second
func (c *Client) WithLimit(rps float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithRateLimiter applies a provider quota shared through Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.shared = limiter
	c.sharedCfg = cfg
	return c
}

// Get performs a GET request; the caller closes the body
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

// GetBody returns the body of a 2xx response
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// GetJSON decodes a 2xx JSON response into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode JSON from %s: %w", url, err)
	}
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if c.shared != nil {
		if err := c.shared.Wait(ctx, c.sharedCfg); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	for key, values := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header[key] = values
		}
	}

	log := c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	start := time.Now()

	var (
		resp *http.Response
		err  error
	)
	if c.retryConfig.Enabled && req.Body == nil {
		resp, err = c.doWithRetry(req, log)
	} else {
		if err = c.wait(req.Context()); err == nil {
			resp, err = c.httpClient.Do(req)
		}
	}

	if err != nil {
		log.WithField("duration", time.Since(start)).WithError(err).Error("HTTP request failed")
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")
	return resp, nil
}

// doWithRetry takes a throttle slot per attempt; 마지막 시도의 응답은 그대로 반환
func (c *Client) doWithRetry(req *http.Request, log *logger.Logger) (*http.Response, error) {
	delay := c.retryConfig.InitialDelay

	for attempt := 0; ; attempt++ {
		if err := c.wait(req.Context()); err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.retryConfig.MaxRetries || req.Context().Err() != nil {
			return resp, err
		}

		wait := delay
		if resp != nil {
			wait = retryDelay(resp, delay, c.retryConfig.MaxDelay)
			resp.Body.Close()
		}
		log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   wait,
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}

		delay *= 2
		if c.retryConfig.MaxDelay > 0 && delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}
}

// retryDelay honours a Retry-After header in seconds, capped at ceiling
func retryDelay(resp *http.Response, fallback, ceiling time.Duration) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return fallback
	}
	d := time.Duration(secs) * time.Second
	if ceiling > 0 && d > ceiling {
		return ceiling
	}
	return d
}

// IsRetryableError reports whether a status is worth retrying (5xx, 429)
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
