package twse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

// rocOffset converts a 民國 year to the Gregorian year
const rocOffset = 1911

// Client handles communication with TWSE and MOPS
// ⭐ SSOT: TWSE/MOPS 호출은 이 클라이언트에서만 (민국 연도 변환 포함)
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	mopsURL    string
}

// NewClient creates a new TWSE client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, mopsURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		mopsURL:    strings.TrimRight(mopsURL, "/"),
	}
}

var rocDatePattern = regexp.MustCompile(`^(\d{2,3})\D(\d{1,2})\D(\d{1,2})\D?$`)

// ParseROCDate parses "114/01/02" or "114年01月02日" into a Gregorian date
func ParseROCDate(s string) (time.Time, error) {
	m := rocDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid ROC date %q", s)
	}

	return time.Date(year+rocOffset, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ROCYear converts a Gregorian year to 民國
func ROCYear(year int) int {
	return year - rocOffset
}

// parseNumber parses "1,234.5"; "-", "--" and "" are unknown
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" || s == "--" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
