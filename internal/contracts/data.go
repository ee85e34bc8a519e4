package contracts

import (
	"sort"
	"time"
)

// CoverageSnapshot is the share of watchlist stocks with each indicator known
// ⭐ SSOT: 지표 커버리지 리포트
type CoverageSnapshot struct {
	Date        time.Time          `json:"date"`
	TotalStocks int                `json:"total_stocks"`
	Coverage    map[Metric]float64 `json:"coverage"` // 0.0 ~ 1.0
}

// CoverageRate returns the average coverage across metrics
func (c *CoverageSnapshot) CoverageRate() float64 {
	if len(c.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range c.Coverage {
		total += rate
	}

	return total / float64(len(c.Coverage))
}

// Below returns metrics whose coverage is under threshold, sorted by name
func (c *CoverageSnapshot) Below(threshold float64) []Metric {
	var out []Metric
	for m, rate := range c.Coverage {
		if rate < threshold {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
