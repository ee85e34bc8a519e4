package contracts

import "fmt"

// Discrepancy is one metric whose primary and backup values disagree beyond tolerance
type Discrepancy struct {
	Metric  Metric  `json:"metric"`
	Primary float64 `json:"primary"`
	Backup  float64 `json:"backup"`
	Diff    float64 `json:"diff"` // relative difference fraction
}

// Warning renders the discrepancy as "<metric>: diff 40.00% (primary: 0.12, backup: 0.2)"
func (d Discrepancy) Warning() string {
	return fmt.Sprintf("%s: diff %.2f%% (primary: %s, backup: %s)",
		d.Metric, d.Diff*100, FormatValue(d.Primary), FormatValue(d.Backup))
}

// ReconciliationResult is the merged set plus its warnings (sorted by metric)
type ReconciliationResult struct {
	Merged        MetricSet     `json:"merged"`
	Warnings      []string      `json:"warnings"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// HasWarnings reports whether any metric disagreed
func (r ReconciliationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}
