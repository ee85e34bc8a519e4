package s2_alerts

import (
	"strings"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/metrics"
)

// Alert is one fired rule
type Alert struct {
	Rule   string           `json:"rule"`
	Metric contracts.Metric `json:"metric"`
	Value  float64          `json:"value"`
	Text   string           `json:"text"`
}

// Fired returns every rule that fires, in table order
func Fired(set contracts.MetricSet) []Alert {
	var alerts []Alert
	for _, r := range Rules {
		if !r.Matches(set) {
			continue
		}
		v, _ := set.Get(r.Metric)
		alerts = append(alerts, Alert{
			Rule:   r.Name,
			Metric: r.Metric,
			Value:  v,
			Text:   r.Render(v),
		})
	}
	return alerts
}

// Evaluate returns the newline-joined alert text ("" when nothing fires)
func Evaluate(set contracts.MetricSet) string {
	alerts := Fired(set)
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = a.Text
	}
	return strings.Join(lines, "\n")
}

// Evaluator counts fired rules while evaluating
type Evaluator struct {
	metrics *metrics.Metrics
}

// NewEvaluator creates an evaluator; m may be nil
func NewEvaluator(m *metrics.Metrics) *Evaluator {
	return &Evaluator{metrics: m}
}

// Evaluate is Evaluate with per-rule counters
func (e *Evaluator) Evaluate(set contracts.MetricSet) string {
	alerts := Fired(set)
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		e.metrics.IncAlert(a.Rule)
		lines[i] = a.Text
	}
	return strings.Join(lines, "\n")
}
