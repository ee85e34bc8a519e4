// Package s2_alerts evaluates the fixed threshold rule table over an indicator set.
package s2_alerts

import (
	"fmt"

	"github.com/wonny/stockdash/internal/contracts"
)

// Comparison is the strict operator of a rule
type Comparison int

const (
	Above Comparison = iota // value > threshold
	Below                   // value < threshold
)

// Rule is a pure threshold predicate with its message
type Rule struct {
	Name      string
	Metric    contracts.Metric
	Op        Comparison
	Threshold float64
	Message   string
}

// Matches reports whether the rule fires; unknown operand never fires
func (r Rule) Matches(set contracts.MetricSet) bool {
	v, ok := set.Get(r.Metric)
	if !ok {
		return false
	}
	switch r.Op {
	case Above:
		return v > r.Threshold
	case Below:
		return v < r.Threshold
	}
	return false
}

// Render formats the alert line for value v
func (r Rule) Render(v float64) string {
	op := ">"
	if r.Op == Below {
		op = "<"
	}
	return fmt.Sprintf("%s (%s %s %s %s)",
		r.Message, r.Metric, contracts.FormatValue(v), op, contracts.FormatValue(r.Threshold))
}

// Rules is the versioned rule table, evaluated in order
// ⭐ SSOT: 알림 규칙은 코드로만 관리 (런타임 편집 없음)
var Rules = []Rule{
	{Name: "high_leverage", Metric: contracts.DebtToEquity, Op: Above, Threshold: 200, Message: "High leverage"},
	{Name: "liquidity_risk", Metric: contracts.QuickRatio, Op: Below, Threshold: 0.5, Message: "Liquidity risk"},
	{Name: "negative_roe", Metric: contracts.ROE, Op: Below, Threshold: 0, Message: "Negative return on equity"},
	{Name: "negative_fcf", Metric: contracts.FreeCashFlow, Op: Below, Threshold: 0, Message: "Negative free cash flow"},
	{Name: "valuation_stretched", Metric: contracts.PERatio, Op: Above, Threshold: 50, Message: "Valuation stretched"},
	{Name: "core_business_loss", Metric: contracts.OperatingMargin, Op: Below, Threshold: 0, Message: "Core-business loss"},
	{Name: "high_volatility", Metric: contracts.Beta, Op: Above, Threshold: 2, Message: "High volatility"},
}
