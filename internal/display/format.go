// Package display renders indicator values for the dashboard.
package display

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/stockdash/internal/contracts"
)

// Unknown is rendered for a missing value
const Unknown = "--"

var (
	trillion = decimal.New(1, 12)
	hundredM = decimal.New(1, 8)
	million  = decimal.New(1, 6)
	hundred  = decimal.NewFromInt(100)
)

// Revenue abbreviates a currency amount (兆/億/百萬), sign preserved
func Revenue(v *float64) string {
	if v == nil {
		return Unknown
	}

	d := decimal.NewFromFloat(*v)
	abs := d.Abs()
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}

	switch {
	case abs.GreaterThanOrEqual(trillion):
		return sign + abs.Div(trillion).StringFixed(1) + "兆"
	case abs.GreaterThanOrEqual(hundredM):
		return sign + abs.Div(hundredM).StringFixed(0) + "億"
	case abs.GreaterThanOrEqual(million):
		return sign + abs.Div(million).StringFixed(0) + "百萬"
	}
	return d.StringFixed(0)
}

// Percent renders a fraction as a percent string (0.15 → "15.00%")
func Percent(v *float64) string {
	if v == nil {
		return Unknown
	}
	return decimal.NewFromFloat(*v).Mul(hundred).StringFixed(2) + "%"
}

// Number renders a plain ratio with two decimals
func Number(v *float64) string {
	if v == nil {
		return Unknown
	}
	return decimal.NewFromFloat(*v).StringFixed(2)
}

// Metric picks the formatter for m
func Metric(m contracts.Metric, v *float64) string {
	switch {
	case m.IsFraction():
		return Percent(v)
	case m.IsCurrency():
		return Revenue(v)
	}
	return Number(v)
}

// Set renders every vocabulary metric of set; unknown metrics render as "--"
func Set(set contracts.MetricSet) map[contracts.Metric]string {
	out := make(map[contracts.Metric]string, len(contracts.AllMetrics))
	for _, m := range contracts.AllMetrics {
		if v, ok := set.Get(m); ok {
			out[m] = Metric(m, &v)
		} else {
			out[m] = Metric(m, nil)
		}
	}
	return out
}
