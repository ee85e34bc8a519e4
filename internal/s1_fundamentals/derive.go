package s1_fundamentals

import (
	"github.com/wonny/stockdash/internal/contracts"
)

// ratioRule derives one metric as numerator/denominator × scale
type ratioRule struct {
	target      contracts.Metric
	numerator   contracts.LineItem
	denominator contracts.LineItem
	scale       float64
}

// ⭐ SSOT: 재무제표 기반 비율 계산 규칙
var ratioRules = []ratioRule{
	{contracts.ROE, contracts.NetIncome, contracts.StockholdersEquity, 1},
	{contracts.ROA, contracts.NetIncome, contracts.TotalAssets, 1},
	{contracts.ProfitMargin, contracts.NetIncome, contracts.TotalRevenue, 1},
	// 부채비율은 0~300 범위의 퍼센트 값으로 저장
	{contracts.DebtToEquity, contracts.TotalDebt, contracts.StockholdersEquity, 100},
}

// Derive fills ratios that are unknown in set from the statement line items.
// Known values are never overwritten; each ratio is independent.
func Derive(set contracts.MetricSet, stmt contracts.StatementSnapshot) contracts.MetricSet {
	out := set
	for _, rule := range ratioRules {
		if out.Has(rule.target) {
			continue
		}
		if v, ok := ratio(stmt, rule); ok {
			out = out.With(rule.target, v)
		}
	}
	return out
}

// DeriveRatio computes a single ratio; false means unknown
func DeriveRatio(target contracts.Metric, stmt contracts.StatementSnapshot) (float64, bool) {
	for _, rule := range ratioRules {
		if rule.target == target {
			return ratio(stmt, rule)
		}
	}
	return 0, false
}

func ratio(stmt contracts.StatementSnapshot, rule ratioRule) (float64, bool) {
	num, ok := stmt.Get(rule.numerator)
	if !ok {
		return 0, false
	}
	den, ok := stmt.Get(rule.denominator)
	if !ok || den == 0 {
		return 0, false
	}
	return num / den * rule.scale, true
}
