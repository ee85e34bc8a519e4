// Package s1_fundamentals merges per-source metric sets into one indicator set.
package s1_fundamentals

import (
	"math"
	"sort"

	"github.com/wonny/stockdash/internal/contracts"
)

// DefaultTolerance is the relative difference above which two sources disagree
const DefaultTolerance = 0.05

// Reconcile merges primary and backup (primary wins) and flags disagreements.
// ⭐ SSOT: 소스 간 병합 규칙은 여기서만
//
// 양쪽 다 값이 있고 둘 다 0이 아닐 때만 비교. 0이면 상대오차가 정의되지 않으므로 비교 생략
func Reconcile(primary, backup contracts.MetricSet, tolerance float64) contracts.ReconciliationResult {
	merged := backup.Values()
	for k, v := range primary.Values() {
		merged[k] = v
	}

	var discrepancies []contracts.Discrepancy
	for _, k := range primary.Keys() {
		p, _ := primary.Get(k)
		b, ok := backup.Get(k)
		if !ok || p == 0 || b == 0 {
			continue
		}

		diff := math.Abs(p-b) / math.Max(math.Abs(p), math.Abs(b))
		if diff > tolerance {
			discrepancies = append(discrepancies, contracts.Discrepancy{
				Metric:  k,
				Primary: p,
				Backup:  b,
				Diff:    diff,
			})
		}
	}

	return newResult(contracts.NewMetricSet(primary.Source(), merged), discrepancies)
}

func newResult(merged contracts.MetricSet, discrepancies []contracts.Discrepancy) contracts.ReconciliationResult {
	sort.SliceStable(discrepancies, func(i, j int) bool {
		return discrepancies[i].Metric < discrepancies[j].Metric
	})

	warnings := make([]string, 0, len(discrepancies))
	for _, d := range discrepancies {
		warnings = append(warnings, d.Warning())
	}

	return contracts.ReconciliationResult{
		Merged:        merged,
		Warnings:      warnings,
		Discrepancies: discrepancies,
	}
}

// Reconciler binds the configured tolerance
type Reconciler struct {
	tolerance float64
}

// NewReconciler creates a reconciler; a negative tolerance falls back to the default
func NewReconciler(tolerance float64) *Reconciler {
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = DefaultTolerance
	}
	return &Reconciler{tolerance: tolerance}
}

// Tolerance returns the configured tolerance
func (r *Reconciler) Tolerance() float64 {
	return r.tolerance
}

// Reconcile merges one primary/backup pair
func (r *Reconciler) Reconcile(primary, backup contracts.MetricSet) contracts.ReconciliationResult {
	return Reconcile(primary, backup, r.tolerance)
}

// ReconcileAll folds backups into primary in priority order; the result keeps
// the primary's source tag. 각 단계의 병합 결과가 다음 단계의 primary가 됨
func (r *Reconciler) ReconcileAll(primary contracts.MetricSet, backups ...contracts.MetricSet) contracts.ReconciliationResult {
	acc := primary
	var discrepancies []contracts.Discrepancy
	for _, next := range backups {
		step := Reconcile(acc, next, r.tolerance)
		acc = step.Merged
		discrepancies = append(discrepancies, step.Discrepancies...)
	}

	return newResult(acc, discrepancies)
}
