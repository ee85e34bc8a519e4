package s1_fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/internal/contracts"
)

func stmt(items map[contracts.LineItem]float64) contracts.StatementSnapshot {
	s := contracts.NewStatementSnapshot("AAPL", contracts.SourceSECEdgar)
	for k, v := range items {
		s.Items[k] = v
	}
	return s
}

func TestDerive_DebtToEquity(t *testing.T) {
	got := Derive(contracts.EmptyMetricSet(contracts.SourceFinMind), stmt(map[contracts.LineItem]float64{
		contracts.TotalDebt:          300,
		contracts.StockholdersEquity: 100,
	}))

	v, ok := got.Get(contracts.DebtToEquity)
	require.True(t, ok)
	assert.Equal(t, 300.0, v)
}

func TestDerive_AllRatios(t *testing.T) {
	got := Derive(contracts.EmptyMetricSet(contracts.SourceSECEdgar), stmt(map[contracts.LineItem]float64{
		contracts.NetIncome:          20,
		contracts.StockholdersEquity: 100,
		contracts.TotalAssets:        400,
		contracts.TotalRevenue:       80,
		contracts.TotalDebt:          50,
	}))

	assert.Equal(t, map[contracts.Metric]float64{
		contracts.ROE:          0.2,
		contracts.ROA:          0.05,
		contracts.ProfitMargin: 0.25,
		contracts.DebtToEquity: 50,
	}, got.Values())
	assert.Equal(t, contracts.SourceSECEdgar, got.Source())
}

func TestDerive_KnownValuesKept(t *testing.T) {
	base := contracts.NewMetricSet(contracts.SourceYFinance, map[contracts.Metric]float64{
		contracts.ROE: 0.31,
	})

	got := Derive(base, stmt(map[contracts.LineItem]float64{
		contracts.NetIncome:          10,
		contracts.StockholdersEquity: 100,
	}))

	roe, _ := got.Get(contracts.ROE)
	assert.Equal(t, 0.31, roe)
	assert.False(t, base.Has(contracts.DebtToEquity))
}

func TestDerive_NullPropagation(t *testing.T) {
	tests := []struct {
		name   string
		items  map[contracts.LineItem]float64
		target contracts.Metric
	}{
		{"missing net income", map[contracts.LineItem]float64{contracts.StockholdersEquity: 100}, contracts.ROE},
		{"zero equity", map[contracts.LineItem]float64{contracts.NetIncome: 10, contracts.StockholdersEquity: 0}, contracts.ROE},
		{"missing assets", map[contracts.LineItem]float64{contracts.NetIncome: 10}, contracts.ROA},
		{"zero revenue", map[contracts.LineItem]float64{contracts.NetIncome: 10, contracts.TotalRevenue: 0}, contracts.ProfitMargin},
		{"missing debt", map[contracts.LineItem]float64{contracts.StockholdersEquity: 100}, contracts.DebtToEquity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DeriveRatio(tt.target, stmt(tt.items))
			assert.False(t, ok)

			got := Derive(contracts.EmptyMetricSet(contracts.SourceFinMind), stmt(tt.items))
			assert.False(t, got.Has(tt.target))
		})
	}
}

func TestDerive_IndependentRatios(t *testing.T) {
	// equity 없음 → ROE, D/E unknown 이지만 ROA, margin 은 계산
	got := Derive(contracts.EmptyMetricSet(contracts.SourceFinMind), stmt(map[contracts.LineItem]float64{
		contracts.NetIncome:    10,
		contracts.TotalAssets:  200,
		contracts.TotalRevenue: 100,
		contracts.TotalDebt:    50,
	}))

	assert.False(t, got.Has(contracts.ROE))
	assert.False(t, got.Has(contracts.DebtToEquity))
	roa, _ := got.Get(contracts.ROA)
	assert.Equal(t, 0.05, roa)
	margin, _ := got.Get(contracts.ProfitMargin)
	assert.Equal(t, 0.1, margin)
}

func TestDeriveRatio_UnsupportedTarget(t *testing.T) {
	_, ok := DeriveRatio(contracts.PERatio, stmt(map[contracts.LineItem]float64{contracts.NetIncome: 1}))
	assert.False(t, ok)
}
