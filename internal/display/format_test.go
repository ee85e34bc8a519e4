package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/stockdash/internal/contracts"
)

func ptr(v float64) *float64 { return &v }

func TestRevenue(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "--"},
		{ptr(2_345_000_000_000), "2.3兆"},
		{ptr(-1_500_000_000_000), "-1.5兆"},
		{ptr(123_456_789_000), "1235億"},
		{ptr(260_000_000), "3億"},
		{ptr(12_345_678), "12百萬"},
		{ptr(-2_000_000), "-2百萬"},
		{ptr(999_999), "999999"},
		{ptr(0), "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Revenue(tt.in))
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "15.00%", Percent(ptr(0.15)))
	assert.Equal(t, "-3.25%", Percent(ptr(-0.0325)))
	assert.Equal(t, "--", Percent(nil))
}

func TestSet(t *testing.T) {
	set := contracts.NewMetricSet(contracts.SourceYFinance, map[contracts.Metric]float64{
		contracts.PERatio: 18.456,
		contracts.ROE:     0.2,
		contracts.Revenue: 2_000_000_000_000,
	})

	got := Set(set)
	assert.Len(t, got, len(contracts.AllMetrics))
	assert.Equal(t, "18.46", got[contracts.PERatio])
	assert.Equal(t, "20.00%", got[contracts.ROE])
	assert.Equal(t, "2.0兆", got[contracts.Revenue])
	assert.Equal(t, "--", got[contracts.Beta])
}
