package contracts

import (
	"testing"
	"time"
)

func TestCoverageSnapshot_CoverageRate(t *testing.T) {
	tests := []struct {
		name     string
		snapshot CoverageSnapshot
		want     float64
	}{
		{
			name: "average of metrics",
			snapshot: CoverageSnapshot{
				Date:        time.Now(),
				TotalStocks: 10,
				Coverage:    map[Metric]float64{PERatio: 1.0, ROE: 0.5},
			},
			want: 0.75,
		},
		{
			name:     "no coverage",
			snapshot: CoverageSnapshot{TotalStocks: 10},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.CoverageRate(); got != tt.want {
				t.Errorf("CoverageRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoverageSnapshot_Below(t *testing.T) {
	snapshot := CoverageSnapshot{
		Coverage: map[Metric]float64{
			PERatio:      0.9,
			QuickRatio:   0.2,
			FreeCashFlow: 0.4,
		},
	}

	got := snapshot.Below(0.5)
	if len(got) != 2 || got[0] != FreeCashFlow || got[1] != QuickRatio {
		t.Errorf("Below(0.5) = %v, want [free_cash_flow quick_ratio]", got)
	}
}
