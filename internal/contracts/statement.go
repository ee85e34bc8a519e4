package contracts

import "time"

// LineItem is a raw financial statement line used for ratio derivation
type LineItem string

const (
	NetIncome          LineItem = "net_income"
	TotalRevenue       LineItem = "total_revenue"
	TotalAssets        LineItem = "total_assets"
	StockholdersEquity LineItem = "stockholders_equity"
	TotalDebt          LineItem = "total_debt"
)

// StatementSnapshot holds the latest reporting period of one entity.
// 없는 항목 = unknown
type StatementSnapshot struct {
	Ticker    string               `json:"ticker"`
	Source    Source               `json:"source"`
	PeriodEnd time.Time            `json:"period_end"`
	Items     map[LineItem]float64 `json:"items"`
}

// NewStatementSnapshot creates an empty snapshot
func NewStatementSnapshot(ticker string, source Source) StatementSnapshot {
	return StatementSnapshot{
		Ticker: ticker,
		Source: source,
		Items:  make(map[LineItem]float64),
	}
}

// Get returns the line item and whether it is known
func (s StatementSnapshot) Get(item LineItem) (float64, bool) {
	v, ok := s.Items[item]
	return v, ok
}

// IsEmpty reports whether no line item is known
func (s StatementSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
