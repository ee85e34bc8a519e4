package contracts

import (
	"sort"
	"time"
)

// PriceBar is one daily OHLCV record
type PriceBar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MonthlyRevenue is revenue for one calendar month (period = first day)
type MonthlyRevenue struct {
	Ticker  string    `json:"ticker"`
	Period  time.Time `json:"period"`
	Revenue float64   `json:"revenue"`
}

// Valuation is PE/PB/yield on one trading day; nil = unknown
type Valuation struct {
	Ticker        string    `json:"ticker"`
	Date          time.Time `json:"date"`
	PERatio       *float64  `json:"pe_ratio"`
	PriceToBook   *float64  `json:"price_to_book"`
	DividendYield *float64  `json:"dividend_yield"` // fraction
}

// MarginBalance is the margin trading balance on one day
type MarginBalance struct {
	Ticker         string    `json:"ticker"`
	Date           time.Time `json:"date"`
	MarginPurchase int64     `json:"margin_purchase"`
	ShortSale      int64     `json:"short_sale"`
}

// InstitutionalFlow is net buy/sell of the three institutional investor groups
type InstitutionalFlow struct {
	Ticker     string    `json:"ticker"`
	Date       time.Time `json:"date"`
	ForeignNet int64     `json:"foreign_net"`
	TrustNet   int64     `json:"trust_net"`
	DealerNet  int64     `json:"dealer_net"`
}

// TimeSeries bundles every append-only series fetched for one ticker
type TimeSeries struct {
	Prices     []PriceBar          `json:"prices"`
	Revenue    []MonthlyRevenue    `json:"revenue"`
	Valuations []Valuation         `json:"valuations"`
	Margins    []MarginBalance     `json:"margins"`
	Flows      []InstitutionalFlow `json:"flows"`
}

// Len returns the total number of records
func (ts TimeSeries) Len() int {
	return len(ts.Prices) + len(ts.Revenue) + len(ts.Valuations) + len(ts.Margins) + len(ts.Flows)
}

// Quote is the latest close and its move against the previous close; nil = unknown
type Quote struct {
	LastPrice     *float64   `json:"last_price"`
	Change        *float64   `json:"change"`
	ChangePercent *float64   `json:"change_percent"` // fraction
	AsOf          *time.Time `json:"as_of"`
}

// QuoteFromBars derives a Quote from the last two daily bars (any input order)
func QuoteFromBars(bars []PriceBar) Quote {
	var q Quote
	if len(bars) == 0 {
		return q
	}

	sorted := make([]PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	last := sorted[len(sorted)-1]
	if last.Close <= 0 {
		return q
	}
	price, asOf := last.Close, last.Date
	q.LastPrice = &price
	q.AsOf = &asOf

	if len(sorted) < 2 {
		return q
	}
	prev := sorted[len(sorted)-2].Close
	if prev <= 0 {
		return q
	}
	change := price - prev
	pct := change / prev
	q.Change = &change
	q.ChangePercent = &pct
	return q
}
