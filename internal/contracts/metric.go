package contracts

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when no provider produced any metric for a ticker
var ErrNoData = errors.New("no data available for this refresh cycle")

// Metric is a key of the shared indicator vocabulary
// ⭐ SSOT: 지표 이름은 여기서만 정의
type Metric string

const (
	PERatio         Metric = "pe_ratio"
	EPS             Metric = "eps"
	Beta            Metric = "beta"
	MarketCap       Metric = "market_cap"
	DividendYield   Metric = "dividend_yield"
	ROE             Metric = "roe"
	ROA             Metric = "roa"
	GrossMargin     Metric = "gross_margin"
	OperatingMargin Metric = "operating_margin"
	ProfitMargin    Metric = "profit_margin"
	DebtToEquity    Metric = "debt_to_equity"
	QuickRatio      Metric = "quick_ratio"
	PriceToBook     Metric = "price_to_book"
	FreeCashFlow    Metric = "free_cash_flow"
	Revenue         Metric = "revenue"
)

// AllMetrics lists the vocabulary in display order
var AllMetrics = []Metric{
	PERatio, EPS, Beta, MarketCap, DividendYield,
	ROE, ROA, GrossMargin, OperatingMargin, ProfitMargin,
	DebtToEquity, QuickRatio, PriceToBook, FreeCashFlow, Revenue,
}

var knownMetrics = func() map[Metric]bool {
	m := make(map[Metric]bool, len(AllMetrics))
	for _, k := range AllMetrics {
		m[k] = true
	}
	return m
}()

// Valid reports whether m belongs to the vocabulary
func (m Metric) Valid() bool {
	return knownMetrics[m]
}

// IsFraction reports whether the metric is a decimal fraction (0.15 = 15%)
func (m Metric) IsFraction() bool {
	switch m {
	case DividendYield, ROE, ROA, GrossMargin, OperatingMargin, ProfitMargin:
		return true
	}
	return false
}

// IsCurrency reports whether the metric is a currency amount in provider units
func (m Metric) IsCurrency() bool {
	switch m {
	case MarketCap, FreeCashFlow, Revenue:
		return true
	}
	return false
}

// Source identifies a data provider
type Source string

const (
	SourceFinMind      Source = "finmind"
	SourceYFinance     Source = "yfinance"
	SourceTWSE         Source = "twse"
	SourceSECEdgar     Source = "sec_edgar"
	SourceAlphaVantage Source = "alpha_vantage"
)

// AllSources lists every provider id
var AllSources = []Source{
	SourceFinMind, SourceYFinance, SourceTWSE, SourceSECEdgar, SourceAlphaVantage,
}

// ParseSource validates a provider id
func ParseSource(s string) (Source, error) {
	for _, src := range AllSources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}
