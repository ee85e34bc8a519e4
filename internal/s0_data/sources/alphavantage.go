package sources

import (
	"context"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/alphavantage"
)

// overviewFields maps OVERVIEW keys onto the vocabulary (values already fractions)
var overviewFields = map[contracts.Metric]string{
	contracts.PERatio:         "PERatio",
	contracts.EPS:             "EPS",
	contracts.Beta:            "Beta",
	contracts.MarketCap:       "MarketCapitalization",
	contracts.DividendYield:   "DividendYield",
	contracts.ROE:             "ReturnOnEquityTTM",
	contracts.ROA:             "ReturnOnAssetsTTM",
	contracts.OperatingMargin: "OperatingMarginTTM",
	contracts.ProfitMargin:    "ProfitMargin",
	contracts.PriceToBook:     "PriceToBookRatio",
	contracts.Revenue:         "RevenueTTM",
}

// AlphaVantage adapts the Alpha Vantage OVERVIEW and EARNINGS_CALENDAR endpoints (US only)
type AlphaVantage struct {
	base
	client *alphavantage.Client
}

// NewAlphaVantage creates the alpha_vantage adapter
func NewAlphaVantage(client *alphavantage.Client, opts Options) *AlphaVantage {
	return &AlphaVantage{
		base:   newBase(contracts.SourceAlphaVantage, opts),
		client: client,
	}
}

// Fetch implements contracts.MetricSource
func (a *AlphaVantage) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	return a.fetch(ctx, ticker, func(ctx context.Context) (map[contracts.Metric]float64, error) {
		overview, err := a.client.Overview(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return overviewMetrics(overview), nil
	})
}

func overviewMetrics(overview alphavantage.Overview) map[contracts.Metric]float64 {
	values := make(map[contracts.Metric]float64, len(overviewFields)+1)
	for metric, field := range overviewFields {
		if v, ok := overview.Float(field); ok {
			values[metric] = v
		}
	}

	// gross margin = GrossProfitTTM / RevenueTTM
	gross, okGross := overview.Float("GrossProfitTTM")
	revenue, okRevenue := overview.Float("RevenueTTM")
	if okGross && okRevenue && revenue != 0 {
		values[contracts.GrossMargin] = gross / revenue
	}
	return values
}

// FetchProfile implements contracts.ProfileSource
func (a *AlphaVantage) FetchProfile(ctx context.Context, ticker string) contracts.CompanyProfile {
	profile := contracts.CompanyProfile{Ticker: ticker, Market: contracts.MarketOf(ticker)}

	a.call(ctx, ticker, "profile", func(ctx context.Context) error {
		overview, err := a.client.Overview(ctx, ticker)
		if err != nil {
			return err
		}
		profile.Name = overview["Name"]
		profile.Sector = overview["Sector"]
		profile.Industry = overview["Industry"]
		profile.Description = overview["Description"]
		return nil
	})

	return profile
}

// FetchEarningsDates implements contracts.EarningsSource
func (a *AlphaVantage) FetchEarningsDates(ctx context.Context, ticker string) []time.Time {
	var dates []time.Time

	a.call(ctx, ticker, "earnings", func(ctx context.Context) error {
		events, err := a.client.EarningsCalendar(ctx, ticker, "12month")
		if err != nil {
			return err
		}
		for _, e := range events {
			dates = append(dates, e.ReportDate)
		}
		return nil
	})

	return dates
}
