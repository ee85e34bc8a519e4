package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/yahoo"
)

// yahooPaths resolves the quoteSummary {raw, fmt} objects.
// debtToEquity는 이미 ×100 (151.8 = 151.8%)
var yahooPaths = Candidates{
	contracts.PERatio:         {"$.summaryDetail.trailingPE.raw", "$.defaultKeyStatistics.trailingPE.raw"},
	contracts.EPS:             {"$.defaultKeyStatistics.trailingEps.raw"},
	contracts.Beta:            {"$.summaryDetail.beta.raw", "$.defaultKeyStatistics.beta.raw"},
	contracts.MarketCap:       {"$.price.marketCap.raw", "$.summaryDetail.marketCap.raw"},
	contracts.DividendYield:   {"$.summaryDetail.dividendYield.raw", "$.summaryDetail.trailingAnnualDividendYield.raw"},
	contracts.ROE:             {"$.financialData.returnOnEquity.raw"},
	contracts.ROA:             {"$.financialData.returnOnAssets.raw"},
	contracts.GrossMargin:     {"$.financialData.grossMargins.raw"},
	contracts.OperatingMargin: {"$.financialData.operatingMargins.raw"},
	contracts.ProfitMargin:    {"$.financialData.profitMargins.raw", "$.defaultKeyStatistics.profitMargins.raw"},
	contracts.DebtToEquity:    {"$.financialData.debtToEquity.raw"},
	contracts.QuickRatio:      {"$.financialData.quickRatio.raw"},
	contracts.PriceToBook:     {"$.defaultKeyStatistics.priceToBook.raw"},
	contracts.FreeCashFlow:    {"$.financialData.freeCashflow.raw"},
	contracts.Revenue:         {"$.financialData.totalRevenue.raw"},
}

// Yahoo adapts Yahoo Finance (quoteSummary + chart) for both markets
type Yahoo struct {
	base
	client *yahoo.Client
}

// NewYahoo creates the yfinance adapter
func NewYahoo(client *yahoo.Client, opts Options) *Yahoo {
	return &Yahoo{
		base:   newBase(contracts.SourceYFinance, opts),
		client: client,
	}
}

// Fetch implements contracts.MetricSource
func (y *Yahoo) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	return y.fetch(ctx, ticker, func(ctx context.Context) (map[contracts.Metric]float64, error) {
		doc, err := y.client.QuoteSummary(ctx, ticker)
		if err != nil {
			return nil, err
		}
		return yahooPaths.Extract(doc), nil
	})
}

// FetchProfile implements contracts.ProfileSource
func (y *Yahoo) FetchProfile(ctx context.Context, ticker string) contracts.CompanyProfile {
	profile := contracts.CompanyProfile{Ticker: ticker, Market: contracts.MarketOf(ticker)}

	y.call(ctx, ticker, "profile", func(ctx context.Context) error {
		doc, err := y.client.QuoteSummary(ctx, ticker)
		if err != nil {
			return err
		}

		profile.Name = LookupString(doc, "$.price.longName", "$.price.shortName")
		profile.ShortName = LookupString(doc, "$.price.shortName")
		profile.Sector = LookupString(doc, "$.assetProfile.sector")
		profile.Industry = LookupString(doc, "$.assetProfile.industry")
		profile.Description = LookupString(doc, "$.assetProfile.longBusinessSummary")
		return nil
	})

	return profile
}

// FetchEarningsDates implements contracts.EarningsSource (calendarEvents, unix seconds)
func (y *Yahoo) FetchEarningsDates(ctx context.Context, ticker string) []time.Time {
	var dates []time.Time

	y.call(ctx, ticker, "earnings", func(ctx context.Context) error {
		doc, err := y.client.QuoteSummary(ctx, ticker)
		if err != nil {
			return err
		}

		for _, ts := range LookupAll(doc, "$.calendarEvents.earnings.earningsDate[*].raw") {
			dates = append(dates, dayOf(time.Unix(int64(ts), 0).UTC()))
		}
		return nil
	})

	return dates
}

// FetchSeries implements contracts.TimeSeriesSource (daily bars only)
func (y *Yahoo) FetchSeries(ctx context.Context, ticker string, since time.Time) contracts.TimeSeries {
	var ts contracts.TimeSeries

	y.call(ctx, ticker, "series", func(ctx context.Context) error {
		bars, err := y.client.DailyBars(ctx, ticker, since, y.now())
		if err != nil {
			return fmt.Errorf("daily bars: %w", err)
		}

		for _, b := range bars {
			ts.Prices = append(ts.Prices, contracts.PriceBar{
				Ticker: ticker,
				Date:   b.Date,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}
		return nil
	})

	return ts
}
