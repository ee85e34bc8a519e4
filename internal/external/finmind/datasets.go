package finmind

import (
	"context"
	"time"
)

// PERRow is one day of TaiwanStockPER (dividend_yield in %)
type PERRow struct {
	Date          string  `json:"date"`
	StockID       string  `json:"stock_id"`
	DividendYield float64 `json:"dividend_yield"`
	PER           float64 `json:"PER"`
	PBR           float64 `json:"PBR"`
}

// RevenueRow is one month of TaiwanStockMonthRevenue (NTD)
type RevenueRow struct {
	Date         string  `json:"date"`
	StockID      string  `json:"stock_id"`
	Revenue      float64 `json:"revenue"`
	RevenueMonth int     `json:"revenue_month"`
	RevenueYear  int     `json:"revenue_year"`
}

// StatementRow is one line item of a statement dataset
type StatementRow struct {
	Date       string  `json:"date"`
	StockID    string  `json:"stock_id"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	OriginName string  `json:"origin_name"`
}

// InfoRow is one row of TaiwanStockInfo
type InfoRow struct {
	IndustryCategory string `json:"industry_category"`
	StockID          string `json:"stock_id"`
	StockName        string `json:"stock_name"`
	Type             string `json:"type"` // twse, tpex
	Date             string `json:"date"`
}

// MarginRow is one day of TaiwanStockMarginPurchaseShortSale
type MarginRow struct {
	Date                       string `json:"date"`
	StockID                    string `json:"stock_id"`
	MarginPurchaseTodayBalance int64  `json:"MarginPurchaseTodayBalance"`
	ShortSaleTodayBalance      int64  `json:"ShortSaleTodayBalance"`
}

// InstitutionalRow is one investor group's trading on one day
type InstitutionalRow struct {
	Date    string `json:"date"`
	StockID string `json:"stock_id"`
	Buy     int64  `json:"buy"`
	Sell    int64  `json:"sell"`
	Name    string `json:"name"` // Foreign_Investor, Investment_Trust, Dealer_self, ...
}

// PriceRow is one day of TaiwanStockPrice
type PriceRow struct {
	Date          string  `json:"date"`
	StockID       string  `json:"stock_id"`
	TradingVolume int64   `json:"Trading_Volume"`
	Open          float64 `json:"open"`
	Max           float64 `json:"max"`
	Min           float64 `json:"min"`
	Close         float64 `json:"close"`
}

// PER fetches daily PER/PBR/yield since start
func (c *Client) PER(ctx context.Context, stockID string, start time.Time) ([]PERRow, error) {
	var rows []PERRow
	err := c.fetch(ctx, DatasetPER, stockID, start, &rows)
	return rows, err
}

// MonthRevenue fetches monthly revenue since start
func (c *Client) MonthRevenue(ctx context.Context, stockID string, start time.Time) ([]RevenueRow, error) {
	var rows []RevenueRow
	err := c.fetch(ctx, DatasetMonthRevenue, stockID, start, &rows)
	return rows, err
}

// FinancialStatements fetches income statement line items since start
func (c *Client) FinancialStatements(ctx context.Context, stockID string, start time.Time) ([]StatementRow, error) {
	var rows []StatementRow
	err := c.fetch(ctx, DatasetFinancialStatements, stockID, start, &rows)
	return rows, err
}

// BalanceSheet fetches balance sheet line items since start
func (c *Client) BalanceSheet(ctx context.Context, stockID string, start time.Time) ([]StatementRow, error) {
	var rows []StatementRow
	err := c.fetch(ctx, DatasetBalanceSheet, stockID, start, &rows)
	return rows, err
}

// StockInfo fetches the listing info of one stock
func (c *Client) StockInfo(ctx context.Context, stockID string) ([]InfoRow, error) {
	var rows []InfoRow
	err := c.fetch(ctx, DatasetStockInfo, stockID, time.Time{}, &rows)
	return rows, err
}

// MarginPurchase fetches margin trading balances since start
func (c *Client) MarginPurchase(ctx context.Context, stockID string, start time.Time) ([]MarginRow, error) {
	var rows []MarginRow
	err := c.fetch(ctx, DatasetMarginPurchase, stockID, start, &rows)
	return rows, err
}

// Institutional fetches institutional investor trading since start
func (c *Client) Institutional(ctx context.Context, stockID string, start time.Time) ([]InstitutionalRow, error) {
	var rows []InstitutionalRow
	err := c.fetch(ctx, DatasetInstitutionalInvestor, stockID, start, &rows)
	return rows, err
}

// Prices fetches daily prices since start
func (c *Client) Prices(ctx context.Context, stockID string, start time.Time) ([]PriceRow, error) {
	var rows []PriceRow
	err := c.fetch(ctx, DatasetPrice, stockID, start, &rows)
	return rows, err
}

// LatestPeriod returns the rows of the most recent statement date
func LatestPeriod(rows []StatementRow) (string, map[string]float64) {
	latest := ""
	for _, r := range rows {
		if r.Date > latest {
			latest = r.Date
		}
	}

	items := make(map[string]float64)
	for _, r := range rows {
		if r.Date == latest {
			items[r.Type] = r.Value
		}
	}
	return latest, items
}
