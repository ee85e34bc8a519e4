package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/display"
	"github.com/wonny/stockdash/internal/s0_data/collector"
	"github.com/wonny/stockdash/pkg/database"
	"github.com/wonny/stockdash/pkg/logger"
)

// Refresher runs the refresh pipeline of one ticker
type Refresher interface {
	Refresh(ctx context.Context, ticker string) collector.RefreshResult
}

// PriceReader reads stored daily bars
type PriceReader interface {
	GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error)
}

// StockHandler handles stock data API endpoints
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StockHandler struct {
	indicators contracts.IndicatorRepository
	stocks     contracts.StockRepository
	prices     PriceReader
	refresher  Refresher
	logger     *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(
	indicators contracts.IndicatorRepository,
	stocks contracts.StockRepository,
	prices PriceReader,
	refresher Refresher,
	log *logger.Logger,
) *StockHandler {
	return &StockHandler{
		indicators: indicators,
		stocks:     stocks,
		prices:     prices,
		refresher:  refresher,
		logger:     log,
	}
}

// quoteWindow spans the last two trading days across weekends and holidays
const quoteWindow = 14 * 24 * time.Hour

// FinancialPayload is the read-only view of one stock.
// last_price/change/change_percent come from the stored daily bars
type FinancialPayload struct {
	Ticker  string                    `json:"ticker"`
	Market  contracts.Market          `json:"market"`
	Profile *contracts.CompanyProfile `json:"profile,omitempty"`
	contracts.Quote

	Metrics   map[contracts.Metric]*float64 `json:"metrics"` // null = unknown
	Formatted map[contracts.Metric]string   `json:"formatted"`
	Alerts    []string                      `json:"alerts"`
	Warnings  []string                      `json:"warnings"`
	Source    contracts.Source              `json:"source"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

func newPayload(snap *contracts.IndicatorSnapshot, profile *contracts.CompanyProfile, quote contracts.Quote) FinancialPayload {
	values := make(map[contracts.Metric]*float64, len(contracts.AllMetrics))
	for _, m := range contracts.AllMetrics {
		if v, ok := snap.Metrics.Get(m); ok {
			values[m] = &v
		} else {
			values[m] = nil
		}
	}

	alerts := snap.Alerts()
	if alerts == nil {
		alerts = []string{}
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return FinancialPayload{
		Ticker:    snap.Ticker,
		Market:    contracts.MarketOf(snap.Ticker),
		Profile:   profile,
		Quote:     quote,
		Metrics:   values,
		Formatted: display.Set(snap.Metrics),
		Alerts:    alerts,
		Warnings:  warnings,
		Source:    snap.Metrics.Source(),
		UpdatedAt: snap.UpdatedAt,
	}
}

// GetStock returns the stored indicator snapshot with formatted values
// GET /api/stocks/{ticker}?market=TW
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := tickerParam(r)
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	snap, err := h.indicators.GetSnapshot(ctx, ticker)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no snapshot for "+ticker)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to get snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve snapshot")
		return
	}

	respondJSON(w, http.StatusOK, newPayload(snap, h.profile(ctx, ticker), h.quote(ctx, ticker)))
}

// profile is optional in the payload; 없으면 nil
func (h *StockHandler) profile(ctx context.Context, ticker string) *contracts.CompanyProfile {
	profile, err := h.stocks.GetProfile(ctx, ticker)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			h.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to get profile")
		}
		return nil
	}
	return profile
}

func (h *StockHandler) quote(ctx context.Context, ticker string) contracts.Quote {
	to := time.Now()
	bars, err := h.prices.GetPrices(ctx, ticker, to.Add(-quoteWindow), to)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to get quote bars")
		return contracts.Quote{}
	}
	return contracts.QuoteFromBars(bars)
}

// DailyPriceResponse represents a daily price record for API response
type DailyPriceResponse struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// GetPrices returns stored daily bars
// GET /api/stocks/{ticker}/prices?days=365
func (h *StockHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := tickerParam(r)
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	days := 365
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d <= 0 {
			respondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = d
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	prices, err := h.prices.GetPrices(ctx, ticker, from, to)
	if err != nil {
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker": ticker,
			"days":   days,
		}).Error("Failed to get daily prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve daily prices")
		return
	}

	result := make([]DailyPriceResponse, len(prices))
	for i, p := range prices {
		result[i] = DailyPriceResponse{
			Date:   p.Date.Format("2006-01-02"),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"data":   result,
	})
}

// Refresh runs the refresh pipeline synchronously
// POST /api/stocks/{ticker}/refresh
func (h *StockHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := tickerParam(r)
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	result := h.refresher.Refresh(ctx, ticker)
	if errors.Is(result.Error, contracts.ErrNoData) {
		respondError(w, http.StatusBadGateway, result.Error.Error())
		return
	}
	if result.Error != nil {
		h.logger.WithError(result.Error).WithField("ticker", ticker).Error("Refresh failed")
		respondError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       result.RunID,
		"duration_ms":  result.Duration.Milliseconds(),
		"series_count": result.SeriesCount,
		"stock":        newPayload(result.Snapshot, h.profile(ctx, ticker), h.quote(ctx, ticker)),
	})
}
