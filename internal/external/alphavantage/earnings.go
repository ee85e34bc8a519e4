package alphavantage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"
)

// EarningsEvent is one row of EARNINGS_CALENDAR
type EarningsEvent struct {
	Symbol           string
	Name             string
	ReportDate       time.Time
	FiscalDateEnding *time.Time
	Currency         string
}

// EarningsCalendar fetches the upcoming report dates of a symbol (horizon: 3month, 6month, 12month)
func (c *Client) EarningsCalendar(ctx context.Context, symbol, horizon string) ([]EarningsEvent, error) {
	params := url.Values{}
	params.Set("function", "EARNINGS_CALENDAR")
	params.Set("symbol", symbol)
	if horizon != "" {
		params.Set("horizon", horizon)
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	// 제한 걸리면 CSV 대신 JSON 메모가 옴
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var doc map[string]string
		if err := json.Unmarshal(trimmed, &doc); err == nil {
			if err := throttled(doc); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("unexpected JSON body for EARNINGS_CALENDAR")
	}

	return parseEarningsCSV(bytes.NewReader(body))
}

// parseEarningsCSV parses the CSV response of EARNINGS_CALENDAR
// Expected columns: symbol,name,reportDate,fiscalDateEnding,estimate,currency
func parseEarningsCSV(r io.Reader) ([]EarningsEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int)
	for i, col := range header {
		colIdx[col] = i
	}

	for _, col := range []string{"symbol", "reportDate"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	field := func(record []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var events []EarningsEvent
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		reportDate, err := time.Parse("2006-01-02", field(record, "reportDate"))
		if err != nil {
			continue
		}

		event := EarningsEvent{
			Symbol:     field(record, "symbol"),
			Name:       field(record, "name"),
			ReportDate: reportDate,
			Currency:   field(record, "currency"),
		}
		if t, err := time.Parse("2006-01-02", field(record, "fiscalDateEnding")); err == nil {
			event.FiscalDateEnding = &t
		}
		events = append(events, event)
	}

	return events, nil
}
