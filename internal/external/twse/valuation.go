package twse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValuationRow is one day of BWIBBU. nil = unknown
type ValuationRow struct {
	Date          time.Time
	DividendYield *float64 // percent, as published
	PERatio       *float64
	PriceToBook   *float64
}

type bwibbuResponse struct {
	Stat   string     `json:"stat"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// 컬럼 이름 후보 (연도별로 표기가 바뀜)
var (
	dateColumns  = []string{"日期"}
	yieldColumns = []string{"殖利率(%)", "殖利率"}
	peColumns    = []string{"本益比"}
	pbColumns    = []string{"股價淨值比"}
)

// Valuations fetches PE/PB/yield for every trading day of the month containing month
func (c *Client) Valuations(ctx context.Context, stockID string, month time.Time) ([]ValuationRow, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", month.Format("20060102"))
	params.Set("stockNo", stockID)

	var resp bwibbuResponse
	if err := c.httpClient.GetJSON(ctx, fmt.Sprintf("%s/exchangeReport/BWIBBU?%s", c.baseURL, params.Encode()), &resp); err != nil {
		return nil, fmt.Errorf("BWIBBU %s: %w", stockID, err)
	}

	if resp.Stat != "OK" {
		return nil, fmt.Errorf("BWIBBU %s: %s", stockID, resp.Stat)
	}

	dateIdx := columnIndex(resp.Fields, dateColumns)
	if dateIdx < 0 {
		return nil, fmt.Errorf("BWIBBU %s: date column missing in %v", stockID, resp.Fields)
	}
	yieldIdx := columnIndex(resp.Fields, yieldColumns)
	peIdx := columnIndex(resp.Fields, peColumns)
	pbIdx := columnIndex(resp.Fields, pbColumns)

	rows := make([]ValuationRow, 0, len(resp.Data))
	for _, rec := range resp.Data {
		if dateIdx >= len(rec) {
			continue
		}
		date, err := ParseROCDate(rec[dateIdx])
		if err != nil {
			continue
		}
		rows = append(rows, ValuationRow{
			Date:          date,
			DividendYield: cell(rec, yieldIdx),
			PERatio:       cell(rec, peIdx),
			PriceToBook:   cell(rec, pbIdx),
		})
	}

	return rows, nil
}

func columnIndex(fields []string, candidates []string) int {
	for _, cand := range candidates {
		for i, f := range fields {
			if strings.TrimSpace(f) == cand {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, idx int) *float64 {
	if idx < 0 || idx >= len(rec) {
		return nil
	}
	v, ok := parseNumber(rec[idx])
	if !ok {
		return nil
	}
	return &v
}
