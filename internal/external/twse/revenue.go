package twse

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Board is the MOPS listing board of a stock
type Board string

const (
	BoardListed Board = "sii" // 上市 (.TW)
	BoardOTC    Board = "otc" // 上櫃 (.TWO)
)

// MonthlyRevenue scrapes the MOPS monthly revenue summary of one month.
// 결과: stock_id → 당월 매출 (NTD, 페이지 단위는 천 원)
func (c *Client) MonthlyRevenue(ctx context.Context, board Board, year, month int) (map[string]float64, error) {
	fullURL := fmt.Sprintf("%s/nas/t21/%s/t21sc03_%d_%d_0.html", c.mopsURL, board, ROCYear(year), month)

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("MOPS revenue %d/%02d: %w", year, month, err)
	}

	revenue, err := ParseMonthlyRevenue(body)
	if err != nil {
		return nil, fmt.Errorf("MOPS revenue %d/%02d: %w", year, month, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"board": board,
		"year":  year,
		"month": month,
		"count": len(revenue),
	}).Debug("Parsed MOPS monthly revenue")

	return revenue, nil
}

// ParseMonthlyRevenue extracts (code, revenue) pairs from the MOPS summary HTML.
// Big5 페이지지만 필요한 컬럼(코드, 숫자)은 ASCII
func ParseMonthlyRevenue(html []byte) (map[string]float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	revenue := make(map[string]float64)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			return
		}

		code := strings.TrimSpace(cells.Eq(0).Text())
		if !isStockCode(code) {
			return
		}

		// td[2] = 當月營收 (仟元)
		v, ok := parseNumber(cells.Eq(2).Text())
		if !ok {
			return
		}
		revenue[code] = v * 1000
	})

	if len(revenue) == 0 {
		return nil, fmt.Errorf("no revenue rows found")
	}

	return revenue, nil
}

func isStockCode(s string) bool {
	if len(s) < 4 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
