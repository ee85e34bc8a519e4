package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/twse"
	"github.com/wonny/stockdash/pkg/redis"
)

// TWSE adapts the exchange's BWIBBU valuation report and the MOPS monthly
// revenue summary (TW only). 민국 연도 변환은 twse 클라이언트 안에서만
type TWSE struct {
	base
	client *twse.Client
	cache  *redis.Cache
}

// NewTWSE creates the twse adapter. cache may be nil
func NewTWSE(client *twse.Client, cache *redis.Cache, opts Options) *TWSE {
	return &TWSE{
		base:   newBase(contracts.SourceTWSE, opts),
		client: client,
		cache:  cache,
	}
}

// Fetch implements contracts.MetricSource
func (t *TWSE) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	stockID := contracts.StockID(ticker)
	now := t.now()

	return t.fetch(ctx, ticker, func(ctx context.Context) (map[contracts.Metric]float64, error) {
		p := newPartial()

		// 월초에는 당월 데이터가 없을 수 있어 전월까지 조회
		for _, month := range []time.Time{now, now.AddDate(0, -1, 0)} {
			rows, err := t.client.Valuations(ctx, stockID, month)
			if err != nil {
				p.fail(err)
				continue
			}
			p.succeed()
			if len(rows) == 0 {
				continue
			}
			last := rows[len(rows)-1]
			p.setPtr(contracts.PERatio, last.PERatio, 1)
			p.setPtr(contracts.PriceToBook, last.PriceToBook, 1)
			p.setPtr(contracts.DividendYield, last.DividendYield, 0.01)
			break
		}

		// 월매출은 익월 10일까지 공시
		board := boardOf(ticker)
		for _, month := range []time.Time{now.AddDate(0, -1, 0), now.AddDate(0, -2, 0)} {
			revenue, err := t.monthlyRevenue(ctx, board, month.Year(), int(month.Month()))
			if err != nil {
				p.fail(err)
				continue
			}
			p.succeed()
			if v, ok := revenue[stockID]; ok {
				p.set(contracts.Revenue, v)
				break
			}
		}

		return p.result()
	})
}

// FetchSeries implements contracts.TimeSeriesSource (daily valuations, one request per month)
func (t *TWSE) FetchSeries(ctx context.Context, ticker string, since time.Time) contracts.TimeSeries {
	stockID := contracts.StockID(ticker)
	var ts contracts.TimeSeries

	t.call(ctx, ticker, "series.valuations", func(ctx context.Context) error {
		now := t.now()
		month := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !month.After(now) {
			rows, err := t.client.Valuations(ctx, stockID, month)
			if err != nil {
				return fmt.Errorf("valuations %s: %w", month.Format("2006-01"), err)
			}
			for _, r := range rows {
				if r.Date.Before(since) {
					continue
				}
				v := contracts.Valuation{
					Ticker:      ticker,
					Date:        r.Date,
					PERatio:     r.PERatio,
					PriceToBook: r.PriceToBook,
				}
				if r.DividendYield != nil {
					yield := *r.DividendYield / 100
					v.DividendYield = &yield
				}
				ts.Valuations = append(ts.Valuations, v)
			}
			month = month.AddDate(0, 1, 0)
		}
		return nil
	})

	return ts
}

// monthlyRevenue loads one MOPS summary page, shared through Redis when enabled
func (t *TWSE) monthlyRevenue(ctx context.Context, board twse.Board, year, month int) (map[string]float64, error) {
	if t.cache == nil {
		return t.client.MonthlyRevenue(ctx, board, year, month)
	}

	var revenue map[string]float64
	key := fmt.Sprintf("%s:%s", board, redis.RevenueKey(twse.ROCYear(year), month))
	err := t.cache.GetOrSet(ctx, key, &revenue, redis.TTLDaily, func() (interface{}, error) {
		return t.client.MonthlyRevenue(ctx, board, year, month)
	})
	return revenue, err
}

// boardOf maps the ticker suffix to the MOPS board (.TWO = 上櫃)
func boardOf(ticker string) twse.Board {
	if strings.HasSuffix(strings.ToUpper(ticker), ".TWO") {
		return twse.BoardOTC
	}
	return twse.BoardListed
}
