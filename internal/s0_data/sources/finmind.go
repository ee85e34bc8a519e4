package sources

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/finmind"
)

// FinMind statement type names, first present wins
var (
	fmRevenue     = []string{"Revenue", "OperatingRevenue"}
	fmGrossProfit = []string{"GrossProfit"}
	fmOperating   = []string{"OperatingIncome"}
	fmNetIncome   = []string{"IncomeAfterTaxes", "NetIncome", "EquityAttributableToOwnersOfParent"}
	fmEPS         = []string{"EPS"}
	fmAssets      = []string{"TotalAssets"}
	fmEquity      = []string{"EquityAttributableToOwnersOfParent", "Equity", "TotalEquity"}
	// 차입금 합계 (부채총계가 아님)
	fmDebt = []string{"ShorttermBorrowings", "LongtermBorrowings", "BondsPayable"}
)

// RevenueLookback is how many months of monthly revenue are re-read on every
// series refresh. 월매출 행은 다음 달 1일 날짜로 10일 전후 공시되어, 공시 시점엔
// since가 이미 그 날짜를 지나 있음. upsert라 재조회는 안전
const RevenueLookback = 3

// FinMind adapts the FinMind v4 open data API (TW only)
type FinMind struct {
	base
	client *finmind.Client
}

// NewFinMind creates the finmind adapter
func NewFinMind(client *finmind.Client, opts Options) *FinMind {
	return &FinMind{
		base:   newBase(contracts.SourceFinMind, opts),
		client: client,
	}
}

// Fetch implements contracts.MetricSource.
// PER/PBR/殖利率 (최근 거래일) + 최근 월매출 + 최근 분기 손익계산서
func (f *FinMind) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	stockID := contracts.StockID(ticker)
	now := f.now()

	return f.fetch(ctx, ticker, func(ctx context.Context) (map[contracts.Metric]float64, error) {
		p := newPartial()

		if rows, err := f.client.PER(ctx, stockID, now.AddDate(0, 0, -30)); err != nil {
			p.fail(err)
		} else {
			p.succeed()
			if len(rows) > 0 {
				last := rows[len(rows)-1]
				// 적자 종목은 PER 0으로 옴
				if last.PER > 0 {
					p.set(contracts.PERatio, last.PER)
				}
				if last.PBR > 0 {
					p.set(contracts.PriceToBook, last.PBR)
				}
				p.set(contracts.DividendYield, last.DividendYield/100)
			}
		}

		if rows, err := f.client.MonthRevenue(ctx, stockID, now.AddDate(0, -4, 0)); err != nil {
			p.fail(err)
		} else {
			p.succeed()
			if latest, ok := latestRevenue(rows); ok {
				p.set(contracts.Revenue, latest.Revenue)
			}
		}

		if rows, err := f.client.FinancialStatements(ctx, stockID, now.AddDate(-1, -3, 0)); err != nil {
			p.fail(err)
		} else {
			p.succeed()
			_, items := finmind.LatestPeriod(rows)
			if eps, ok := firstOf(items, fmEPS); ok {
				p.set(contracts.EPS, eps)
			}
			if revenue, ok := firstOf(items, fmRevenue); ok && revenue != 0 {
				if gross, ok := firstOf(items, fmGrossProfit); ok {
					p.set(contracts.GrossMargin, gross/revenue)
				}
				if op, ok := firstOf(items, fmOperating); ok {
					p.set(contracts.OperatingMargin, op/revenue)
				}
			}
		}

		return p.result()
	})
}

// FetchStatement implements contracts.StatementSource
func (f *FinMind) FetchStatement(ctx context.Context, ticker string) contracts.StatementSnapshot {
	stockID := contracts.StockID(ticker)
	start := f.now().AddDate(-1, -3, 0)
	snap := contracts.NewStatementSnapshot(ticker, f.id)

	// 손익계산서와 재무상태표는 독립 호출: 한쪽 실패가 다른 쪽 항목을 지우지 않음
	f.call(ctx, ticker, "statement.income", func(ctx context.Context) error {
		income, err := f.client.FinancialStatements(ctx, stockID, start)
		if err != nil {
			return err
		}
		incomeDate, items := finmind.LatestPeriod(income)
		if v, ok := firstOf(items, fmNetIncome); ok {
			snap.Items[contracts.NetIncome] = v
		}
		if v, ok := firstOf(items, fmRevenue); ok {
			snap.Items[contracts.TotalRevenue] = v
		}
		if d, err := finmind.ParseDate(incomeDate); err == nil {
			snap.PeriodEnd = d
		}
		return nil
	})

	f.call(ctx, ticker, "statement.balance", func(ctx context.Context) error {
		balance, err := f.client.BalanceSheet(ctx, stockID, start)
		if err != nil {
			return err
		}
		_, items := finmind.LatestPeriod(balance)
		if v, ok := firstOf(items, fmAssets); ok {
			snap.Items[contracts.TotalAssets] = v
		}
		if v, ok := firstOf(items, fmEquity); ok {
			snap.Items[contracts.StockholdersEquity] = v
		}
		if v, ok := sumOf(items, fmDebt); ok {
			snap.Items[contracts.TotalDebt] = v
		}
		return nil
	})

	return snap
}

// FetchProfile implements contracts.ProfileSource (short name + industry)
func (f *FinMind) FetchProfile(ctx context.Context, ticker string) contracts.CompanyProfile {
	profile := contracts.CompanyProfile{Ticker: ticker, Market: contracts.MarketTW}

	f.call(ctx, ticker, "profile", func(ctx context.Context) error {
		rows, err := f.client.StockInfo(ctx, contracts.StockID(ticker))
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		profile.ShortName = rows[0].StockName
		profile.Industry = rows[0].IndustryCategory
		return nil
	})

	return profile
}

// FetchSeries implements contracts.TimeSeriesSource.
// 가격, 월매출, 밸류에이션, 신용잔고, 3대 법인 순매수
func (f *FinMind) FetchSeries(ctx context.Context, ticker string, since time.Time) contracts.TimeSeries {
	stockID := contracts.StockID(ticker)
	var ts contracts.TimeSeries

	f.call(ctx, ticker, "series.prices", func(ctx context.Context) error {
		rows, err := f.client.Prices(ctx, stockID, since)
		if err != nil {
			return err
		}
		for _, r := range rows {
			d, err := finmind.ParseDate(r.Date)
			if err != nil {
				continue
			}
			ts.Prices = append(ts.Prices, contracts.PriceBar{
				Ticker: ticker,
				Date:   d,
				Open:   r.Open,
				High:   r.Max,
				Low:    r.Min,
				Close:  r.Close,
				Volume: r.TradingVolume,
			})
		}
		return nil
	})

	f.call(ctx, ticker, "series.revenue", func(ctx context.Context) error {
		rows, err := f.client.MonthRevenue(ctx, stockID, revenueSince(since))
		if err != nil {
			return err
		}
		for _, r := range rows {
			if period, ok := revenuePeriod(r); ok {
				ts.Revenue = append(ts.Revenue, contracts.MonthlyRevenue{Ticker: ticker, Period: period, Revenue: r.Revenue})
			}
		}
		return nil
	})

	f.call(ctx, ticker, "series.valuations", func(ctx context.Context) error {
		rows, err := f.client.PER(ctx, stockID, since)
		if err != nil {
			return err
		}
		for _, r := range rows {
			d, err := finmind.ParseDate(r.Date)
			if err != nil {
				continue
			}
			v := contracts.Valuation{Ticker: ticker, Date: d}
			if r.PER > 0 {
				pe := r.PER
				v.PERatio = &pe
			}
			if r.PBR > 0 {
				pb := r.PBR
				v.PriceToBook = &pb
			}
			yield := r.DividendYield / 100
			v.DividendYield = &yield
			ts.Valuations = append(ts.Valuations, v)
		}
		return nil
	})

	f.call(ctx, ticker, "series.margins", func(ctx context.Context) error {
		rows, err := f.client.MarginPurchase(ctx, stockID, since)
		if err != nil {
			return err
		}
		for _, r := range rows {
			d, err := finmind.ParseDate(r.Date)
			if err != nil {
				continue
			}
			ts.Margins = append(ts.Margins, contracts.MarginBalance{
				Ticker:         ticker,
				Date:           d,
				MarginPurchase: r.MarginPurchaseTodayBalance,
				ShortSale:      r.ShortSaleTodayBalance,
			})
		}
		return nil
	})

	f.call(ctx, ticker, "series.flows", func(ctx context.Context) error {
		rows, err := f.client.Institutional(ctx, stockID, since)
		if err != nil {
			return err
		}
		ts.Flows = aggregateFlows(ticker, rows)
		return nil
	})

	return ts
}

// aggregateFlows folds the per-investor rows into one record per day
func aggregateFlows(ticker string, rows []finmind.InstitutionalRow) []contracts.InstitutionalFlow {
	byDate := make(map[string]*contracts.InstitutionalFlow)
	for _, r := range rows {
		d, err := finmind.ParseDate(r.Date)
		if err != nil {
			continue
		}
		flow, ok := byDate[r.Date]
		if !ok {
			flow = &contracts.InstitutionalFlow{Ticker: ticker, Date: d}
			byDate[r.Date] = flow
		}

		net := r.Buy - r.Sell
		switch r.Name {
		case "Foreign_Investor", "Foreign_Dealer_Self":
			flow.ForeignNet += net
		case "Investment_Trust":
			flow.TrustNet += net
		case "Dealer_self", "Dealer_Hedging", "Dealer":
			flow.DealerNet += net
		}
	}

	flows := make([]contracts.InstitutionalFlow, 0, len(byDate))
	for _, f := range byDate {
		flows = append(flows, *f)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows
}

// latestRevenue picks the row of the most recent revenue period
func latestRevenue(rows []finmind.RevenueRow) (finmind.RevenueRow, bool) {
	var best finmind.RevenueRow
	found := false
	for _, r := range rows {
		if !found || r.RevenueYear*100+r.RevenueMonth > best.RevenueYear*100+best.RevenueMonth {
			best = r
			found = true
		}
	}
	return best, found
}

// revenueSince moves since back to the first day RevenueLookback months earlier
func revenueSince(since time.Time) time.Time {
	if since.IsZero() {
		return since
	}
	return time.Date(since.Year(), since.Month()-RevenueLookback, 1, 0, 0, 0, 0, time.UTC)
}

func revenuePeriod(r finmind.RevenueRow) (time.Time, bool) {
	if r.RevenueYear == 0 || r.RevenueMonth < 1 || r.RevenueMonth > 12 {
		return time.Time{}, false
	}
	return time.Date(r.RevenueYear, time.Month(r.RevenueMonth), 1, 0, 0, 0, 0, time.UTC), true
}

func firstOf(items map[string]float64, names []string) (float64, bool) {
	for _, n := range names {
		if v, ok := items[n]; ok {
			return v, true
		}
	}
	return 0, false
}

func sumOf(items map[string]float64, names []string) (float64, bool) {
	total, found := 0.0, false
	for _, n := range names {
		if v, ok := items[n]; ok {
			total += v
			found = true
		}
	}
	return total, found
}
