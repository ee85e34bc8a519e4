package sources

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/internal/external/sec"
)

// us-gaap concept candidates, first reported wins
var (
	secRevenue = []string{
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"Revenues",
		"SalesRevenueNet",
	}
	secEPS       = []string{"EarningsPerShareDiluted", "EarningsPerShareBasic"}
	secNetIncome = []string{"NetIncomeLoss", "ProfitLoss"}
	secAssets    = []string{"Assets"}
	secEquity    = []string{
		"StockholdersEquity",
		"StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
	}
	secDebt = []string{"LongTermDebt", "LongTermDebtNoncurrent", "DebtInstrumentCarryingAmount"}

	unitsUSD      = []string{"USD"}
	unitsPerShare = []string{"USD/shares"}
)

// SECEdgar adapts SEC EDGAR XBRL company facts (US only)
type SECEdgar struct {
	base
	client *sec.Client
}

// NewSECEdgar creates the sec_edgar adapter
func NewSECEdgar(client *sec.Client, opts Options) *SECEdgar {
	return &SECEdgar{
		base:   newBase(contracts.SourceSECEdgar, opts),
		client: client,
	}
}

func (s *SECEdgar) companyFacts(ctx context.Context, ticker string) (*sec.CompanyFacts, error) {
	// SEC 표기: BRK.B → BRK-B
	company, err := s.client.Lookup(ctx, strings.ReplaceAll(ticker, ".", "-"))
	if err != nil {
		return nil, err
	}
	return s.client.CompanyFacts(ctx, company.CIK)
}

// Fetch implements contracts.MetricSource (annual revenue and diluted EPS)
func (s *SECEdgar) Fetch(ctx context.Context, ticker string) contracts.MetricSet {
	return s.fetch(ctx, ticker, func(ctx context.Context) (map[contracts.Metric]float64, error) {
		facts, err := s.companyFacts(ctx, ticker)
		if err != nil {
			return nil, err
		}

		values := make(map[contracts.Metric]float64, 2)
		if f, ok := facts.LatestAnnual(sec.TaxonomyUSGAAP, secRevenue, unitsUSD); ok {
			values[contracts.Revenue] = f.Val
		}
		if f, ok := facts.LatestAnnual(sec.TaxonomyUSGAAP, secEPS, unitsPerShare); ok {
			values[contracts.EPS] = f.Val
		}
		return values, nil
	})
}

// FetchStatement implements contracts.StatementSource.
// 손익 항목은 연간(FY), 재무상태 항목은 최신 시점
func (s *SECEdgar) FetchStatement(ctx context.Context, ticker string) contracts.StatementSnapshot {
	snap := contracts.NewStatementSnapshot(ticker, s.id)

	s.call(ctx, ticker, "statement", func(ctx context.Context) error {
		facts, err := s.companyFacts(ctx, ticker)
		if err != nil {
			return err
		}

		if f, ok := facts.LatestAnnual(sec.TaxonomyUSGAAP, secNetIncome, unitsUSD); ok {
			snap.Items[contracts.NetIncome] = f.Val
			if end, err := parseFactDate(f.End); err == nil {
				snap.PeriodEnd = end
			}
		}
		if f, ok := facts.LatestAnnual(sec.TaxonomyUSGAAP, secRevenue, unitsUSD); ok {
			snap.Items[contracts.TotalRevenue] = f.Val
		}
		if f, ok := facts.Latest(sec.TaxonomyUSGAAP, secAssets, unitsUSD); ok {
			snap.Items[contracts.TotalAssets] = f.Val
		}
		if f, ok := facts.Latest(sec.TaxonomyUSGAAP, secEquity, unitsUSD); ok {
			snap.Items[contracts.StockholdersEquity] = f.Val
		}
		if f, ok := facts.Latest(sec.TaxonomyUSGAAP, secDebt, unitsUSD); ok {
			snap.Items[contracts.TotalDebt] = f.Val
		}
		return nil
	})

	return snap
}

func parseFactDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
