package sourcepolicy

import (
	"github.com/wonny/stockdash/internal/contracts"
)

// Policy decides, per market, which providers are consulted and in what order
type Policy struct {
	Meta      Meta                              `yaml:"meta" json:"meta"`
	Reconcile Reconcile                         `yaml:"reconcile" json:"reconcile"`
	Markets   map[contracts.Market]MarketPolicy `yaml:"markets" json:"markets"`
}

// Meta 메타 정보
type Meta struct {
	PolicyID string `yaml:"policy_id" json:"policy_id"`
	Version  string `yaml:"version" json:"version"`
}

// Reconcile overrides the env tolerance when set (0 = use env)
type Reconcile struct {
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// MarketPolicy is the provider order of one market.
// Sources[0] = primary, 나머지는 순서대로 backup
type MarketPolicy struct {
	Sources         []contracts.Source `yaml:"sources" json:"sources"`
	StatementSource contracts.Source   `yaml:"statement_source" json:"statement_source"`
	ProfileSources  []contracts.Source `yaml:"profile_sources" json:"profile_sources"`
	EarningsSources []contracts.Source `yaml:"earnings_sources" json:"earnings_sources"`
	SeriesSources   []contracts.Source `yaml:"series_sources" json:"series_sources"`
}

// For returns the market policy (zero value if the market is not configured)
func (p *Policy) For(market contracts.Market) MarketPolicy {
	return p.Markets[market]
}

// Default is the built-in policy used when no file is configured
func Default() *Policy {
	return &Policy{
		Meta: Meta{PolicyID: "default", Version: "1"},
		Markets: map[contracts.Market]MarketPolicy{
			contracts.MarketTW: {
				Sources:         []contracts.Source{contracts.SourceFinMind, contracts.SourceTWSE, contracts.SourceYFinance},
				StatementSource: contracts.SourceFinMind,
				ProfileSources:  []contracts.Source{contracts.SourceFinMind, contracts.SourceYFinance},
				EarningsSources: []contracts.Source{contracts.SourceYFinance},
				SeriesSources:   []contracts.Source{contracts.SourceYFinance, contracts.SourceFinMind, contracts.SourceTWSE},
			},
			contracts.MarketUS: {
				Sources:         []contracts.Source{contracts.SourceYFinance, contracts.SourceAlphaVantage, contracts.SourceSECEdgar},
				StatementSource: contracts.SourceSECEdgar,
				ProfileSources:  []contracts.Source{contracts.SourceYFinance, contracts.SourceAlphaVantage},
				EarningsSources: []contracts.Source{contracts.SourceYFinance, contracts.SourceAlphaVantage},
				SeriesSources:   []contracts.Source{contracts.SourceYFinance},
			},
		},
	}
}
