package sourcepolicy

import (
	"fmt"
	"sort"

	"github.com/wonny/stockdash/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(p *Policy) error {
	if p.Meta.PolicyID == "" {
		return ValidationError{"meta.policy_id", "required"}
	}

	if p.Reconcile.Tolerance < 0 || p.Reconcile.Tolerance >= 1 {
		return ValidationError{"reconcile.tolerance", "must be in [0, 1)"}
	}

	if len(p.Markets) == 0 {
		return ValidationError{"markets", "at least one market required"}
	}

	for _, market := range sortedMarkets(p) {
		mp := p.Markets[market]
		prefix := fmt.Sprintf("markets.%s", market)

		if market != contracts.MarketTW && market != contracts.MarketUS {
			return ValidationError{prefix, "unknown market (TW or US)"}
		}
		if len(mp.Sources) == 0 {
			return ValidationError{prefix + ".sources", "required"}
		}

		lists := []struct {
			field   string
			sources []contracts.Source
		}{
			{"sources", mp.Sources},
			{"profile_sources", mp.ProfileSources},
			{"earnings_sources", mp.EarningsSources},
			{"series_sources", mp.SeriesSources},
		}
		for _, l := range lists {
			if err := validateSources(prefix+"."+l.field, l.sources); err != nil {
				return err
			}
		}

		if mp.StatementSource != "" {
			if _, err := contracts.ParseSource(string(mp.StatementSource)); err != nil {
				return ValidationError{prefix + ".statement_source", err.Error()}
			}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Policy) []Warning {
	var warnings []Warning

	if p.Reconcile.Tolerance > 0.2 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_TOLERANCE",
			Message: "tolerance > 20%: 소스 간 불일치가 거의 보고되지 않음",
		})
	}

	for _, market := range sortedMarkets(p) {
		mp := p.Markets[market]
		if len(mp.Sources) == 1 {
			warnings = append(warnings, Warning{
				Code:    "NO_BACKUP",
				Message: fmt.Sprintf("%s: backup source 없음, 교차 검증 불가", market),
			})
		}
		if mp.StatementSource == "" {
			warnings = append(warnings, Warning{
				Code:    "NO_STATEMENT_SOURCE",
				Message: fmt.Sprintf("%s: 재무제표 소스 없음, 비율 도출 불가", market),
			})
		}
	}

	return warnings
}

func validateSources(field string, sources []contracts.Source) error {
	seen := make(map[contracts.Source]bool, len(sources))
	for i, src := range sources {
		if _, err := contracts.ParseSource(string(src)); err != nil {
			return ValidationError{fmt.Sprintf("%s[%d]", field, i), err.Error()}
		}
		if seen[src] {
			return ValidationError{fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("duplicate source %s", src)}
		}
		seen[src] = true
	}
	return nil
}

func sortedMarkets(p *Policy) []contracts.Market {
	markets := make([]contracts.Market, 0, len(p.Markets))
	for m := range p.Markets {
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i] < markets[j] })
	return markets
}
