package sec

import (
	"context"
	"fmt"
)

// Taxonomies
const (
	TaxonomyUSGAAP = "us-gaap"
	TaxonomyDEI    = "dei"
)

// Fact is one reported XBRL value
type Fact struct {
	Start string  `json:"start,omitempty"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// Concept is one XBRL element with its facts per unit ("USD", "USD/shares", ...)
type Concept struct {
	Label string            `json:"label"`
	Units map[string][]Fact `json:"units"`
}

// CompanyFacts is the companyfacts document
type CompanyFacts struct {
	CIK        int                           `json:"cik"`
	EntityName string                        `json:"entityName"`
	Facts      map[string]map[string]Concept `json:"facts"`
}

// CompanyFacts fetches every reported fact of a company
func (c *Client) CompanyFacts(ctx context.Context, cik int) (*CompanyFacts, error) {
	fullURL := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", c.baseURL, cik)

	var facts CompanyFacts
	if err := c.httpClient.GetJSON(ctx, fullURL, &facts); err != nil {
		return nil, fmt.Errorf("companyfacts CIK%010d: %w", cik, err)
	}
	return &facts, nil
}

// Latest walks concept candidates in order and returns the most recent fact
// of the first concept that reports in one of the preferred units.
// 같은 end 날짜면 나중에 제출된(filed) 값 우선 (정정 공시)
func (cf *CompanyFacts) Latest(taxonomy string, concepts []string, units []string) (Fact, bool) {
	elements, ok := cf.Facts[taxonomy]
	if !ok {
		return Fact{}, false
	}

	for _, name := range concepts {
		concept, ok := elements[name]
		if !ok {
			continue
		}
		for _, unit := range units {
			if best, ok := latestFact(concept.Units[unit]); ok {
				return best, true
			}
		}
	}
	return Fact{}, false
}

// LatestAnnual is Latest restricted to full-year (10-K/20-F, fp=FY) facts
func (cf *CompanyFacts) LatestAnnual(taxonomy string, concepts []string, units []string) (Fact, bool) {
	filtered := &CompanyFacts{Facts: map[string]map[string]Concept{taxonomy: {}}}
	for _, name := range concepts {
		concept, ok := cf.Facts[taxonomy][name]
		if !ok {
			continue
		}
		annual := Concept{Label: concept.Label, Units: make(map[string][]Fact)}
		for unit, facts := range concept.Units {
			for _, f := range facts {
				if f.FP == "FY" {
					annual.Units[unit] = append(annual.Units[unit], f)
				}
			}
		}
		filtered.Facts[taxonomy][name] = annual
	}
	return filtered.Latest(taxonomy, concepts, units)
}

func latestFact(facts []Fact) (Fact, bool) {
	var best Fact
	found := false
	for _, f := range facts {
		if f.End == "" {
			continue
		}
		if !found || f.End > best.End || (f.End == best.End && f.Filed > best.Filed) {
			best = f
			found = true
		}
	}
	return best, found
}
