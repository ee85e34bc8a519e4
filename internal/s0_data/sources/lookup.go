package sources

import (
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/wonny/stockdash/internal/contracts"
)

// Lookup returns the first candidate JSONPath that resolves to a number.
// 후보 순서 = 우선순위 (필드명이 공급자/버전마다 다름)
func Lookup(doc interface{}, candidates ...string) (float64, bool) {
	for _, path := range candidates {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		if f, ok := contracts.ToFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// LookupString returns the first candidate JSONPath that resolves to a non-empty string
func LookupString(doc interface{}, candidates ...string) string {
	for _, path := range candidates {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// LookupAll returns every number a wildcard JSONPath resolves to
func LookupAll(doc interface{}, path string) []float64 {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}

	items, ok := v.([]interface{})
	if !ok {
		items = []interface{}{v}
	}

	out := make([]float64, 0, len(items))
	for _, item := range items {
		if f, ok := contracts.ToFloat(item); ok {
			out = append(out, f)
		}
	}
	return out
}

// Candidates maps each metric to its ordered JSONPath candidates
type Candidates map[contracts.Metric][]string

// Extract resolves every metric of the table against doc
func (c Candidates) Extract(doc interface{}) map[contracts.Metric]float64 {
	values := make(map[contracts.Metric]float64, len(c))
	for metric, paths := range c {
		if v, ok := Lookup(doc, paths...); ok {
			values[metric] = v
		}
	}
	return values
}
