package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MetricSet is an immutable metric → value mapping tagged with its provenance.
// 없는 키 = unknown. 생성 후 변경 불가 (With는 새 값을 반환)
type MetricSet struct {
	source Source
	values map[Metric]float64
}

// NewMetricSet builds a set, dropping NaN/Inf values and keys outside the vocabulary.
// source는 AllSources 중 하나여야 함 (아니면 panic: 호출 코드 버그)
func NewMetricSet(source Source, values map[Metric]float64) MetricSet {
	mustSource(source)
	return MetricSet{source: source, values: cleanValues(values)}
}

// EmptyMetricSet is the "no data from this source" result
func EmptyMetricSet(source Source) MetricSet {
	mustSource(source)
	return MetricSet{source: source}
}

func mustSource(source Source) {
	if _, err := ParseSource(string(source)); err != nil {
		panic("contracts: metric set: " + err.Error())
	}
}

func cleanValues(values map[Metric]float64) map[Metric]float64 {
	clean := make(map[Metric]float64, len(values))
	for k, v := range values {
		if !k.Valid() || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean[k] = v
	}
	return clean
}

// MetricSetFromRaw coerces loosely typed provider values.
// float/int/json.Number/숫자 문자열만 인정, 나머지는 unknown
func MetricSetFromRaw(source Source, raw map[string]interface{}) MetricSet {
	values := make(map[Metric]float64, len(raw))
	for k, v := range raw {
		if f, ok := ToFloat(v); ok {
			values[Metric(k)] = f
		}
	}
	return NewMetricSet(source, values)
}

// ToFloat converts a loosely typed scalar into a finite float64
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Source returns the provenance tag
func (s MetricSet) Source() Source {
	return s.source
}

// Get returns the value and whether it is known
func (s MetricSet) Get(m Metric) (float64, bool) {
	v, ok := s.values[m]
	return v, ok
}

// Has reports whether m is known
func (s MetricSet) Has(m Metric) bool {
	_, ok := s.values[m]
	return ok
}

// Len returns the number of known metrics
func (s MetricSet) Len() int {
	return len(s.values)
}

// IsEmpty reports whether every metric is unknown
func (s MetricSet) IsEmpty() bool {
	return len(s.values) == 0
}

// Keys returns the known metrics sorted by name
func (s MetricSet) Keys() []Metric {
	keys := make([]Metric, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Values returns a copy of the known values
func (s MetricSet) Values() map[Metric]float64 {
	out := make(map[Metric]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// With returns a new set with m set to v (invalid input leaves the set unchanged)
func (s MetricSet) With(m Metric, v float64) MetricSet {
	values := s.Values()
	values[m] = v
	return NewMetricSet(s.source, values)
}

// String is a compact debug form: "finmind{pe_ratio=15, roe=0.12}"
func (s MetricSet) String() string {
	parts := make([]string, 0, len(s.values))
	for _, k := range s.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, FormatValue(s.values[k])))
	}
	return fmt.Sprintf("%s{%s}", s.source, strings.Join(parts, ", "))
}

// FormatValue renders v in the shortest form that round-trips
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type metricSetJSON struct {
	Source Source             `json:"source"`
	Values map[Metric]float64 `json:"values"`
}

// MarshalJSON implements json.Marshaler
func (s MetricSet) MarshalJSON() ([]byte, error) {
	values := s.values
	if values == nil {
		values = map[Metric]float64{}
	}
	return json.Marshal(metricSetJSON{Source: s.source, Values: values})
}

// UnmarshalJSON implements json.Unmarshaler (same cleaning as NewMetricSet).
// 알 수 없는 source는 panic 대신 에러
func (s *MetricSet) UnmarshalJSON(data []byte) error {
	var raw metricSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	source, err := ParseSource(string(raw.Source))
	if err != nil {
		return fmt.Errorf("metric set: %w", err)
	}
	*s = MetricSet{source: source, values: cleanValues(raw.Values)}
	return nil
}
