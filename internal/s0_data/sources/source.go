package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
)

// DefaultTimeout bounds a single provider call when none is configured
const DefaultTimeout = 15 * time.Second

// Options are shared by every adapter
type Options struct {
	Timeout time.Duration
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// base carries the failure boundary of an adapter.
// ⭐ SSOT: 어댑터 에러는 여기서 로그 후 삼킴 (호출자는 빈 결과만 봄)
type base struct {
	id      contracts.Source
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newBase(id contracts.Source, opts Options) base {
	b := base{
		id:      id,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.logger == nil {
		b.logger = logger.Nop()
	}
	b.logger = b.logger.WithField("source", string(id))
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// ID returns the provider id
func (b base) ID() contracts.Source {
	return b.id
}

// call runs fn under the per-call timeout. Errors and panics are logged and
// reported as false; the caller then returns its empty value.
func (b base) call(ctx context.Context, ticker, op string, fn func(ctx context.Context) error) (ok bool) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()

	if err != nil {
		b.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker": ticker,
			"op":     op,
		}).Warn("Provider call failed")
		return false
	}
	return true
}

// fetch is the Fetch boundary: failure → empty set tagged with the adapter id
func (b base) fetch(ctx context.Context, ticker string, fn func(ctx context.Context) (map[contracts.Metric]float64, error)) contracts.MetricSet {
	start := time.Now()

	var values map[contracts.Metric]float64
	ok := b.call(ctx, ticker, "fetch", func(ctx context.Context) error {
		v, err := fn(ctx)
		values = v
		return err
	})

	set := contracts.EmptyMetricSet(b.id)
	outcome := metrics.OutcomeError
	if ok {
		set = contracts.NewMetricSet(b.id, values)
		outcome = metrics.OutcomeOK
		if set.IsEmpty() {
			outcome = metrics.OutcomeEmpty
		}
	}
	b.metrics.ObserveFetch(string(b.id), outcome, time.Since(start))

	b.logger.WithFields(map[string]interface{}{
		"ticker":  ticker,
		"metrics": set.Len(),
		"outcome": outcome,
	}).Debug("Fetched metrics")

	return set
}

// partial collects values from independent provider calls.
// 하나라도 성공하면 결과 사용, 모두 실패하면 첫 에러 반환
type partial struct {
	values map[contracts.Metric]float64
	err    error
	ok     bool
}

func newPartial() *partial {
	return &partial{values: make(map[contracts.Metric]float64)}
}

func (p *partial) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *partial) succeed() {
	p.ok = true
}

func (p *partial) set(m contracts.Metric, v float64) {
	p.values[m] = v
}

func (p *partial) setPtr(m contracts.Metric, v *float64, scale float64) {
	if v != nil {
		p.values[m] = *v * scale
	}
}

func (p *partial) result() (map[contracts.Metric]float64, error) {
	if !p.ok && p.err != nil {
		return nil, p.err
	}
	return p.values, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
