package contracts

import (
	"context"
	"time"
)

// MetricSource converts one provider's response into a MetricSet.
// ⭐ SSOT: Fetch는 절대 에러를 반환하지 않음 (실패 = 빈 MetricSet)
type MetricSource interface {
	ID() Source
	Fetch(ctx context.Context, ticker string) MetricSet
}

// StatementSource provides raw statement line items for ratio derivation
type StatementSource interface {
	ID() Source
	FetchStatement(ctx context.Context, ticker string) StatementSnapshot
}

// ProfileSource provides descriptive company data (best effort)
type ProfileSource interface {
	ID() Source
	FetchProfile(ctx context.Context, ticker string) CompanyProfile
}

// EarningsSource provides candidate earnings dates (best effort)
type EarningsSource interface {
	ID() Source
	FetchEarningsDates(ctx context.Context, ticker string) []time.Time
}

// TimeSeriesSource provides append-only series since a date (best effort)
type TimeSeriesSource interface {
	ID() Source
	FetchSeries(ctx context.Context, ticker string, since time.Time) TimeSeries
}
