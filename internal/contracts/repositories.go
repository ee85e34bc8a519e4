package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// IndicatorRepository persists merged snapshots and alert text
type IndicatorRepository interface {
	GetSnapshot(ctx context.Context, ticker string) (*IndicatorSnapshot, error)
	// SaveSnapshot writes metrics+warnings, then evaluates alerts over the
	// persisted record and stores the text, all under the ticker's lock
	SaveSnapshot(ctx context.Context, snap *IndicatorSnapshot, alerts func(MetricSet) string) (*IndicatorSnapshot, error)
	ListSnapshots(ctx context.Context) ([]*IndicatorSnapshot, error)
}

// StockRepository manages stock rows and profiles
type StockRepository interface {
	EnsureStock(ctx context.Context, ticker string, market Market) error
	GetProfile(ctx context.Context, ticker string) (*CompanyProfile, error)
	SaveProfile(ctx context.Context, profile CompanyProfile) error
}

// WatchlistRepository manages per-user watchlists
type WatchlistRepository interface {
	Add(ctx context.Context, userID int64, ticker string) error
	Remove(ctx context.Context, userID int64, ticker string) error
	List(ctx context.Context, userID int64) ([]Watched, error)
	AllTickers(ctx context.Context) ([]string, error)
}

// TimeSeriesRepository upserts append-only series on (ticker, date)
type TimeSeriesRepository interface {
	SaveSeries(ctx context.Context, ts TimeSeries) (int, error)
	LatestDate(ctx context.Context, ticker string) (time.Time, error)
	GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]PriceBar, error)
}
