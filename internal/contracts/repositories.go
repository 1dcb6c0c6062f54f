package contracts

import (
	"context"
	"errors"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// ErrNotFound is returned by repositories when no row matches
var ErrNotFound = errors.New("not found")

// Timeframes of stored bar series
const (
	TimeframeDaily    = "daily"
	TimeframeIntraday = "30m"
)

// BarRepository persists bar series per stock and timeframe
type BarRepository interface {
	SaveSeries(ctx context.Context, code, timeframe string, series PriceSeries) (int, error)
	GetSeries(ctx context.Context, code, timeframe string, from, to time.Time) (PriceSeries, error)
	LatestDate(ctx context.Context, code, timeframe string) (time.Time, error)
}
