package contracts

import (
	"context"
	"time"
)

// PriceSource supplies bar series for a stock
// ⭐ SSOT: 시세 수집기는 이 인터페이스로만 분석기에 연결
type PriceSource interface {
	FetchDaily(ctx context.Context, code string, from, to time.Time) (PriceSeries, error)
	FetchIntraday(ctx context.Context, code string, count int) (PriceSeries, error)
}

// Tagger resolves industry/concept/style tags of a stock
type Tagger interface {
	Tags(ctx context.Context, code string) (*StockTags, error)
}

// SignalAnalyzer turns bar series into an AnalysisResult
// Never fails: degraded inputs produce a degraded result
type SignalAnalyzer interface {
	Analyze(ctx context.Context, code string, daily, intraday PriceSeries) *AnalysisResult
}

// ResultRepository persists analysis results
type ResultRepository interface {
	Save(ctx context.Context, result *AnalysisResult) error
	Latest(ctx context.Context, code string) (*AnalysisResult, error)
	ListByDate(ctx context.Context, date time.Time) ([]*AnalysisResult, error)
}
