package s2_signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/logger"
	"github.com/wonny/trendscore/pkg/redis"
)

// Analyzer scores bar series with the rules of a style
type Analyzer interface {
	AnalyzeStyle(ctx context.Context, style, code string, daily, intraday contracts.PriceSeries) *contracts.AnalysisResult
}

// RulesVersioner maps a requested style to its rules and their version
type RulesVersioner interface {
	ResolveStyle(style string) string
	Version(style string) string
}

// Publisher receives every finished result (e.g. the websocket hub)
type Publisher interface {
	Publish(result *contracts.AnalysisResult)
}

// Default batch parameters
const (
	DefaultHistoryDays  = 180
	DefaultIntradayBars = 60
	DefaultWorkers      = 4
)

// Builder fetches bars, runs the analyzer and fans results out to storage,
// cache and subscribers
// ⭐ SSOT: 분석 실행 오케스트레이션은 여기서만
type Builder struct {
	source    contracts.PriceSource
	analyzer  Analyzer
	results   contracts.ResultRepository
	cache     *redis.Cache
	cacheTTL  time.Duration
	publisher Publisher
	rules     RulesVersioner
	logger    *logger.Logger
	now       func() time.Time

	historyDays  int
	intradayBars int
	workers      int
}

// Option configures a Builder
type Option func(*Builder)

// WithResultRepository persists every analysis result
func WithResultRepository(repo contracts.ResultRepository) Option {
	return func(b *Builder) { b.results = repo }
}

// WithResultCache caches results per code and style
func WithResultCache(cache *redis.Cache, ttl time.Duration) Option {
	return func(b *Builder) {
		b.cache = cache
		b.cacheTTL = ttl
	}
}

// WithRulesVersion keys cached results by resolved style and rules version,
// so a rules reload never serves results of the previous rules
func WithRulesVersion(r RulesVersioner) Option {
	return func(b *Builder) { b.rules = r }
}

// WithPublisher broadcasts finished results
func WithPublisher(p Publisher) Option {
	return func(b *Builder) { b.publisher = p }
}

// WithHistory sets the daily lookback and the intraday bar count (0 disables intraday)
func WithHistory(days, intradayBars int) Option {
	return func(b *Builder) {
		if days > 0 {
			b.historyDays = days
		}
		b.intradayBars = intradayBars
	}
}

// WithWorkers bounds the number of concurrent analyses in Build
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithClock sets the clock that anchors the daily lookback window
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a new analysis builder
func NewBuilder(source contracts.PriceSource, analyzer Analyzer, log *logger.Logger, opts ...Option) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	b := &Builder{
		source:       source,
		analyzer:     analyzer,
		cacheTTL:     redis.TTLMedium,
		logger:       log.WithField("module", "s2_signals"),
		now:          time.Now,
		historyDays:  DefaultHistoryDays,
		intradayBars: DefaultIntradayBars,
		workers:      DefaultWorkers,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AnalyzeOne fetches bars for code and analyzes them.
// Only a failed daily fetch is an error; intraday, storage and cache problems are logged.
func (b *Builder) AnalyzeOne(ctx context.Context, code, style string) (*contracts.AnalysisResult, error) {
	to := b.now()
	from := to.AddDate(0, 0, -b.historyDays)

	daily, err := b.source.FetchDaily(ctx, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}

	var intraday contracts.PriceSeries
	if b.intradayBars > 0 {
		intraday, err = b.source.FetchIntraday(ctx, code, b.intradayBars)
		if err != nil {
			b.logger.WithError(err).WithField("code", code).Warn("Intraday bars unavailable")
			intraday = nil
		}
	}

	result := b.analyzer.AnalyzeStyle(ctx, style, code, daily, intraday)
	b.deliver(ctx, style, result)
	return result, nil
}

// Cached returns a cached result for code and style, if any
func (b *Builder) Cached(ctx context.Context, code, style string) (*contracts.AnalysisResult, bool) {
	if b.cache == nil {
		return nil, false
	}
	var result contracts.AnalysisResult
	found, err := b.cache.Get(ctx, b.resultKey(code, style), &result)
	if err != nil {
		b.logger.WithError(err).WithField("code", code).Warn("Result cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &result, true
}

// resultKey is the cache key of a result; without a versioner the raw style is used
func (b *Builder) resultKey(code, style string) string {
	if b.rules == nil {
		return redis.ResultKey(code, style, "")
	}
	style = b.rules.ResolveStyle(style)
	return redis.ResultKey(code, style, b.rules.Version(style))
}

// Latest returns the newest stored result of code
func (b *Builder) Latest(ctx context.Context, code string) (*contracts.AnalysisResult, error) {
	if b.results == nil {
		return nil, contracts.ErrNotFound
	}
	return b.results.Latest(ctx, code)
}

// ListByDate returns the stored results of one trade date
func (b *Builder) ListByDate(ctx context.Context, date time.Time) ([]*contracts.AnalysisResult, error) {
	if b.results == nil {
		return []*contracts.AnalysisResult{}, nil
	}
	return b.results.ListByDate(ctx, date)
}

// Deliver stores, caches and publishes a result computed elsewhere
func (b *Builder) Deliver(ctx context.Context, style string, result *contracts.AnalysisResult) {
	b.deliver(ctx, style, result)
}

func (b *Builder) deliver(ctx context.Context, style string, result *contracts.AnalysisResult) {
	if result == nil {
		return
	}
	log := b.logger.WithField("code", result.Code)

	// 데이터 부족 결과는 저장하지 않음
	if result.IsActionable() {
		if b.results != nil {
			if err := b.results.Save(ctx, result); err != nil {
				log.WithError(err).Warn("Failed to save analysis result")
			}
		}
		if b.cache != nil {
			if err := b.cache.Set(ctx, b.resultKey(result.Code, style), result, b.cacheTTL); err != nil {
				log.WithError(err).Warn("Result cache write failed")
			}
		}
	}
	if b.publisher != nil {
		b.publisher.Publish(result)
	}
}

// Build analyzes every code of a watchlist with bounded concurrency.
// Failures are collected per code; the batch itself fails only on cancellation.
func (b *Builder) Build(ctx context.Context, codes []string, style string) (*Batch, error) {
	started := b.now()
	b.logger.WithFields(map[string]interface{}{
		"stock_count": len(codes),
		"style":       style,
		"workers":     b.workers,
	}).Info("Starting watchlist analysis")

	batch := &Batch{
		Date:    started,
		Style:   style,
		Results: []*contracts.AnalysisResult{},
		Failed:  map[string]string{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, code := range uniqueCodes(codes) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := b.AnalyzeOne(gctx, code, style)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Failed[code] = err.Error()
				b.logger.WithError(err).WithField("code", code).Warn("Failed to analyze stock")
				return nil
			}
			batch.Results = append(batch.Results, result)
			return nil
		})
	}

	err := g.Wait()
	sortResults(batch.Results)
	batch.Success = len(batch.Results)
	batch.FailedCount = len(batch.Failed)

	b.logger.WithFields(map[string]interface{}{
		"total":   len(codes),
		"success": batch.Success,
		"failed":  batch.FailedCount,
	}).Info("Watchlist analysis completed")

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return batch, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return batch, ctxErr
	}
	return batch, nil
}

// sortResults orders by score, then code
func sortResults(results []*contracts.AnalysisResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SignalScore != results[j].SignalScore {
			return results[i].SignalScore > results[j].SignalScore
		}
		return results[i].Code < results[j].Code
	})
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
