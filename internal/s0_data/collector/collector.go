package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/pkg/logger"
	"github.com/wonny/trendscore/pkg/redis"
)

// Extra column names fed by investor flow
const (
	ColumnMainFundNetInflow   = "main_fund_net_inflow"  // 기관 순매수
	ColumnNorthboundNetInflow = "northbound_net_inflow" // 외국인 순매수
)

// FlowSource supplies daily investor net buying
type FlowSource interface {
	FetchInvestorFlow(ctx context.Context, code string, from, to time.Time) ([]naver.InvestorFlow, error)
}

// FlowStore persists investor flow rows
type FlowStore interface {
	SaveFlows(ctx context.Context, flows []naver.InvestorFlow) (int, error)
}

// Collector fetches bars, merges fund flow, caches and persists them.
// It is itself a contracts.PriceSource for the analyzer.
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	prices      contracts.PriceSource
	flows       FlowSource
	cache       *redis.Cache
	bars        contracts.BarRepository
	flowStore   FlowStore
	logger      *logger.Logger
	now         func() time.Time
	dailyTTL    time.Duration
	intradayTTL time.Duration
}

// Option configures a Collector
type Option func(*Collector)

// WithFlowSource merges investor flow into daily bars
func WithFlowSource(src FlowSource) Option {
	return func(c *Collector) { c.flows = src }
}

// WithCache caches fetched series; ttl applies to daily series
func WithCache(cache *redis.Cache, ttl time.Duration) Option {
	return func(c *Collector) {
		c.cache = cache
		if ttl > 0 {
			c.dailyTTL = ttl
		}
	}
}

// WithBarRepository persists fetched bars
func WithBarRepository(repo contracts.BarRepository) Option {
	return func(c *Collector) { c.bars = repo }
}

// WithFlowStore persists fetched investor flow
func WithFlowStore(store FlowStore) Option {
	return func(c *Collector) { c.flowStore = store }
}

// WithClock sets the clock used for intraday cache keys
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// NewCollector creates a new Collector instance
func NewCollector(prices contracts.PriceSource, log *logger.Logger, opts ...Option) *Collector {
	if log == nil {
		log = logger.Nop()
	}
	c := &Collector{
		prices:      prices,
		logger:      log.WithField("module", "collector"),
		now:         time.Now,
		dailyTTL:    redis.TTLMedium,
		intradayTTL: redis.TTLShort,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDaily returns daily bars with fund flow columns merged in
func (c *Collector) FetchDaily(ctx context.Context, code string, from, to time.Time) (contracts.PriceSeries, error) {
	key := redis.BarsKey(code, contracts.TimeframeDaily, from.Format("20060102")+"-"+to.Format("20060102"))
	if series, ok := c.cached(ctx, key); ok {
		return series, nil
	}

	series, err := c.prices.FetchDaily(ctx, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch daily %s: %w", code, err)
	}

	if c.flows != nil && len(series) > 0 {
		flows, err := c.flows.FetchInvestorFlow(ctx, code, from, to)
		if err != nil {
			// 수급 없이도 분석 가능
			c.logger.WithError(err).WithField("code", code).Warn("Investor flow unavailable")
		} else {
			series = MergeFlows(series, flows)
			c.saveFlows(ctx, code, flows)
		}
	}

	c.saveBars(ctx, code, contracts.TimeframeDaily, series)
	c.store(ctx, key, series, c.dailyTTL)
	return series, nil
}

// FetchIntraday returns the latest 30-minute bars
func (c *Collector) FetchIntraday(ctx context.Context, code string, count int) (contracts.PriceSeries, error) {
	bucket := c.now().Truncate(time.Minute).Format("200601021504")
	key := redis.BarsKey(code, contracts.TimeframeIntraday, fmt.Sprintf("%s-%d", bucket, count))
	if series, ok := c.cached(ctx, key); ok {
		return series, nil
	}

	series, err := c.prices.FetchIntraday(ctx, code, count)
	if err != nil {
		return nil, fmt.Errorf("fetch intraday %s: %w", code, err)
	}

	c.saveBars(ctx, code, contracts.TimeframeIntraday, series)
	c.store(ctx, key, series, c.intradayTTL)
	return series, nil
}

func (c *Collector) cached(ctx context.Context, key string) (contracts.PriceSeries, bool) {
	if c.cache == nil {
		return nil, false
	}
	var series contracts.PriceSeries
	found, err := c.cache.Get(ctx, key, &series)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Bar cache read failed")
		return nil, false
	}
	return series, found
}

func (c *Collector) store(ctx context.Context, key string, series contracts.PriceSeries, ttl time.Duration) {
	if c.cache == nil || len(series) == 0 {
		return
	}
	if err := c.cache.Set(ctx, key, series, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Bar cache write failed")
	}
}

func (c *Collector) saveBars(ctx context.Context, code, timeframe string, series contracts.PriceSeries) {
	if c.bars == nil || len(series) == 0 {
		return
	}
	if _, err := c.bars.SaveSeries(ctx, code, timeframe, series); err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"code":      code,
			"timeframe": timeframe,
		}).Warn("Failed to save bars")
	}
}

func (c *Collector) saveFlows(ctx context.Context, code string, flows []naver.InvestorFlow) {
	if c.flowStore == nil || len(flows) == 0 {
		return
	}
	if _, err := c.flowStore.SaveFlows(ctx, flows); err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Failed to save investor flow")
	}
}

// MergeFlows copies series and sets the flow columns on bars with a matching date.
// Institution net buying feeds the main-fund column, foreign net buying the northbound one.
func MergeFlows(series contracts.PriceSeries, flows []naver.InvestorFlow) contracts.PriceSeries {
	byDate := make(map[string]naver.InvestorFlow, len(flows))
	for _, f := range flows {
		byDate[f.TradeDate.Format("2006-01-02")] = f
	}

	out := make(contracts.PriceSeries, len(series))
	for i, b := range series {
		out[i] = b
		f, ok := byDate[b.Date.Format("2006-01-02")]
		if !ok {
			continue
		}
		extra := make(map[string]float64, len(b.Extra)+2)
		for k, v := range b.Extra {
			extra[k] = v
		}
		extra[ColumnMainFundNetInflow] = float64(f.InstitutionNet)
		extra[ColumnNorthboundNetInflow] = float64(f.ForeignNet)
		out[i].Extra = extra
	}
	return out
}

// FetchResult represents the result of collecting one stock
type FetchResult struct {
	StockCode string
	BarCount  int
	Error     error
}

// CollectDaily fetches daily bars of many codes with a worker pool
func (c *Collector) CollectDaily(ctx context.Context, codes []string, from, to time.Time, workers int) []FetchResult {
	if workers <= 0 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_count": len(codes),
		"from":        from.Format("2006-01-02"),
		"to":          to.Format("2006-01-02"),
		"workers":     workers,
	}).Info("Starting price collection")

	codeCh := make(chan string, len(codes))
	resultCh := make(chan FetchResult, len(codes))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range codeCh {
				if err := ctx.Err(); err != nil {
					resultCh <- FetchResult{StockCode: code, Error: err}
					continue
				}
				series, err := c.FetchDaily(ctx, code, from, to)
				resultCh <- FetchResult{StockCode: code, BarCount: len(series), Error: err}
			}
		}()
	}

	for _, code := range codes {
		codeCh <- code
	}
	close(codeCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]FetchResult, 0, len(codes))
	failed := 0
	for r := range resultCh {
		if r.Error != nil {
			failed++
		}
		results = append(results, r)
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(results) - failed,
		"failed":  failed,
		"total":   len(results),
	}).Info("Price collection completed")

	return results
}

var _ contracts.PriceSource = (*Collector)(nil)
