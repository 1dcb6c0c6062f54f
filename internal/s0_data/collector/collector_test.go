package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/pkg/redis"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

type fakePrices struct {
	mu            sync.Mutex
	dailyCalls    int
	intradayCalls int
	fail          map[string]bool
}

func (f *fakePrices) FetchDaily(_ context.Context, code string, _, _ time.Time) (contracts.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	if f.fail[code] {
		return nil, errors.New("upstream down")
	}
	return contracts.PriceSeries{
		{Date: day(15), Open: 100, High: 105, Low: 99, Close: 104, Volume: 1000},
		{Date: day(16), Open: 104, High: 106, Low: 101, Close: 102, Volume: 800},
	}, nil
}

func (f *fakePrices) FetchIntraday(_ context.Context, _ string, _ int) (contracts.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intradayCalls++
	return contracts.PriceSeries{
		{Date: time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC), Close: 101, Volume: 10},
	}, nil
}

type fakeFlows struct {
	err error
}

func (f *fakeFlows) FetchInvestorFlow(_ context.Context, code string, _, _ time.Time) ([]naver.InvestorFlow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []naver.InvestorFlow{
		{StockCode: code, TradeDate: day(16), ForeignNet: -40000, InstitutionNet: 60000, IndividualNet: -20000},
	}, nil
}

type fakeBars struct {
	mu    sync.Mutex
	saved map[string]contracts.PriceSeries
}

func (f *fakeBars) SaveSeries(_ context.Context, code, timeframe string, series contracts.PriceSeries) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]contracts.PriceSeries)
	}
	f.saved[timeframe+":"+code] = series
	return len(series), nil
}

func (f *fakeBars) GetSeries(context.Context, string, string, time.Time, time.Time) (contracts.PriceSeries, error) {
	return nil, nil
}

func (f *fakeBars) LatestDate(context.Context, string, string) (time.Time, error) {
	return time.Time{}, contracts.ErrNotFound
}

type fakeFlowStore struct {
	rows int
}

func (f *fakeFlowStore) SaveFlows(_ context.Context, flows []naver.InvestorFlow) (int, error) {
	f.rows += len(flows)
	return len(flows), nil
}

func newCache(t *testing.T) *redis.Cache {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewCache(redis.NewWithClient(rdb), "test")
}

func TestFetchDaily_MergesCachesAndPersists(t *testing.T) {
	prices := &fakePrices{}
	bars := &fakeBars{}
	flowStore := &fakeFlowStore{}
	c := NewCollector(prices, nil,
		WithFlowSource(&fakeFlows{}),
		WithCache(newCache(t), time.Minute),
		WithBarRepository(bars),
		WithFlowStore(flowStore),
	)
	ctx := context.Background()

	series, err := c.FetchDaily(ctx, "005930", day(1), day(16))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Nil(t, series[0].Extra)
	assert.Equal(t, 60000.0, series[1].Extra[ColumnMainFundNetInflow])
	assert.Equal(t, -40000.0, series[1].Extra[ColumnNorthboundNetInflow])

	assert.Len(t, bars.saved["daily:005930"], 2)
	assert.Equal(t, 1, flowStore.rows)

	cached, err := c.FetchDaily(ctx, "005930", day(1), day(16))
	require.NoError(t, err)
	assert.Equal(t, 1, prices.dailyCalls, "second call is served from cache")
	require.Len(t, cached, 2)
	assert.True(t, cached[1].Date.Equal(day(16)))
	assert.Equal(t, 60000.0, cached[1].Extra[ColumnMainFundNetInflow])

	col, ok := cached.ResolveColumn(contracts.MainFundFlowAliases)
	require.True(t, ok)
	v, ok := cached.LatestValue(col)
	require.True(t, ok)
	assert.Equal(t, 60000.0, v)
}

func TestFetchDaily_FlowFailureDegrades(t *testing.T) {
	c := NewCollector(&fakePrices{}, nil, WithFlowSource(&fakeFlows{err: errors.New("blocked")}))

	series, err := c.FetchDaily(context.Background(), "005930", day(1), day(16))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Nil(t, series[1].Extra)
}

func TestFetchDaily_PriceError(t *testing.T) {
	c := NewCollector(&fakePrices{fail: map[string]bool{"000000": true}}, nil)

	_, err := c.FetchDaily(context.Background(), "000000", day(1), day(16))
	assert.ErrorContains(t, err, "fetch daily 000000")
}

func TestFetchIntraday_CachedPerMinute(t *testing.T) {
	prices := &fakePrices{}
	now := time.Date(2024, 1, 16, 10, 0, 5, 0, time.UTC)
	c := NewCollector(prices, nil,
		WithCache(newCache(t), 0),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	first, err := c.FetchIntraday(ctx, "005930", 60)
	require.NoError(t, err)
	_, err = c.FetchIntraday(ctx, "005930", 60)
	require.NoError(t, err)
	assert.Equal(t, 1, prices.intradayCalls)

	require.Len(t, first, 1)
	now = now.Add(time.Minute)
	second, err := c.FetchIntraday(ctx, "005930", 60)
	require.NoError(t, err)
	assert.Equal(t, 2, prices.intradayCalls)
	assert.True(t, first[0].Date.Equal(second[0].Date))
}

func TestMergeFlows_DoesNotMutateInput(t *testing.T) {
	series := contracts.PriceSeries{
		{Date: day(16), Close: 1, Extra: map[string]float64{"turnover": 2}},
	}
	flows := []naver.InvestorFlow{{TradeDate: day(16), InstitutionNet: 5, ForeignNet: -3}}

	merged := MergeFlows(series, flows)
	assert.Equal(t, map[string]float64{"turnover": 2}, series[0].Extra)
	assert.Equal(t, map[string]float64{
		"turnover":                2,
		ColumnMainFundNetInflow:   5,
		ColumnNorthboundNetInflow: -3,
	}, merged[0].Extra)
}

func TestCollectDaily(t *testing.T) {
	prices := &fakePrices{fail: map[string]bool{"BAD": true}}
	c := NewCollector(prices, nil)

	results := c.CollectDaily(context.Background(), []string{"005930", "BAD", "000660"}, day(1), day(16), 2)
	require.Len(t, results, 3)

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			assert.Equal(t, "BAD", r.StockCode)
			continue
		}
		assert.Equal(t, 2, r.BarCount)
	}
	assert.Equal(t, 1, failed)
}

func TestCollectDaily_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewCollector(&fakePrices{}, nil).CollectDaily(ctx, []string{"005930"}, day(1), day(16), 0)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
}
