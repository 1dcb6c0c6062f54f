package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/s0_data/collector"
	"github.com/wonny/trendscore/internal/s0_data/quality"
	"github.com/wonny/trendscore/internal/s2_signals"
)

type fakeBuilder struct {
	batch *s2_signals.Batch
	err   error
	codes []string
	style string
}

func (f *fakeBuilder) Build(_ context.Context, codes []string, style string) (*s2_signals.Batch, error) {
	f.codes, f.style = codes, style
	return f.batch, f.err
}

func TestAnalysisJob_Run(t *testing.T) {
	r := contracts.NewAnalysisResult("005930")
	b := &fakeBuilder{batch: &s2_signals.Batch{
		Results: []*contracts.AnalysisResult{r},
		Failed:  map[string]string{},
		Success: 1,
	}}
	job := NewAnalysisJob(b, []string{"005930"}, "aggressive", "0 40 15 * * 1-5", nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "watchlist_analysis", job.Name())
	assert.Equal(t, "0 40 15 * * 1-5", job.Schedule())
	assert.Equal(t, "aggressive", b.style)
	assert.Same(t, b.batch, job.LastBatch())
}

func TestAnalysisJob_AllFailed(t *testing.T) {
	b := &fakeBuilder{batch: &s2_signals.Batch{Failed: map[string]string{"A": "x", "B": "y"}, FailedCount: 2}}
	job := NewAnalysisJob(b, []string{"A", "B"}, "", "@daily", nil)

	assert.ErrorContains(t, job.Run(context.Background()), "all 2 stocks failed")
}

func TestAnalysisJob_BuildError(t *testing.T) {
	b := &fakeBuilder{batch: &s2_signals.Batch{}, err: context.Canceled}
	job := NewAnalysisJob(b, []string{"A"}, "", "@daily", nil)

	assert.ErrorIs(t, job.Run(context.Background()), context.Canceled)
}

func TestAnalysisJob_EmptyWatchlist(t *testing.T) {
	b := &fakeBuilder{}
	job := NewAnalysisJob(b, nil, "", "@daily", nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Nil(t, b.codes)
}

type fakeCollector struct {
	results  []collector.FetchResult
	from, to time.Time
}

func (f *fakeCollector) CollectDaily(_ context.Context, _ []string, from, to time.Time, _ int) []collector.FetchResult {
	f.from, f.to = from, to
	return f.results
}

func TestDataCollectionJob_Run(t *testing.T) {
	col := &fakeCollector{results: []collector.FetchResult{
		{StockCode: "A", BarCount: 5},
		{StockCode: "B", Error: errors.New("timeout")},
	}}
	job := NewDataCollectionJob(col, []string{"A", "B"}, "0 10 16 * * 1-5", 2, nil)
	now := time.Date(2024, 1, 16, 16, 10, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -5), col.from)
	assert.Equal(t, now, col.to)
}

func TestDataCollectionJob_AllFailed(t *testing.T) {
	col := &fakeCollector{results: []collector.FetchResult{{StockCode: "A", Error: errors.New("timeout")}}}
	job := NewDataCollectionJob(col, []string{"A"}, "@daily", 1, nil)

	assert.ErrorContains(t, job.Run(context.Background()), "timeout")
}

type fakeGate struct {
	codes []string
	date  time.Time
	err   error
}

func (f *fakeGate) Check(_ context.Context, codes []string, date time.Time) (*quality.Snapshot, error) {
	f.codes, f.date = codes, date
	if f.err != nil {
		return nil, f.err
	}
	return &quality.Snapshot{TotalStocks: len(codes), QualityScore: 0.5}, nil
}

func TestDataCollectionJob_QualityGate(t *testing.T) {
	col := &fakeCollector{results: []collector.FetchResult{{StockCode: "A", BarCount: 5}}}
	gate := &fakeGate{}
	job := NewDataCollectionJob(col, []string{"A"}, "@daily", 1, nil).WithQualityGate(gate)
	now := time.Date(2024, 1, 16, 16, 10, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"A"}, gate.codes)
	assert.Equal(t, now, gate.date)

	// 품질 검사 실패는 Job 실패가 아님
	gate.err = errors.New("connection reset")
	assert.NoError(t, job.Run(context.Background()))
}

type fakeRules struct{ resets int }

func (f *fakeRules) Reset() { f.resets++ }

type fakeTags struct{ n int }

func (f *fakeTags) Purge()   { f.n = 0 }
func (f *fakeTags) Len() int { return f.n }

func TestCacheRefreshJob(t *testing.T) {
	rules := &fakeRules{}
	tags := &fakeTags{n: 12}
	job := NewCacheRefreshJob(rules, tags, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, rules.resets)
	assert.Zero(t, tags.Len())

	require.NoError(t, NewCacheRefreshJob(nil, nil, nil).Run(context.Background()))
}
