package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trendscore/internal/s0_data/collector"
	"github.com/wonny/trendscore/internal/s0_data/quality"
	"github.com/wonny/trendscore/pkg/logger"
)

// DailyCollector fetches and persists daily bars for many codes
type DailyCollector interface {
	CollectDaily(ctx context.Context, codes []string, from, to time.Time, workers int) []collector.FetchResult
}

// QualityChecker reports stored-data coverage after collection
type QualityChecker interface {
	Check(ctx context.Context, codes []string, date time.Time) (*quality.Snapshot, error)
}

// DataCollectionJob stores recent bars and investor flow of the watchlist
// ⭐ SSOT: 데이터 수집 스케줄은 이 Job에서만
type DataCollectionJob struct {
	collector DailyCollector
	watchlist []string
	schedule  string
	days      int
	workers   int
	gate      QualityChecker
	logger    *logger.Logger
	now       func() time.Time
}

// NewDataCollectionJob creates a new data collection job
func NewDataCollectionJob(col DailyCollector, watchlist []string, schedule string, workers int, log *logger.Logger) *DataCollectionJob {
	if log == nil {
		log = logger.Nop()
	}
	return &DataCollectionJob{
		collector: col,
		watchlist: watchlist,
		schedule:  schedule,
		days:      5,
		workers:   workers,
		logger:    log.WithField("job", "data_collection"),
		now:       time.Now,
	}
}

// WithQualityGate makes the job log a coverage snapshot after each run
func (j *DataCollectionJob) WithQualityGate(g QualityChecker) *DataCollectionJob {
	j.gate = g
	return j
}

// Name returns the job name
func (j *DataCollectionJob) Name() string {
	return "data_collection"
}

// Schedule returns the cron schedule
func (j *DataCollectionJob) Schedule() string {
	return j.schedule
}

// Run collects the last few days; it fails only when every code failed
func (j *DataCollectionJob) Run(ctx context.Context) error {
	if len(j.watchlist) == 0 {
		return nil
	}

	to := j.now()
	from := to.AddDate(0, 0, -j.days)

	results := j.collector.CollectDaily(ctx, j.watchlist, from, to, j.workers)
	failed := 0
	var lastErr error
	for _, r := range results {
		if r.Error != nil {
			failed++
			lastErr = r.Error
		}
	}

	if failed > 0 && failed == len(results) {
		return fmt.Errorf("collect %d stocks: %w", failed, lastErr)
	}
	if failed > 0 {
		j.logger.WithField("failed", failed).Warn("Some stocks were not collected")
	}

	if j.gate != nil {
		j.checkQuality(ctx, to)
	}
	return nil
}

// checkQuality logs the coverage snapshot; a low score does not fail the job
func (j *DataCollectionJob) checkQuality(ctx context.Context, date time.Time) {
	snap, err := j.gate.Check(ctx, j.watchlist, date)
	if err != nil {
		j.logger.WithError(err).Warn("Quality check failed")
		return
	}

	entry := j.logger.WithFields(map[string]interface{}{
		"score":   snap.QualityScore,
		"valid":   snap.ValidStocks,
		"total":   snap.TotalStocks,
		"missing": len(snap.Missing),
	})
	if !snap.Passed {
		entry.Warn("Data quality below threshold")
		return
	}
	entry.Info("Data quality passed")
}
