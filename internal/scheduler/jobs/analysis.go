package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/trendscore/internal/s2_signals"
	"github.com/wonny/trendscore/pkg/logger"
)

// WatchlistAnalyzer runs one watchlist batch
type WatchlistAnalyzer interface {
	Build(ctx context.Context, codes []string, style string) (*s2_signals.Batch, error)
}

// AnalysisJob analyzes the watchlist after the close
// ⭐ SSOT: 관심종목 분석 스케줄은 이 Job에서만
type AnalysisJob struct {
	builder   WatchlistAnalyzer
	watchlist []string
	style     string
	schedule  string
	logger    *logger.Logger

	mu   sync.Mutex
	last *s2_signals.Batch
}

// NewAnalysisJob creates a new watchlist analysis job
func NewAnalysisJob(builder WatchlistAnalyzer, watchlist []string, style, schedule string, log *logger.Logger) *AnalysisJob {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisJob{
		builder:   builder,
		watchlist: watchlist,
		style:     style,
		schedule:  schedule,
		logger:    log.WithField("job", "watchlist_analysis"),
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "watchlist_analysis"
}

// Schedule returns the cron schedule
func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

// Run analyzes every watchlist code; it fails only when nothing succeeded
func (j *AnalysisJob) Run(ctx context.Context) error {
	if len(j.watchlist) == 0 {
		j.logger.Warn("Watchlist is empty, nothing to analyze")
		return nil
	}

	batch, err := j.builder.Build(ctx, j.watchlist, j.style)
	if err != nil {
		return fmt.Errorf("build watchlist: %w", err)
	}
	j.mu.Lock()
	j.last = batch
	j.mu.Unlock()

	if batch.Success == 0 {
		return fmt.Errorf("all %d stocks failed", batch.FailedCount)
	}

	j.logger.Info(s2_signals.FormatSummary(batch))
	return nil
}

// LastBatch returns the batch of the latest run
func (j *AnalysisJob) LastBatch() *s2_signals.Batch {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
