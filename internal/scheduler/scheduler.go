package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/trendscore/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets retry attempts after the first failure and the wait between them
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		s.retryDelay = delay
	}
}

// WithJobTimeout bounds a single attempt; 0 means no limit
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithLocation evaluates schedules in loc (e.g. Asia/Seoul)
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = cron.New(cron.WithSeconds(), cron.WithLocation(loc))
		}
	}
}

// New creates a new scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log.WithField("module", "scheduler"),
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
		retryDelay: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job; its history is dropped too
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)
	delete(s.history, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next activation time of a job
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	id, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Next.IsZero() {
		return entry.Next, true
	}
	// Start 전에는 스케줄에서 직접 계산
	return entry.Schedule.Next(s.now().In(s.cron.Location())), true
}

// RunNow runs a job synchronously, outside of its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}
	return s.runJob(ctx, job), nil
}

// runJob executes a job with retry logic and records the outcome
func (s *Scheduler) runJob(ctx context.Context, job Job) JobResult {
	name := job.Name()
	log := s.logger.WithField("job", name)
	result := JobResult{JobName: name, StartTime: s.now()}

	log.Info("Job started")

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1
		lastErr = s.attempt(ctx, job)
		if lastErr == nil {
			result.Success = true
			break
		}

		log.WithError(lastErr).WithField("attempt", attempt+1).Warn("Job execution failed")

		if attempt == s.maxRetries || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[name]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if result.Success {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"attempts": result.Attempts,
		}).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}
	return result
}

func (s *Scheduler) attempt(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return job.Run(ctx)
}

// GetJobHistory returns a copy of the latest results of a job
func (s *Scheduler) GetJobHistory(name string, n int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return history.Latest(n), nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.history))
	for name, history := range s.history {
		st := JobStats{
			JobName:      name,
			Schedule:     s.jobs[name].Schedule(),
			TotalRuns:    len(history.Results),
			FailureCount: history.FailureCount(),
			SuccessRate:  history.SuccessRate(),
		}
		st.SuccessCount = st.TotalRuns - st.FailureCount

		for i := range history.Results {
			r := history.Results[i]
			st.LastRun = &r.StartTime
			if r.Success {
				st.LastSuccess = &r.StartTime
			} else {
				st.LastFailure = &r.StartTime
			}
		}
		stats[name] = st
	}
	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
