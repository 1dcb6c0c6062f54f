package jobs

import (
	"context"

	"github.com/wonny/trendscore/pkg/logger"
)

// RulesCache is a resettable per-style rules cache
type RulesCache interface {
	Reset()
}

// TagCache is a purgeable tag cache
type TagCache interface {
	Purge()
	Len() int
}

// CacheRefreshJob drops cached rules and sector tags before the session
type CacheRefreshJob struct {
	rules  RulesCache
	tags   TagCache
	logger *logger.Logger
}

// NewCacheRefreshJob creates a new cache refresh job; either cache may be nil
func NewCacheRefreshJob(rules RulesCache, tags TagCache, log *logger.Logger) *CacheRefreshJob {
	if log == nil {
		log = logger.Nop()
	}
	return &CacheRefreshJob{
		rules:  rules,
		tags:   tags,
		logger: log.WithField("job", "cache_refresh"),
	}
}

// Name returns the job name
func (j *CacheRefreshJob) Name() string {
	return "cache_refresh"
}

// Schedule returns the cron schedule (평일 08:30)
func (j *CacheRefreshJob) Schedule() string {
	return "0 30 8 * * 1-5"
}

// Run executes the cache refresh
func (j *CacheRefreshJob) Run(ctx context.Context) error {
	if j.rules != nil {
		j.rules.Reset()
	}
	removed := 0
	if j.tags != nil {
		removed = j.tags.Len()
		j.tags.Purge()
	}

	j.logger.WithField("tags_removed", removed).Info("Cache refresh completed")
	return nil
}
