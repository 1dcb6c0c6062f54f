package tags

import (
	"context"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/pkg/logger"
)

// DefaultCacheSize is the number of stocks kept in the tag cache
const DefaultCacheSize = 2048

// ProfileSource returns the industry/theme profile of a stock
type ProfileSource interface {
	FetchStockProfile(ctx context.Context, code string) (*naver.StockProfile, error)
}

// IndustryTagger resolves industry, concept, style and market cap tags
// ⭐ SSOT: 종목 태그 조회는 이 태거에서만
type IndustryTagger struct {
	source     ProfileSource
	cache      *lru.Cache[string, *contracts.StockTags]
	logger     *logger.Logger
	thresholds Thresholds
	now        func() time.Time
	cacheSize  int
}

// Option configures an IndustryTagger
type Option func(*IndustryTagger)

// WithCacheSize sets the LRU capacity
func WithCacheSize(n int) Option {
	return func(t *IndustryTagger) {
		if n > 0 {
			t.cacheSize = n
		}
	}
}

// WithThresholds overrides the market cap cut-offs
func WithThresholds(th Thresholds) Option {
	return func(t *IndustryTagger) { t.thresholds = th }
}

// WithClock sets the clock stamped into TaggedAt
func WithClock(now func() time.Time) Option {
	return func(t *IndustryTagger) { t.now = now }
}

// NewIndustryTagger creates a tagger backed by a profile source
func NewIndustryTagger(source ProfileSource, log *logger.Logger, opts ...Option) (*IndustryTagger, error) {
	if log == nil {
		log = logger.Nop()
	}
	t := &IndustryTagger{
		source:     source,
		logger:     log,
		thresholds: DefaultThresholds(),
		now:        time.Now,
		cacheSize:  DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(t)
	}

	cache, err := lru.New[string, *contracts.StockTags](t.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create tag cache: %w", err)
	}
	t.cache = cache
	return t, nil
}

// Tags returns the tag set of a stock, cached per code.
// Failed lookups are not cached.
func (t *IndustryTagger) Tags(ctx context.Context, code string) (*contracts.StockTags, error) {
	if cached, ok := t.cache.Get(code); ok {
		return cached, nil
	}

	profile, err := t.source.FetchStockProfile(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", code, err)
	}

	tags := BuildTags(profile, t.thresholds, t.now())
	t.cache.Add(code, tags)

	t.logger.WithFields(map[string]interface{}{
		"code":       code,
		"industries": tags.Industries,
		"styles":     tags.Styles,
		"bucket":     tags.MarketCapBucket,
	}).Debug("Tagged stock")
	return tags, nil
}

// PortfolioSectorMapping groups codes by industry (industry → codes).
// Codes whose lookup fails are skipped.
func (t *IndustryTagger) PortfolioSectorMapping(ctx context.Context, codes []string) map[string][]string {
	mapping := make(map[string][]string)
	for _, code := range codes {
		tags, err := t.Tags(ctx, code)
		if err != nil {
			t.logger.WithError(err).WithField("code", code).Warn("Skip stock in sector mapping")
			continue
		}
		for _, industry := range tags.Industries {
			if !slices.Contains(mapping[industry], code) {
				mapping[industry] = append(mapping[industry], code)
			}
		}
	}
	return mapping
}

// Purge clears the cache
func (t *IndustryTagger) Purge() {
	t.cache.Purge()
}

// Len returns the number of cached stocks
func (t *IndustryTagger) Len() int {
	return t.cache.Len()
}

// BuildTags turns a stock profile into its tag set
func BuildTags(p *naver.StockProfile, th Thresholds, now time.Time) *contracts.StockTags {
	tags := &contracts.StockTags{
		Code:          p.Code,
		Name:          p.Name,
		Industries:    []string{},
		IndustryCodes: []string{},
		Concepts:      append([]string{}, p.Themes...),
		ConceptCodes:  append([]string{}, p.ThemeCodes...),
		MarketCap:     p.MarketCap,
		TaggedAt:      now,
	}
	if p.Industry != "" {
		tags.Industries = append(tags.Industries, p.Industry)
		tags.IndustryCodes = append(tags.IndustryCodes, p.IndustryCode)
	}

	for _, s := range InferStyles(tags.Industries, p.MarketCap, th) {
		tags.Styles = append(tags.Styles, string(s))
	}
	tags.MarketCapBucket = th.Bucket(p.MarketCap)
	return tags
}
