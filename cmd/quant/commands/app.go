package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/trendscore/internal/analyzer"
	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/internal/rules"
	"github.com/wonny/trendscore/internal/s0_data"
	"github.com/wonny/trendscore/internal/s0_data/collector"
	"github.com/wonny/trendscore/internal/s0_data/quality"
	"github.com/wonny/trendscore/internal/s2_signals"
	"github.com/wonny/trendscore/internal/sector"
	"github.com/wonny/trendscore/internal/tags"
	"github.com/wonny/trendscore/pkg/config"
	"github.com/wonny/trendscore/pkg/database"
	"github.com/wonny/trendscore/pkg/httputil"
	"github.com/wonny/trendscore/pkg/logger"
	"github.com/wonny/trendscore/pkg/redis"
)

const cachePrefix = "trendscore"

// app holds the wired services shared by the commands
type app struct {
	cfg *config.Config
	log *logger.Logger

	db    *database.DB // DATABASE_URL 미설정 시 nil
	redis *redis.Client
	cache *redis.Cache
	repo  *s0_data.Repository

	quality   *quality.Gate // 저장소가 있을 때만
	naver     *naver.Client
	provider  *rules.Provider
	tagger    *tags.IndustryTagger
	analyzer  *analyzer.Analyzer
	collector *collector.Collector
	sectors   *sector.Analyzer
	builder   *s2_signals.Builder
}

// loadConfig loads the environment and builds the logger
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if rulesPath != "" {
		cfg.Analyzer.RulesPath = rulesPath
	}

	log := logger.New(cfg)
	for _, key := range cfg.Ignored {
		log.WithField("key", key).Warn("Ignoring non-numeric analyzer override")
	}
	return cfg, log, nil
}

// newRulesProvider builds the layered rules provider from config
func newRulesProvider(cfg *config.Config, log *logger.Logger) *rules.Provider {
	return rules.NewProvider(
		rules.WithFile(cfg.Analyzer.RulesPath),
		rules.WithStyle(cfg.Analyzer.Style),
		rules.WithOverrides(rules.Overrides{
			BiasThreshold: cfg.Analyzer.BiasThreshold,
			RSIOverbought: cfg.Analyzer.RSIOverbought,
			RSIOversold:   cfg.Analyzer.RSIOversold,
		}),
		rules.WithLogger(log),
	)
}

// newApp wires storage, sources and analyzers.
// Storage is optional: without DATABASE_URL results are only cached and published.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, publisher s2_signals.Publisher) (*app, error) {
	a := &app{cfg: cfg, log: log}

	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		log.Info("DATABASE_URL not set, running without storage")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
		a.repo = s0_data.NewRepository(db.Pool)
		if err := a.repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.quality = quality.NewGate(db.Pool, quality.DefaultConfig())
		log.Info("Connected to database")
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		// 캐시는 선택 사항이므로 비활성화하고 계속
		log.WithError(err).Warn("Redis unavailable, caching disabled")
		rc = redis.Disabled()
	}
	a.redis = rc
	a.cache = redis.NewCache(rc, cachePrefix)

	httpClient := httputil.New(cfg, log)
	a.naver = naver.NewClient(httpClient, log,
		naver.WithBaseURL(cfg.Naver.BaseURL),
		naver.WithChartURL(cfg.Naver.ChartURL),
	)

	tagger, err := tags.NewIndustryTagger(a.naver, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create tagger: %w", err)
	}
	a.tagger = tagger

	a.provider = newRulesProvider(cfg, log)
	a.analyzer = analyzer.New(a.provider,
		analyzer.WithTagger(a.tagger),
		analyzer.WithLogger(log),
	)

	colOpts := []collector.Option{
		collector.WithFlowSource(a.naver),
		collector.WithCache(a.cache, cfg.Redis.CacheTTL),
	}
	builderOpts := []s2_signals.Option{
		s2_signals.WithResultCache(a.cache, cfg.Redis.CacheTTL),
		s2_signals.WithRulesVersion(a.provider),
		s2_signals.WithHistory(cfg.Analyzer.HistoryDays, cfg.Analyzer.IntradayBars),
		s2_signals.WithWorkers(cfg.Scheduler.Workers),
	}
	if a.repo != nil {
		colOpts = append(colOpts,
			collector.WithBarRepository(a.repo.Bars),
			collector.WithFlowStore(a.repo.Flows),
		)
		builderOpts = append(builderOpts, s2_signals.WithResultRepository(a.repo.Results))
	}
	if publisher != nil {
		builderOpts = append(builderOpts, s2_signals.WithPublisher(publisher))
	}

	a.collector = collector.NewCollector(a.naver, log, colOpts...)
	a.builder = s2_signals.NewBuilder(a.collector, a.analyzer, log, builderOpts...)
	a.sectors = sector.NewAnalyzer(a.naver, sectorConfig(cfg), log)

	return a, nil
}

// sectorConfig maps env settings onto sector defaults
func sectorConfig(cfg *config.Config) sector.Config {
	sc := sector.DefaultConfig()
	if cfg.Sector.MarketIndex != "" {
		sc.MarketIndex = cfg.Sector.MarketIndex
	}
	if cfg.Sector.LimitUpPct > 0 {
		sc.LimitUpPct = cfg.Sector.LimitUpPct
	}
	if cfg.Sector.HotLimit > 0 {
		sc.MaxHotSectors = cfg.Sector.HotLimit
	}
	if cfg.Sector.StrongThreshold > 0 {
		sc.StrongThreshold = cfg.Sector.StrongThreshold
	}
	return sc
}

// bars returns the bar repository, or nil without storage
func (a *app) bars() contracts.BarRepository {
	if a.repo == nil {
		return nil
	}
	return a.repo.Bars
}

// Close releases database and Redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
