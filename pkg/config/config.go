package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production
	API  APIConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Naver NaverConfig

	// Analyzer
	Analyzer AnalyzerConfig

	// Sector
	Sector SectorConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   LogFileConfig

	// 잘못된 값으로 무시된 환경변수 (로거 생성 후 경고 출력용)
	Ignored []string
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit      int // 클라이언트별 분석 요청 한도 (0 = 무제한)
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL is configured
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL    string
	ChartURL   string
	RatePerSec float64
	Timeout    time.Duration
}

// AnalyzerConfig holds signal analyzer configuration
// nil 오버라이드는 규칙 파일/프리셋 값을 그대로 사용
type AnalyzerConfig struct {
	RulesPath     string
	Style         string
	WatchRules    bool
	HistoryDays   int
	IntradayBars  int
	BiasThreshold *float64
	RSIOverbought *float64
	RSIOversold   *float64
}

// SectorConfig holds sector analysis configuration
type SectorConfig struct {
	MarketIndex     string  // 상대강도 기준 지수
	LimitUpPct      float64 // 상한가 판정 등락률
	HotLimit        int
	StrongThreshold float64 // 상대강도 주도 판정 기준
}

// SchedulerConfig holds batch analysis configuration
type SchedulerConfig struct {
	Watchlist          []string
	AnalysisSchedule   string // 초 단위 포함 cron 표현식
	CollectionSchedule string
	Timezone           string
	Workers            int
	MaxRetries         int
	RetryDelay         time.Duration
	JobTimeout         time.Duration
}

// LogFileConfig holds rotating log file configuration
type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),
		API: APIConfig{
			RateLimit:      getEnvAsInt("API_RATE_LIMIT", 30),
			RateWindow:     getEnvAsDuration("API_RATE_WINDOW", "1m"),
			RequestTimeout: getEnvAsDuration("API_REQUEST_TIMEOUT", "30s"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "10m"),
		},

		Naver: NaverConfig{
			BaseURL:    getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			ChartURL:   getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			RatePerSec: getEnvAsFloat("NAVER_RATE_PER_SEC", 5),
			Timeout:    getEnvAsDuration("NAVER_TIMEOUT", "10s"),
		},

		Analyzer: AnalyzerConfig{
			RulesPath:    getEnv("ANALYZER_RULES_PATH", "config/analyzer_rules.yaml"),
			Style:        getEnv("ANALYZER_STYLE", "balanced"),
			WatchRules:   getEnvAsBool("ANALYZER_WATCH_RULES", false),
			HistoryDays:  getEnvAsInt("ANALYZER_HISTORY_DAYS", 180),
			IntradayBars: getEnvAsInt("ANALYZER_INTRADAY_BARS", 60),
		},

		Sector: SectorConfig{
			MarketIndex:     getEnv("SECTOR_MARKET_INDEX", "KOSPI"),
			LimitUpPct:      getEnvAsFloat("SECTOR_LIMIT_UP_PCT", 29.5),
			HotLimit:        getEnvAsInt("SECTOR_HOT_LIMIT", 10),
			StrongThreshold: getEnvAsFloat("SECTOR_STRONG_THRESHOLD", 3.0),
		},

		Scheduler: SchedulerConfig{
			Watchlist:          getEnvAsList("WATCHLIST"),
			AnalysisSchedule:   getEnv("ANALYSIS_SCHEDULE", "0 40 15 * * 1-5"),
			CollectionSchedule: getEnv("COLLECTION_SCHEDULE", "0 10 16 * * 1-5"),
			Timezone:           getEnv("SCHEDULER_TZ", "Asia/Seoul"),
			Workers:            getEnvAsInt("SCHEDULER_WORKERS", 4),
			MaxRetries:         getEnvAsInt("SCHEDULER_MAX_RETRIES", 2),
			RetryDelay:         getEnvAsDuration("SCHEDULER_RETRY_DELAY", "1m"),
			JobTimeout:         getEnvAsDuration("SCHEDULER_JOB_TIMEOUT", "30m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile: LogFileConfig{
			Path:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_MB", 100),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 30),
		},
	}

	// 분석기 오버라이드: 숫자가 아니면 무시
	cfg.Analyzer.BiasThreshold = cfg.optionalFloat("ANALYZER_BIAS_THRESHOLD")
	cfg.Analyzer.RSIOverbought = cfg.optionalFloat("ANALYZER_RSI_OVERBOUGHT")
	cfg.Analyzer.RSIOversold = cfg.optionalFloat("ANALYZER_RSI_OVERSOLD")

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Naver.RatePerSec <= 0 {
		return fmt.Errorf("NAVER_RATE_PER_SEC must be > 0")
	}

	if c.Analyzer.HistoryDays < 20 {
		return fmt.Errorf("ANALYZER_HISTORY_DAYS must be >= 20")
	}

	return nil
}

// optionalFloat reads a float override; invalid values are recorded and ignored
func (c *Config) optionalFloat(key string) *float64 {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return nil
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		c.Ignored = append(c.Ignored, key)
		return nil
	}
	return &value
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
