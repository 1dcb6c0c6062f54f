package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/s0_data"
	"github.com/wonny/trendscore/internal/s0_data/quality"
	"github.com/wonny/trendscore/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "PostgreSQL 관리",
	Long: `데이터베이스 연결을 점검하고 스키마를 생성합니다.

Subcommands:
  check    - Ping, Health Check, Connection Pool 통계
  migrate  - data/signals 스키마 생성 (멱등)
  quality  - 관심 종목의 저장 데이터 커버리지 점검

Example:
  go run ./cmd/quant db check
  go run ./cmd/quant db migrate
  go run ./cmd/quant db quality --date 2024-03-15 005930 000660`,
}

var (
	dbCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "연결 점검",
		RunE:  runDBCheck,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "스키마 생성",
		RunE:  runDBMigrate,
	}

	dbQualityCmd = &cobra.Command{
		Use:   "quality [codes...]",
		Short: "데이터 품질 점검 (기본: WATCHLIST)",
		RunE:  runDBQuality,
	}
)

var qualityDate string

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbCheckCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbQualityCmd)

	dbQualityCmd.Flags().StringVar(&qualityDate, "date", "", "trade date (YYYY-MM-DD, default today)")
}

// openDB connects or explains that DATABASE_URL is missing
func openDB(ctx context.Context) (*database.DB, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrDisabled) {
		return nil, fmt.Errorf("❌ DATABASE_URL is not set")
	}
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	return db, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printTitle(out, "Database Check")

	ctx, cancel := context.WithTimeout(commandContext(cmd), 10*time.Second)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	printSuccess(out, "Database connection established")

	// Get health status
	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Fprintln(out, "✅ Health Check Results:")
	printKeyValue(out, "Healthy", fmt.Sprintf("%v", status.Healthy), 20)
	printKeyValue(out, "Response Time", status.ResponseTime.String(), 20)
	printKeyValue(out, "Timestamp", status.Timestamp.Format(time.RFC3339), 20)

	// Pool statistics
	fmt.Fprintln(out, "\n📊 Connection Pool Statistics:")
	printKeyValue(out, "Max Connections", fmt.Sprintf("%d", status.Stats.MaxConns), 20)
	printKeyValue(out, "Total Connections", fmt.Sprintf("%d", status.Stats.TotalConns), 20)
	printKeyValue(out, "Acquired", fmt.Sprintf("%d", status.Stats.AcquiredConns), 20)
	printKeyValue(out, "Idle", fmt.Sprintf("%d", status.Stats.IdleConns), 20)
	printKeyValue(out, "Acquire Count", fmt.Sprintf("%d", status.Stats.AcquireCount), 20)
	printKeyValue(out, "Acquire Duration", status.Stats.AcquireDuration.String(), 20)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printTitle(out, "Database Migrate")

	ctx, cancel := context.WithTimeout(commandContext(cmd), time.Minute)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := s0_data.NewRepository(db.Pool).Migrate(ctx); err != nil {
		return fmt.Errorf("❌ Migration failed: %w", err)
	}
	printSuccess(out, "Schemas data and signals are up to date")
	return nil
}

func runDBQuality(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printTitle(out, "Data Quality")

	date := time.Now()
	if qualityDate != "" {
		d, err := time.Parse("2006-01-02", qualityDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", qualityDate, err)
		}
		date = d
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), 30*time.Second)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	codes := splitCodes(strings.Join(args, ","))
	if len(codes) == 0 {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		codes = cfg.Scheduler.Watchlist
	}
	if len(codes) == 0 {
		return fmt.Errorf("no codes given and WATCHLIST is empty")
	}

	snap, err := quality.NewGate(db.Pool, quality.DefaultConfig()).Check(ctx, codes, date)
	if err != nil {
		return fmt.Errorf("❌ Quality check failed: %w", err)
	}
	printQuality(out, snap)
	if !snap.Passed {
		return fmt.Errorf("data quality %.2f below threshold", snap.QualityScore)
	}
	return nil
}

func printQuality(out io.Writer, snap *quality.Snapshot) {
	printKeyValue(out, "Date", snap.Date.Format("2006-01-02"), 20)
	printKeyValue(out, "Stocks", fmt.Sprintf("%d/%d", snap.ValidStocks, snap.TotalStocks), 20)
	for _, key := range []string{"price", "volume", "intraday", "investor"} {
		printKeyValue(out, key, fmt.Sprintf("%.1f%%", snap.Coverage[key]*100), 20)
	}
	printKeyValue(out, "Score", fmt.Sprintf("%.3f", snap.QualityScore), 20)
	if len(snap.Missing) > 0 {
		printWarning(out, "Missing daily bars: " + strings.Join(snap.Missing, ", "))
	}
	if snap.Passed {
		printSuccess(out, "Quality gate passed")
	}
}

// maskPassword hides the password of a database URL for display
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
