package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/scheduler"
	"github.com/wonny/trendscore/internal/scheduler/jobs"
	"github.com/wonny/trendscore/pkg/config"
	"github.com/wonny/trendscore/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `관심종목 수집/분석 스케줄러를 시작하거나 작업을 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업과 다음 실행 시각
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run watchlist_analysis`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (SCHEDULER_TZ 기준):
- data_collection: COLLECTION_SCHEDULE (기본 평일 16:10, 최근 5일 일봉/수급 저장)
- watchlist_analysis: ANALYSIS_SCHEDULE (기본 평일 15:40, 관심종목 분석)
- cache_refresh: 평일 08:30 (규칙/태그 캐시 초기화)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printTitle(out, "Scheduler")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if cfg.Analyzer.WatchRules {
		startRulesWatcher(ctx, app)
	}

	// Start scheduler
	sched.Start()

	fmt.Fprintln(out, "\n✅ Scheduler started successfully")
	printJobs(out, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	printStats(out, sched)
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	sched, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}
	// 작업 목록만 필요하므로 외부 연결 없이 등록
	if err := registerJobs(sched, cfg, log, nil); err != nil {
		return err
	}
	printJobs(cmd.OutOrStdout(), sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunNow(ctx, args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		printError(cmd.OutOrStdout(), fmt.Sprintf("%s failed after %d attempt(s): %s", result.JobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	return nil
}

// newScheduler builds a scheduler with retry, timeout and timezone from config
func newScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Scheduler.Timezone, err)
	}
	return scheduler.New(log,
		scheduler.WithLocation(loc),
		scheduler.WithRetry(cfg.Scheduler.MaxRetries, cfg.Scheduler.RetryDelay),
		scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout),
	), nil
}

// initScheduler builds the scheduler with every job wired to app
func initScheduler(app *app) (*scheduler.Scheduler, error) {
	sched, err := newScheduler(app.cfg, app.log)
	if err != nil {
		return nil, err
	}
	if err := registerJobs(sched, app.cfg, app.log, app); err != nil {
		return nil, err
	}
	return sched, nil
}

// registerJobs adds the batch jobs; a nil app registers them unwired (list only)
func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, log *logger.Logger, app *app) error {
	var (
		col     jobs.DailyCollector
		builder jobs.WatchlistAnalyzer
		rc      jobs.RulesCache
		tc      jobs.TagCache
	)
	if app != nil {
		col, builder, rc, tc = app.collector, app.builder, app.provider, app.tagger
	}

	sc := cfg.Scheduler
	collection := jobs.NewDataCollectionJob(col, sc.Watchlist, sc.CollectionSchedule, sc.Workers, log)
	if app != nil && app.quality != nil {
		collection.WithQualityGate(app.quality)
	}
	list := []scheduler.Job{
		collection,
		jobs.NewAnalysisJob(builder, sc.Watchlist, cfg.Analyzer.Style, sc.AnalysisSchedule, log),
		jobs.NewCacheRefreshJob(rc, tc, log),
	}
	for _, job := range list {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return nil
}

func printJobs(out io.Writer, sched *scheduler.Scheduler) {
	fmt.Fprintln(out, "\nRegistered jobs:")
	t := newTable(out, 20, 26)
	t.header("JOB", "NEXT RUN")
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, ok := sched.NextRun(name); ok && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05 MST")
		}
		t.row(name, next)
	}
}

func printStats(out io.Writer, sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable(out, 20, 6, 8, 8)
	t.header("JOB", "RUNS", "FAILED", "SUCCESS")
	for _, name := range names {
		st := stats[name]
		t.row(
			name,
			fmt.Sprintf("%d", st.TotalRuns),
			fmt.Sprintf("%d", st.FailureCount),
			fmt.Sprintf("%.0f%%", st.SuccessRate*100),
		)
	}
}
