package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [codes...]",
	Short: "시세/수급 수집",
	Long: `Naver Finance에서 일봉과 투자자별 매매 동향을 수집합니다.

DATABASE_URL이 설정되어 있으면 data.price_bars / data.investor_flow에 저장하고,
Redis가 활성화되어 있으면 캐시에 적재합니다.
종목을 생략하면 WATCHLIST를 사용합니다.

Example:
  go run ./cmd/quant collect 005930 000660 --days 30
  go run ./cmd/quant collect --workers 8`,
	RunE: runCollect,
}

var (
	collectDays    int
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVar(&collectDays, "days", 5, "calendar days to collect")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "concurrent fetches (default: SCHEDULER_WORKERS)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	codes := splitCodes(strings.Join(args, ","))
	if len(codes) == 0 {
		codes = cfg.Scheduler.Watchlist
	}
	if len(codes) == 0 {
		return fmt.Errorf("no codes given and WATCHLIST is empty")
	}
	workers := collectWorkers
	if workers <= 0 {
		workers = cfg.Scheduler.Workers
	}

	app, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	to := time.Now()
	from := to.AddDate(0, 0, -collectDays)

	out := cmd.OutOrStdout()
	printTitle(out, "Collect")
	fmt.Fprintln(out)
	printKeyValue(out, "Period", from.Format("2006-01-02")+" ~ "+to.Format("2006-01-02"), 8)
	printKeyValue(out, "Symbols", strings.Join(codes, ", "), 8)
	printSeparator(out)

	start := time.Now()
	results := app.collector.CollectDaily(ctx, codes, from, to, workers)

	failed := 0
	for i, r := range results {
		if r.Error != nil {
			failed++
			printStep(out, "Collect", i+1, len(results), "%s failed: %v", r.StockCode, r.Error)
			continue
		}
		printStep(out, "Collect", i+1, len(results), "%s: %d bars", r.StockCode, r.BarCount)
	}

	printSeparator(out)
	if failed == len(results) {
		printError(out, "all stocks failed")
		return fmt.Errorf("collect: all %d stocks failed", failed)
	}
	printSuccess(out, fmt.Sprintf("collected %d/%d in %.2fs", len(results)-failed, len(results), time.Since(start).Seconds()))
	return nil
}
