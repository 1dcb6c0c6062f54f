package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/sector"
)

// sectorCmd represents the sector command
var sectorCmd = &cobra.Command{
	Use:   "sector",
	Short: "업종 분석",
	Long: `네이버 업종 시세로 업종 강도와 관심종목의 업종 연동을 분석합니다.

Subcommands:
  hot        - 상승률 상위 업종 점수 순위
  report     - 단일 업종 리포트
  portfolio  - 관심종목 업종별 연동 뷰

Example:
  go run ./cmd/quant sector hot --limit 5
  go run ./cmd/quant sector report 278 --name 반도체 --focus 005930,000660
  go run ./cmd/quant sector portfolio 005930 000660 105560`,
}

var (
	sectorHotCmd = &cobra.Command{
		Use:   "hot",
		Short: "상위 업종 순위",
		RunE:  runSectorHot,
	}

	sectorReportCmd = &cobra.Command{
		Use:   "report [industry_code]",
		Short: "업종 리포트",
		Args:  cobra.ExactArgs(1),
		RunE:  runSectorReport,
	}

	sectorPortfolioCmd = &cobra.Command{
		Use:   "portfolio [codes...]",
		Short: "관심종목 업종 연동 뷰",
		RunE:  runSectorPortfolio,
	}
)

var (
	sectorLimit   int
	sectorName    string
	sectorFocus   string
	sectorDetails bool
)

func init() {
	rootCmd.AddCommand(sectorCmd)
	sectorCmd.AddCommand(sectorHotCmd)
	sectorCmd.AddCommand(sectorReportCmd)
	sectorCmd.AddCommand(sectorPortfolioCmd)

	sectorHotCmd.Flags().IntVar(&sectorLimit, "limit", 0, "number of industries (default: SECTOR_HOT_LIMIT)")
	sectorReportCmd.Flags().StringVar(&sectorName, "name", "", "industry display name")
	sectorReportCmd.Flags().StringVar(&sectorFocus, "focus", "", "comma separated watchlist codes")
	sectorReportCmd.Flags().BoolVar(&sectorDetails, "details", true, "include the score evidence table")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runSectorHot(cmd *cobra.Command, args []string) error {
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

	results, err := app.sectors.HotSectors(ctx, sectorLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sector.FormatHotSectors(results))
	return nil
}

func runSectorReport(cmd *cobra.Command, args []string) error {
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

	name := sectorName
	if name == "" {
		name = args[0]
	}
	result, err := app.sectors.AnalyzeSector(ctx, args[0], name, sector.TypeIndustry, splitCodes(sectorFocus))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sector.FormatReport(result, sectorDetails))
	return nil
}

func runSectorPortfolio(cmd *cobra.Command, args []string) error {
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

	app, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	stocks := make([]*contracts.StockTags, 0, len(codes))
	for _, code := range codes {
		t, err := app.tagger.Tags(ctx, code)
		if err != nil {
			log.WithError(err).WithField("code", code).Warn("Skip untagged stock")
			continue
		}
		stocks = append(stocks, t)
	}

	results := app.sectors.AnalyzePortfolio(ctx, stocks)

	signals := map[string]string{}
	if batch, err := app.builder.Build(ctx, codes, ""); err == nil {
		signals = batch.Signals()
	} else {
		log.WithError(err).Warn("Signals unavailable, showing sectors only")
	}

	view := sector.PortfolioStocks(stocks, results, signals)
	fmt.Fprintln(cmd.OutOrStdout(), sector.FormatPortfolioView(view, results))
	return nil
}

// splitCodes splits a comma/space separated code list
func splitCodes(s string) []string {
	var codes []string
	for _, c := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		codes = append(codes, strings.ToUpper(c))
	}
	return codes
}
