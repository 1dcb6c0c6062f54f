package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/analyzer"
	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/s2_signals"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [codes...]",
	Short: "종목 추세 분석",
	Long: `종목의 일봉(및 30분봉)을 수집해 추세 신호를 분석합니다.

--file 을 지정하면 네트워크 없이 JSON 일봉 파일을 분석합니다.
파일은 {"date","open","high","low","close","volume", ...} 객체 배열이며
나머지 숫자 컬럼(main_fund_net_inflow 등)은 수급 컬럼으로 사용됩니다.

Example:
  go run ./cmd/quant analyze 005930
  go run ./cmd/quant analyze 005930 000660 035420 --style aggressive
  go run ./cmd/quant analyze 005930 --file bars.json --evidence
  go run ./cmd/quant analyze 005930 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeStyle    string
	analyzeFile     string
	analyzeJSON     bool
	analyzeEvidence bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeStyle, "style", "", "rules style (conservative|balanced|aggressive)")
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "analyze daily bars from a JSON file instead of fetching")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print results as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeEvidence, "evidence", false, "print the signal evidence table")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	codes := make([]string, 0, len(args))
	for _, a := range args {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(a)))
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// 오프라인 분석: 파일 시세, 태그 조회 없음
	if analyzeFile != "" {
		if len(codes) != 1 {
			return fmt.Errorf("--file analyzes exactly one code, got %d", len(codes))
		}
		daily, err := readBarsFile(analyzeFile)
		if err != nil {
			return err
		}
		a := analyzer.New(newRulesProvider(cfg, log), analyzer.WithLogger(log))
		result := a.AnalyzeStyle(ctx, analyzeStyle, codes[0], daily, nil)
		return printResults(out, []*contracts.AnalysisResult{result})
	}

	app, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if len(codes) == 1 {
		result, err := app.builder.AnalyzeOne(ctx, codes[0], analyzeStyle)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", codes[0], err)
		}
		return printResults(out, []*contracts.AnalysisResult{result})
	}

	batch, err := app.builder.Build(ctx, codes, analyzeStyle)
	if err != nil {
		return fmt.Errorf("analyze watchlist: %w", err)
	}
	if analyzeJSON {
		return writeJSON(out, batch)
	}
	if err := printResults(out, batch.Results); err != nil {
		return err
	}
	printSignalTable(out, batch.Results)
	fmt.Fprintln(out)
	fmt.Fprintln(out, s2_signals.FormatSummary(batch))
	return nil
}

// readBarsFile loads a JSON array of bars, sorted and checked for duplicate dates
func readBarsFile(path string) (contracts.PriceSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bars file: %w", err)
	}

	var series contracts.PriceSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("decode bars file %s: %w", path, err)
	}
	series = series.Sorted()
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("bars file %s: %w", path, err)
	}
	return series, nil
}

func printResults(out io.Writer, results []*contracts.AnalysisResult) error {
	if analyzeJSON {
		if len(results) == 1 {
			return writeJSON(out, results[0])
		}
		return writeJSON(out, results)
	}

	for _, r := range results {
		fmt.Fprintln(out, analyzer.Format(r))
		if analyzeEvidence {
			printEvidence(out, r.SignalEvidence)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// printEvidence prints the evidence rows as a Markdown table
func printEvidence(out io.Writer, s *contracts.EvidenceSummary) {
	if s == nil {
		return
	}
	if s.Error != "" {
		fmt.Fprintf(out, "⚠️  evidence unavailable: %s\n", s.Error)
		return
	}

	fmt.Fprintf(out, "🧾 信号证据: %d分 (触发 %d / 共 %d, 风险 %d)\n",
		s.TotalScore, s.TriggeredCount, s.EvidenceCount, s.RiskCount)
	fmt.Fprintln(out, "| 规则 | 条件 | 实际值 | 阈值 | 触发 | 得分 |")
	fmt.Fprintln(out, "|------|------|--------|------|------|------|")
	for _, e := range s.Evidence {
		mark := "-"
		if e.Triggered {
			mark = "✅"
		}
		fmt.Fprintf(out, "| %s | %s | %s | %s | %s | %+.0f |\n",
			e.RuleName, e.Condition, e.ActualValue, e.Threshold, mark, e.ScoreContribution)
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
