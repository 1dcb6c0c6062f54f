package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	rulesPath string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "TrendScore - 기술적 추세 신호 점수 엔진",
	Long: `TrendScore Unified CLI

일봉/분봉 시세로 추세, 거래량, MACD, RSI를 분류하고
0-100 점수와 매매 신호, 매매 계획, 근거 목록을 산출합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant analyze 005930 000660
  go run ./cmd/quant analyze 005930 --file bars.json --evidence
  go run ./cmd/quant rules show --style aggressive
  go run ./cmd/quant sector hot
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "analyzer rules file (default: ANALYZER_RULES_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
