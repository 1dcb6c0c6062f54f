package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/rules"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "분석 규칙 관리",
	Long: `분석 규칙(임계값/배점)을 조회하고 검증합니다.

규칙은 기본값 → 규칙 파일 → 스타일 프리셋 → 환경변수 순서로 합성됩니다.

Subcommands:
  show      - 스타일별 최종 규칙 출력 (YAML)
  validate  - 규칙 파일 엄격 검증
  hash      - 스타일별 규칙 해시

Example:
  go run ./cmd/quant rules show --style aggressive
  go run ./cmd/quant rules validate config/analyzer_rules.yaml
  go run ./cmd/quant rules hash`,
}

var (
	rulesShowCmd = &cobra.Command{
		Use:   "show",
		Short: "최종 규칙 출력",
		RunE:  runRulesShow,
	}

	rulesValidateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "규칙 파일 검증",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRulesValidate,
	}

	rulesHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "스타일별 규칙 해시",
		RunE:  runRulesHash,
	}
)

var rulesStyle string

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesHashCmd)

	rulesCmd.PersistentFlags().StringVar(&rulesStyle, "style", "", "rules style (default: ANALYZER_STYLE)")
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	provider := newRulesProvider(cfg, log)
	style := provider.ResolveStyle(rulesStyle)
	r := provider.Get(style)

	data, err := rules.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	hash, err := rules.Hash(r)
	if err != nil {
		return fmt.Errorf("hash rules: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# style: %s\n# hash:  %s\n# file:  %s\n", style, hash, provider.Path())
	for _, w := range rules.Warn(r) {
		fmt.Fprintf(out, "# ⚠️  %s: %s\n", w.Code, w.Message)
	}
	_, err = out.Write(data)
	return err
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := rulesPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Analyzer.RulesPath
	}

	r, _, err := rules.LoadFile(path)
	if err != nil {
		printError(out, fmt.Sprintf("%s: %v", path, err))
		return fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	warnings := rules.Warn(r)
	if len(warnings) > 0 {
		items := make([]string, 0, len(warnings))
		for _, w := range warnings {
			items = append(items, fmt.Sprintf("%s: %s", w.Code, w.Message))
		}
		printWarning(out, fmt.Sprintf("%d warning(s)", len(warnings)))
		printList(out, items)
	}
	printSuccess(out, fmt.Sprintf("%s is valid", path))
	return nil
}

func runRulesHash(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	provider := newRulesProvider(cfg, log)

	styles := []string{rules.StyleConservative, rules.StyleBalanced, rules.StyleAggressive}
	if rulesStyle != "" {
		styles = []string{provider.ResolveStyle(rulesStyle)}
	}

	t := newTable(cmd.OutOrStdout(), 14, 64)
	t.header("STYLE", "HASH")
	for _, style := range styles {
		hash, err := rules.Hash(provider.Get(style))
		if err != nil {
			return fmt.Errorf("hash %s: %w", style, err)
		}
		t.row(style, hash)
	}
	return nil
}
