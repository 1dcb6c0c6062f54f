package commands

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/wonny/trendscore/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드는 cmd.OutOrStdout() 에 동일한 포맷으로 출력
// ═══════════════════════════════════════════════════════════

const separatorLine = "───────────────────────────────────────────────────────────"

// printTitle prints a command banner
// Example: === TrendScore Collect ===
func printTitle(out io.Writer, title string) {
	fmt.Fprintf(out, "=== TrendScore %s ===\n", title)
}

// printStep prints one progress step with counter
// Example: [Collect] 005930: 120 bars [1/3]
func printStep(out io.Writer, tag string, current, total int, format string, args ...any) {
	fmt.Fprintf(out, "[%s] %s [%d/%d]\n", tag, fmt.Sprintf(format, args...), current, total)
}

func printSeparator(out io.Writer) {
	fmt.Fprintln(out, separatorLine)
}

func printWarning(out io.Writer, message string) {
	fmt.Fprintf(out, "\n⚠️  %s\n\n", message)
}

func printSuccess(out io.Writer, message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

func printError(out io.Writer, message string) {
	fmt.Fprintf(out, "❌ %s\n", message)
}

func printList(out io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "   • %s\n", item)
	}
}

func printKeyValue(out io.Writer, key, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}

// table prints fixed width columns.
// 폭은 룬 단위로 계산 (한글/중문 라벨이 바이트 폭으로 밀리지 않도록)
type table struct {
	out    io.Writer
	widths []int
}

func newTable(out io.Writer, widths ...int) *table {
	return &table{out: out, widths: widths}
}

// header prints the column names and a rule as wide as the table
func (t *table) header(columns ...string) {
	t.row(columns...)

	total := 0
	for i, w := range t.widths {
		total += w
		if i < len(t.widths)-1 {
			total += 2
		}
	}
	fmt.Fprintln(t.out, strings.Repeat("─", total))
}

func (t *table) row(values ...string) {
	var b strings.Builder
	for i, v := range values {
		b.WriteString(v)
		if i == len(values)-1 {
			break
		}
		if i < len(t.widths) {
			if pad := t.widths[i] - utf8.RuneCountInString(v); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("  ")
	}
	fmt.Fprintln(t.out, b.String())
}

// signalMarks is the console marker of each signal level
var signalMarks = map[contracts.BuySignal]string{
	contracts.SignalStrongBuy:  "🟢",
	contracts.SignalBuy:        "🟢",
	contracts.SignalHold:       "🟡",
	contracts.SignalWait:       "⚪",
	contracts.SignalSell:       "🔴",
	contracts.SignalStrongSell: "🔴",
}

// signalCell renders a signal as "<mark> BUY"
func signalCell(s contracts.BuySignal) string {
	mark, ok := signalMarks[s]
	if !ok {
		mark = "⚪"
	}
	return mark + " " + string(s)
}

// printSignalTable prints one compact row per result in the given order
// Example: 005930  🟢 BUY  72  多头排列  +1.25%  ✓
func printSignalTable(out io.Writer, results []*contracts.AnalysisResult) {
	t := newTable(out, 8, 16, 5, 12, 8, 5)
	t.header("CODE", "SIGNAL", "SCORE", "TREND", "BIAS5", "VALID")
	for _, r := range results {
		valid := "-"
		if r.SignalValid {
			valid = "✓"
		}
		t.row(
			r.Code,
			signalCell(r.BuySignal),
			fmt.Sprintf("%d", r.SignalScore),
			r.TrendStatus.Label(),
			fmt.Sprintf("%+.2f%%", r.BiasMA5),
			valid,
		)
	}
}
