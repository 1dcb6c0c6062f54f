package s2_signals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
)

// Batch is the outcome of one watchlist run
type Batch struct {
	Date        time.Time                   `json:"date"`
	Style       string                      `json:"style"`
	Results     []*contracts.AnalysisResult `json:"results"`
	Failed      map[string]string           `json:"failed"`
	Success     int                         `json:"success_count"`
	FailedCount int                         `json:"failed_count"`
}

// Signals maps code to the display label of its buy signal
func (b *Batch) Signals() map[string]string {
	out := make(map[string]string, len(b.Results))
	for _, r := range b.Results {
		out[r.Code] = r.BuySignal.Label()
	}
	return out
}

// FormatSummary renders the batch as a Markdown table, best score first
func FormatSummary(b *Batch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# 📋 自选股分析 %s\n\n", b.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "成功 %d / 失败 %d\n\n", b.Success, b.FailedCount)

	sb.WriteString("| 代码 | 信号 | 评分 | 趋势 | 现价 | 止损 | 目标 |\n")
	sb.WriteString("|------|------|------|------|------|------|------|\n")
	for _, r := range b.Results {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s | %.2f | %.2f | %.2f |\n",
			r.Code, r.BuySignal.Label(), r.SignalScore, r.TrendStatus.Label(),
			r.CurrentPrice, r.StopLossPrice, r.TargetPrice)
	}

	if len(b.Failed) > 0 {
		codes := make([]string, 0, len(b.Failed))
		for code := range b.Failed {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		sb.WriteString("\n### ⚠️ 失败\n\n")
		for _, code := range codes {
			fmt.Fprintf(&sb, "- %s: %s\n", code, b.Failed[code])
		}
	}
	return sb.String()
}
