package evidence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/trendscore/internal/contracts"
)

// FormatTable renders the summary as a Markdown table
func FormatTable(s *contracts.EvidenceSummary) string {
	var sb strings.Builder
	sb.WriteString("## 信号证据对照表\n\n")

	if s == nil {
		sb.WriteString("_无证据数据_\n")
		return sb.String()
	}
	if s.Error != "" {
		fmt.Fprintf(&sb, "_证据生成失败: %s_\n", s.Error)
		return sb.String()
	}

	sb.WriteString("| 规则 | 条件 | 实际值 | 状态 | 得分 | 说明 |\n")
	sb.WriteString("|------|------|--------|------|------|------|\n")

	for _, e := range s.Evidence {
		note := e.RiskNote
		if note == "" {
			note = e.OpportunityNote
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			e.RuleName, e.Condition, e.ActualValue, statusMark(e),
			strconv.FormatFloat(e.ScoreContribution, 'f', -1, 64), note)
	}

	fmt.Fprintf(&sb, "\n**总分**: %d / 100\n", s.TotalScore)
	fmt.Fprintf(&sb, "**触发**: %d | **失效**: %d | **风险**: %d",
		s.TriggeredCount, s.InvalidCount, s.RiskCount)

	return sb.String()
}

func statusMark(e contracts.Evidence) string {
	switch {
	case e.Triggered && e.Direction == contracts.DirectionTriggered:
		return "✅"
	case e.RiskNote != "":
		return "⚠️"
	default:
		return "➖"
	}
}
