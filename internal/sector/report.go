package sector

import (
	"fmt"
	"strings"
	"time"
)

var statusEmoji = map[MarketStatus]string{
	StatusLeaderUp:   "📈",
	StatusLeaderDown: "📉",
}

var actionEmoji = map[string]string{
	"增持": "🟢",
	"持有": "🟡",
	"减仓": "🟠",
	"减持": "🔴",
	"观望": "⚪",
}

var gradeEmoji = map[Grade]string{
	GradeStrongBullish: "🟢",
	GradeBullish:       "🟢",
	GradeNeutral:       "🟡",
	GradeBearish:       "🟠",
	GradeStrongBearish: "🔴",
}

func emojiOr(m map[string]string, key, fallback string) string {
	if e, ok := m[key]; ok {
		return e
	}
	return fallback
}

// FormatReport renders a sector review as Markdown
func FormatReport(r *Result, includeDetails bool) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	s := r.Sector

	icon := "💡"
	if s.Type == TypeIndustry || s.Type == "" {
		icon = "🏭"
	}
	line("# %s 板块复盘：%s", icon, s.Name)
	line("")

	line("## 一、板块概览")
	line("")
	line("| 指标 | 数值 |")
	line("|------|------|")
	line("| 涨跌幅 | %+.2f%% |", s.ChangePct)
	line("| 上涨家数 | %d |", s.UpCount)
	line("| 下跌家数 | %d |", s.DownCount)
	line("| 涨停家数 | %d |", s.LimitUpCount)
	line("| 换手率 | %.2f%% |", s.TurnoverRate)
	line("| 主力净流入 | %+.1f亿 |", s.MainFlow)
	line("| 相对大盘 | %+.2f%% |", s.RelativeStrength)
	line("")

	status := statusEmoji[r.MarketStatus]
	if status == "" {
		status = "➡️"
	}
	line("## 二、板块状态")
	line("")
	line("- **%s 市场状态**：%s", status, r.MarketStatus)
	line("- **趋势状态**：%s", r.TrendStatus)
	line("- **信号等级**：%s (%d分)", r.SignalGrade, r.SignalScore)
	line("")

	line("## 三、操作建议")
	line("")
	line("- **%s 建议**：%s", emojiOr(actionEmoji, r.ActionAdvice, "🟡"), r.ActionAdvice)
	line("- **置信度**：%s", r.Confidence)
	line("- **仓位建议**：%s", r.TargetAllocation)
	line("")

	if len(r.LeadingStocks) > 0 {
		line("## 四、领涨标的")
		line("")
		line("| 股票 | 涨幅 | 备注 |")
		line("|------|------|------|")
		for i, st := range r.LeadingStocks {
			if i >= 5 {
				break
			}
			name := st.Name
			if name == "" {
				name = st.Code
			}
			note := ""
			if st.IsLimitUp {
				note = "🔥"
			}
			line("| %s | %+.2f%% | %s |", name, st.ChangePct, note)
		}
		line("")
	}

	if len(r.RiskFactors) > 0 || len(r.Opportunities) > 0 {
		line("## 五、风险与机会")
		line("")
		if len(r.Opportunities) > 0 {
			line("### ✅ 机会提示")
			line("")
			for _, o := range r.Opportunities {
				line("- %s", o)
			}
			line("")
		}
		if len(r.RiskFactors) > 0 {
			line("### ⚠️ 风险提示")
			line("")
			for _, risk := range r.RiskFactors {
				line("- %s", risk)
			}
			line("")
		}
	}

	if includeDetails && len(r.Evidence) > 0 {
		line("## 六、信号证据")
		line("")
		line("| 规则 | 条件 | 实际值 | 状态 | 得分 |")
		line("|------|------|--------|------|------|")
		for _, e := range r.Evidence {
			mark := "⚠️"
			if e.Direction == DirectionPositive {
				mark = "✅"
			}
			line("| %s | 阈值 %g | %.2f | %s | %d/%d |", e.Description, e.Threshold, e.Value, mark, e.Score, e.Weight)
		}
		line("")
	}

	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	b.WriteString("---\n*更新时间：" + updated.Format(time.RFC3339) + "*")
	return b.String()
}

// FormatHotSectors renders a ranking table of analyzed sectors
func FormatHotSectors(results []*Result) string {
	var b strings.Builder
	b.WriteString("# 🔥 热门板块\n\n")
	b.WriteString("| 排名 | 板块 | 涨跌幅 | 相对大盘 | 评分 | 等级 | 建议 |\n")
	b.WriteString("|------|------|--------|----------|------|------|------|\n")
	for i, r := range results {
		fmt.Fprintf(&b, "| %d | %s | %+.2f%% | %+.2f%% | %d | %s %s | %s |\n",
			i+1, r.Sector.Name, r.Sector.ChangePct, r.Sector.RelativeStrength,
			r.SignalScore, gradeEmoji[r.SignalGrade], r.SignalGrade, r.ActionAdvice)
	}
	return b.String()
}

// FormatPortfolioView renders watchlist stocks grouped by sector
func FormatPortfolioView(stocks []PortfolioStock, results map[string]*Result) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# 📊 自选股板块联动视图")
	line("")

	// 섹터 첫 등장 순서 유지
	groups := make(map[string][]PortfolioStock)
	var order []string
	for _, st := range stocks {
		for _, name := range st.Sectors {
			if _, ok := groups[name]; !ok {
				order = append(order, name)
			}
			groups[name] = append(groups[name], st)
		}
	}

	for _, name := range order {
		g := GradeNeutral
		var change float64
		if r, ok := results[name]; ok {
			g = r.SignalGrade
			change = r.Sector.ChangePct
		}
		emoji := gradeEmoji[g]
		if emoji == "" {
			emoji = "🟡"
		}

		line("## %s %s (%s %+.1f%%)", emoji, name, g, change)
		line("")
		line("| 股票 | 涨跌幅 | 信号 | 相对板块 | 备注 |")
		line("|------|----------|----------|----------|------|")
		for _, st := range groups[name] {
			rel := st.ChangePct - change
			arrow := "➡️"
			if rel > 0 {
				arrow = "⬆️"
			} else if rel < 0 {
				arrow = "⬇️"
			}
			line("| %s | %+.2f%% | %s | %s %+.2f%% | |", st.Name, st.ChangePct, st.Signal, arrow, rel)
		}
		line("")
	}

	return strings.TrimRight(b.String(), "\n")
}
