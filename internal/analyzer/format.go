package analyzer

import (
	"fmt"
	"strings"

	"github.com/wonny/trendscore/internal/contracts"
)

// Format renders a result as a multi-section text report
func Format(r *contracts.AnalysisResult) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("=== %s 趋势分析 ===", r.Code)
	line("")
	line("📊 趋势判断: %s", r.TrendStatus.Label())
	line("   均线排列: %s", r.MAAlignment)
	line("   趋势强度: %.0f/100", r.TrendStrength)
	line("")
	line("📈 均线数据:")
	line("   现价: %.2f", r.CurrentPrice)
	line("   MA5:  %.2f (乖离 %+.2f%%)", r.MA5, r.BiasMA5)
	line("   MA10: %.2f (乖离 %+.2f%%)", r.MA10, r.BiasMA10)
	line("   MA20: %.2f (乖离 %+.2f%%)", r.MA20, r.BiasMA20)
	line("")
	line("📊 量能分析: %s", r.VolumeStatus.Label())
	line("   量比(vs5日): %.2f", r.VolumeRatio5D)
	line("   量能趋势: %s", r.VolumeTrend)
	line("   主力净流入: %.2f", r.MainFundNetInflow)
	line("   主力净占比: %.2f%%", r.MainFundInflowRatio)
	line("   北向净流入: %.2f", r.NorthboundNetInflow)
	line("")
	line("📈 MACD指标: %s", r.MACDStatus.Label())
	line("   DIF: %.4f", r.MACDDIF)
	line("   DEA: %.4f", r.MACDDEA)
	line("   MACD: %.4f", r.MACDBar)
	line("   信号: %s", r.MACDSignal)
	line("")
	line("📉 布林带:")
	line("   上轨: %.2f", r.BollUpper)
	line("   中轨: %.2f", r.BollMid)
	line("   下轨: %.2f", r.BollLower)
	line("   位置: %s", r.BollPosition.Label())
	line("")
	line("📊 RSI指标: %s", r.RSIStatus.Label())
	line("   RSI(6): %.1f", r.RSI6)
	line("   RSI(12): %.1f", r.RSI12)
	line("   RSI(24): %.1f", r.RSI24)
	line("   信号: %s", r.RSISignal)
	line("")
	line("📈 KDJ指标:")
	line("   K: %.1f", r.KValue)
	line("   D: %.1f", r.DValue)
	line("   J: %.1f", r.JValue)
	line("   状态: %s", r.KDJStatus.Label())
	line("")
	line("📊 OBV指标:")
	line("   OBV: %.0f", r.OBVValue)
	line("   趋势: %s", r.OBVTrend.Label())
	line("")
	line("🛡️ ATR风控:")
	line("   ATR(14): %.4f", r.ATR14)
	line("   ATR止损距离: %.4f", r.ATRStopLoss)
	line("")
	line("🎯 操作建议: %s", r.BuySignal.Label())
	line("   综合评分: %d/100", r.SignalScore)
	line("   买入价: %.2f", r.EntryPrice)
	line("   止损价: %.2f", r.StopLossPrice)
	line("   目标价: %.2f", r.TargetPrice)
	line("   建议仓位: %.1f%%", r.RecommendedPositionPct)
	line("   风险收益比: 1:%.2f", r.RiskRewardRatio)
	line("   多周期共振: %s", yesNo(r.TimeframeAlignment, "是", "否"))
	line("   多信号共振: %s (%d项)", yesNo(r.ResonancePassed, "通过", "未通过"), r.ResonanceCount)
	line("   信号衰减: %s (信号龄期%d天)", yesNo(r.SignalValid, "有效", "失效"), r.SignalAgeDays)

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		line("")
		line("%s", title)
		for _, it := range items {
			line("   %s", it)
		}
	}
	section("🧭 多周期评估:", r.TimeframeNotes)
	section("✅ 买入理由:", r.SignalReasons)
	section("⚠️ 风险因素:", r.RiskFactors)

	if r.SectorTags != nil {
		line("")
		line("🏷️ 行业标签: %s / %s", r.SectorTags.Industry, r.SectorTags.Style)
		if len(r.SectorTags.Concepts) > 0 {
			line("   概念: %s", strings.Join(r.SectorTags.Concepts, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
