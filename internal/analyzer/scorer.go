package analyzer

import (
	"fmt"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/rules"
)

// generateSignal scores the classified states and maps the score to a signal.
// The reason and risk lists are replaced, not appended to.
// ⭐ SSOT: 배점 합계 100 = 추세 30 + 이격도 20 + 거래량 15 + 지지 10 + MACD 15 + RSI 10
func generateSignal(r *rules.Rules, result *contracts.AnalysisResult) {
	sc := r.Scoring
	var reasons, risks []string
	score := 0

	// === 추세 ===
	score += trendPoints(sc.Trend, result.TrendStatus)
	if result.TrendStatus.IsBullish() {
		reasons = append(reasons, fmt.Sprintf("✅ %s，顺势做多", result.TrendStatus.Label()))
	} else if result.TrendStatus.IsBearish() {
		risks = append(risks, fmt.Sprintf("⚠️ %s，不宜做多", result.TrendStatus.Label()))
	}

	// === 이격도 (MA5) ===
	bias := result.BiasMA5
	b := r.Bias
	switch {
	case bias < -b.PullbackLimit:
		score += sc.Bias.Breakdown
		risks = append(risks, fmt.Sprintf("⚠️ 乖离率过大(%.1f%%)，可能破位", bias))
	case bias < -b.WarningZone:
		score += sc.Bias.DeepPullback
		reasons = append(reasons, fmt.Sprintf("✅ 价格回踩MA5(%.1f%%)，观察支撑", bias))
	case bias < 0:
		score += sc.Bias.Pullback
		reasons = append(reasons, fmt.Sprintf("✅ 价格略低于MA5(%.1f%%)，回踩买点", bias))
	case bias < b.OptimalZone:
		score += sc.Bias.Near
		reasons = append(reasons, fmt.Sprintf("✅ 价格贴近MA5(%.1f%%)，介入好时机", bias))
	case bias < b.Threshold:
		score += sc.Bias.Above
		reasons = append(reasons, fmt.Sprintf("⚡ 价格略高于MA5(%.1f%%)，可小仓介入", bias))
	default:
		score += sc.Bias.Overextended
		risks = append(risks, fmt.Sprintf("❌ 乖离率过高(%.1f%%>%g%%)，严禁追高！", bias, b.Threshold))
	}

	// === 거래량 ===
	score += volumePoints(sc.Volume, result.VolumeStatus)
	switch result.VolumeStatus {
	case contracts.VolumeShrinkDown:
		reasons = append(reasons, "✅ 缩量回调，主力洗盘")
	case contracts.VolumeHeavyDown:
		risks = append(risks, "⚠️ 放量下跌，注意风险")
	}

	// === 지지 ===
	if result.SupportMA5 {
		score += sc.Support.MA5
		reasons = append(reasons, "✅ MA5支撑有效")
	}
	if result.SupportMA10 {
		score += sc.Support.MA10
		reasons = append(reasons, "✅ MA10支撑有效")
	}

	// === MACD ===
	score += macdPoints(sc.MACD, result.MACDStatus)
	switch result.MACDStatus {
	case contracts.MACDGoldenCrossZero, contracts.MACDGoldenCross:
		reasons = append(reasons, "✅ "+result.MACDSignal)
	case contracts.MACDDeathCross, contracts.MACDCrossingDown:
		risks = append(risks, "⚠️ "+result.MACDSignal)
	default:
		reasons = append(reasons, result.MACDSignal)
	}

	// === RSI ===
	score += rsiPoints(sc.RSI, result.RSIStatus)
	switch result.RSIStatus {
	case contracts.RSIOversold, contracts.RSIStrongBuy:
		reasons = append(reasons, "✅ "+result.RSISignal)
	case contracts.RSIOverbought:
		risks = append(risks, "⚠️ "+result.RSISignal)
	default:
		reasons = append(reasons, result.RSISignal)
	}

	// === 보조 지표 (점수 없음) ===
	reasons, risks = auxiliaryNotes(result, reasons, risks)

	result.SignalScore = clampScore(score)
	result.SignalReasons = nonNil(reasons)
	result.RiskFactors = nonNil(risks)
	result.BuySignal = mapSignal(r.Signals, result.SignalScore, result.TrendStatus)
}

// auxiliaryNotes adds Bollinger/KDJ/OBV commentary without points
func auxiliaryNotes(result *contracts.AnalysisResult, reasons, risks []string) ([]string, []string) {
	switch result.BollPosition {
	case contracts.BollLowerSupport:
		reasons = append(reasons, "✅ 布林下轨附近获支撑，关注反弹")
	case contracts.BollUpperBreakout:
		reasons = append(reasons, "⚡ 布林上轨突破，动量增强")
	case contracts.BollUpperPressure:
		risks = append(risks, "⚠️ 接近布林上轨压力，谨防冲高回落")
	case contracts.BollLowerBreakdown:
		risks = append(risks, "⚠️ 跌破布林下轨，短线偏弱")
	}

	switch result.KDJStatus {
	case contracts.KDJLowGoldenCross, contracts.KDJGoldenCross, contracts.KDJOversold:
		reasons = append(reasons, "✅ KDJ: "+result.KDJStatus.Label())
	case contracts.KDJHighDeathCross, contracts.KDJDeathCross, contracts.KDJOverbought:
		risks = append(risks, "⚠️ KDJ: "+result.KDJStatus.Label())
	}

	switch result.OBVTrend {
	case contracts.OBVRiseTogether, contracts.OBVVolumeUpPriceWeak:
		reasons = append(reasons, "✅ OBV: "+result.OBVTrend.Label())
	case contracts.OBVPriceUpVolumeWeak, contracts.OBVBothWeak:
		risks = append(risks, "⚠️ OBV: "+result.OBVTrend.Label())
	}
	return reasons, risks
}

// mapSignal applies the score cutoffs, checked from the most bullish down
func mapSignal(s rules.Signals, score int, trend contracts.TrendStatus) contracts.BuySignal {
	switch {
	case score >= s.StrongBuy && trend.IsBullish():
		return contracts.SignalStrongBuy
	case score >= s.Buy && (trend.IsBullish() || trend == contracts.TrendWeakBull):
		return contracts.SignalBuy
	case score >= s.Hold:
		return contracts.SignalHold
	case score >= s.Wait:
		return contracts.SignalWait
	case trend.IsBearish():
		return contracts.SignalStrongSell
	default:
		return contracts.SignalSell
	}
}

func trendPoints(p rules.TrendPoints, s contracts.TrendStatus) int {
	switch s {
	case contracts.TrendStrongBull:
		return p.StrongBull
	case contracts.TrendBull:
		return p.Bull
	case contracts.TrendWeakBull:
		return p.WeakBull
	case contracts.TrendWeakBear:
		return p.WeakBear
	case contracts.TrendBear:
		return p.Bear
	case contracts.TrendStrongBear:
		return p.StrongBear
	default:
		return p.Consolidation
	}
}

func volumePoints(p rules.VolumePoints, s contracts.VolumeStatus) int {
	switch s {
	case contracts.VolumeShrinkDown:
		return p.ShrinkDown
	case contracts.VolumeHeavyUp:
		return p.HeavyUp
	case contracts.VolumeShrinkUp:
		return p.ShrinkUp
	case contracts.VolumeHeavyDown:
		return p.HeavyDown
	default:
		return p.Normal
	}
}

func macdPoints(p rules.MACDPoints, s contracts.MACDStatus) int {
	switch s {
	case contracts.MACDGoldenCrossZero:
		return p.GoldenCrossZero
	case contracts.MACDGoldenCross:
		return p.GoldenCross
	case contracts.MACDCrossingUp:
		return p.CrossingUp
	case contracts.MACDBearish:
		return p.Bearish
	case contracts.MACDCrossingDown:
		return p.CrossingDown
	case contracts.MACDDeathCross:
		return p.DeathCross
	default:
		return p.Bullish
	}
}

func rsiPoints(p rules.RSIPoints, s contracts.RSIStatus) int {
	switch s {
	case contracts.RSIOversold:
		return p.Oversold
	case contracts.RSIStrongBuy:
		return p.StrongBuy
	case contracts.RSIWeak:
		return p.Weak
	case contracts.RSIOverbought:
		return p.Overbought
	default:
		return p.Neutral
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
