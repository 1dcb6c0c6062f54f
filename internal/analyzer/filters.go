package analyzer

import (
	"fmt"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
)

// Timeframe notes
const (
	NoteNoIntraday       = "无30分钟数据，未进行多周期共振验证"
	NoteTimeframeAligned = "日线与30分钟级别同向多头，共振成立"
	NoteTimeframeSplit   = "多周期未共振，短线方向与日线不一致"
)

// signalFilter lowers the scorer's signal once per failed filter.
// The result is always min(current, stepped base), so re-applying is a no-op.
type signalFilter struct {
	base  contracts.BuySignal
	steps int
}

func newSignalFilter(base contracts.BuySignal) *signalFilter {
	return &signalFilter{base: base}
}

// fail records one failed filter and applies the downgrade
func (f *signalFilter) fail(result *contracts.AnalysisResult) {
	f.steps++
	f.apply(result)
}

func (f *signalFilter) apply(result *contracts.AnalysisResult) {
	proposed := f.base
	for i := 0; i < f.steps; i++ {
		proposed = proposed.Downgrade()
	}
	result.BuySignal = contracts.MinSignal(result.BuySignal, proposed)
}

// evaluateTimeframe checks the intraday MA order against the daily trend
func evaluateTimeframe(intraday contracts.PriceSeries, r *rules.Rules, result *contracts.AnalysisResult) {
	if len(intraday) < r.Resonance.IntradayMinBar || len(intraday) < 20 {
		result.TimeframeAlignment = false
		result.TimeframeNotes = append(result.TimeframeNotes, NoteNoIntraday)
		return
	}

	closes := intraday.Sorted().Closes()
	ma5 := indicator.Last(indicator.SMA(closes, 5))
	ma10 := indicator.Last(indicator.SMA(closes, 10))
	ma20 := indicator.Last(indicator.SMA(closes, 20))

	intradayBull := ma5 > ma10 && ma10 > ma20
	result.TimeframeAlignment = intradayBull && result.TrendStatus.IsBullish()

	if result.TimeframeAlignment {
		result.TimeframeNotes = append(result.TimeframeNotes, NoteTimeframeAligned)
		result.SignalReasons = append(result.SignalReasons, "✅ 多周期共振（日线+30分钟）")
		result.SignalScore = clampScore(result.SignalScore + r.Resonance.TimeframeBonus)
		return
	}
	result.TimeframeNotes = append(result.TimeframeNotes, NoteTimeframeSplit)
	result.RiskFactors = append(result.RiskFactors, "⚠️ 多周期未共振，降低仓位")
}

// analyzeFundFlows reads the optional main-fund and northbound columns.
// Missing columns are skipped silently.
func analyzeFundFlows(series contracts.PriceSeries, result *contracts.AnalysisResult) {
	if col, ok := series.ResolveColumn(contracts.MainFundFlowAliases); ok {
		if v, ok := series.LatestValue(col); ok {
			result.MainFundNetInflow = v
			if v > 0 {
				result.SignalReasons = append(result.SignalReasons, "✅ 主力资金净流入")
			} else if v < 0 {
				result.RiskFactors = append(result.RiskFactors, "⚠️ 主力资金净流出")
			}
		}
	}

	if col, ok := series.ResolveColumn(contracts.MainFundRatioAliases); ok {
		if v, ok := series.LatestValue(col); ok {
			result.MainFundInflowRatio = v
		}
	}

	if col, ok := series.ResolveColumn(contracts.NorthboundFlowAliases); ok {
		if v, ok := series.LatestValue(col); ok {
			result.NorthboundNetInflow = v
			if v > 0 {
				result.SignalReasons = append(result.SignalReasons, "✅ 北向资金净流入")
			} else if v < 0 {
				result.RiskFactors = append(result.RiskFactors, "⚠️ 北向资金净流出")
			}
		}
	}
}

// ResonanceSignals returns the seven independent bullish checks
func ResonanceSignals(result *contracts.AnalysisResult) []bool {
	return []bool{
		result.TrendStatus.IsBullish(),
		result.VolumeStatus == contracts.VolumeShrinkDown || result.VolumeStatus == contracts.VolumeHeavyUp,
		result.MACDStatus == contracts.MACDGoldenCrossZero ||
			result.MACDStatus == contracts.MACDGoldenCross ||
			result.MACDStatus == contracts.MACDBullish,
		result.RSIStatus == contracts.RSIStrongBuy ||
			result.RSIStatus == contracts.RSINeutral ||
			result.RSIStatus == contracts.RSIOversold,
		result.TimeframeAlignment,
		result.MainFundNetInflow > 0,
		result.NorthboundNetInflow > 0,
	}
}

// applyResonance requires at least MinSignals agreeing checks
func applyResonance(r *rules.Rules, result *contracts.AnalysisResult, f *signalFilter) {
	count := 0
	for _, ok := range ResonanceSignals(result) {
		if ok {
			count++
		}
	}
	result.ResonanceCount = count
	result.ResonancePassed = count >= r.Resonance.MinSignals
	if result.ResonancePassed {
		return
	}

	result.RiskFactors = append(result.RiskFactors,
		fmt.Sprintf("⚠️ 多信号共振不足（%d/%d）", count, r.Resonance.MinSignals))
	f.fail(result)
}

// applyDecay invalidates signals whose golden cross is older than the expiry
func applyDecay(r *rules.Rules, result *contracts.AnalysisResult, f *signalFilter) {
	expiry := r.Decay.ExpiryBars
	result.SignalValid = result.SignalAgeDays <= expiry
	if result.SignalValid {
		return
	}

	result.RiskFactors = append(result.RiskFactors,
		fmt.Sprintf("⚠️ 信号已衰减（距最近金叉 %d 天，超过 %d 天）", result.SignalAgeDays, expiry))
	f.fail(result)
}
