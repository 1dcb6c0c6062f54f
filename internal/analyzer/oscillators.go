package analyzer

import (
	"fmt"
	"math"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
)

// KDJ/OBV 판정 상수
const (
	kdjLowCross    = 30.0
	kdjHighCross   = 70.0
	kdjOverbought  = 80.0
	kdjOversold    = 20.0
	obvLookback    = 6
	bollNearBand   = 0.1
	bollMinWidth   = 1e-6
	neutralReading = 50.0
)

func orNeutral(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return neutralReading
	}
	return v
}

// rsiPeriodAt returns the i-th configured RSI period or the standard one
func rsiPeriodAt(periods []int, i, fallback int) int {
	if i >= 0 && i < len(periods) {
		return periods[i]
	}
	return fallback
}

// analyzeRSI classifies the mid-period RSI against the configured bands
func analyzeRSI(f *indicator.Frame, r *rules.Rules, result *contracts.AnalysisResult) {
	periods := r.RSI.Periods
	if f.Len() < rsiPeriodAt(periods, len(periods)-1, 24) {
		result.RSISignal = insufficientSignal
		return
	}

	result.RSI6 = f.LastRSI(rsiPeriodAt(periods, 0, 6))
	result.RSI12 = f.LastRSI(rsiPeriodAt(periods, 1, 12))
	result.RSI24 = f.LastRSI(rsiPeriodAt(periods, 2, 24))

	// 중기 RSI 기준
	mid := f.LastRSI(r.RSI.MidPeriod())

	switch {
	case mid > r.RSI.Overbought:
		setRSI(result, contracts.RSIOverbought,
			fmt.Sprintf("⚠️ RSI超买(%.1f>%g)，短期回调风险高", mid, r.RSI.Overbought))
	case mid > r.RSI.NeutralHigh:
		setRSI(result, contracts.RSIStrongBuy,
			fmt.Sprintf("✅ RSI强势(%.1f)，多头力量充足", mid))
	case mid >= r.RSI.NeutralLow:
		setRSI(result, contracts.RSINeutral,
			fmt.Sprintf("RSI中性(%.1f)，震荡整理中", mid))
	case mid >= r.RSI.Oversold:
		setRSI(result, contracts.RSIWeak,
			fmt.Sprintf("⚡ RSI弱势(%.1f)，关注反弹", mid))
	default:
		setRSI(result, contracts.RSIOversold,
			fmt.Sprintf("⭐ RSI超卖(%.1f<%g)，反弹机会大", mid, r.RSI.Oversold))
	}
}

func setRSI(result *contracts.AnalysisResult, status contracts.RSIStatus, signal string) {
	result.RSIStatus = status
	result.RSISignal = signal
}

// analyzeBollinger places the price against the bands
func analyzeBollinger(result *contracts.AnalysisResult) {
	price := result.CurrentPrice
	upper, lower := result.BollUpper, result.BollLower
	if upper <= 0 || lower <= 0 {
		result.BollPosition = contracts.BollMidBand
		return
	}

	width := math.Max(upper-lower, bollMinWidth)
	switch {
	case price > upper:
		result.BollPosition = contracts.BollUpperBreakout
	case price >= upper-width*bollNearBand:
		result.BollPosition = contracts.BollUpperPressure
	case price < lower:
		result.BollPosition = contracts.BollLowerBreakdown
	case price <= lower+width*bollNearBand:
		result.BollPosition = contracts.BollLowerSupport
	default:
		result.BollPosition = contracts.BollMidBand
	}
}

// analyzeKDJ detects K/D crosses and extreme zones
func analyzeKDJ(f *indicator.Frame, result *contracts.AnalysisResult) {
	if f.Len() < 2 {
		result.KDJStatus = contracts.KDJNeutral
		return
	}

	prevK := orNeutral(indicator.At(f.K, -2))
	prevD := orNeutral(indicator.At(f.D, -2))
	k, d := result.KValue, result.DValue

	golden := prevK <= prevD && k > d
	death := prevK >= prevD && k < d

	switch {
	case golden && k < kdjLowCross:
		result.KDJStatus = contracts.KDJLowGoldenCross
	case golden:
		result.KDJStatus = contracts.KDJGoldenCross
	case death && k > kdjHighCross:
		result.KDJStatus = contracts.KDJHighDeathCross
	case death:
		result.KDJStatus = contracts.KDJDeathCross
	case k > kdjOverbought && d > kdjOverbought:
		result.KDJStatus = contracts.KDJOverbought
	case k < kdjOversold && d < kdjOversold:
		result.KDJStatus = contracts.KDJOversold
	default:
		result.KDJStatus = contracts.KDJNeutral
	}
}

// analyzeOBV compares OBV and close with the bar obvLookback-1 bars back
func analyzeOBV(f *indicator.Frame, result *contracts.AnalysisResult) {
	if f.Len() < obvLookback {
		result.OBVTrend = contracts.OBVNeutral
		return
	}

	obvUp := indicator.Last(f.OBV) > indicator.At(f.OBV, -obvLookback)
	priceUp := indicator.Last(f.Close) > indicator.At(f.Close, -obvLookback)

	switch {
	case obvUp && priceUp:
		result.OBVTrend = contracts.OBVRiseTogether
	case obvUp:
		result.OBVTrend = contracts.OBVVolumeUpPriceWeak
	case priceUp:
		result.OBVTrend = contracts.OBVPriceUpVolumeWeak
	default:
		result.OBVTrend = contracts.OBVBothWeak
	}
}
