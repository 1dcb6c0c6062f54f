package analyzer

import (
	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
)

// 추세 강도 판정: 이격 확대 여부를 비교할 과거 봉 위치
const (
	trendLookback     = 5
	strongSpreadLimit = 5.0
)

// analyzeTrend classifies the MA5/MA10/MA20 ordering
func analyzeTrend(f *indicator.Frame, result *contracts.AnalysisResult) {
	ma5, ma10, ma20 := result.MA5, result.MA10, result.MA20

	switch {
	case ma5 > ma10 && ma10 > ma20:
		if spreadWidening(f, ma5, ma20, true) {
			setTrend(result, contracts.TrendStrongBull, "强势多头排列，均线发散上行", 90)
		} else {
			setTrend(result, contracts.TrendBull, "多头排列 MA5>MA10>MA20", 75)
		}

	case ma5 > ma10 && ma10 <= ma20:
		setTrend(result, contracts.TrendWeakBull, "弱势多头，MA5>MA10 但 MA10≤MA20", 55)

	case ma5 < ma10 && ma10 < ma20:
		if spreadWidening(f, ma5, ma20, false) {
			setTrend(result, contracts.TrendStrongBear, "强势空头排列，均线发散下行", 10)
		} else {
			setTrend(result, contracts.TrendBear, "空头排列 MA5<MA10<MA20", 25)
		}

	case ma5 < ma10 && ma10 >= ma20:
		setTrend(result, contracts.TrendWeakBear, "弱势空头，MA5<MA10 但 MA10≥MA20", 40)

	default:
		setTrend(result, contracts.TrendConsolidation, "均线缠绕，趋势不明", 50)
	}
}

func setTrend(result *contracts.AnalysisResult, status contracts.TrendStatus, alignment string, strength float64) {
	result.TrendStatus = status
	result.MAAlignment = alignment
	result.TrendStrength = strength
}

// spreadWidening reports whether the MA5/MA20 spread grew past the strong limit.
// bull measures (MA5-MA20)/MA20, bear measures (MA20-MA5)/MA5.
func spreadWidening(f *indicator.Frame, ma5, ma20 float64, bull bool) bool {
	idx := -trendLookback
	if f.Len() < trendLookback {
		idx = -1
	}
	prev5 := indicator.At(f.MAColumn(5), idx)
	prev20 := indicator.At(f.MAColumn(20), idx)

	var prevSpread, currSpread float64
	if bull {
		prevSpread = pctSpread(prev5, prev20, prev20)
		currSpread = pctSpread(ma5, ma20, ma20)
	} else {
		prevSpread = pctSpread(prev20, prev5, prev5)
		currSpread = pctSpread(ma20, ma5, ma5)
	}
	return currSpread > prevSpread && currSpread > strongSpreadLimit
}

// pctSpread returns (a-b)/base*100; an undefined or non-positive base gives 0
func pctSpread(a, b, base float64) float64 {
	if !(base > 0) {
		return 0
	}
	v := (a - b) / base * 100
	return indicator.OrZero(v)
}

// calculateBias sets the percentage deviation of price from MA5/10/20
func calculateBias(result *contracts.AnalysisResult) {
	price := result.CurrentPrice
	if result.MA5 > 0 {
		result.BiasMA5 = (price - result.MA5) / result.MA5 * 100
	}
	if result.MA10 > 0 {
		result.BiasMA10 = (price - result.MA10) / result.MA10 * 100
	}
	if result.MA20 > 0 {
		result.BiasMA20 = (price - result.MA20) / result.MA20 * 100
	}
}
