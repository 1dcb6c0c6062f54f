package analyzer

import (
	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
)

// NoCrossAge is the signal age reported when no golden cross exists
const NoCrossAge = 999

const insufficientSignal = "数据不足"

// analyzeMACD classifies the latest MACD bar.
// Rules are checked in priority order; the first match wins.
func analyzeMACD(f *indicator.Frame, r *rules.Rules, result *contracts.AnalysisResult) {
	if f.Len() < r.MACD.Slow || f.Len() < 2 {
		result.MACDSignal = insufficientSignal
		return
	}

	dif := indicator.Last(f.DIF)
	dea := indicator.Last(f.DEA)
	result.MACDDIF = dif
	result.MACDDEA = dea
	result.MACDBar = indicator.Last(f.BAR)

	prevDIF := indicator.At(f.DIF, -2)
	prevSpread := prevDIF - indicator.At(f.DEA, -2)
	currSpread := dif - dea

	goldenCross := prevSpread <= 0 && currSpread > 0
	deathCross := prevSpread >= 0 && currSpread < 0
	crossingUp := prevDIF <= 0 && dif > 0
	crossingDown := prevDIF >= 0 && dif < 0

	switch {
	case goldenCross && dif > 0:
		setMACD(result, contracts.MACDGoldenCrossZero, "⭐ 零轴上金叉，强烈买入信号！")
	case crossingUp:
		setMACD(result, contracts.MACDCrossingUp, "⚡ DIF上穿零轴，趋势转强")
	case goldenCross:
		setMACD(result, contracts.MACDGoldenCross, "✅ 金叉，趋势向上")
	case deathCross:
		setMACD(result, contracts.MACDDeathCross, "❌ 死叉，趋势向下")
	case crossingDown:
		setMACD(result, contracts.MACDCrossingDown, "⚠️ DIF下穿零轴，趋势转弱")
	case dif > 0 && dea > 0:
		setMACD(result, contracts.MACDBullish, "✓ 多头排列，持续上涨")
	case dif < 0 && dea < 0:
		setMACD(result, contracts.MACDBearish, "⚠ 空头排列，持续下跌")
	default:
		setMACD(result, contracts.MACDBullish, "MACD 中性区域")
	}
}

func setMACD(result *contracts.AnalysisResult, status contracts.MACDStatus, signal string) {
	result.MACDStatus = status
	result.MACDSignal = signal
}

// signalAge returns the number of bars since the latest DIF/DEA golden cross
func signalAge(f *indicator.Frame) int {
	n := f.Len()
	if n < 2 || len(f.DIF) != n || len(f.DEA) != n {
		return NoCrossAge
	}
	for i := n - 1; i >= 1; i-- {
		if f.DIF[i-1] <= f.DEA[i-1] && f.DIF[i] > f.DEA[i] {
			return n - 1 - i
		}
	}
	return NoCrossAge
}
