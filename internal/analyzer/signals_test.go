package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
)

// neutralResult scores 35 before bias points:
// 震荡 12 + 量能正常 10 + MACD 多头 8 + RSI 中性 5
func neutralResult(bias float64) *contracts.AnalysisResult {
	r := contracts.NewAnalysisResult("TEST")
	r.BiasMA5 = bias
	return r
}

func TestGenerateSignal_BiasPoints(t *testing.T) {
	tests := []struct {
		name  string
		bias  float64
		score int
	}{
		{"slight pullback", -2, 55},
		{"at warning zone", -3, 55},
		{"deep pullback", -4, 51},
		{"at pullback limit", -5, 51},
		{"breakdown", -6, 43},
		{"on ma5", 0, 53},
		{"near ma5", 1, 53},
		{"at optimal zone", 2, 49},
		{"above optimal", 3, 49},
		{"at threshold", 5, 39},
		{"overextended", 9, 39},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := neutralResult(tt.bias)
			generateSignal(rules.Defaults(), result)
			assert.Equal(t, tt.score, result.SignalScore)
		})
	}
}

func TestGenerateSignal_PullbackReason(t *testing.T) {
	result := neutralResult(-2)
	generateSignal(rules.Defaults(), result)

	assert.Equal(t, 55, result.SignalScore)
	assert.Equal(t, contracts.SignalHold, result.BuySignal)
	assert.Contains(t, result.SignalReasons, "✅ 价格略低于MA5(-2.0%)，回踩买点")
}

func TestGenerateSignal_OverextendedRisk(t *testing.T) {
	result := neutralResult(7.5)
	generateSignal(rules.Defaults(), result)
	assert.Contains(t, result.RiskFactors, "❌ 乖离率过高(7.5%>5%)，严禁追高！")
}

func TestGenerateSignal_ReplacesLists(t *testing.T) {
	result := neutralResult(1)
	result.SignalReasons = []string{"stale"}
	result.RiskFactors = []string{"stale"}

	generateSignal(rules.Defaults(), result)

	assert.NotContains(t, result.SignalReasons, "stale")
	assert.NotContains(t, result.RiskFactors, "stale")
	assert.NotNil(t, result.RiskFactors)
}

func TestGenerateSignal_BestCase(t *testing.T) {
	result := neutralResult(-1)
	result.TrendStatus = contracts.TrendStrongBull
	result.VolumeStatus = contracts.VolumeShrinkDown
	result.SupportMA5 = true
	result.SupportMA10 = true
	result.MACDStatus = contracts.MACDGoldenCrossZero
	result.RSIStatus = contracts.RSIOversold

	generateSignal(rules.Defaults(), result)

	assert.Equal(t, 100, result.SignalScore)
	assert.Equal(t, contracts.SignalStrongBuy, result.BuySignal)
	assert.Equal(t, rules.Defaults().Scoring.MaxTotal(), result.SignalScore)
}

func TestMapSignal(t *testing.T) {
	s := rules.Defaults().Signals
	tests := []struct {
		score int
		trend contracts.TrendStatus
		want  contracts.BuySignal
	}{
		{80, contracts.TrendStrongBull, contracts.SignalStrongBuy},
		{80, contracts.TrendWeakBull, contracts.SignalBuy},
		{65, contracts.TrendBull, contracts.SignalBuy},
		{80, contracts.TrendConsolidation, contracts.SignalHold},
		{50, contracts.TrendBull, contracts.SignalHold},
		{35, contracts.TrendBear, contracts.SignalWait},
		{10, contracts.TrendBear, contracts.SignalStrongSell},
		{10, contracts.TrendConsolidation, contracts.SignalSell},
		{0, contracts.TrendWeakBear, contracts.SignalSell},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapSignal(s, tt.score, tt.trend), "%d/%s", tt.score, tt.trend)
	}
}

func TestApplyResonance_Downgrade(t *testing.T) {
	result := contracts.NewAnalysisResult("TEST")
	result.TrendStatus = contracts.TrendStrongBull
	result.VolumeStatus = contracts.VolumeNormal
	result.MACDStatus = contracts.MACDBearish
	result.RSIStatus = contracts.RSIOverbought
	result.NorthboundNetInflow = 5
	result.BuySignal = contracts.SignalStrongBuy

	f := newSignalFilter(result.BuySignal)
	applyResonance(rules.Defaults(), result, f)

	assert.Equal(t, 2, result.ResonanceCount)
	assert.False(t, result.ResonancePassed)
	assert.Equal(t, contracts.SignalBuy, result.BuySignal)
	require.NotEmpty(t, result.RiskFactors)
	assert.Contains(t, result.RiskFactors[len(result.RiskFactors)-1], "（2/3）")
}

func TestApplyResonance_Passes(t *testing.T) {
	result := contracts.NewAnalysisResult("TEST")
	result.TrendStatus = contracts.TrendBull
	result.MACDStatus = contracts.MACDGoldenCross
	result.RSIStatus = contracts.RSINeutral
	result.BuySignal = contracts.SignalBuy

	applyResonance(rules.Defaults(), result, newSignalFilter(result.BuySignal))

	assert.Equal(t, 3, result.ResonanceCount)
	assert.True(t, result.ResonancePassed)
	assert.Equal(t, contracts.SignalBuy, result.BuySignal)
	assert.Empty(t, result.RiskFactors)
}

func TestApplyDecay(t *testing.T) {
	result := contracts.NewAnalysisResult("TEST")
	result.BuySignal = contracts.SignalBuy
	result.SignalAgeDays = 8

	applyDecay(rules.Defaults(), result, newSignalFilter(result.BuySignal))

	assert.False(t, result.SignalValid)
	assert.Equal(t, contracts.SignalHold, result.BuySignal)
	assert.Contains(t, result.RiskFactors, "⚠️ 信号已衰减（距最近金叉 8 天，超过 5 天）")

	fresh := contracts.NewAnalysisResult("TEST")
	fresh.BuySignal = contracts.SignalBuy
	fresh.SignalAgeDays = 5
	applyDecay(rules.Defaults(), fresh, newSignalFilter(fresh.BuySignal))
	assert.True(t, fresh.SignalValid)
	assert.Equal(t, contracts.SignalBuy, fresh.BuySignal)
}

func TestSignalFilter_MonotonicAndIdempotent(t *testing.T) {
	all := []contracts.BuySignal{
		contracts.SignalStrongBuy, contracts.SignalBuy, contracts.SignalHold,
		contracts.SignalWait, contracts.SignalSell, contracts.SignalStrongSell,
	}

	for _, base := range all {
		for failures := 0; failures <= 3; failures++ {
			result := contracts.NewAnalysisResult("TEST")
			result.BuySignal = base
			f := newSignalFilter(base)
			for i := 0; i < failures; i++ {
				f.fail(result)
			}
			after := result.BuySignal
			assert.LessOrEqual(t, after.Rank(), base.Rank(), "%s x%d", base, failures)

			f.apply(result)
			f.apply(result)
			assert.Equal(t, after, result.BuySignal, "%s x%d re-applied", base, failures)
		}
	}
}

func TestSignalFilter_BothFiltersFail(t *testing.T) {
	result := contracts.NewAnalysisResult("TEST")
	result.BuySignal = contracts.SignalStrongBuy
	result.SignalAgeDays = NoCrossAge

	f := newSignalFilter(result.BuySignal)
	applyResonance(rules.Defaults(), result, f)
	applyDecay(rules.Defaults(), result, f)

	assert.Equal(t, contracts.SignalHold, result.BuySignal)
}

func TestEvaluateTimeframe(t *testing.T) {
	r := rules.Defaults()

	t.Run("aligned adds capped bonus", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.TrendStatus = contracts.TrendBull
		result.SignalScore = 98

		evaluateTimeframe(barsFromCloses(rising(25), nil), r, result)

		assert.True(t, result.TimeframeAlignment)
		assert.Equal(t, 100, result.SignalScore)
		assert.Equal(t, []string{NoteTimeframeAligned}, result.TimeframeNotes)
		assert.Contains(t, result.SignalReasons, "✅ 多周期共振（日线+30分钟）")
	})

	t.Run("split records risk", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.TrendStatus = contracts.TrendBear
		result.SignalScore = 20

		evaluateTimeframe(barsFromCloses(rising(25), nil), r, result)

		assert.False(t, result.TimeframeAlignment)
		assert.Equal(t, 20, result.SignalScore)
		assert.Equal(t, []string{NoteTimeframeSplit}, result.TimeframeNotes)
		assert.Contains(t, result.RiskFactors, "⚠️ 多周期未共振，降低仓位")
	})

	t.Run("short intraday series", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.TrendStatus = contracts.TrendBull

		evaluateTimeframe(barsFromCloses(rising(10), nil), r, result)

		assert.False(t, result.TimeframeAlignment)
		assert.Equal(t, []string{NoteNoIntraday}, result.TimeframeNotes)
	})
}

// macdFrame builds a 30-bar frame whose last two DIF/DEA values are given
func macdFrame(prevDIF, prevDEA, dif, dea float64) *indicator.Frame {
	n := 30
	f := &indicator.Frame{
		Close: make([]float64, n),
		DIF:   make([]float64, n),
		DEA:   make([]float64, n),
		BAR:   make([]float64, n),
	}
	f.DIF[n-2], f.DEA[n-2] = prevDIF, prevDEA
	f.DIF[n-1], f.DEA[n-1] = dif, dea
	f.BAR[n-1] = 2 * (dif - dea)
	return f
}

func TestAnalyzeMACD(t *testing.T) {
	tests := []struct {
		name  string
		frame *indicator.Frame
		want  contracts.MACDStatus
	}{
		{"golden cross above zero", macdFrame(0.5, 0.6, 0.8, 0.7), contracts.MACDGoldenCrossZero},
		{"dif crosses zero", macdFrame(-0.1, -0.3, 0.1, -0.05), contracts.MACDCrossingUp},
		{"golden cross below zero", macdFrame(-0.5, -0.4, -0.3, -0.35), contracts.MACDGoldenCross},
		{"death cross", macdFrame(0.5, 0.4, 0.3, 0.35), contracts.MACDDeathCross},
		{"dif drops below zero", macdFrame(0.1, -0.2, -0.05, -0.1), contracts.MACDCrossingDown},
		{"bullish", macdFrame(0.5, 0.4, 0.6, 0.5), contracts.MACDBullish},
		{"bearish", macdFrame(-0.5, -0.4, -0.6, -0.5), contracts.MACDBearish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := contracts.NewAnalysisResult("TEST")
			analyzeMACD(tt.frame, rules.Defaults(), result)
			assert.Equal(t, tt.want, result.MACDStatus)
			assert.NotEmpty(t, result.MACDSignal)
		})
	}

	t.Run("golden cross above zero scores full points", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		analyzeMACD(macdFrame(0.5, 0.6, 0.8, 0.7), rules.Defaults(), result)
		assert.Equal(t, 15, macdPoints(rules.Defaults().Scoring.MACD, result.MACDStatus))
		assert.Equal(t, "⭐ 零轴上金叉，强烈买入信号！", result.MACDSignal)
	})

	t.Run("too few bars", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		analyzeMACD(&indicator.Frame{Close: make([]float64, 10)}, rules.Defaults(), result)
		assert.Equal(t, contracts.MACDBullish, result.MACDStatus)
		assert.Equal(t, "数据不足", result.MACDSignal)
	})
}

func TestSignalAge(t *testing.T) {
	f := &indicator.Frame{
		Close: make([]float64, 10),
		DIF:   []float64{0, 0, 0, 0, 0, 0, 0, 1, 1, 1},
		DEA:   make([]float64, 10),
	}
	assert.Equal(t, 2, signalAge(f))

	f.DIF = make([]float64, 10)
	assert.Equal(t, NoCrossAge, signalAge(f))
}

func TestAnalyzeVolume(t *testing.T) {
	r := rules.Defaults()

	heavy := &indicator.Frame{
		Close:  []float64{10, 10, 10, 10, 10, 10, 11},
		Volume: []float64{100, 100, 100, 100, 100, 100, 200},
	}
	result := contracts.NewAnalysisResult("TEST")
	analyzeVolume(heavy, r, result)
	assert.Equal(t, contracts.VolumeHeavyUp, result.VolumeStatus)
	assert.Equal(t, 2.0, result.VolumeRatio5D)

	shrink := &indicator.Frame{
		Close:  []float64{10, 10, 10, 10, 10, 10, 9.5},
		Volume: []float64{100, 100, 100, 100, 100, 100, 50},
	}
	result = contracts.NewAnalysisResult("TEST")
	analyzeVolume(shrink, r, result)
	assert.Equal(t, contracts.VolumeShrinkDown, result.VolumeStatus)
	assert.Equal(t, 0.5, result.VolumeRatio5D)
}

func TestAnalyzeSupport(t *testing.T) {
	highs := make([]float64, 20)
	for i := range highs {
		highs[i] = 10.2
	}
	highs[12] = 11
	f := &indicator.Frame{Close: make([]float64, 20), High: highs}

	result := contracts.NewAnalysisResult("TEST")
	result.CurrentPrice = 10.1
	result.MA5 = 10
	result.MA10 = 9.5
	result.MA20 = 9

	analyzeSupport(f, rules.Defaults(), result)

	assert.True(t, result.SupportMA5)
	assert.False(t, result.SupportMA10)
	assert.Equal(t, []float64{10, 9}, result.SupportLevels)
	assert.Equal(t, []float64{11}, result.ResistanceLevels)
}

func TestAnalyzeTrend_Orderings(t *testing.T) {
	f := &indicator.Frame{Close: make([]float64, 30)}
	tests := []struct {
		ma5, ma10, ma20 float64
		want            contracts.TrendStatus
	}{
		{10, 9, 9.5, contracts.TrendWeakBull},
		{9, 10, 9.5, contracts.TrendWeakBear},
		{10, 10, 10, contracts.TrendConsolidation},
		{10.2, 10.1, 10, contracts.TrendBull},
		{9.8, 9.9, 10, contracts.TrendBear},
		// 과거 MA가 없으면 이전 이격 0으로 간주
		{11, 10, 9, contracts.TrendStrongBull},
	}

	for _, tt := range tests {
		result := contracts.NewAnalysisResult("TEST")
		result.MA5, result.MA10, result.MA20 = tt.ma5, tt.ma10, tt.ma20
		analyzeTrend(f, result)
		assert.Equal(t, tt.want, result.TrendStatus, "%v/%v/%v", tt.ma5, tt.ma10, tt.ma20)
	}
}

func TestAnalyzeBollinger(t *testing.T) {
	tests := []struct {
		price float64
		want  contracts.BollPosition
	}{
		{105, contracts.BollUpperBreakout},
		{103.5, contracts.BollUpperPressure},
		{100, contracts.BollMidBand},
		{96.5, contracts.BollLowerSupport},
		{95, contracts.BollLowerBreakdown},
	}
	for _, tt := range tests {
		result := contracts.NewAnalysisResult("TEST")
		result.CurrentPrice = tt.price
		result.BollUpper, result.BollLower = 104, 96
		analyzeBollinger(result)
		assert.Equal(t, tt.want, result.BollPosition, "price %v", tt.price)
	}

	missing := contracts.NewAnalysisResult("TEST")
	missing.CurrentPrice = 100
	analyzeBollinger(missing)
	assert.Equal(t, contracts.BollMidBand, missing.BollPosition)
}

func TestAnalyzeKDJ(t *testing.T) {
	f := &indicator.Frame{Close: make([]float64, 2), K: []float64{20, 25}, D: []float64{22, 21}}
	result := contracts.NewAnalysisResult("TEST")
	result.KValue, result.DValue = 25, 21
	analyzeKDJ(f, result)
	assert.Equal(t, contracts.KDJLowGoldenCross, result.KDJStatus)

	f = &indicator.Frame{Close: make([]float64, 2), K: []float64{88, 82}, D: []float64{85, 84}}
	result = contracts.NewAnalysisResult("TEST")
	result.KValue, result.DValue = 82, 84
	analyzeKDJ(f, result)
	assert.Equal(t, contracts.KDJHighDeathCross, result.KDJStatus)
}

func TestBuildTradePlan(t *testing.T) {
	r := rules.Defaults()

	t.Run("atr based", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.CurrentPrice = 100
		result.ATR14 = 2
		result.SignalScore = 80

		buildTradePlan(r, result)

		assert.Equal(t, 100.0, result.EntryPrice)
		assert.Equal(t, 96.0, result.StopLossPrice)
		assert.Equal(t, 106.0, result.TargetPrice)
		assert.Equal(t, 4.0, result.ATRStopLoss)
		assert.Equal(t, 20.0, result.RecommendedPositionPct)
		assert.Equal(t, 1.5, result.RiskRewardRatio)
	})

	t.Run("percentage fallback", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.CurrentPrice = 100
		result.SignalScore = 40

		buildTradePlan(r, result)

		assert.Equal(t, 97.0, result.StopLossPrice)
		assert.Equal(t, 106.0, result.TargetPrice)
		assert.Equal(t, 10.0, result.RecommendedPositionPct)
		assert.Equal(t, 2.0, result.RiskRewardRatio)
	})

	t.Run("stop never negative", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		result.CurrentPrice = 100
		result.ATR14 = 60

		buildTradePlan(r, result)

		assert.Equal(t, 0.0, result.StopLossPrice)
		assert.GreaterOrEqual(t, result.RiskRewardRatio, 0.0)
	})

	t.Run("zero price", func(t *testing.T) {
		result := contracts.NewAnalysisResult("TEST")
		buildTradePlan(r, result)
		assert.Equal(t, 0.0, result.RiskRewardRatio)
		assert.Equal(t, 0.0, result.RecommendedPositionPct)
	})
}

func TestFormat_Sections(t *testing.T) {
	result := contracts.NewAnalysisResult("000001")
	result.SignalReasons = []string{"✅ 多头排列"}
	result.RiskFactors = []string{"⚠️ 放量下跌"}

	out := Format(result)

	assert.True(t, strings.HasPrefix(out, "=== 000001 趋势分析 ==="))
	assert.False(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "✅ 买入理由:\n   ✅ 多头排列")
	assert.Contains(t, out, "⚠️ 风险因素:\n   ⚠️ 放量下跌")
	assert.NotContains(t, out, "🧭 多周期评估:")
	assert.NotContains(t, out, "🏷️")
}
