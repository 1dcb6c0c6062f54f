package analyzer

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/rules"
)

// minLoss keeps the risk/reward ratio finite when stop equals entry
var minLoss = decimal.NewFromFloat(0.01)

// buildTradePlan converts the final score and ATR into entry/stop/target and sizing
func buildTradePlan(r *rules.Rules, result *contracts.AnalysisResult) {
	tp := r.TradePlan
	entry := decimal.NewFromFloat(result.CurrentPrice)
	atr := decimal.NewFromFloat(math.Max(result.ATR14, 0))

	stopDistance := atr.Mul(decimal.NewFromFloat(tp.ATRStopMultiplier))
	targetDistance := atr.Mul(decimal.NewFromFloat(tp.TargetMultiplier))

	// ATR이 없으면 현재가 비율로 대체
	if !stopDistance.IsPositive() {
		stopDistance = entry.Mul(pct(tp.FallbackStopPct))
	}
	if !targetDistance.IsPositive() {
		targetDistance = entry.Mul(pct(tp.FallbackTargetPct))
	}

	stop := decimal.Max(decimal.Zero, entry.Sub(stopDistance))
	target := entry.Add(targetDistance)

	result.EntryPrice = entry.InexactFloat64()
	result.StopLossPrice = stop.InexactFloat64()
	result.TargetPrice = target.InexactFloat64()
	result.ATRStopLoss = stopDistance.InexactFloat64()

	position := float64(result.SignalScore) / tp.ScoreToPosition
	result.RecommendedPositionPct = math.Min(
		math.Min(position, tp.PositionCap),
		math.Min(r.Risk.MaxPositionPct, r.Risk.MaxSinglePosition),
	)

	loss := decimal.Max(entry.Sub(stop), minLoss)
	gain := decimal.Max(target.Sub(entry), decimal.Zero)
	result.RiskRewardRatio = gain.Div(loss).Round(2).InexactFloat64()
}

func pct(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Div(decimal.NewFromInt(100))
}
