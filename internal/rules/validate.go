package rules

import (
	"fmt"
	"sort"
)

// ValidationError 검증 실패 (규칙 적용 불가)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validate checks all required constraints
func Validate(r *Rules) error {
	// === MA ===
	if len(r.MA.Periods) == 0 {
		return ValidationError{"ma.periods", "required"}
	}
	for i, p := range r.MA.Periods {
		if p <= 0 {
			return ValidationError{fmt.Sprintf("ma.periods[%d]", i), "must be > 0"}
		}
	}

	// === Bias ===
	b := r.Bias
	if b.Threshold <= 0 {
		return ValidationError{"bias.threshold", "must be > 0"}
	}
	if b.OptimalZone < 0 {
		return ValidationError{"bias.optimal_zone", "must be >= 0"}
	}
	if b.WarningZone <= 0 {
		return ValidationError{"bias.warning_zone", "must be > 0"}
	}
	if b.PullbackLimit < b.WarningZone {
		return ValidationError{"bias.pullback_limit", "must be >= warning_zone"}
	}

	// === Volume ===
	if r.Volume.ShrinkThreshold <= 0 || r.Volume.ShrinkThreshold >= r.Volume.HeavyThreshold {
		return ValidationError{"volume", "must satisfy 0 < shrink_threshold < heavy_threshold"}
	}

	// === MACD ===
	if r.MACD.Fast <= 0 || r.MACD.Fast >= r.MACD.Slow {
		return ValidationError{"macd", "must satisfy 0 < fast < slow"}
	}
	if r.MACD.Signal <= 0 {
		return ValidationError{"macd.signal", "must be > 0"}
	}

	// === RSI ===
	if len(r.RSI.Periods) == 0 {
		return ValidationError{"rsi.periods", "required"}
	}
	for i, p := range r.RSI.Periods {
		if p <= 0 {
			return ValidationError{fmt.Sprintf("rsi.periods[%d]", i), "must be > 0"}
		}
	}
	// 중립 구간은 과매수/과매도 사이가 아니어도 됨 (판정은 위에서부터 순서대로)
	rsi := r.RSI
	if !(0 <= rsi.Oversold && rsi.Oversold < rsi.Overbought && rsi.Overbought <= 100) {
		return ValidationError{"rsi", "must satisfy 0 <= oversold < overbought <= 100"}
	}
	if !(0 <= rsi.NeutralLow && rsi.NeutralLow <= rsi.NeutralHigh && rsi.NeutralHigh <= 100) {
		return ValidationError{"rsi", "must satisfy 0 <= neutral_low <= neutral_high <= 100"}
	}

	// === Support ===
	if r.Support.Tolerance < 0 {
		return ValidationError{"support.tolerance", "must be >= 0"}
	}

	// === Scoring ===
	if err := validateScoring(r.Scoring); err != nil {
		return err
	}

	// === Signals ===
	s := r.Signals
	if !(s.StrongBuy > s.Buy && s.Buy > s.Hold && s.Hold > s.Wait) {
		return ValidationError{"signals", "must satisfy strong_buy > buy > hold > wait"}
	}
	if s.StrongBuy > 100 || s.Wait < 0 {
		return ValidationError{"signals", "cutoffs must be in [0, 100]"}
	}
	if s.Sell < s.StrongSell {
		return ValidationError{"signals", "sell must be >= strong_sell"}
	}

	// === Risk ===
	if err := validatePct(r.Risk.MaxPositionPct, "risk.max_position_pct"); err != nil {
		return err
	}
	if err := validatePct(r.Risk.MaxSinglePosition, "risk.max_single_position"); err != nil {
		return err
	}

	// === Trade plan ===
	tp := r.TradePlan
	if tp.ATRPeriod <= 0 {
		return ValidationError{"trade_plan.atr_period", "must be > 0"}
	}
	if tp.ATRStopMultiplier <= 0 || tp.TargetMultiplier <= 0 {
		return ValidationError{"trade_plan", "multipliers must be > 0"}
	}
	if tp.FallbackStopPct <= 0 || tp.FallbackTargetPct <= 0 {
		return ValidationError{"trade_plan", "fallback percents must be > 0"}
	}
	if tp.ScoreToPosition <= 0 {
		return ValidationError{"trade_plan.score_to_position", "must be > 0"}
	}
	if err := validatePct(tp.PositionCap, "trade_plan.position_cap"); err != nil {
		return err
	}

	// === Filters ===
	if r.Decay.ExpiryBars < 0 {
		return ValidationError{"decay.expiry_bars", "must be >= 0"}
	}
	if r.Resonance.MinSignals < 0 || r.Resonance.MinSignals > 7 {
		return ValidationError{"resonance.min_signals", "must be in [0, 7]"}
	}
	if r.Resonance.TimeframeBonus < 0 {
		return ValidationError{"resonance.timeframe_bonus", "must be >= 0"}
	}
	if r.Resonance.IntradayMinBar < 1 {
		return ValidationError{"resonance.intraday_min_bars", "must be >= 1"}
	}

	return nil
}

func validateScoring(sc Scoring) error {
	if total := sc.MaxTotal(); total != 100 {
		return ValidationError{"scoring", fmt.Sprintf("weights must sum to 100, got %d", total)}
	}

	tables := []struct {
		field  string
		weight int
		points []int
	}{
		{"scoring.trend", sc.Trend.Weight, []int{sc.Trend.StrongBull, sc.Trend.Bull, sc.Trend.WeakBull,
			sc.Trend.Consolidation, sc.Trend.WeakBear, sc.Trend.Bear, sc.Trend.StrongBear}},
		{"scoring.bias", sc.Bias.Weight, []int{sc.Bias.Pullback, sc.Bias.DeepPullback, sc.Bias.Breakdown,
			sc.Bias.Near, sc.Bias.Above, sc.Bias.Overextended}},
		{"scoring.volume", sc.Volume.Weight, []int{sc.Volume.ShrinkDown, sc.Volume.HeavyUp, sc.Volume.Normal,
			sc.Volume.ShrinkUp, sc.Volume.HeavyDown}},
		{"scoring.macd", sc.MACD.Weight, []int{sc.MACD.GoldenCrossZero, sc.MACD.GoldenCross, sc.MACD.CrossingUp,
			sc.MACD.Bullish, sc.MACD.Bearish, sc.MACD.CrossingDown, sc.MACD.DeathCross}},
		{"scoring.rsi", sc.RSI.Weight, []int{sc.RSI.Oversold, sc.RSI.StrongBuy, sc.RSI.Neutral,
			sc.RSI.Weak, sc.RSI.Overbought}},
	}
	for _, t := range tables {
		for _, p := range t.points {
			if p < 0 || p > t.weight {
				return ValidationError{t.field, fmt.Sprintf("points must be in [0, weight=%d], got %d", t.weight, p)}
			}
		}
	}

	if sc.Support.MA5 < 0 || sc.Support.MA10 < 0 || sc.Support.MA5+sc.Support.MA10 > sc.Support.Weight {
		return ValidationError{"scoring.support", fmt.Sprintf("ma5+ma10 must be in [0, weight=%d]", sc.Support.Weight)}
	}
	return nil
}

// Warn returns advisory issues that do not block the rules
func Warn(r *Rules) []Warning {
	var warnings []Warning

	if r.Risk.MaxSinglePosition > r.Risk.MaxPositionPct {
		warnings = append(warnings, Warning{
			Code:    "RISK_SINGLE_ABOVE_TOTAL",
			Message: fmt.Sprintf("max_single_position=%.1f exceeds max_position_pct=%.1f", r.Risk.MaxSinglePosition, r.Risk.MaxPositionPct),
		})
	}

	if r.TradePlan.TargetMultiplier <= r.TradePlan.ATRStopMultiplier {
		warnings = append(warnings, Warning{
			Code:    "TRADE_PLAN_RR_BELOW_ONE",
			Message: "target_multiplier <= atr_stop_multiplier gives a risk/reward ratio <= 1",
		})
	}

	if r.Bias.Threshold > 10 {
		warnings = append(warnings, Warning{
			Code:    "BIAS_THRESHOLD_HIGH",
			Message: fmt.Sprintf("bias.threshold=%.1f allows chasing extended prices", r.Bias.Threshold),
		})
	}

	if r.Decay.ExpiryBars == 0 {
		warnings = append(warnings, Warning{
			Code:    "DECAY_ZERO",
			Message: "decay.expiry_bars=0 invalidates every signal not crossed on the latest bar",
		})
	}

	names := make([]string, 0, len(r.Presets))
	for name := range r.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		keys := make([]string, 0, len(r.Presets[name]))
		for k := range r.Presets[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := presetSetters[k]; !ok {
				warnings = append(warnings, Warning{
					Code:    "PRESET_UNKNOWN_KEY",
					Message: fmt.Sprintf("presets.%s.%s is not a recognized key", name, k),
				})
			}
		}
	}

	return warnings
}

func validatePct(v float64, field string) error {
	if v <= 0 || v > 100 {
		return ValidationError{field, "must be in (0, 100]"}
	}
	return nil
}
