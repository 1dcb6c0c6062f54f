package rules

import "sort"

// Overrides are explicit values applied after the preset layer.
// nil fields are left untouched.
type Overrides struct {
	BiasThreshold *float64
	RSIOverbought *float64
	RSIOversold   *float64
}

type overrideField struct {
	name string
	set  func(r *Rules)
}

// fields lists the set overrides in a fixed order
func (o Overrides) fields() []overrideField {
	var out []overrideField
	if v := o.BiasThreshold; v != nil {
		out = append(out, overrideField{"bias_threshold", func(r *Rules) { r.Bias.Threshold = *v }})
	}
	if v := o.RSIOverbought; v != nil {
		out = append(out, overrideField{"rsi_overbought", func(r *Rules) { r.RSI.Overbought = *v }})
	}
	if v := o.RSIOversold; v != nil {
		out = append(out, overrideField{"rsi_oversold", func(r *Rules) { r.RSI.Oversold = *v }})
	}
	return out
}

// presetSetters maps preset keys to the field they change
var presetSetters = map[string]func(r *Rules, v float64){
	"bias_threshold":          func(r *Rules, v float64) { r.Bias.Threshold = v },
	"bias_optimal_zone":       func(r *Rules, v float64) { r.Bias.OptimalZone = v },
	"rsi_overbought":          func(r *Rules, v float64) { r.RSI.Overbought = v },
	"rsi_oversold":            func(r *Rules, v float64) { r.RSI.Oversold = v },
	"volume_shrink_threshold": func(r *Rules, v float64) { r.Volume.ShrinkThreshold = v },
	"volume_heavy_threshold":  func(r *Rules, v float64) { r.Volume.HeavyThreshold = v },
	"support_tolerance":       func(r *Rules, v float64) { r.Support.Tolerance = v },
	"strong_buy_threshold":    func(r *Rules, v float64) { r.Signals.StrongBuy = int(v) },
	"buy_threshold":           func(r *Rules, v float64) { r.Signals.Buy = int(v) },
	"hold_threshold":          func(r *Rules, v float64) { r.Signals.Hold = int(v) },
	"wait_threshold":          func(r *Rules, v float64) { r.Signals.Wait = int(v) },
	"sell_threshold":          func(r *Rules, v float64) { r.Signals.Sell = int(v) },
	"strong_sell_threshold":   func(r *Rules, v float64) { r.Signals.StrongSell = int(v) },
	"max_position_pct":        func(r *Rules, v float64) { r.Risk.MaxPositionPct = v },
	"max_single_position":     func(r *Rules, v float64) { r.Risk.MaxSinglePosition = v },
	"decay_expiry_bars":       func(r *Rules, v float64) { r.Decay.ExpiryBars = int(v) },
	"resonance_min_signals":   func(r *Rules, v float64) { r.Resonance.MinSignals = int(v) },
}

// ApplyPreset applies a named preset and returns the keys it did not recognize.
// ok is false when the preset does not exist; r is then left unchanged.
func (r *Rules) ApplyPreset(style string) (unknown []string, ok bool) {
	preset, ok := r.Presets[style]
	if !ok {
		return nil, false
	}

	for _, k := range sortedKeys(preset) {
		set, known := presetSetters[k]
		if !known {
			unknown = append(unknown, k)
			continue
		}
		set(r, preset[k])
	}
	return unknown, true
}

// sortedKeys fixes the key order so presets apply deterministically
func sortedKeys(p Preset) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PresetKeys lists the keys a preset may carry
func PresetKeys() []string {
	keys := make([]string, 0, len(presetSetters))
	for k := range presetSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
