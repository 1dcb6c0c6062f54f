package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func floatPtr(v float64) *float64 { return &v }

func TestDefaults_AreValid(t *testing.T) {
	r := Defaults()
	require.NoError(t, Validate(r))
	assert.Equal(t, 100, r.Scoring.MaxTotal())
	assert.Equal(t, 12, r.RSI.MidPeriod())
	assert.Empty(t, Warn(r))
}

func TestLoadFile_SampleConfig(t *testing.T) {
	path := "../../config/analyzer_rules.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	r, data, err := LoadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// 샘플 파일은 기본값과 동일해야 함
	fileHash, err := Hash(r)
	require.NoError(t, err)
	defaultHash, err := Hash(Defaults())
	require.NoError(t, err)
	assert.Equal(t, defaultHash, fileHash)
	assert.Len(t, fileHash, 64)
}

func TestLoadFile_Strict(t *testing.T) {
	t.Run("unknown key fails", func(t *testing.T) {
		path := writeRules(t, "bias:\n  threshhold: 4\n")
		_, _, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := writeRules(t, "bias:\n  threshold: 4\n")
		r, _, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 4.0, r.Bias.Threshold)
		assert.Equal(t, 2.0, r.Bias.OptimalZone)
		assert.Equal(t, 0.7, r.Volume.ShrinkThreshold)
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		path := writeRules(t, "macd:\n  fast: 30\n  slow: 26\n")
		_, _, err := LoadFile(path)
		var vErr ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "macd", vErr.Field)
	})

	t.Run("empty file is defaults", func(t *testing.T) {
		path := writeRules(t, "")
		r, _, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Defaults().Signals, r.Signals)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rules)
		field  string
	}{
		{"empty ma periods", func(r *Rules) { r.MA.Periods = nil }, "ma.periods"},
		{"volume order", func(r *Rules) { r.Volume.ShrinkThreshold = 2 }, "volume"},
		{"rsi order", func(r *Rules) { r.RSI.Oversold = 80 }, "rsi"},
		{"rsi neutral band", func(r *Rules) { r.RSI.NeutralLow = 65 }, "rsi"},
		{"signals order", func(r *Rules) { r.Signals.Buy = 80 }, "signals"},
		{"weights sum", func(r *Rules) { r.Scoring.Trend.Weight = 40 }, "scoring"},
		{"points above weight", func(r *Rules) { r.Scoring.MACD.GoldenCrossZero = 16 }, "scoring.macd"},
		{"support points", func(r *Rules) { r.Scoring.Support.MA5 = 8 }, "scoring.support"},
		{"risk pct", func(r *Rules) { r.Risk.MaxPositionPct = 0 }, "risk.max_position_pct"},
		{"min signals", func(r *Rules) { r.Resonance.MinSignals = 8 }, "resonance.min_signals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Defaults()
			tt.mutate(r)
			err := Validate(r)
			var vErr ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	r := Defaults()
	r.Risk.MaxSinglePosition = 40
	r.Risk.MaxPositionPct = 30
	r.Presets["custom"] = Preset{"typo_key": 1}

	codes := make([]string, 0)
	for _, w := range Warn(r) {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "RISK_SINGLE_ABOVE_TOTAL")
	assert.Contains(t, codes, "PRESET_UNKNOWN_KEY")
}

func TestApplyPreset(t *testing.T) {
	r := Defaults()
	unknown, ok := r.ApplyPreset(StyleConservative)
	require.True(t, ok)
	assert.Empty(t, unknown)
	assert.Equal(t, 3.0, r.Bias.Threshold)
	assert.Equal(t, 65.0, r.RSI.Overbought)
	assert.Equal(t, 25.0, r.RSI.Oversold)
	assert.Equal(t, 80, r.Signals.StrongBuy)
	assert.Equal(t, 65, r.Signals.Buy)
	assert.Equal(t, 45, r.Signals.Hold)

	r = Defaults()
	before, _ := Hash(r)
	_, ok = r.ApplyPreset("yolo")
	assert.False(t, ok)
	after, _ := Hash(r)
	assert.Equal(t, before, after, "unknown preset leaves rules unchanged")
}

func TestClone_IsDeep(t *testing.T) {
	r := Defaults()
	c := r.Clone()
	c.MA.Periods[0] = 99
	c.Presets[StyleAggressive]["bias_threshold"] = 99

	assert.Equal(t, 5, r.MA.Periods[0])
	assert.Equal(t, 8.0, r.Presets[StyleAggressive]["bias_threshold"])
}

func TestProvider_Layers(t *testing.T) {
	path := writeRules(t, "bias:\n  threshold: 6\nrsi:\n  overbought: 75\n")

	p := NewProvider(
		WithFile(path),
		WithOverrides(Overrides{RSIOversold: floatPtr(20)}),
	)

	balanced := p.Get("")
	assert.Equal(t, 6.0, balanced.Bias.Threshold, "file layer")
	assert.Equal(t, 75.0, balanced.RSI.Overbought, "file layer")
	assert.Equal(t, 20.0, balanced.RSI.Oversold, "override layer")

	aggressive := p.Get("Aggressive")
	assert.Equal(t, 8.0, aggressive.Bias.Threshold, "preset beats file")
	assert.Equal(t, 80.0, aggressive.RSI.Overbought)
	assert.Equal(t, 20.0, aggressive.RSI.Oversold, "override beats preset")
}

func TestProvider_OverrideBeatsPreset(t *testing.T) {
	p := NewProvider(WithOverrides(Overrides{BiasThreshold: floatPtr(4.5)}))
	assert.Equal(t, 4.5, p.Get(StyleConservative).Bias.Threshold)
	assert.Equal(t, 4.5, p.Get(StyleAggressive).Bias.Threshold)
}

func TestProvider_OverridesKeepFileLayer(t *testing.T) {
	path := writeRules(t, "bias:\n  threshold: 6\nscoring:\n  rsi:\n    neutral: 6\n")

	tests := []struct {
		name      string
		overrides Overrides
		check     func(t *testing.T, r *Rules)
	}{
		{"oversold above neutral low", Overrides{RSIOversold: floatPtr(45)}, func(t *testing.T, r *Rules) {
			assert.Equal(t, 45.0, r.RSI.Oversold)
			assert.Equal(t, 6.0, r.Bias.Threshold)
		}},
		{"overbought below neutral high", Overrides{RSIOverbought: floatPtr(58)}, func(t *testing.T, r *Rules) {
			assert.Equal(t, 58.0, r.RSI.Overbought)
		}},
		{"bias below optimal zone", Overrides{BiasThreshold: floatPtr(1.5)}, func(t *testing.T, r *Rules) {
			assert.Equal(t, 1.5, r.Bias.Threshold)
		}},
		{"invalid override dropped alone", Overrides{RSIOversold: floatPtr(80), BiasThreshold: floatPtr(4)}, func(t *testing.T, r *Rules) {
			assert.Equal(t, 30.0, r.RSI.Oversold)
			assert.Equal(t, 4.0, r.Bias.Threshold)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewProvider(WithFile(path), WithOverrides(tt.overrides)).Get(StyleBalanced)
			require.NoError(t, Validate(r))
			assert.Equal(t, 6, r.Scoring.RSI.Neutral, "file scoring kept")
			tt.check(t, r)
		})
	}
}

func TestProvider_InvalidPresetKeyDroppedAlone(t *testing.T) {
	path := writeRules(t, "presets:\n  custom:\n    rsi_oversold: 90\n    bias_threshold: 7\n")

	r := NewProvider(WithFile(path)).Get("custom")
	assert.Equal(t, 30.0, r.RSI.Oversold)
	assert.Equal(t, 7.0, r.Bias.Threshold)
}

func TestProvider_UnknownStylesShareDefaultEntry(t *testing.T) {
	path := writeRules(t, "presets:\n  custom:\n    bias_threshold: 7\n")
	p := NewProvider(WithFile(path))

	for i := 0; i < 5000; i++ {
		p.Get(fmt.Sprintf("x%d", i))
	}
	assert.ElementsMatch(t, []string{StyleBalanced}, p.CachedStyles())

	assert.Equal(t, StyleBalanced, p.ResolveStyle("turbo"))
	assert.Equal(t, StyleBalanced, p.ResolveStyle(""))
	assert.Equal(t, "custom", p.ResolveStyle(" Custom "))
	assert.Equal(t, 7.0, p.Get("custom").Bias.Threshold)
}

func TestProvider_Version(t *testing.T) {
	path := writeRules(t, "bias:\n  threshold: 6\n")
	p := NewProvider(WithFile(path))

	v1 := p.Version(StyleBalanced)
	want, _ := Hash(p.Get(StyleBalanced))
	assert.Equal(t, want, v1)
	assert.Equal(t, v1, p.Version("turbo"), "unknown style shares the default rules")
	assert.NotEqual(t, v1, p.Version(StyleAggressive))

	require.NoError(t, os.WriteFile(path, []byte("bias:\n  threshold: 7\n"), 0o644))
	p.Reset()
	assert.NotEqual(t, v1, p.Version(StyleBalanced))
}

func TestProvider_FallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.yaml")},
		{"malformed yaml", writeRules(t, "bias: [unclosed\n")},
		{"invalid values", writeRules(t, "signals:\n  strong_buy: 10\n")},
	}

	want, _ := Hash(Defaults())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(WithFile(tt.path))
			got, err := Hash(p.Get(StyleBalanced))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestProvider_UnknownStyle(t *testing.T) {
	p := NewProvider()
	r := p.Get("turbo")
	assert.Equal(t, 5.0, r.Bias.Threshold)
}

func TestProvider_CacheAndReset(t *testing.T) {
	path := writeRules(t, "bias:\n  threshold: 6\n")
	p := NewProvider(WithFile(path))

	first := p.Get(StyleBalanced)
	assert.Same(t, first, p.Get(StyleBalanced), "cached by style")
	assert.ElementsMatch(t, []string{StyleBalanced}, p.CachedStyles())

	require.NoError(t, os.WriteFile(path, []byte("bias:\n  threshold: 7\n"), 0o644))
	assert.Equal(t, 6.0, p.Get(StyleBalanced).Bias.Threshold, "stale until reset")

	p.Reset()
	assert.Empty(t, p.CachedStyles())
	assert.Equal(t, 7.0, p.Get(StyleBalanced).Bias.Threshold)
}

func TestProvider_DefaultStyle(t *testing.T) {
	p := NewProvider(WithStyle(StyleConservative))
	assert.Equal(t, StyleConservative, p.DefaultStyle())
	assert.Equal(t, 3.0, p.Get("").Bias.Threshold)
}

func TestMarshal_RoundTripsThroughDecode(t *testing.T) {
	data, err := Marshal(Defaults())
	require.NoError(t, err)

	r, err := Decode(data, true)
	require.NoError(t, err)

	want, _ := Hash(Defaults())
	got, _ := Hash(r)
	assert.Equal(t, want, got)
}

func TestWatcher_ResetsOnWrite(t *testing.T) {
	path := writeRules(t, "bias:\n  threshold: 6\n")
	p := NewProvider(WithFile(path))
	require.Equal(t, 6.0, p.Get(StyleBalanced).Bias.Threshold)

	w, err := NewWatcher(p, nil)
	require.NoError(t, err)

	var resets atomic.Int32
	w.OnReset(func() { resets.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("bias:\n  threshold: 7\n"), 0o644))

	// 저장 과정에서 이벤트가 여러 번 올 수 있으므로 최종 상태만 확인
	require.Eventually(t, func() bool {
		return p.Get(StyleBalanced).Bias.Threshold == 7.0
	}, 5*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, resets.Load(), int32(1))
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	_, err := NewWatcher(NewProvider(), nil)
	assert.Error(t, err)
}
