package rules

// Rules is the full threshold/weight set consumed by the analyzer
// ⭐ SSOT: 분석기의 모든 임계값과 배점은 이 구조체로만 전달
// Resolved Rules are shared between goroutines and must be treated as read-only.
type Rules struct {
	MA        MA        `yaml:"ma" json:"ma"`
	Bias      Bias      `yaml:"bias" json:"bias"`
	Volume    Volume    `yaml:"volume" json:"volume"`
	MACD      MACD      `yaml:"macd" json:"macd"`
	RSI       RSI       `yaml:"rsi" json:"rsi"`
	Support   Support   `yaml:"support" json:"support"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Risk      Risk      `yaml:"risk" json:"risk"`
	TradePlan TradePlan `yaml:"trade_plan" json:"trade_plan"`
	Decay     Decay     `yaml:"decay" json:"decay"`
	Resonance Resonance `yaml:"resonance" json:"resonance"`
	Presets   Presets   `yaml:"presets" json:"presets"`
}

// MA 이동평균
type MA struct {
	Periods []int `yaml:"periods" json:"periods"`
}

// Bias 이격도 (%)
type Bias struct {
	Threshold     float64 `yaml:"threshold" json:"threshold"`           // 이 이상이면 추격 매수 금지
	OptimalZone   float64 `yaml:"optimal_zone" json:"optimal_zone"`     // 0 ~ optimal: MA5 근접
	WarningZone   float64 `yaml:"warning_zone" json:"warning_zone"`     // -warning ~ 0: 눌림목
	PullbackLimit float64 `yaml:"pullback_limit" json:"pullback_limit"` // -limit 미만: 이탈 위험
}

// Volume 거래량 배수
type Volume struct {
	ShrinkThreshold float64 `yaml:"shrink_threshold" json:"shrink_threshold"`
	HeavyThreshold  float64 `yaml:"heavy_threshold" json:"heavy_threshold"`
}

type MACD struct {
	Fast   int `yaml:"fast" json:"fast"`
	Slow   int `yaml:"slow" json:"slow"`
	Signal int `yaml:"signal" json:"signal"`
}

type RSI struct {
	Periods     []int   `yaml:"periods" json:"periods"`
	Overbought  float64 `yaml:"overbought" json:"overbought"`
	Oversold    float64 `yaml:"oversold" json:"oversold"`
	NeutralHigh float64 `yaml:"neutral_high" json:"neutral_high"`
	NeutralLow  float64 `yaml:"neutral_low" json:"neutral_low"`
}

// MidPeriod returns the period classified by the RSI regime (middle of the list)
func (r RSI) MidPeriod() int {
	if len(r.Periods) == 0 {
		return 12
	}
	return r.Periods[len(r.Periods)/2]
}

// Support 지지 판정 허용 오차 (%)
type Support struct {
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Scoring 항목별 배점표 (합계 100)
type Scoring struct {
	Trend   TrendPoints   `yaml:"trend" json:"trend"`
	Bias    BiasPoints    `yaml:"bias" json:"bias"`
	Volume  VolumePoints  `yaml:"volume" json:"volume"`
	Support SupportPoints `yaml:"support" json:"support"`
	MACD    MACDPoints    `yaml:"macd" json:"macd"`
	RSI     RSIPoints     `yaml:"rsi" json:"rsi"`
}

// MaxTotal returns the best achievable score across categories
func (s Scoring) MaxTotal() int {
	return s.Trend.Weight + s.Bias.Weight + s.Volume.Weight +
		s.Support.Weight + s.MACD.Weight + s.RSI.Weight
}

type TrendPoints struct {
	Weight        int `yaml:"weight" json:"weight"`
	StrongBull    int `yaml:"strong_bull" json:"strong_bull"`
	Bull          int `yaml:"bull" json:"bull"`
	WeakBull      int `yaml:"weak_bull" json:"weak_bull"`
	Consolidation int `yaml:"consolidation" json:"consolidation"`
	WeakBear      int `yaml:"weak_bear" json:"weak_bear"`
	Bear          int `yaml:"bear" json:"bear"`
	StrongBear    int `yaml:"strong_bear" json:"strong_bear"`
}

type BiasPoints struct {
	Weight       int `yaml:"weight" json:"weight"`
	Pullback     int `yaml:"pullback" json:"pullback"`           // -warning <= bias < 0
	DeepPullback int `yaml:"deep_pullback" json:"deep_pullback"` // -limit <= bias < -warning
	Breakdown    int `yaml:"breakdown" json:"breakdown"`         // bias < -limit
	Near         int `yaml:"near" json:"near"`                   // 0 <= bias < optimal
	Above        int `yaml:"above" json:"above"`                 // optimal <= bias < threshold
	Overextended int `yaml:"overextended" json:"overextended"`   // bias >= threshold
}

type VolumePoints struct {
	Weight     int `yaml:"weight" json:"weight"`
	ShrinkDown int `yaml:"shrink_down" json:"shrink_down"`
	HeavyUp    int `yaml:"heavy_up" json:"heavy_up"`
	Normal     int `yaml:"normal" json:"normal"`
	ShrinkUp   int `yaml:"shrink_up" json:"shrink_up"`
	HeavyDown  int `yaml:"heavy_down" json:"heavy_down"`
}

type SupportPoints struct {
	Weight int `yaml:"weight" json:"weight"`
	MA5    int `yaml:"ma5" json:"ma5"`
	MA10   int `yaml:"ma10" json:"ma10"`
}

type MACDPoints struct {
	Weight          int `yaml:"weight" json:"weight"`
	GoldenCrossZero int `yaml:"golden_cross_zero" json:"golden_cross_zero"`
	GoldenCross     int `yaml:"golden_cross" json:"golden_cross"`
	CrossingUp      int `yaml:"crossing_up" json:"crossing_up"`
	Bullish         int `yaml:"bullish" json:"bullish"`
	Bearish         int `yaml:"bearish" json:"bearish"`
	CrossingDown    int `yaml:"crossing_down" json:"crossing_down"`
	DeathCross      int `yaml:"death_cross" json:"death_cross"`
}

type RSIPoints struct {
	Weight     int `yaml:"weight" json:"weight"`
	Oversold   int `yaml:"oversold" json:"oversold"`
	StrongBuy  int `yaml:"strong_buy" json:"strong_buy"`
	Neutral    int `yaml:"neutral" json:"neutral"`
	Weak       int `yaml:"weak" json:"weak"`
	Overbought int `yaml:"overbought" json:"overbought"`
}

// Signals 점수 컷오프
type Signals struct {
	StrongBuy  int `yaml:"strong_buy" json:"strong_buy"`
	Buy        int `yaml:"buy" json:"buy"`
	Hold       int `yaml:"hold" json:"hold"`
	Wait       int `yaml:"wait" json:"wait"`
	Sell       int `yaml:"sell" json:"sell"`
	StrongSell int `yaml:"strong_sell" json:"strong_sell"`
}

// Risk 비중 한도 (%)
type Risk struct {
	MaxPositionPct    float64 `yaml:"max_position_pct" json:"max_position_pct"`
	MaxDailyStopLoss  float64 `yaml:"max_daily_stop_loss" json:"max_daily_stop_loss"`
	MaxSinglePosition float64 `yaml:"max_single_position" json:"max_single_position"`
}

// TradePlan 손절/목표가 산출
type TradePlan struct {
	ATRPeriod         int     `yaml:"atr_period" json:"atr_period"`
	ATRStopMultiplier float64 `yaml:"atr_stop_multiplier" json:"atr_stop_multiplier"`
	TargetMultiplier  float64 `yaml:"target_multiplier" json:"target_multiplier"`
	FallbackStopPct   float64 `yaml:"fallback_stop_pct" json:"fallback_stop_pct"`
	FallbackTargetPct float64 `yaml:"fallback_target_pct" json:"fallback_target_pct"`
	ScoreToPosition   float64 `yaml:"score_to_position" json:"score_to_position"` // 점수 / N = 비중
	PositionCap       float64 `yaml:"position_cap" json:"position_cap"`
}

// Decay 신호 유효기간 (봉 수)
type Decay struct {
	ExpiryBars int `yaml:"expiry_bars" json:"expiry_bars"`
}

// Resonance 다중 신호 공명
type Resonance struct {
	MinSignals     int `yaml:"min_signals" json:"min_signals"`
	TimeframeBonus int `yaml:"timeframe_bonus" json:"timeframe_bonus"`
	IntradayMinBar int `yaml:"intraday_min_bars" json:"intraday_min_bars"`
}

// Preset maps override keys (bias_threshold, rsi_overbought, buy_threshold, ...) to values
type Preset map[string]float64

// Presets keyed by style name
type Presets map[string]Preset

// Style names
const (
	StyleConservative = "conservative"
	StyleBalanced     = "balanced"
	StyleAggressive   = "aggressive"
)

// Defaults returns the built-in rule set
// 설정 파일이 없어도 분석기가 완전히 동작하는 기본값
func Defaults() *Rules {
	return &Rules{
		MA: MA{Periods: []int{5, 10, 20, 60}},
		Bias: Bias{
			Threshold:     5.0,
			OptimalZone:   2.0,
			WarningZone:   3.0,
			PullbackLimit: 5.0,
		},
		Volume: Volume{ShrinkThreshold: 0.7, HeavyThreshold: 1.5},
		MACD:   MACD{Fast: 12, Slow: 26, Signal: 9},
		RSI: RSI{
			Periods:     []int{6, 12, 24},
			Overbought:  70,
			Oversold:    30,
			NeutralHigh: 60,
			NeutralLow:  40,
		},
		Support: Support{Tolerance: 2.0},
		Scoring: Scoring{
			Trend: TrendPoints{
				Weight: 30, StrongBull: 30, Bull: 26, WeakBull: 18, Consolidation: 12,
				WeakBear: 8, Bear: 4, StrongBear: 0,
			},
			Bias: BiasPoints{
				Weight: 20, Pullback: 20, DeepPullback: 16, Breakdown: 8,
				Near: 18, Above: 14, Overextended: 4,
			},
			Volume: VolumePoints{
				Weight: 15, ShrinkDown: 15, HeavyUp: 12, Normal: 10, ShrinkUp: 6, HeavyDown: 0,
			},
			Support: SupportPoints{Weight: 10, MA5: 5, MA10: 5},
			MACD: MACDPoints{
				Weight: 15, GoldenCrossZero: 15, GoldenCross: 12, CrossingUp: 10,
				Bullish: 8, Bearish: 2, CrossingDown: 0, DeathCross: 0,
			},
			RSI: RSIPoints{
				Weight: 10, Oversold: 10, StrongBuy: 8, Neutral: 5, Weak: 3, Overbought: 0,
			},
		},
		Signals: Signals{StrongBuy: 75, Buy: 60, Hold: 45, Wait: 30, Sell: 20, StrongSell: 10},
		Risk:    Risk{MaxPositionPct: 30, MaxDailyStopLoss: 5, MaxSinglePosition: 20},
		TradePlan: TradePlan{
			ATRPeriod:         14,
			ATRStopMultiplier: 2.0,
			TargetMultiplier:  3.0,
			FallbackStopPct:   3.0,
			FallbackTargetPct: 6.0,
			ScoreToPosition:   4.0,
			PositionCap:       25.0,
		},
		Decay:     Decay{ExpiryBars: 5},
		Resonance: Resonance{MinSignals: 3, TimeframeBonus: 5, IntradayMinBar: 20},
		Presets: Presets{
			StyleConservative: {
				"bias_threshold":       3,
				"rsi_overbought":       65,
				"rsi_oversold":         25,
				"strong_buy_threshold": 80,
				"buy_threshold":        65,
			},
			StyleBalanced: {},
			StyleAggressive: {
				"bias_threshold":       8,
				"rsi_overbought":       80,
				"rsi_oversold":         35,
				"strong_buy_threshold": 70,
				"buy_threshold":        55,
			},
		},
	}
}

// Clone returns a deep copy
func (r *Rules) Clone() *Rules {
	c := *r
	c.MA.Periods = append([]int(nil), r.MA.Periods...)
	c.RSI.Periods = append([]int(nil), r.RSI.Periods...)
	c.Presets = make(Presets, len(r.Presets))
	for name, p := range r.Presets {
		cp := make(Preset, len(p))
		for k, v := range p {
			cp[k] = v
		}
		c.Presets[name] = cp
	}
	return &c
}
