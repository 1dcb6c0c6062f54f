package evidence

// Table is the evidence point table.
// ⭐ SSOT: 증거표 배점은 분석기 배점(rules.Scoring)과 별도로 관리
// The two tables differ on purpose: the evidence view uses a fixed 5% bias
// ceiling and scores deep pullbacks at the overextended value.
type Table struct {
	Trend   TrendTable
	Bias    BiasTable
	Volume  VolumeTable
	Support SupportTable
	MACD    MACDTable
	RSI     RSITable
}

type TrendTable struct {
	Weight        float64
	StrongBull    float64
	Bull          float64
	WeakBull      float64
	Consolidation float64
	Bear          float64
	StrongBear    float64
}

type BiasTable struct {
	Weight          float64
	OptimalBelow    float64 // -3% < bias < 0
	AcceptableBelow float64 // -5% < bias <= -3%
	OverThreshold   float64 // bias <= -5%
	Near            float64 // 0 <= bias < 2%
	AcceptableAbove float64 // 2% <= bias < ceiling
	Overextended    float64 // bias >= ceiling
	Ceiling         float64
}

type VolumeTable struct {
	Weight     float64
	ShrinkDown float64
	HeavyUp    float64
	Normal     float64
	ShrinkUp   float64
	HeavyDown  float64
}

type SupportTable struct {
	Weight float64
	MA5    float64
	MA10   float64
}

type MACDTable struct {
	Weight          float64
	GoldenCrossZero float64
	GoldenCross     float64
	CrossingUp      float64
	Bullish         float64
	Bearish         float64
	CrossingDown    float64
	DeathCross      float64
}

type RSITable struct {
	Weight     float64
	Oversold   float64
	StrongBuy  float64
	Neutral    float64
	Weak       float64
	Overbought float64
}

// DefaultTable returns the built-in evidence points (six categories, 100 total)
func DefaultTable() Table {
	return Table{
		Trend: TrendTable{
			Weight: 30, StrongBull: 30, Bull: 26, WeakBull: 18, Consolidation: 12,
			Bear: 4, StrongBear: 0,
		},
		Bias: BiasTable{
			Weight: 20, OptimalBelow: 20, AcceptableBelow: 16, OverThreshold: 4,
			Near: 18, AcceptableAbove: 14, Overextended: 4, Ceiling: 5,
		},
		Volume: VolumeTable{
			Weight: 15, ShrinkDown: 15, HeavyUp: 12, Normal: 10, ShrinkUp: 6, HeavyDown: 0,
		},
		Support: SupportTable{Weight: 10, MA5: 5, MA10: 5},
		MACD: MACDTable{
			Weight: 15, GoldenCrossZero: 15, GoldenCross: 12, CrossingUp: 10,
			Bullish: 8, Bearish: 2, CrossingDown: 0, DeathCross: 0,
		},
		RSI: RSITable{
			Weight: 10, Oversold: 10, StrongBuy: 8, Neutral: 5, Weak: 3, Overbought: 0,
		},
	}
}

// MaxTotal returns the sum of category weights
func (t Table) MaxTotal() float64 {
	return t.Trend.Weight + t.Bias.Weight + t.Volume.Weight +
		t.Support.Weight + t.MACD.Weight + t.RSI.Weight
}
