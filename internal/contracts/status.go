package contracts

// 분석 상태 열거형
// JSON에는 식별자(STRONG_BULL 등)를 쓰고, 리포트/사유 문구에는 Label()을 사용

// TrendStatus is the moving-average regime
type TrendStatus string

const (
	TrendStrongBull    TrendStatus = "STRONG_BULL"
	TrendBull          TrendStatus = "BULL"
	TrendWeakBull      TrendStatus = "WEAK_BULL"
	TrendConsolidation TrendStatus = "CONSOLIDATION"
	TrendWeakBear      TrendStatus = "WEAK_BEAR"
	TrendBear          TrendStatus = "BEAR"
	TrendStrongBear    TrendStatus = "STRONG_BEAR"
)

var trendLabels = map[TrendStatus]string{
	TrendStrongBull:    "强势多头",
	TrendBull:          "多头排列",
	TrendWeakBull:      "弱势多头",
	TrendConsolidation: "盘整",
	TrendWeakBear:      "弱势空头",
	TrendBear:          "空头排列",
	TrendStrongBear:    "强势空头",
}

// Label returns the display text
func (t TrendStatus) Label() string { return labelOr(trendLabels, t, string(t)) }

// IsBullish reports full bullish alignment
func (t TrendStatus) IsBullish() bool { return t == TrendStrongBull || t == TrendBull }

// IsBearish reports full bearish alignment
func (t TrendStatus) IsBearish() bool { return t == TrendStrongBear || t == TrendBear }

// VolumeStatus is the volume regime of the latest bar
type VolumeStatus string

const (
	VolumeHeavyUp    VolumeStatus = "HEAVY_UP"
	VolumeHeavyDown  VolumeStatus = "HEAVY_DOWN"
	VolumeShrinkUp   VolumeStatus = "SHRINK_UP"
	VolumeShrinkDown VolumeStatus = "SHRINK_DOWN"
	VolumeNormal     VolumeStatus = "NORMAL"
)

var volumeLabels = map[VolumeStatus]string{
	VolumeHeavyUp:    "放量上涨",
	VolumeHeavyDown:  "放量下跌",
	VolumeShrinkUp:   "缩量上涨",
	VolumeShrinkDown: "缩量回调",
	VolumeNormal:     "量能正常",
}

// Label returns the display text
func (v VolumeStatus) Label() string { return labelOr(volumeLabels, v, string(v)) }

// MACDStatus is the MACD regime
type MACDStatus string

const (
	MACDGoldenCrossZero MACDStatus = "GOLDEN_CROSS_ZERO"
	MACDGoldenCross     MACDStatus = "GOLDEN_CROSS"
	MACDBullish         MACDStatus = "BULLISH"
	MACDCrossingUp      MACDStatus = "CROSSING_UP"
	MACDCrossingDown    MACDStatus = "CROSSING_DOWN"
	MACDBearish         MACDStatus = "BEARISH"
	MACDDeathCross      MACDStatus = "DEATH_CROSS"
)

var macdLabels = map[MACDStatus]string{
	MACDGoldenCrossZero: "零轴上金叉",
	MACDGoldenCross:     "金叉",
	MACDBullish:         "多头",
	MACDCrossingUp:      "上穿零轴",
	MACDCrossingDown:    "下穿零轴",
	MACDBearish:         "空头",
	MACDDeathCross:      "死叉",
}

// Label returns the display text
func (m MACDStatus) Label() string { return labelOr(macdLabels, m, string(m)) }

// RSIStatus is the mid-period RSI regime
type RSIStatus string

const (
	RSIOverbought RSIStatus = "OVERBOUGHT"
	RSIStrongBuy  RSIStatus = "STRONG_BUY"
	RSINeutral    RSIStatus = "NEUTRAL"
	RSIWeak       RSIStatus = "WEAK"
	RSIOversold   RSIStatus = "OVERSOLD"
)

var rsiLabels = map[RSIStatus]string{
	RSIOverbought: "超买",
	RSIStrongBuy:  "强势买入",
	RSINeutral:    "中性",
	RSIWeak:       "弱势",
	RSIOversold:   "超卖",
}

// Label returns the display text
func (r RSIStatus) Label() string { return labelOr(rsiLabels, r, string(r)) }

// BollPosition is the price position against the Bollinger bands
type BollPosition string

const (
	BollUpperBreakout  BollPosition = "UPPER_BREAKOUT"
	BollUpperPressure  BollPosition = "UPPER_PRESSURE"
	BollLowerBreakdown BollPosition = "LOWER_BREAKDOWN"
	BollLowerSupport   BollPosition = "LOWER_SUPPORT"
	BollMidBand        BollPosition = "MID_BAND"
)

var bollLabels = map[BollPosition]string{
	BollUpperBreakout:  "上轨突破",
	BollUpperPressure:  "上轨压力",
	BollLowerBreakdown: "下轨跌破",
	BollLowerSupport:   "下轨支撑",
	BollMidBand:        "中轨附近",
}

// Label returns the display text
func (b BollPosition) Label() string { return labelOr(bollLabels, b, string(b)) }

// KDJStatus is the stochastic regime
type KDJStatus string

const (
	KDJLowGoldenCross KDJStatus = "LOW_GOLDEN_CROSS"
	KDJGoldenCross    KDJStatus = "GOLDEN_CROSS"
	KDJHighDeathCross KDJStatus = "HIGH_DEATH_CROSS"
	KDJDeathCross     KDJStatus = "DEATH_CROSS"
	KDJOverbought     KDJStatus = "OVERBOUGHT"
	KDJOversold       KDJStatus = "OVERSOLD"
	KDJNeutral        KDJStatus = "NEUTRAL"
)

var kdjLabels = map[KDJStatus]string{
	KDJLowGoldenCross: "低位金叉",
	KDJGoldenCross:    "金叉",
	KDJHighDeathCross: "高位死叉",
	KDJDeathCross:     "死叉",
	KDJOverbought:     "超买",
	KDJOversold:       "超卖",
	KDJNeutral:        "中性",
}

// Label returns the display text
func (k KDJStatus) Label() string { return labelOr(kdjLabels, k, string(k)) }

// OBVTrend is the OBV/price relationship over the lookback
type OBVTrend string

const (
	OBVRiseTogether      OBVTrend = "RISE_TOGETHER"
	OBVVolumeUpPriceWeak OBVTrend = "VOLUME_UP_PRICE_WEAK"
	OBVPriceUpVolumeWeak OBVTrend = "PRICE_UP_VOLUME_WEAK"
	OBVBothWeak          OBVTrend = "BOTH_WEAK"
	OBVNeutral           OBVTrend = "NEUTRAL"
)

var obvLabels = map[OBVTrend]string{
	OBVRiseTogether:      "量价齐升",
	OBVVolumeUpPriceWeak: "量增价弱(潜在背离)",
	OBVPriceUpVolumeWeak: "价升量弱(顶部风险)",
	OBVBothWeak:          "量价齐弱",
	OBVNeutral:           "中性",
}

// Label returns the display text
func (o OBVTrend) Label() string { return labelOr(obvLabels, o, string(o)) }

// BuySignal is the trade recommendation
type BuySignal string

const (
	SignalStrongBuy  BuySignal = "STRONG_BUY"
	SignalBuy        BuySignal = "BUY"
	SignalHold       BuySignal = "HOLD"
	SignalWait       BuySignal = "WAIT"
	SignalSell       BuySignal = "SELL"
	SignalStrongSell BuySignal = "STRONG_SELL"
)

var signalLabels = map[BuySignal]string{
	SignalStrongBuy:  "强烈买入",
	SignalBuy:        "买入",
	SignalHold:       "持有",
	SignalWait:       "观望",
	SignalSell:       "卖出",
	SignalStrongSell: "强烈卖出",
}

var signalRanks = map[BuySignal]int{
	SignalStrongSell: 0,
	SignalSell:       1,
	SignalWait:       2,
	SignalHold:       3,
	SignalBuy:        4,
	SignalStrongBuy:  5,
}

// Label returns the display text
func (s BuySignal) Label() string { return labelOr(signalLabels, s, string(s)) }

// Rank orders signals from STRONG_SELL (0) to STRONG_BUY (5).
// Unknown values rank as WAIT.
func (s BuySignal) Rank() int {
	if r, ok := signalRanks[s]; ok {
		return r
	}
	return signalRanks[SignalWait]
}

// Downgrade lowers STRONG_BUY to BUY and BUY to HOLD; other levels are kept
func (s BuySignal) Downgrade() BuySignal {
	switch s {
	case SignalStrongBuy:
		return SignalBuy
	case SignalBuy:
		return SignalHold
	default:
		return s
	}
}

// MinSignal returns the more conservative of two signals
func MinSignal(a, b BuySignal) BuySignal {
	if b.Rank() < a.Rank() {
		return b
	}
	return a
}

func labelOr[K comparable](labels map[K]string, key K, fallback string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	return fallback
}
