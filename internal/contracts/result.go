package contracts

import "time"

// InsufficientDataNote is the risk note of a result built from too few bars
const InsufficientDataNote = "数据不足，无法完成分析"

// AnalysisResult is the output of one analysis call
// ⭐ SSOT: 리포트/알림/저장소는 이 구조체의 JSON 필드명을 그대로 사용
type AnalysisResult struct {
	Code       string    `json:"code"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// 추세
	TrendStatus   TrendStatus `json:"trend_status"`
	MAAlignment   string      `json:"ma_alignment"`
	TrendStrength float64     `json:"trend_strength"`

	// 이동평균
	MA5          float64 `json:"ma5"`
	MA10         float64 `json:"ma10"`
	MA20         float64 `json:"ma20"`
	MA60         float64 `json:"ma60"`
	CurrentPrice float64 `json:"current_price"`

	// 이격도 (%)
	BiasMA5  float64 `json:"bias_ma5"`
	BiasMA10 float64 `json:"bias_ma10"`
	BiasMA20 float64 `json:"bias_ma20"`

	// 거래량
	VolumeStatus  VolumeStatus `json:"volume_status"`
	VolumeRatio5D float64      `json:"volume_ratio_5d"`
	VolumeTrend   string       `json:"volume_trend"`

	// 지지/저항
	SupportMA5       bool      `json:"support_ma5"`
	SupportMA10      bool      `json:"support_ma10"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	SupportLevels    []float64 `json:"support_levels"`

	// MACD
	MACDDIF    float64    `json:"macd_dif"`
	MACDDEA    float64    `json:"macd_dea"`
	MACDBar    float64    `json:"macd_bar"`
	MACDStatus MACDStatus `json:"macd_status"`
	MACDSignal string     `json:"macd_signal"`

	// RSI
	RSI6      float64   `json:"rsi_6"`
	RSI12     float64   `json:"rsi_12"`
	RSI24     float64   `json:"rsi_24"`
	RSIStatus RSIStatus `json:"rsi_status"`
	RSISignal string    `json:"rsi_signal"`

	// ATR
	ATR14       float64 `json:"atr_14"`
	ATRStopLoss float64 `json:"atr_stop_loss"`

	// Bollinger
	BollMid      float64      `json:"boll_mid"`
	BollUpper    float64      `json:"boll_upper"`
	BollLower    float64      `json:"boll_lower"`
	BollPosition BollPosition `json:"boll_position"`

	// KDJ
	KValue    float64   `json:"k_value"`
	DValue    float64   `json:"d_value"`
	JValue    float64   `json:"j_value"`
	KDJStatus KDJStatus `json:"kdj_status"`

	// OBV
	OBVValue float64  `json:"obv_value"`
	OBVTrend OBVTrend `json:"obv_trend"`

	// 종합 신호
	BuySignal     BuySignal `json:"buy_signal"`
	SignalScore   int       `json:"signal_score"`
	SignalReasons []string  `json:"signal_reasons"`
	RiskFactors   []string  `json:"risk_factors"`

	SignalEvidence *EvidenceSummary `json:"signal_evidence"`
	SectorTags     *SectorTags      `json:"sector_tags"`

	// 다중 주기 공명
	TimeframeAlignment bool     `json:"timeframe_alignment"`
	TimeframeNotes     []string `json:"timeframe_notes"`

	// 수급
	MainFundNetInflow   float64 `json:"main_fund_net_inflow"`
	MainFundInflowRatio float64 `json:"main_fund_inflow_ratio"`
	NorthboundNetInflow float64 `json:"northbound_net_inflow"`

	// 다중 신호 공명
	ResonanceCount  int  `json:"resonance_count"`
	ResonancePassed bool `json:"resonance_passed"`

	// 신호 감쇠
	SignalAgeDays int  `json:"signal_age_days"`
	SignalValid   bool `json:"signal_valid"`

	// 매매 계획
	EntryPrice             float64 `json:"entry_price"`
	StopLossPrice          float64 `json:"stop_loss_price"`
	TargetPrice            float64 `json:"target_price"`
	RecommendedPositionPct float64 `json:"recommended_position_pct"`
	RiskRewardRatio        float64 `json:"risk_reward_ratio"`
}

// NewAnalysisResult returns a result holding the neutral defaults
func NewAnalysisResult(code string) *AnalysisResult {
	return &AnalysisResult{
		Code:             code,
		TrendStatus:      TrendConsolidation,
		VolumeStatus:     VolumeNormal,
		MACDStatus:       MACDBullish,
		RSIStatus:        RSINeutral,
		BollPosition:     BollMidBand,
		KDJStatus:        KDJNeutral,
		OBVTrend:         OBVNeutral,
		BuySignal:        SignalWait,
		SignalValid:      true,
		ResistanceLevels: []float64{},
		SupportLevels:    []float64{},
		SignalReasons:    []string{},
		RiskFactors:      []string{},
		TimeframeNotes:   []string{},
	}
}

// IsActionable reports whether the result was built from enough data
func (r *AnalysisResult) IsActionable() bool {
	for _, risk := range r.RiskFactors {
		if risk == InsufficientDataNote {
			return false
		}
	}
	return true
}

// Evidence directions
const (
	DirectionTriggered  = "触发"
	DirectionNotOptimal = "未触发最优"
	DirectionInvalid    = "失效"
	DirectionNeutral    = "中性"
)

// Evidence categories
const (
	EvidenceTrend   = "trend"
	EvidenceBias    = "bias"
	EvidenceVolume  = "volume"
	EvidenceSupport = "support"
	EvidenceMACD    = "macd"
	EvidenceRSI     = "rsi"
)

// Evidence is one rule row of the audit table
type Evidence struct {
	RuleName              string  `json:"rule_name"`
	RuleType              string  `json:"rule_type"`
	Triggered             bool    `json:"triggered"`
	Condition             string  `json:"condition"`
	ActualValue           string  `json:"actual_value"`
	Threshold             string  `json:"threshold"`
	Direction             string  `json:"direction"`
	Weight                float64 `json:"weight"`
	ScoreContribution     float64 `json:"score_contribution"`
	InvalidationCondition string  `json:"invalidation_condition"`
	RiskNote              string  `json:"risk_note"`
	OpportunityNote       string  `json:"opportunity_note"`
}

// EvidenceSummary aggregates evidence rows
type EvidenceSummary struct {
	TotalScore     int        `json:"total_score"`
	EvidenceCount  int        `json:"evidence_count"`
	TriggeredCount int        `json:"triggered_count"`
	InvalidCount   int        `json:"invalid_count"`
	RiskCount      int        `json:"risk_count"`
	Evidence       []Evidence `json:"evidence"`
	Error          string     `json:"error,omitempty"`
}

// Sector tag placeholders
const (
	UnknownIndustry = "未知"
	UnknownStyle    = "未分类"
)

// SectorTags is the industry/style enrichment attached to a result
type SectorTags struct {
	Industry        string   `json:"industry"`
	Industries      []string `json:"industries,omitempty"`
	Concepts        []string `json:"concepts"`
	Style           string   `json:"style"`
	Styles          []string `json:"styles,omitempty"`
	MarketCapBucket string   `json:"market_cap_bucket,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// UnknownSectorTags is used whenever tagging is unavailable
func UnknownSectorTags() *SectorTags {
	return &SectorTags{
		Industry: UnknownIndustry,
		Concepts: []string{},
		Style:    UnknownStyle,
	}
}

// StockTags is the full tag set of a stock
type StockTags struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Industries      []string  `json:"industries"`
	IndustryCodes   []string  `json:"industry_codes"`
	Concepts        []string  `json:"concepts"`
	ConceptCodes    []string  `json:"concept_codes"`
	Styles          []string  `json:"styles"`
	MarketCapBucket string    `json:"market_cap_bucket"`
	MarketCap       float64   `json:"market_cap"` // 억 단위
	IsST            bool      `json:"is_st"`
	IsNew           bool      `json:"is_new"`
	TaggedAt        time.Time `json:"tagged_at"`
}

// AllTags returns the union of industries, concepts, styles and the cap bucket
func (t *StockTags) AllTags() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(items ...string) {
		for _, it := range items {
			if it == "" || seen[it] {
				continue
			}
			seen[it] = true
			out = append(out, it)
		}
	}
	add(t.Industries...)
	add(t.Concepts...)
	add(t.Styles...)
	add(t.MarketCapBucket)
	return out
}

// SectorTags projects the stock tags onto the result enrichment shape
func (t *StockTags) SectorTags() *SectorTags {
	st := &SectorTags{
		Industry:        UnknownIndustry,
		Industries:      t.Industries,
		Concepts:        t.Concepts,
		Style:           UnknownStyle,
		Styles:          t.Styles,
		MarketCapBucket: t.MarketCapBucket,
	}
	if len(t.Industries) > 0 {
		st.Industry = t.Industries[0]
	}
	if len(t.Styles) > 0 {
		st.Style = t.Styles[0]
	}
	if st.Concepts == nil {
		st.Concepts = []string{}
	}
	return st
}
