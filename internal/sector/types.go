package sector

import "time"

// Type is the kind of sector
type Type string

// Sector types
const (
	TypeIndustry Type = "industry"
	TypeConcept  Type = "concept"
	TypeStyle    Type = "style"
	TypeTheme    Type = "theme"
)

// MarketStatus compares a sector against the market index
type MarketStatus string

// Market statuses
const (
	StatusLeaderUp      MarketStatus = "领涨"
	StatusFollowUp      MarketStatus = "跟涨"
	StatusConsolidation MarketStatus = "震荡"
	StatusFollowDown    MarketStatus = "跟跌"
	StatusLeaderDown    MarketStatus = "领跌"
)

// TrendStatus is the sector trend label
type TrendStatus string

// Trend statuses
const (
	TrendStrongBull    TrendStatus = "强势多头"
	TrendBull          TrendStatus = "多头排列"
	TrendConsolidation TrendStatus = "盘整"
	TrendWeakBear      TrendStatus = "弱势空头"
	TrendBear          TrendStatus = "空头排列"
)

// Grade is the sector signal grade
type Grade string

// Signal grades
const (
	GradeStrongBullish Grade = "强看多"
	GradeBullish       Grade = "看多"
	GradeNeutral       Grade = "中性"
	GradeBearish       Grade = "看空"
	GradeStrongBearish Grade = "强看空"
)

// Evidence directions
const (
	DirectionPositive = "正向"
	DirectionNegative = "负向"
	DirectionNeutral  = "中性"
)

// Flow directions
const (
	FlowIn   = "流入"
	FlowFlat = "持平"
	FlowOut  = "流出"
)

// Index is the aggregated state of one sector
type Index struct {
	Code             string  `json:"sector_code"`
	Name             string  `json:"sector_name"`
	Type             Type    `json:"sector_type"`
	ChangePct        float64 `json:"change_pct"`
	TurnoverRate     float64 `json:"turnover_rate"`
	UpCount          int     `json:"up_count"`
	DownCount        int     `json:"down_count"`
	LimitUpCount     int     `json:"limit_up_count"`
	LimitDownCount   int     `json:"limit_down_count"`
	AvgChange        float64 `json:"avg_change"`
	MainFlow         float64 `json:"main_flow"`  // 억 단위
	NorthFlow        float64 `json:"north_flow"` // 억 단위
	StrengthScore    float64 `json:"strength_score"`
	RelativeStrength float64 `json:"relative_strength"`
	StockCount       int     `json:"stock_count"`
	MarketCap        float64 `json:"market_cap"`
}

// UpRatio is up / (up + down); 0 when nothing moved
func (i Index) UpRatio() float64 {
	if i.UpCount+i.DownCount == 0 {
		return 0
	}
	return float64(i.UpCount) / float64(i.UpCount+i.DownCount)
}

// StockStats is one constituent's state inside a sector
type StockStats struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	ChangePct   float64 `json:"change_pct"`
	IsLimitUp   bool    `json:"is_limit_up"`
	IsLimitDown bool    `json:"is_limit_down"`
	IsLeading   bool    `json:"is_leading"`
	IsLagging   bool    `json:"is_lagging"`
	IsAbnormal  bool    `json:"is_abnormal"`
}

// Evidence is one scored component of the sector score
type Evidence struct {
	SignalType  string  `json:"signal_type"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Direction   string  `json:"direction"`
	Score       int     `json:"score_contribution"`
	Weight      int     `json:"weight"`
}

// Result is the full analysis of one sector
type Result struct {
	Sector           Index        `json:"sector"`
	MarketStatus     MarketStatus `json:"market_status"`
	TrendStatus      TrendStatus  `json:"trend_status"`
	SignalScore      int          `json:"signal_score"`
	SignalGrade      Grade        `json:"signal_grade"`
	LeadingStocks    []StockStats `json:"leading_stocks"`
	LaggingStocks    []StockStats `json:"lagging_stocks"`
	FocusStocks      []StockStats `json:"focus_stocks"`
	AbnormalStocks   []StockStats `json:"abnormal_stocks"`
	FlowDirection    string       `json:"flow_direction"`
	FlowStrength     string       `json:"flow_strength"`
	Evidence         []Evidence   `json:"signal_evidence"`
	RiskFactors      []string     `json:"risk_factors"`
	Opportunities    []string     `json:"opportunities"`
	ActionAdvice     string       `json:"action_advice"`
	Confidence       string       `json:"confidence"`
	TargetAllocation string       `json:"target_allocation"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// PortfolioStock is one watchlist stock in the portfolio/sector view
type PortfolioStock struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	ChangePct float64  `json:"change_pct"`
	Signal    string   `json:"signal"`
	Sectors   []string `json:"sectors"`
}
