package sector

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/trendscore/internal/external/naver"
)

// Config holds sector analysis thresholds
type Config struct {
	MarketIndex       string  // 상대강도 기준 지수 (KOSPI, KOSDAQ)
	StrongThreshold   float64 // |상대강도| 초과 시 领涨/领跌
	LimitUpPct        float64 // 상한가/하한가 판정 등락률
	MaxHotSectors     int
	LeadingCount      int
	AbnormalChangePct float64 // 관심 종목 이상 변동 기준
}

// DefaultConfig returns KRX defaults (가격제한폭 30%)
func DefaultConfig() Config {
	return Config{
		MarketIndex:       "KOSPI",
		StrongThreshold:   3.0,
		LimitUpPct:        29.5,
		MaxHotSectors:     10,
		LeadingCount:      5,
		AbnormalChangePct: 5,
	}
}

// BuildIndex aggregates constituent quotes into a sector index
func BuildIndex(code, name string, typ Type, members []naver.IndustryMember, marketChange, limitPct float64) Index {
	idx := Index{Code: code, Name: name, Type: typ, StockCount: len(members)}
	if len(members) == 0 {
		idx.StrengthScore = StrengthScore(0)
		return idx
	}

	var total float64
	for _, m := range members {
		total += m.ChangePct
		switch {
		case m.ChangePct > 0:
			idx.UpCount++
		case m.ChangePct < 0:
			idx.DownCount++
		}
		if m.ChangePct >= limitPct {
			idx.LimitUpCount++
		} else if m.ChangePct <= -limitPct {
			idx.LimitDownCount++
		}
	}

	idx.AvgChange = total / float64(len(members))
	idx.ChangePct = idx.AvgChange
	idx.RelativeStrength = idx.AvgChange - marketChange
	idx.StrengthScore = StrengthScore(idx.RelativeStrength)
	return idx
}

// StrengthScore maps relative strength onto 0-100
func StrengthScore(rs float64) float64 {
	switch {
	case rs > 5:
		return math.Min(100, 50+(rs-5)*5)
	case rs < -5:
		return math.Max(0, 50+(rs+5)*5)
	default:
		return 50 + rs*2
	}
}

// Evaluate derives statuses, score, grade, flow, risks and advice from an index
// ⭐ SSOT: 섹터 점수 규칙은 여기서만
func Evaluate(idx Index, cfg Config) *Result {
	r := &Result{
		Sector:         idx,
		LeadingStocks:  []StockStats{},
		LaggingStocks:  []StockStats{},
		FocusStocks:    []StockStats{},
		AbnormalStocks: []StockStats{},
	}

	r.MarketStatus = marketStatus(idx.RelativeStrength, cfg.StrongThreshold)
	r.TrendStatus = trendStatus(idx.StrengthScore, idx.ChangePct)
	r.SignalScore, r.Evidence = score(idx)
	r.SignalGrade = grade(r.SignalScore, r.MarketStatus)
	r.FlowDirection, r.FlowStrength = flow(idx.MainFlow)
	r.RiskFactors, r.Opportunities = riskOpportunity(idx)
	r.ActionAdvice, r.Confidence, r.TargetAllocation = advice(r.SignalGrade, r.FlowDirection)
	return r
}

func marketStatus(rs, threshold float64) MarketStatus {
	switch {
	case rs > threshold:
		return StatusLeaderUp
	case rs > 0:
		return StatusFollowUp
	case rs < -threshold:
		return StatusLeaderDown
	case rs < 0:
		return StatusFollowDown
	default:
		return StatusConsolidation
	}
}

func trendStatus(strength, change float64) TrendStatus {
	switch {
	case strength >= 80 && change > 2:
		return TrendStrongBull
	case strength >= 60 && change > 0:
		return TrendBull
	case strength >= 40:
		return TrendConsolidation
	case strength >= 20 && change < 0:
		return TrendWeakBear
	default:
		return TrendBear
	}
}

// score sums five components: 상대강도 30, 상한가 비율 20, 상승 비율 20, 강도 20, 회전율 10
func score(idx Index) (int, []Evidence) {
	var total int
	evidence := []Evidence{}

	rs := idx.RelativeStrength
	var rsScore int
	switch {
	case rs > 5:
		rsScore = 30
	case rs > 3:
		rsScore = 25
	case rs > 0:
		rsScore = 20
	case rs > -3:
		rsScore = 10
	}
	total += rsScore
	evidence = append(evidence, Evidence{
		SignalType:  "relative_strength",
		Description: "相对大盘强弱",
		Value:       rs,
		Threshold:   3.0,
		Direction:   direction(rs > 0, DirectionNegative),
		Score:       rsScore,
		Weight:      30,
	})

	if idx.StockCount > 0 {
		ratio := float64(idx.LimitUpCount) / float64(idx.StockCount)
		luScore := 5
		switch {
		case ratio >= 0.15:
			luScore = 20
		case ratio >= 0.1:
			luScore = 15
		case ratio >= 0.05:
			luScore = 10
		}
		total += luScore
		evidence = append(evidence, Evidence{
			SignalType:  "limit_up_ratio",
			Description: "涨停家数占比",
			Value:       ratio,
			Threshold:   0.1,
			Direction:   direction(ratio > 0.05, DirectionNeutral),
			Score:       luScore,
			Weight:      20,
		})
	}

	if idx.UpCount+idx.DownCount > 0 {
		ratio := idx.UpRatio()
		upScore := 5
		switch {
		case ratio >= 0.7:
			upScore = 20
		case ratio >= 0.6:
			upScore = 15
		case ratio >= 0.4:
			upScore = 10
		}
		total += upScore
		evidence = append(evidence, Evidence{
			SignalType:  "up_down_ratio",
			Description: "上涨家数占比",
			Value:       ratio,
			Threshold:   0.6,
			Direction:   direction(ratio > 0.5, DirectionNegative),
			Score:       upScore,
			Weight:      20,
		})
	}

	strength := idx.StrengthScore
	stScore := 5
	switch {
	case strength >= 80:
		stScore = 20
	case strength >= 60:
		stScore = 15
	case strength >= 40:
		stScore = 10
	}
	total += stScore
	evidence = append(evidence, Evidence{
		SignalType:  "strength_score",
		Description: "板块强度评分",
		Value:       strength,
		Threshold:   60,
		Direction:   direction(strength > 50, DirectionNegative),
		Score:       stScore,
		Weight:      20,
	})

	turnover := idx.TurnoverRate
	volScore := 3
	switch {
	case turnover >= 3:
		volScore = 10
	case turnover >= 2:
		volScore = 7
	case turnover >= 1:
		volScore = 5
	}
	total += volScore
	evidence = append(evidence, Evidence{
		SignalType:  "turnover_rate",
		Description: "板块换手率",
		Value:       turnover,
		Threshold:   2.0,
		Direction:   direction(turnover > 1, DirectionNeutral),
		Score:       volScore,
		Weight:      10,
	})

	return total, evidence
}

func direction(positive bool, otherwise string) string {
	if positive {
		return DirectionPositive
	}
	return otherwise
}

func grade(score int, status MarketStatus) Grade {
	switch {
	case score >= 80 && status == StatusLeaderUp:
		return GradeStrongBullish
	case score >= 60 && (status == StatusLeaderUp || status == StatusFollowUp):
		return GradeBullish
	case score >= 40:
		return GradeNeutral
	case score >= 20:
		return GradeBearish
	default:
		return GradeStrongBearish
	}
}

// flow classifies main net flow in 억 units
func flow(mainFlow float64) (string, string) {
	switch {
	case mainFlow > 5:
		return FlowIn, "大幅流入"
	case mainFlow > 1:
		return FlowIn, "温和流入"
	case mainFlow >= -1:
		return FlowFlat, "持平"
	case mainFlow >= -5:
		return FlowOut, "温和流出"
	default:
		return FlowOut, "大幅流出"
	}
}

func riskOpportunity(idx Index) ([]string, []string) {
	risks := []string{}
	opportunities := []string{}

	if idx.ChangePct > 5 {
		risks = append(risks, fmt.Sprintf("短期涨幅过大（%.1f%%），谨防回调", idx.ChangePct))
	}
	if float64(idx.LimitDownCount) > float64(idx.LimitUpCount)/2 {
		risks = append(risks, "跌停家数较多，注意风险")
	}
	if idx.RelativeStrength < -3 {
		risks = append(risks, "相对大盘走势较弱")
	}

	if idx.ChangePct < -3 && idx.RelativeStrength > -1 {
		opportunities = append(opportunities, "相对大盘抗跌，可能率先反弹")
	}
	if float64(idx.LimitUpCount) > float64(idx.StockCount)*0.1 {
		opportunities = append(opportunities, "涨停家数较多，市场热度高")
	}
	if idx.UpRatio() > 0.6 {
		opportunities = append(opportunities, "上涨家数占优，板块情绪偏多")
	}

	return risks, opportunities
}

// advice returns action, confidence and target allocation
func advice(g Grade, flowDirection string) (string, string, string) {
	switch g {
	case GradeStrongBullish:
		if flowDirection == FlowIn {
			return "增持", "高", "可加仓至目标仓位"
		}
		return "持有", "中", "维持当前仓位"
	case GradeBullish:
		return "持有", "中", "维持当前仓位"
	case GradeNeutral:
		return "观望", "中", "等待更明确信号"
	case GradeBearish:
		return "减仓", "中", "可适当减仓避险"
	default:
		return "减持", "高", "建议减仓或清仓"
	}
}

// leadingStocks returns the top n members by change
func leadingStocks(members []naver.IndustryMember, n int, limitPct float64) []StockStats {
	sorted := append([]naver.IndustryMember(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ChangePct > sorted[j].ChangePct })

	out := []StockStats{}
	for i := 0; i < len(sorted) && i < n; i++ {
		st := toStats(sorted[i], limitPct)
		st.IsLeading = true
		out = append(out, st)
	}
	return out
}

// laggingStocks returns the bottom n members by change
func laggingStocks(members []naver.IndustryMember, n int, limitPct float64) []StockStats {
	sorted := append([]naver.IndustryMember(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ChangePct < sorted[j].ChangePct })

	out := []StockStats{}
	for i := 0; i < len(sorted) && i < n; i++ {
		st := toStats(sorted[i], limitPct)
		st.IsLagging = true
		out = append(out, st)
	}
	return out
}

// focusStocks keeps the members listed in codes, in the order of codes
func focusStocks(members []naver.IndustryMember, codes []string, cfg Config) []StockStats {
	byCode := make(map[string]naver.IndustryMember, len(members))
	for _, m := range members {
		byCode[m.Code] = m
	}

	out := []StockStats{}
	for _, code := range codes {
		m, ok := byCode[code]
		if !ok {
			continue
		}
		st := toStats(m, cfg.LimitUpPct)
		st.IsAbnormal = math.Abs(m.ChangePct) > cfg.AbnormalChangePct
		out = append(out, st)
	}
	return out
}

func toStats(m naver.IndustryMember, limitPct float64) StockStats {
	return StockStats{
		Code:        m.Code,
		Name:        m.Name,
		ChangePct:   m.ChangePct,
		IsLimitUp:   m.ChangePct >= limitPct,
		IsLimitDown: m.ChangePct <= -limitPct,
	}
}
