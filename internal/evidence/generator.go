package evidence

import (
	"fmt"

	"github.com/wonny/trendscore/internal/contracts"
)

// Input is the state snapshot the evidence table is derived from
type Input struct {
	TrendStatus  contracts.TrendStatus
	MA5          float64
	MA10         float64
	MA20         float64
	CurrentPrice float64
	BiasMA5      float64

	VolumeStatus  contracts.VolumeStatus
	VolumeRatio5D float64

	SupportMA5  bool
	SupportMA10 bool

	MACDStatus contracts.MACDStatus
	MACDDIF    float64
	MACDDEA    float64

	RSIStatus contracts.RSIStatus
	RSIMid    float64
}

// FromResult copies the classifier states out of an analysis result
func FromResult(r *contracts.AnalysisResult) Input {
	return Input{
		TrendStatus:   r.TrendStatus,
		MA5:           r.MA5,
		MA10:          r.MA10,
		MA20:          r.MA20,
		CurrentPrice:  r.CurrentPrice,
		BiasMA5:       r.BiasMA5,
		VolumeStatus:  r.VolumeStatus,
		VolumeRatio5D: r.VolumeRatio5D,
		SupportMA5:    r.SupportMA5,
		SupportMA10:   r.SupportMA10,
		MACDStatus:    r.MACDStatus,
		MACDDIF:       r.MACDDIF,
		MACDDEA:       r.MACDDEA,
		RSIStatus:     r.RSIStatus,
		RSIMid:        r.RSI12,
	}
}

// Generator builds evidence summaries from a point table
type Generator struct {
	table Table
}

// NewGenerator creates a generator with the given table
func NewGenerator(t Table) *Generator {
	return &Generator{table: t}
}

// Generate builds the evidence rows and aggregate counts
// ⭐ SSOT: 행 순서 = 추세 → 이격도 → 거래량 → 지지 → MACD → RSI
func (g *Generator) Generate(in Input) *contracts.EvidenceSummary {
	var rows []contracts.Evidence
	rows = append(rows, g.trend(in)...)
	rows = append(rows, g.bias(in))
	rows = append(rows, g.volume(in))
	rows = append(rows, g.support(in)...)
	rows = append(rows, g.macd(in))
	rows = append(rows, g.rsi(in))

	return summarize(rows)
}

// Generate builds evidence with the default table
func Generate(in Input) *contracts.EvidenceSummary {
	return NewGenerator(DefaultTable()).Generate(in)
}

func summarize(rows []contracts.Evidence) *contracts.EvidenceSummary {
	s := &contracts.EvidenceSummary{
		EvidenceCount: len(rows),
		Evidence:      rows,
	}
	var total float64
	for _, e := range rows {
		total += e.ScoreContribution
		if e.Triggered && e.Direction == contracts.DirectionTriggered {
			s.TriggeredCount++
		}
		if e.Direction == contracts.DirectionInvalid {
			s.InvalidCount++
		}
		if e.RiskNote != "" {
			s.RiskCount++
		}
	}
	s.TotalScore = int(total)
	if s.Evidence == nil {
		s.Evidence = []contracts.Evidence{}
	}
	return s
}

func (g *Generator) trend(in Input) []contracts.Evidence {
	t := g.table.Trend
	row := contracts.Evidence{
		RuleName:    "ma_alignment",
		RuleType:    contracts.EvidenceTrend,
		Condition:   "MA5 > MA10 > MA20",
		ActualValue: fmt.Sprintf("MA5=%.2f, MA10=%.2f, MA20=%.2f", in.MA5, in.MA10, in.MA20),
		Threshold:   "多头排列",
		Weight:      t.Weight,
	}

	switch in.TrendStatus {
	case contracts.TrendStrongBull:
		row.Triggered = true
		row.Condition = "MA5 > MA10 > MA20 且均线发散"
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = t.StrongBull
		row.OpportunityNote = "趋势强劲，可顺势做多"
	case contracts.TrendBull:
		row.Triggered = true
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = t.Bull
	case contracts.TrendWeakBull, contracts.TrendConsolidation:
		row.Direction = contracts.DirectionNotOptimal
		row.ScoreContribution = t.Consolidation
		if in.TrendStatus == contracts.TrendWeakBull {
			row.ScoreContribution = t.WeakBull
		}
		row.OpportunityNote = "等待均线金叉或回踩支撑"
	case contracts.TrendBear, contracts.TrendStrongBear:
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = t.Bear
		if in.TrendStatus == contracts.TrendStrongBear {
			row.ScoreContribution = t.StrongBear
		}
		row.RiskNote = "趋势向下，暂不建议买入"
	default:
		// WEAK_BEAR는 증거 행을 만들지 않음
		return nil
	}
	return []contracts.Evidence{row}
}

func (g *Generator) bias(in Input) contracts.Evidence {
	b := g.table.Bias
	bias := in.BiasMA5
	row := contracts.Evidence{
		RuleName:    "bias_ma5",
		RuleType:    contracts.EvidenceBias,
		ActualValue: fmt.Sprintf("%.2f%%", bias),
		Weight:      b.Weight,
	}

	switch {
	case bias < 0 && bias > -3:
		row.Triggered = true
		row.Condition = "乖离率 < 0%（价格在MA5下方）"
		row.Threshold = "-3% ~ 0%"
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = b.OptimalBelow
		row.OpportunityNote = "回踩买点，可考虑介入"
	case bias < 0 && bias > -5:
		row.Triggered = true
		row.Condition = "-5% < 乖离率 < 0%"
		row.Threshold = "-5% ~ 0%"
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = b.AcceptableBelow
	case bias < 0:
		row.Condition = "乖离率 < -5%"
		row.Threshold = "-5%"
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = b.OverThreshold
		row.RiskNote = "乖离率过大，可能破位"
	case bias < 2:
		row.Triggered = true
		row.Condition = "0% < 乖离率 < 2%"
		row.Threshold = "< 2%"
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = b.Near
	case bias < b.Ceiling:
		row.Triggered = true
		row.Condition = fmt.Sprintf("2%% < 乖离率 < %g%%", b.Ceiling)
		row.Threshold = fmt.Sprintf("< %g%%", b.Ceiling)
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = b.AcceptableAbove
	default:
		row.Condition = fmt.Sprintf("乖离率 > %g%%", b.Ceiling)
		row.Threshold = fmt.Sprintf("%g%%", b.Ceiling)
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = b.Overextended
		row.RiskNote = "乖离率过高，严禁追高！"
	}
	return row
}

func (g *Generator) volume(in Input) contracts.Evidence {
	v := g.table.Volume
	points := map[contracts.VolumeStatus]float64{
		contracts.VolumeShrinkDown: v.ShrinkDown,
		contracts.VolumeHeavyUp:    v.HeavyUp,
		contracts.VolumeNormal:     v.Normal,
		contracts.VolumeShrinkUp:   v.ShrinkUp,
		contracts.VolumeHeavyDown:  v.HeavyDown,
	}
	score, ok := points[in.VolumeStatus]
	if !ok {
		score = v.Normal
	}

	favorable := in.VolumeStatus == contracts.VolumeShrinkDown || in.VolumeStatus == contracts.VolumeHeavyUp
	row := contracts.Evidence{
		RuleName:          "volume_status",
		RuleType:          contracts.EvidenceVolume,
		Triggered:         favorable,
		Condition:         in.VolumeStatus.Label(),
		ActualValue:       fmt.Sprintf("量比=%.2f", in.VolumeRatio5D),
		Threshold:         "缩量回调/放量上涨",
		Direction:         contracts.DirectionNeutral,
		Weight:            v.Weight,
		ScoreContribution: score,
	}
	if favorable {
		row.Direction = contracts.DirectionTriggered
	}

	switch in.VolumeStatus {
	case contracts.VolumeHeavyUp:
		row.OpportunityNote = "量价配合良好"
	case contracts.VolumeShrinkUp:
		row.RiskNote = "无量上涨，持续性存疑"
	}
	return row
}

func (g *Generator) support(in Input) []contracts.Evidence {
	s := g.table.Support
	var rows []contracts.Evidence
	if in.SupportMA5 {
		rows = append(rows, contracts.Evidence{
			RuleName:          "support_ma5",
			RuleType:          contracts.EvidenceSupport,
			Triggered:         true,
			Condition:         "价格在 MA5 附近获得支撑",
			ActualValue:       fmt.Sprintf("MA5=%.2f, 现价=%.2f", in.MA5, in.CurrentPrice),
			Threshold:         "价格 >= MA5",
			Direction:         contracts.DirectionTriggered,
			Weight:            s.Weight,
			ScoreContribution: s.MA5,
		})
	}
	if in.SupportMA10 {
		rows = append(rows, contracts.Evidence{
			RuleName:          "support_ma10",
			RuleType:          contracts.EvidenceSupport,
			Triggered:         true,
			Condition:         "价格在 MA10 附近获得支撑",
			ActualValue:       fmt.Sprintf("MA10=%.2f, 现价=%.2f", in.MA10, in.CurrentPrice),
			Threshold:         "价格 >= MA10",
			Direction:         contracts.DirectionTriggered,
			Weight:            s.Weight,
			ScoreContribution: s.MA10,
		})
	}
	return rows
}

func (g *Generator) macd(in Input) contracts.Evidence {
	m := g.table.MACD
	row := contracts.Evidence{
		RuleName:    "macd_status",
		RuleType:    contracts.EvidenceMACD,
		Condition:   in.MACDStatus.Label(),
		ActualValue: fmt.Sprintf("DIF=%.4f, DEA=%.4f", in.MACDDIF, in.MACDDEA),
		Threshold:   "零轴上金叉/金叉",
		Direction:   contracts.DirectionNeutral,
		Weight:      m.Weight,
	}

	switch in.MACDStatus {
	case contracts.MACDGoldenCrossZero:
		row.Triggered = true
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = m.GoldenCrossZero
		row.OpportunityNote = "零轴上金叉，动能最强"
	case contracts.MACDGoldenCross:
		row.Triggered = true
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = m.GoldenCross
	case contracts.MACDCrossingUp:
		row.Direction = contracts.DirectionNotOptimal
		row.ScoreContribution = m.CrossingUp
		row.OpportunityNote = "DIF上穿零轴，等待金叉确认"
	case contracts.MACDBullish:
		row.ScoreContribution = m.Bullish
	case contracts.MACDBearish:
		row.ScoreContribution = m.Bearish
		row.RiskNote = "MACD空头排列"
	case contracts.MACDCrossingDown:
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = m.CrossingDown
		row.RiskNote = "DIF下穿零轴，趋势转弱"
	case contracts.MACDDeathCross:
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = m.DeathCross
		row.RiskNote = "MACD死叉，趋势向下"
	default:
		row.ScoreContribution = m.Bullish
	}
	return row
}

func (g *Generator) rsi(in Input) contracts.Evidence {
	r := g.table.RSI
	row := contracts.Evidence{
		RuleName:    "rsi_status",
		RuleType:    contracts.EvidenceRSI,
		Condition:   in.RSIStatus.Label(),
		ActualValue: fmt.Sprintf("RSI=%.1f", in.RSIMid),
		Threshold:   "超卖/强势",
		Direction:   contracts.DirectionNeutral,
		Weight:      r.Weight,
	}

	switch in.RSIStatus {
	case contracts.RSIOversold:
		row.Triggered = true
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = r.Oversold
		row.OpportunityNote = "超卖区域，关注反弹"
	case contracts.RSIStrongBuy:
		row.Triggered = true
		row.Direction = contracts.DirectionTriggered
		row.ScoreContribution = r.StrongBuy
	case contracts.RSIWeak:
		row.ScoreContribution = r.Weak
	case contracts.RSIOverbought:
		row.Direction = contracts.DirectionInvalid
		row.ScoreContribution = r.Overbought
		row.RiskNote = "RSI超买，短期回调风险高"
	default:
		row.ScoreContribution = r.Neutral
	}
	return row
}
