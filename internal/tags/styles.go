package tags

import "strings"

// Style is an investment style label
type Style string

// Investment styles
const (
	StyleGrowth    Style = "成长"
	StyleValue     Style = "价值"
	StyleCyclical  Style = "周期"
	StyleDividend  Style = "红利"
	StyleTech      Style = "科技"
	StyleConsumer  Style = "消费"
	StyleFinancial Style = "金融"
	StyleEnergy    Style = "能源"
)

// Market cap buckets
const (
	CapLarge = "大盘"
	CapMid   = "中盘"
	CapSmall = "小盘"
)

type styleRule struct {
	keyword string
	styles  []Style
}

// styleRules maps industry keywords to styles; a rule matches when the keyword
// is a substring of an industry name. Order is kept for stable output.
// ⭐ SSOT: 업종 → 투자 스타일 매핑은 여기서만
var styleRules = []styleRule{
	// 성장/기술
	{"科技", []Style{StyleTech, StyleGrowth}},
	{"半导体", []Style{StyleTech, StyleGrowth}},
	{"软件开发", []Style{StyleTech, StyleGrowth}},
	{"互联网", []Style{StyleTech, StyleGrowth}},
	{"通信设备", []Style{StyleTech}},
	{"반도체", []Style{StyleTech, StyleGrowth}},
	{"소프트웨어", []Style{StyleTech, StyleGrowth}},
	{"IT서비스", []Style{StyleTech, StyleGrowth}},
	{"양방향미디어", []Style{StyleTech, StyleGrowth}},
	{"디스플레이", []Style{StyleTech}},
	{"통신장비", []Style{StyleTech}},

	// 소비
	{"食品饮料", []Style{StyleConsumer, StyleDividend}},
	{"家用电器", []Style{StyleConsumer, StyleValue}},
	{"纺织服装", []Style{StyleConsumer}},
	{"休闲服务", []Style{StyleConsumer}},
	{"商贸零售", []Style{StyleConsumer}},
	{"식품", []Style{StyleConsumer, StyleDividend}},
	{"음료", []Style{StyleConsumer, StyleDividend}},
	{"가정용기기", []Style{StyleConsumer, StyleValue}},
	{"섬유", []Style{StyleConsumer}},
	{"화장품", []Style{StyleConsumer}},
	{"호텔", []Style{StyleConsumer}},
	{"백화점", []Style{StyleConsumer}},

	// 금융
	{"银行", []Style{StyleFinancial, StyleDividend, StyleValue}},
	{"证券", []Style{StyleFinancial}},
	{"保险", []Style{StyleFinancial}},
	{"多元金融", []Style{StyleFinancial}},
	{"은행", []Style{StyleFinancial, StyleDividend, StyleValue}},
	{"증권", []Style{StyleFinancial}},
	{"보험", []Style{StyleFinancial}},
	{"기타금융", []Style{StyleFinancial}},
	{"카드", []Style{StyleFinancial}},

	// 경기민감
	{"煤炭", []Style{StyleCyclical, StyleDividend}},
	{"有色金属", []Style{StyleCyclical}},
	{"钢铁", []Style{StyleCyclical}},
	{"化工", []Style{StyleCyclical}},
	{"石油石化", []Style{StyleCyclical, StyleDividend}},
	{"交通运输", []Style{StyleCyclical}},
	{"房地产", []Style{StyleCyclical}},
	{"建筑材料", []Style{StyleCyclical}},
	{"비철금속", []Style{StyleCyclical}},
	{"철강", []Style{StyleCyclical}},
	{"화학", []Style{StyleCyclical}},
	{"석유와가스", []Style{StyleCyclical, StyleDividend, StyleEnergy}},
	{"해운", []Style{StyleCyclical}},
	{"항공", []Style{StyleCyclical}},
	{"운송", []Style{StyleCyclical}},
	{"부동산", []Style{StyleCyclical}},
	{"건설", []Style{StyleCyclical}},
	{"건축자재", []Style{StyleCyclical}},

	// 헬스케어
	{"医疗器械", []Style{StyleGrowth}},
	{"化学制药", []Style{StyleGrowth}},
	{"中药", []Style{StyleValue, StyleDividend}},
	{"生物制品", []Style{StyleGrowth}},
	{"건강관리장비", []Style{StyleGrowth}},
	{"제약", []Style{StyleGrowth}},
	{"생물공학", []Style{StyleGrowth}},
	{"생명과학", []Style{StyleGrowth}},

	// 신에너지
	{"光伏设备", []Style{StyleGrowth}},
	{"电池", []Style{StyleGrowth}},
	{"风电设备", []Style{StyleGrowth}},
	{"储能", []Style{StyleGrowth}},
	{"전기장비", []Style{StyleGrowth, StyleEnergy}},
	{"에너지장비", []Style{StyleGrowth, StyleEnergy}},

	// 유틸리티
	{"电力", []Style{StyleDividend, StyleValue}},
	{"燃气", []Style{StyleDividend}},
	{"水务", []Style{StyleDividend}},
	{"环保", []Style{StyleValue}},
	{"전기유틸리티", []Style{StyleDividend, StyleValue}},
	{"가스유틸리티", []Style{StyleDividend}},
	{"환경", []Style{StyleValue}},
}

// highDividendIndustries need an exact industry name match
var highDividendIndustries = map[string]bool{
	"煤炭": true, "石油石化": true, "银行": true, "电力": true,
	"通信": true, "交通设施": true, "家电": true, "食品饮料": true,
	"医药商业": true, "化学制药": true, "水务": true, "燃气": true,

	"은행": true, "전기유틸리티": true, "가스유틸리티": true, "석유와가스": true,
	"담배": true, "무선통신서비스": true, "다각화된통신서비스": true,
}

// 대형주인데 매칭 규칙이 없을 때 가치주로 보는 키워드
var valueFallbackKeywords = []string{"银行", "保险", "电力", "通信", "은행", "보험", "전기유틸리티", "통신"}

// Thresholds are market cap cut-offs in 100M units (억)
type Thresholds struct {
	Large float64 // 초과 시 대형주
	Mid   float64 // 초과 시 중형주
	Value float64 // 규칙 미매칭 시 가치주 판단 기준
}

// DefaultThresholds returns the standard cut-offs
func DefaultThresholds() Thresholds {
	return Thresholds{Large: 1000, Mid: 200, Value: 500}
}

// Bucket classifies a market cap
func (t Thresholds) Bucket(marketCap float64) string {
	switch {
	case marketCap > t.Large:
		return CapLarge
	case marketCap > t.Mid:
		return CapMid
	default:
		return CapSmall
	}
}

// InferStyles derives investment styles from industry names and market cap
func InferStyles(industries []string, marketCap float64, th Thresholds) []Style {
	var styles []Style
	for _, industry := range industries {
		for _, rule := range styleRules {
			if strings.Contains(industry, rule.keyword) {
				styles = append(styles, rule.styles...)
			}
		}
	}

	if len(styles) == 0 {
		joined := strings.Join(industries, ",")
		if marketCap > th.Value && containsAny(joined, valueFallbackKeywords) {
			styles = append(styles, StyleValue)
		} else {
			styles = append(styles, StyleGrowth)
		}
	}

	for _, industry := range industries {
		if highDividendIndustries[industry] {
			styles = append(styles, StyleDividend)
			break
		}
	}

	return uniqueStyles(styles)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func uniqueStyles(styles []Style) []Style {
	seen := make(map[Style]bool, len(styles))
	out := make([]Style, 0, len(styles))
	for _, s := range styles {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
