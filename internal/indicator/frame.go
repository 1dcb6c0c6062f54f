package indicator

import (
	"sort"

	"github.com/wonny/trendscore/internal/contracts"
)

// Standard periods used by the classifiers regardless of configuration
var basePeriods = []int{5, 10, 20, 60}

// Params holds indicator periods
type Params struct {
	MAPeriods  []int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	RSIPeriods []int
	ATRPeriod  int
	BollPeriod int
	BollK      float64
	KDJPeriod  int
	KDJSmooth  int
}

// DefaultParams returns the standard periods (MA 5/10/20/60, MACD 12/26/9, RSI 6/12/24)
func DefaultParams() Params {
	return Params{
		MAPeriods:  []int{5, 10, 20, 60},
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		RSIPeriods: []int{6, 12, 24},
		ATRPeriod:  14,
		BollPeriod: 20,
		BollK:      2,
		KDJPeriod:  9,
		KDJSmooth:  3,
	}
}

// Frame is a price series augmented with indicator columns
// ⭐ SSOT: 분석 1회마다 새로 생성, 저장하지 않음
type Frame struct {
	Dates  []string
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	MA map[int][]float64

	DIF []float64
	DEA []float64
	BAR []float64

	RSI map[int][]float64

	ATR []float64

	BollMid   []float64
	BollUpper []float64
	BollLower []float64

	K []float64
	D []float64
	J []float64

	OBV []float64

	Params Params
}

// Compute builds a Frame from the series.
// The caller's series is copied and sorted, never mutated.
func Compute(series contracts.PriceSeries, p Params) *Frame {
	p = p.normalized()
	sorted := series.Sorted()

	f := &Frame{
		Open:   make([]float64, len(sorted)),
		Dates:  make([]string, len(sorted)),
		Close:  sorted.Closes(),
		High:   sorted.Highs(),
		Low:    sorted.Lows(),
		Volume: sorted.Volumes(),
		MA:     make(map[int][]float64),
		RSI:    make(map[int][]float64),
		Params: p,
	}
	for i, b := range sorted {
		f.Open[i] = b.Open
		f.Dates[i] = b.Date.Format("2006-01-02")
	}

	// 이동평균: 기간이 데이터보다 길면 MA20 값으로 대체
	periods := MergePeriods(basePeriods, p.MAPeriods)
	ma20 := SMA(f.Close, 20)
	for _, period := range periods {
		if period > len(f.Close) {
			f.MA[period] = append([]float64(nil), ma20...)
			continue
		}
		f.MA[period] = SMA(f.Close, period)
	}

	f.DIF, f.DEA, f.BAR = MACD(f.Close, p.MACDFast, p.MACDSlow, p.MACDSignal)

	for _, period := range p.RSIPeriods {
		f.RSI[period] = RSI(f.Close, period)
	}

	f.ATR = ATR(f.High, f.Low, f.Close, p.ATRPeriod)
	f.BollMid, f.BollUpper, f.BollLower = Bollinger(f.Close, p.BollPeriod, p.BollK)
	f.K, f.D, f.J = KDJ(f.High, f.Low, f.Close, p.KDJPeriod, p.KDJSmooth)
	f.OBV = OBV(f.Close, f.Volume)

	return f
}

// Len returns the number of bars
func (f *Frame) Len() int { return len(f.Close) }

// MAColumn returns the moving average column for a period, or nil
func (f *Frame) MAColumn(period int) []float64 { return f.MA[period] }

// LastMA returns the latest moving average value, NaN when not computed
func (f *Frame) LastMA(period int) float64 { return Last(f.MA[period]) }

// LastRSI returns the latest RSI value, 50 when the period was not computed
func (f *Frame) LastRSI(period int) float64 {
	col, ok := f.RSI[period]
	if !ok || len(col) == 0 {
		return neutral
	}
	return Last(col)
}

// MergePeriods returns the sorted union of positive periods
func MergePeriods(sets ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, set := range sets {
		for _, p := range set {
			if p <= 0 || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if len(p.MAPeriods) == 0 {
		p.MAPeriods = d.MAPeriods
	}
	if p.MACDFast <= 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = d.MACDSignal
	}
	if len(p.RSIPeriods) == 0 {
		p.RSIPeriods = d.RSIPeriods
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = d.ATRPeriod
	}
	if p.BollPeriod <= 0 {
		p.BollPeriod = d.BollPeriod
	}
	if p.BollK <= 0 {
		p.BollK = d.BollK
	}
	if p.KDJPeriod <= 0 {
		p.KDJPeriod = d.KDJPeriod
	}
	if p.KDJSmooth <= 0 {
		p.KDJSmooth = d.KDJSmooth
	}
	return p
}
