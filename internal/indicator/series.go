package indicator

import "math"

// 시계열 기본 연산
// 모든 함수는 입력과 같은 길이의 슬라이스를 반환하고, 값이 정의되지 않는 구간은 NaN

// SMA returns the simple moving average; the first period-1 values are NaN
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average seeded with the first value.
// alpha = 2/(period+1)
func EMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nanSlice(len(values))
	}
	return EWMAlpha(values, 2.0/(float64(period)+1.0))
}

// EWMAlpha is the recursive average ema[i] = ema[i-1] + alpha*(v[i]-ema[i-1]), ema[0] = v[0]
func EWMAlpha(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// RollingStd returns the sample standard deviation (n-1) over the window
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 2 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		var ss float64
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

// RollingMin returns the window minimum; partial windows at the start are allowed
func RollingMin(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a < b })
}

// RollingMax returns the window maximum; partial windows at the start are allowed
func RollingMax(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a > b })
}

func rollingExtreme(values []float64, period int, better func(a, b float64) bool) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		period = 1
	}
	for i := range values {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		best := values[start]
		for _, v := range values[start+1 : i+1] {
			if better(v, best) {
				best = v
			}
		}
		out[i] = best
	}
	return out
}

// Last returns the final value of a column, or NaN when empty
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// At returns values[i] supporting negative indexes from the end.
// Out-of-range access yields NaN.
func At(values []float64, i int) float64 {
	if i < 0 {
		i += len(values)
	}
	if i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

// OrZero replaces NaN/Inf with 0
func OrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
