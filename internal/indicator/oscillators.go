package indicator

import "math"

// kdjEpsilon keeps RSV finite on a flat high/low range
const kdjEpsilon = 1e-9

// neutral is the value used wherever a ratio indicator is undefined
const neutral = 50.0

// MACD returns DIF, DEA and BAR (histogram = 2 * (DIF - DEA))
func MACD(closes []float64, fast, slow, signal int) (dif, dea, bar []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = emaFast[i] - emaSlow[i]
	}
	dea = EMA(dif, signal)

	bar = make([]float64, len(closes))
	for i := range closes {
		bar[i] = (dif[i] - dea[i]) * 2
	}
	return dif, dea, bar
}

// RSI returns the simple-rolling RSI.
// The first delta counts as zero, so the window is full at index period-1.
// Undefined windows and zero average loss resolve to 50.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = neutral
	}
	if period <= 0 || len(closes) < period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := period - 1; i < len(closes); i++ {
		// 평균 손실 0 (전부 상승 구간 포함) → 중립값
		if avgLoss[i] == 0 || math.IsNaN(avgLoss[i]) || math.IsNaN(avgGain[i]) {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|); bar 0 uses high-low
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		tr := highs[i] - lows[i]
		if i > 0 {
			prev := closes[i-1]
			tr = math.Max(tr, math.Abs(highs[i]-prev))
			tr = math.Max(tr, math.Abs(lows[i]-prev))
		}
		out[i] = tr
	}
	return out
}

// ATR is the simple rolling mean of the true range; leading bars are 0
func ATR(highs, lows, closes []float64, period int) []float64 {
	atr := SMA(TrueRange(highs, lows, closes), period)
	for i, v := range atr {
		atr[i] = OrZero(v)
	}
	return atr
}

// Bollinger returns mid, upper and lower bands (k sample standard deviations).
// Undefined leading bars fall back to the close.
func Bollinger(closes []float64, period int, k float64) (mid, upper, lower []float64) {
	mid = SMA(closes, period)
	std := RollingStd(closes, period)

	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i, c := range closes {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			mid[i], upper[i], lower[i] = c, c, c
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return mid, upper, lower
}

// KDJ returns the stochastic K, D and J lines.
// K and D are smoothed with alpha=1/smooth, seeded from their first input.
func KDJ(highs, lows, closes []float64, period, smooth int) (k, d, j []float64) {
	lowN := RollingMin(lows, period)
	highN := RollingMax(highs, period)

	rsv := make([]float64, len(closes))
	for i, c := range closes {
		v := (c - lowN[i]) / (highN[i] - lowN[i] + kdjEpsilon) * 100
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = neutral
		}
		rsv[i] = v
	}

	if smooth <= 0 {
		smooth = 3
	}
	alpha := 1.0 / float64(smooth)
	k = EWMAlpha(rsv, alpha)
	d = EWMAlpha(k, alpha)

	j = make([]float64, len(closes))
	for i := range closes {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// OBV is the cumulative signed volume; OBV[0] = 0
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		out[i] = out[i-1]
		switch {
		case closes[i] > closes[i-1]:
			out[i] += volumes[i]
		case closes[i] < closes[i-1]:
			out[i] -= volumes[i]
		}
	}
	return out
}
