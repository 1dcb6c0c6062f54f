package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
)

func makeSeries(closes []float64) contracts.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = contracts.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return s
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)

	short := SMA([]float64{1, 2}, 3)
	assert.True(t, math.IsNaN(short[1]))
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	out := EMA([]float64{10, 20, 20}, 3) // alpha = 0.5

	assert.Equal(t, 10.0, out[0])
	assert.InDelta(t, 15.0, out[1], 1e-12)
	assert.InDelta(t, 17.5, out[2], 1e-12)
}

func TestMACD_FlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	dif, dea, bar := MACD(closes, 12, 26, 9)
	for i := range closes {
		assert.Equal(t, 0.0, dif[i])
		assert.Equal(t, 0.0, dea[i])
		assert.Equal(t, 0.0, bar[i])
	}
}

func TestMACD_BarIsTwiceSpread(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 14, 13, 15}
	dif, dea, bar := MACD(closes, 3, 5, 2)
	for i := range closes {
		assert.InDelta(t, 2*(dif[i]-dea[i]), bar[i], 1e-12)
	}
}

func TestRSI(t *testing.T) {
	t.Run("alternating window", func(t *testing.T) {
		// gains 0,1,0,1,0,1 / losses 0,0,1,0,1,0 → RS = 0.5 / (1/3) = 1.5
		out := RSI([]float64{10, 11, 10, 11, 10, 11}, 6)
		assert.InDelta(t, 60.0, out[5], 1e-9)
		assert.Equal(t, 50.0, out[4], "window not yet full")
	})

	t.Run("all gains resolve to neutral", func(t *testing.T) {
		closes := make([]float64, 30)
		for i := range closes {
			closes[i] = float64(100 + i)
		}
		for _, v := range RSI(closes, 6) {
			assert.Equal(t, 50.0, v)
		}
	})

	t.Run("all losses", func(t *testing.T) {
		closes := make([]float64, 10)
		for i := range closes {
			closes[i] = float64(100 - i)
		}
		out := RSI(closes, 6)
		assert.InDelta(t, 0.0, out[9], 1e-9)
	})

	t.Run("too short", func(t *testing.T) {
		for _, v := range RSI([]float64{1, 2, 3}, 6) {
			assert.Equal(t, 50.0, v)
		}
	})
}

func TestATR(t *testing.T) {
	highs := []float64{11, 12, 13}
	lows := []float64{9, 10, 11}
	closes := []float64{10, 11, 12}

	tr := TrueRange(highs, lows, closes)
	assert.Equal(t, []float64{2, 2, 2}, tr)

	atr := ATR(highs, lows, closes, 2)
	assert.Equal(t, 0.0, atr[0], "undefined leading bar resolves to 0")
	assert.InDelta(t, 2.0, atr[1], 1e-12)

	gap := TrueRange([]float64{10, 20}, []float64{9, 19}, []float64{9.5, 19.5})
	assert.InDelta(t, 10.5, gap[1], 1e-12, "gap up uses |high - prev close|")
}

func TestBollinger_LeadingBarsFallBackToClose(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	mid, upper, lower := Bollinger(closes, 3, 2)

	assert.Equal(t, 1.0, mid[0])
	assert.Equal(t, 1.0, upper[0])
	assert.Equal(t, 2.0, lower[1])

	// window {1,2,3}: mean 2, sample std 1
	assert.InDelta(t, 2.0, mid[2], 1e-12)
	assert.InDelta(t, 4.0, upper[2], 1e-12)
	assert.InDelta(t, 0.0, lower[2], 1e-12)
}

func TestKDJ(t *testing.T) {
	highs := []float64{10, 12, 14, 13}
	lows := []float64{8, 9, 11, 10}
	closes := []float64{9, 11, 13, 11}

	k, d, j := KDJ(highs, lows, closes, 9, 3)

	rsv0 := (9.0 - 8.0) / (10.0 - 8.0 + kdjEpsilon) * 100
	assert.InDelta(t, rsv0, k[0], 1e-9, "K seeded with first RSV")
	assert.InDelta(t, k[0], d[0], 1e-9)

	rsv1 := (11.0 - 8.0) / (12.0 - 8.0 + kdjEpsilon) * 100
	assert.InDelta(t, k[0]+(rsv1-k[0])/3, k[1], 1e-9)
	for i := range closes {
		assert.InDelta(t, 3*k[i]-2*d[i], j[i], 1e-9)
	}
}

func TestOBV(t *testing.T) {
	closes := []float64{10, 11, 11, 9, 12}
	volumes := []float64{100, 200, 300, 400, 500}

	out := OBV(closes, volumes)
	require.Len(t, out, 5)
	assert.Equal(t, []float64{0, 200, 200, -200, 300}, out)

	for i := 1; i < len(out); i++ {
		sign := 0.0
		if closes[i] > closes[i-1] {
			sign = 1
		} else if closes[i] < closes[i-1] {
			sign = -1
		}
		assert.Equal(t, out[i-1]+volumes[i]*sign, out[i])
	}
}

func TestRollingExtremes_PartialWindow(t *testing.T) {
	values := []float64{5, 3, 4, 1, 6}
	assert.Equal(t, []float64{5, 3, 3, 1, 1}, RollingMin(values, 3))
	assert.Equal(t, []float64{5, 5, 5, 4, 6}, RollingMax(values, 3))
}

func TestCompute(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := makeSeries(closes)

	// 역순으로 넣어도 정렬된 프레임이 나와야 함
	reversed := make(contracts.PriceSeries, len(series))
	for i := range series {
		reversed[len(series)-1-i] = series[i]
	}

	f := Compute(reversed, Params{MAPeriods: []int{5, 10, 20, 60, 120}})
	require.Equal(t, 30, f.Len())
	assert.Equal(t, 129.0, Last(f.Close))
	assert.Equal(t, "2024-01-01", f.Dates[0])

	// MA60 / MA120 fall back to MA20 on a 30-bar series
	assert.InDelta(t, f.LastMA(20), f.LastMA(60), 1e-12)
	assert.InDelta(t, f.LastMA(20), f.LastMA(120), 1e-12)
	assert.InDelta(t, 127.0, f.LastMA(5), 1e-12)

	assert.Contains(t, f.RSI, 6)
	assert.Contains(t, f.RSI, 24)
	assert.Equal(t, 50.0, f.LastRSI(99), "uncomputed period is neutral")

	assert.Equal(t, reversed[0].Close, 129.0, "caller's series is untouched")
}

func TestMergePeriods(t *testing.T) {
	assert.Equal(t, []int{5, 10, 20, 30, 60}, MergePeriods([]int{5, 10, 20, 60}, []int{30, 10, 0, -1}))
}

func TestAtAndOrZero(t *testing.T) {
	v := []float64{1, 2, 3}
	assert.Equal(t, 3.0, At(v, -1))
	assert.Equal(t, 1.0, At(v, 0))
	assert.True(t, math.IsNaN(At(v, 5)))
	assert.True(t, math.IsNaN(At(v, -4)))
	assert.Equal(t, 0.0, OrZero(math.NaN()))
	assert.Equal(t, 0.0, OrZero(math.Inf(1)))
}
