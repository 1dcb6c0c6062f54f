package analyzer

import (
	"math"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/indicator"
	"github.com/wonny/trendscore/internal/rules"
)

// volumeWindow is the number of prior bars averaged for the volume ratio
const volumeWindow = 5

// analyzeVolume compares the latest volume with the prior 5-bar mean
// 선호 순서: 缩量回调 > 放量上涨 > 缩量上涨 > 放量下跌
func analyzeVolume(f *indicator.Frame, r *rules.Rules, result *contracts.AnalysisResult) {
	n := f.Len()
	if n < volumeWindow+1 {
		return
	}

	var sum float64
	for _, v := range f.Volume[n-1-volumeWindow : n-1] {
		sum += v
	}
	if avg := sum / volumeWindow; avg > 0 {
		result.VolumeRatio5D = f.Volume[n-1] / avg
	}

	prevClose := f.Close[n-2]
	var change float64
	if prevClose != 0 {
		change = (f.Close[n-1] - prevClose) / prevClose * 100
	}

	ratio := result.VolumeRatio5D
	switch {
	case ratio >= r.Volume.HeavyThreshold && change > 0:
		setVolume(result, contracts.VolumeHeavyUp, "放量上涨，多头力量强劲")
	case ratio >= r.Volume.HeavyThreshold:
		setVolume(result, contracts.VolumeHeavyDown, "放量下跌，注意风险")
	case ratio <= r.Volume.ShrinkThreshold && change > 0:
		setVolume(result, contracts.VolumeShrinkUp, "缩量上涨，上攻动能不足")
	case ratio <= r.Volume.ShrinkThreshold:
		setVolume(result, contracts.VolumeShrinkDown, "缩量回调，洗盘特征明显（好）")
	default:
		setVolume(result, contracts.VolumeNormal, "量能正常")
	}
}

func setVolume(result *contracts.AnalysisResult, status contracts.VolumeStatus, trend string) {
	result.VolumeStatus = status
	result.VolumeTrend = trend
}

// resistanceWindow is the lookback for the recent-high resistance level
const resistanceWindow = 20

// analyzeSupport marks MA5/MA10 support and collects support/resistance levels
func analyzeSupport(f *indicator.Frame, r *rules.Rules, result *contracts.AnalysisResult) {
	price := result.CurrentPrice
	tolerance := r.Support.Tolerance / 100

	if result.MA5 > 0 && supported(price, result.MA5, tolerance) {
		result.SupportMA5 = true
		result.SupportLevels = append(result.SupportLevels, result.MA5)
	}

	if result.MA10 > 0 && supported(price, result.MA10, tolerance) {
		result.SupportMA10 = true
		if !containsLevel(result.SupportLevels, result.MA10) {
			result.SupportLevels = append(result.SupportLevels, result.MA10)
		}
	}

	// MA20은 허용 오차 없이 현재가 이하이면 지지선
	if result.MA20 > 0 && price >= result.MA20 {
		result.SupportLevels = append(result.SupportLevels, result.MA20)
	}

	if n := f.Len(); n >= resistanceWindow {
		high := math.Inf(-1)
		for _, h := range f.High[n-resistanceWindow:] {
			high = math.Max(high, h)
		}
		if high > price {
			result.ResistanceLevels = append(result.ResistanceLevels, high)
		}
	}
}

func supported(price, ma, tolerance float64) bool {
	return math.Abs(price-ma)/ma <= tolerance && price >= ma
}

func containsLevel(levels []float64, v float64) bool {
	for _, l := range levels {
		if l == v {
			return true
		}
	}
	return false
}
