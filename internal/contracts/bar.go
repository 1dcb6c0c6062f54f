package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Bar is one OHLCV row of a price series
// ⭐ SSOT: 가격 데이터 단위는 이 구조체로만 주고받음
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`

	// Optional columns (fund flow etc.), keyed by the source column name
	Extra map[string]float64 `json:"-"`
}

// Optional column aliases, resolved in order
var (
	MainFundFlowAliases = []string{
		"main_fund_net_inflow",
		"main_net_inflow",
		"主力净流入",
		"主力净额",
	}
	MainFundRatioAliases = []string{
		"main_fund_inflow_ratio",
		"main_inflow_ratio",
		"主力净占比",
		"主力净流入占比",
	}
	NorthboundFlowAliases = []string{
		"northbound_net_inflow",
		"northbound_net",
		"北向净流入",
		"北向资金净买额",
	}
)

var barDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"20060102",
}

// UnmarshalJSON reads the fixed OHLCV keys and keeps any other numeric key as an extra column
func (b *Bar) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		switch normalizeColumn(key) {
		case "date":
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("bar date: %w", err)
			}
			t, err := parseBarDate(s)
			if err != nil {
				return err
			}
			b.Date = t
		case "open":
			if err := json.Unmarshal(value, &b.Open); err != nil {
				return fmt.Errorf("bar open: %w", err)
			}
		case "high":
			if err := json.Unmarshal(value, &b.High); err != nil {
				return fmt.Errorf("bar high: %w", err)
			}
		case "low":
			if err := json.Unmarshal(value, &b.Low); err != nil {
				return fmt.Errorf("bar low: %w", err)
			}
		case "close":
			if err := json.Unmarshal(value, &b.Close); err != nil {
				return fmt.Errorf("bar close: %w", err)
			}
		case "volume":
			if err := json.Unmarshal(value, &b.Volume); err != nil {
				return fmt.Errorf("bar volume: %w", err)
			}
		default:
			var f float64
			if err := json.Unmarshal(value, &f); err != nil {
				// 숫자가 아닌 컬럼은 무시
				continue
			}
			if b.Extra == nil {
				b.Extra = make(map[string]float64)
			}
			b.Extra[key] = f
		}
	}
	return nil
}

// MarshalJSON flattens extra columns next to the OHLCV keys
func (b Bar) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 6+len(b.Extra))
	for k, v := range b.Extra {
		out[k] = v
	}
	out["date"] = formatBarDate(b.Date)
	out["open"] = b.Open
	out["high"] = b.High
	out["low"] = b.Low
	out["close"] = b.Close
	out["volume"] = b.Volume
	return json.Marshal(out)
}

// formatBarDate keeps the clock only for intraday bars
func formatBarDate(t time.Time) string {
	if h, m, sec := t.Clock(); h == 0 && m == 0 && sec == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

func parseBarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range barDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized bar date %q", s)
}

// PriceSeries is a time-ordered sequence of bars
type PriceSeries []Bar

// Sorted returns a copy ordered by date; the receiver is left untouched
func (s PriceSeries) Sorted() PriceSeries {
	out := make(PriceSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Validate checks that dates are strictly increasing
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("bar %d (%s) is not after bar %d (%s)",
				i, s[i].Date.Format("2006-01-02"), i-1, s[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the close column
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// ResolveColumn returns the first alias carried by any bar.
// Matching ignores case, surrounding spaces and '-' vs '_'.
func (s PriceSeries) ResolveColumn(aliases []string) (string, bool) {
	present := make(map[string]string)
	for _, b := range s {
		for k := range b.Extra {
			n := normalizeColumn(k)
			if _, ok := present[n]; !ok {
				present[n] = k
			}
		}
	}
	for _, alias := range aliases {
		if key, ok := present[normalizeColumn(alias)]; ok {
			return key, true
		}
	}
	return "", false
}

// LatestValue returns the column value on the last bar.
// A missing or non-finite value reports false.
func (s PriceSeries) LatestValue(column string) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	v, ok := s[len(s)-1].Extra[column]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func normalizeColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	n = strings.ReplaceAll(n, " ", "_")
	return n
}
