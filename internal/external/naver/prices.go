package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/trendscore/internal/contracts"
)

// IntradayBarMinutes is the bar size returned by FetchIntraday
const IntradayBarMinutes = 30

// 정규장 6.5시간 = 30분봉 13개
const barsPerSession = 13

var priceRowRe = regexp.MustCompile(`\["(\d{8,14})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// FetchDaily fetches daily bars for a stock from the Naver chart API
// ⭐ SSOT: Naver 일봉 호출은 이 함수에서만
func (c *Client) FetchDaily(ctx context.Context, code string, from, to time.Time) (contracts.PriceSeries, error) {
	bars, err := c.fetchChart(ctx, code, "day", from, to)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(bars),
	}).Debug("Fetched daily bars")
	return bars, nil
}

// FetchIntraday returns the latest count 30-minute bars built from minute data
func (c *Client) FetchIntraday(ctx context.Context, code string, count int) (contracts.PriceSeries, error) {
	if count <= 0 {
		return contracts.PriceSeries{}, nil
	}

	// 주말/휴일을 감안해 세션 수의 2배 + 3일을 조회
	sessions := (count + barsPerSession - 1) / barsPerSession
	to := c.now()
	from := to.AddDate(0, 0, -(sessions*2 + 3))

	minutes, err := c.fetchChart(ctx, code, "minute", from, to)
	if err != nil {
		return nil, err
	}

	bars := Resample(minutes, IntradayBarMinutes*time.Minute)
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"minutes":    len(minutes),
		"count":      len(bars),
	}).Debug("Fetched intraday bars")
	return bars, nil
}

func (c *Client) fetchChart(ctx context.Context, code, timeframe string, from, to time.Time) (contracts.PriceSeries, error) {
	params := url.Values{}
	params.Set("symbol", code)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", timeframe)

	body, _, err := c.get(ctx, c.chartURL+"/siseJson.naver?"+params.Encode())
	if err != nil {
		return nil, err
	}

	bars, err := parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s chart for %s: %w", timeframe, code, err)
	}
	return bars, nil
}

// parsePriceResponse parses the siseJson body (a JS array literal with single quotes)
func parsePriceResponse(body string) (contracts.PriceSeries, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rows [][]interface{}
	if err := json.Unmarshal([]byte(body), &rows); err == nil {
		return parsePriceRows(rows), nil
	}

	// JSON 파싱 실패 시 정규식으로 대체
	return parsePriceRegex(body), nil
}

// parsePriceRows converts decoded rows; the first row is the header
func parsePriceRows(rows [][]interface{}) contracts.PriceSeries {
	bars := contracts.PriceSeries{}
	for i, row := range rows {
		if i == 0 || len(row) < 6 {
			continue
		}

		stamp, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := parseChartTime(strings.TrimSpace(stamp))
		if err != nil {
			continue
		}

		bar := contracts.Bar{
			Date:   date,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[5]),
		}
		if bar.Close <= 0 {
			continue
		}
		// 분봉은 시가/고가/저가가 0으로 오는 경우가 있어 종가로 보정
		fillMissingPrices(&bar)
		bars = append(bars, bar)
	}
	return bars
}

func parsePriceRegex(body string) contracts.PriceSeries {
	bars := contracts.PriceSeries{}
	for _, m := range priceRowRe.FindAllStringSubmatch(body, -1) {
		date, err := parseChartTime(m[1])
		if err != nil {
			continue
		}
		bar := contracts.Bar{Date: date}
		bar.Open, _ = strconv.ParseFloat(m[2], 64)
		bar.High, _ = strconv.ParseFloat(m[3], 64)
		bar.Low, _ = strconv.ParseFloat(m[4], 64)
		bar.Close, _ = strconv.ParseFloat(m[5], 64)
		bar.Volume, _ = strconv.ParseFloat(m[6], 64)
		if bar.Close <= 0 {
			continue
		}
		fillMissingPrices(&bar)
		bars = append(bars, bar)
	}
	return bars
}

func fillMissingPrices(b *contracts.Bar) {
	if b.Open <= 0 {
		b.Open = b.Close
	}
	if b.High <= 0 {
		b.High = b.Close
	}
	if b.Low <= 0 {
		b.Low = b.Close
	}
}

// parseChartTime accepts YYYYMMDD, YYYYMMDDHHmm and YYYYMMDDHHmmss
func parseChartTime(s string) (time.Time, error) {
	switch len(s) {
	case 8:
		return time.Parse("20060102", s)
	case 12:
		return time.Parse("200601021504", s)
	case 14:
		return time.Parse("20060102150405", s)
	}
	return time.Time{}, fmt.Errorf("unknown chart time %q", s)
}

// Resample aggregates bars into buckets of the given size.
// A bucket is labelled by its start; volumes are summed.
func Resample(bars contracts.PriceSeries, size time.Duration) contracts.PriceSeries {
	if len(bars) == 0 || size <= 0 {
		return contracts.PriceSeries{}
	}

	sorted := bars.Sorted()
	out := contracts.PriceSeries{}
	var current *contracts.Bar
	for _, b := range sorted {
		bucket := b.Date.Truncate(size)
		if current == nil || !current.Date.Equal(bucket) {
			out = append(out, contracts.Bar{
				Date:   bucket,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
			current = &out[len(out)-1]
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}

	return out
}

// toFloat converts decoded JSON numbers or numeric strings
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 64)
		return f
	default:
		return 0
	}
}
