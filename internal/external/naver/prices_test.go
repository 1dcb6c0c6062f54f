package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/config"
	"github.com/wonny/trendscore/pkg/httputil"
	"github.com/wonny/trendscore/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(&config.Config{Env: "test"}, logger.Nop()).DisableRetry()
	opts = append([]Option{WithBaseURL(server.URL), WithChartURL(server.URL)}, opts...)
	return NewClient(httpClient, logger.Nop(), opts...)
}

func TestParsePriceRows(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
		want int
	}{
		{
			name: "valid data with header",
			rows: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", 72300.0, 73000.0, 72000.0, 72500.0, 1000000.0},
				{"20240116", 72500.0, 73500.0, 72300.0, 73000.0, 1200000.0},
			},
			want: 2,
		},
		{
			name: "string numbers",
			rows: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", "72300", "73000", "72000", "72500", "1,000,000"},
			},
			want: 1,
		},
		{
			name: "empty data",
			rows: [][]interface{}{},
			want: 0,
		},
		{
			name: "insufficient columns",
			rows: [][]interface{}{
				{"날짜", "시가"},
				{"20240115", 72300.0, 73000.0},
			},
			want: 0,
		},
		{
			name: "zero close skipped",
			rows: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", 0.0, 0.0, 0.0, 0.0, 0.0},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePriceRows(tt.rows)
			require.Len(t, got, tt.want)
			for _, bar := range got {
				assert.False(t, bar.Date.IsZero())
				assert.Greater(t, bar.Close, 0.0)
			}
		})
	}
}

func TestParsePriceResponse(t *testing.T) {
	body := `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20240115", 72300, 73000, 72000, 72500, 1000000, 52.1],
["20240116", 72500, 73500, 72300, 73000, 1200000, 52.2]
]`

	bars, err := parsePriceResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 72300.0, bars[0].Open)
	assert.Equal(t, 73000.0, bars[0].High)
	assert.Equal(t, 72000.0, bars[0].Low)
	assert.Equal(t, 72500.0, bars[0].Close)
	assert.Equal(t, 1000000.0, bars[0].Volume)
}

func TestParsePriceRegexFallback(t *testing.T) {
	// 후행 쉼표로 JSON 파싱 실패
	body := `[["날짜","시가","고가","저가","종가","거래량"],
["20240115", 72300, 73000, 72000, 72500, 1000000],
["202401150930", 0, 0, 0, 72600, 500],
]`

	bars, err := parsePriceResponse(body)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 72500.0, bars[0].Close)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), bars[1].Date)
	assert.Equal(t, 72600.0, bars[1].Open)
	assert.Equal(t, 72600.0, bars[1].Low)
}

func TestParseChartTime(t *testing.T) {
	d, err := parseChartTime("20240115")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = parseChartTime("202401151030")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), d)

	_, err = parseChartTime("2024")
	assert.Error(t, err)
}

func TestResample(t *testing.T) {
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	minutes := contracts.PriceSeries{
		{Date: base.Add(31 * time.Minute), Open: 103, High: 104, Low: 102, Close: 103, Volume: 5},
		{Date: base, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Date: base.Add(10 * time.Minute), Open: 100, High: 105, Low: 98, Close: 102, Volume: 20},
	}

	bars := Resample(minutes, 30*time.Minute)

	require.Len(t, bars, 2)
	assert.Equal(t, base, bars[0].Date)
	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 105.0, bars[0].High)
	assert.Equal(t, 98.0, bars[0].Low)
	assert.Equal(t, 102.0, bars[0].Close)
	assert.Equal(t, 30.0, bars[0].Volume)
	assert.Equal(t, base.Add(30*time.Minute), bars[1].Date)

	assert.Empty(t, Resample(nil, 30*time.Minute))
}

func TestFetchDaily(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siseJson.naver", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "005930", q.Get("symbol"))
		assert.Equal(t, "day", q.Get("timeframe"))
		assert.Equal(t, "20240101", q.Get("startTime"))
		assert.Equal(t, "20240131", q.Get("endTime"))
		fmt.Fprint(w, `[['날짜','시가','고가','저가','종가','거래량'],["20240115",1,2,1,2,10]]`)
	})

	bars, err := client.FetchDaily(context.Background(), "005930",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.0, bars[0].Close)
}

func TestFetchDaily_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchDaily(context.Background(), "005930", time.Now(), time.Now())
	assert.ErrorContains(t, err, "unexpected status code: 404")
}

func TestFetchIntraday(t *testing.T) {
	now := time.Date(2024, 1, 16, 15, 30, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "minute", r.URL.Query().Get("timeframe"))
		assert.Equal(t, "20240116", r.URL.Query().Get("endTime"))
		fmt.Fprint(w, `[['날짜','시가','고가','저가','종가','거래량'],
["202401160900",100,101,99,100,10],
["202401160915",100,102,99,101,10],
["202401160930",101,103,100,102,10],
["202401161000",102,104,101,103,10]]`)
	}, WithClock(func() time.Time { return now }))

	bars, err := client.FetchIntraday(context.Background(), "005930", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 103.0, bars[1].Close)

	empty, err := client.FetchIntraday(context.Background(), "005930", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClientImplementsPriceSource(t *testing.T) {
	var _ contracts.PriceSource = (*Client)(nil)
}
