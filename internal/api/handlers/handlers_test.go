package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/internal/external/naver"
	"github.com/wonny/trendscore/internal/rules"
	"github.com/wonny/trendscore/internal/sector"
)

var testNow = time.Date(2024, 1, 16, 15, 40, 0, 0, time.UTC)

type fakeRunner struct {
	cached     map[string]*contracts.AnalysisResult
	latest     map[string]*contracts.AnalysisResult
	analyzeErr error
	listErr    error
	analyzed   []string
	listedDate time.Time
}

func (f *fakeRunner) AnalyzeOne(_ context.Context, code, style string) (*contracts.AnalysisResult, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	f.analyzed = append(f.analyzed, code+"/"+style)
	r := contracts.NewAnalysisResult(code)
	r.SignalScore = 72
	r.BuySignal = contracts.SignalBuy
	return r, nil
}

func (f *fakeRunner) Cached(_ context.Context, code, _ string) (*contracts.AnalysisResult, bool) {
	r, ok := f.cached[code]
	return r, ok
}

func (f *fakeRunner) Latest(_ context.Context, code string) (*contracts.AnalysisResult, error) {
	r, ok := f.latest[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return r, nil
}

func (f *fakeRunner) ListByDate(_ context.Context, date time.Time) ([]*contracts.AnalysisResult, error) {
	f.listedDate = date
	if f.listErr != nil {
		return nil, f.listErr
	}
	return nil, nil
}

type fakeSeriesAnalyzer struct {
	style string
	bars  int
}

func (f *fakeSeriesAnalyzer) AnalyzeStyle(_ context.Context, style, code string, daily, _ contracts.PriceSeries) *contracts.AnalysisResult {
	f.style = style
	f.bars = len(daily)
	return contracts.NewAnalysisResult(code)
}

func serve(t *testing.T, method, route, target string, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc(route, h).Methods(method)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestAnalyze_UsesCacheUnlessRefresh(t *testing.T) {
	cached := contracts.NewAnalysisResult("005930")
	cached.SignalScore = 55
	runner := &fakeRunner{cached: map[string]*contracts.AnalysisResult{"005930": cached}}
	h := NewAnalysisHandler(runner, &fakeSeriesAnalyzer{}, nil)

	rec := serve(t, "GET", "/api/analysis/{code}", "/api/analysis/005930", "", h.Analyze)
	require.Equal(t, http.StatusOK, rec.Code)
	var got contracts.AnalysisResult
	decode(t, rec, &got)
	assert.Equal(t, 55, got.SignalScore)
	assert.Empty(t, runner.analyzed)

	rec = serve(t, "GET", "/api/analysis/{code}", "/api/analysis/005930?refresh=true&style=aggressive", "", h.Analyze)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Equal(t, 72, got.SignalScore)
	assert.Equal(t, []string{"005930/aggressive"}, runner.analyzed)
}

func TestAnalyze_InvalidCode(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeSeriesAnalyzer{}, nil)

	rec := serve(t, "GET", "/api/analysis/{code}", "/api/analysis/5930", "", h.Analyze)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid stock code")
}

func TestAnalyze_FetchFailure(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{analyzeErr: errors.New("timeout")}, &fakeSeriesAnalyzer{}, nil)

	rec := serve(t, "GET", "/api/analysis/{code}", "/api/analysis/005930", "", h.Analyze)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAnalyze_TextFormat(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeSeriesAnalyzer{}, nil)

	rec := serve(t, "GET", "/api/analysis/{code}", "/api/analysis/005930?format=text", "", h.Analyze)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "005930")
}

func TestAnalyzeSeries(t *testing.T) {
	a := &fakeSeriesAnalyzer{}
	h := NewAnalysisHandler(&fakeRunner{}, a, nil)

	body := `{"code":"005930","style":"conservative","daily":[
		{"date":"2024-01-03","open":1,"high":2,"low":1,"close":2,"volume":10},
		{"date":"2024-01-02","open":1,"high":2,"low":1,"close":1,"volume":10}
	]}`
	rec := serve(t, "POST", "/api/analysis", "/api/analysis", body, h.AnalyzeSeries)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conservative", a.style)
	assert.Equal(t, 2, a.bars)
}

func TestAnalyzeSeries_BadInput(t *testing.T) {
	h := NewAnalysisHandler(&fakeRunner{}, &fakeSeriesAnalyzer{}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"code":`, "invalid request body"},
		{"bad code", `{"code":"abc","daily":[{"date":"2024-01-02","close":1}]}`, "invalid stock code"},
		{"no bars", `{"code":"005930"}`, "daily bars are required"},
		{"duplicate dates", `{"code":"005930","daily":[{"date":"2024-01-02","close":1},{"date":"2024-01-02","close":2}]}`, "daily bars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, "POST", "/api/analysis", "/api/analysis", tt.body, h.AnalyzeSeries)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestGetLatest(t *testing.T) {
	stored := contracts.NewAnalysisResult("000660")
	h := NewAnalysisHandler(&fakeRunner{latest: map[string]*contracts.AnalysisResult{"000660": stored}}, &fakeSeriesAnalyzer{}, nil)

	rec := serve(t, "GET", "/api/analysis/{code}/latest", "/api/analysis/000660/latest", "", h.GetLatest)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, "GET", "/api/analysis/{code}/latest", "/api/analysis/005930/latest", "", h.GetLatest)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListByDate(t *testing.T) {
	runner := &fakeRunner{}
	h := NewAnalysisHandler(runner, &fakeSeriesAnalyzer{}, nil)
	h.now = func() time.Time { return testNow }

	rec := serve(t, "GET", "/api/analysis", "/api/analysis", "", h.ListByDate)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Date    string                      `json:"date"`
		Count   int                         `json:"count"`
		Results []*contracts.AnalysisResult `json:"results"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "2024-01-16", body.Date)
	assert.NotNil(t, body.Results)
	assert.Equal(t, 0, body.Count)

	rec = serve(t, "GET", "/api/analysis", "/api/analysis?date=2024-01-10", "", h.ListByDate)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, runner.listedDate.Day())

	rec = serve(t, "GET", "/api/analysis", "/api/analysis?date=20240110", "", h.ListByDate)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	runner.listErr = errors.New("db down")
	rec = serve(t, "GET", "/api/analysis", "/api/analysis", "", h.ListByDate)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRulesHandler(t *testing.T) {
	provider := rules.NewProvider()
	h := NewRulesHandler(provider, nil)

	rec := serve(t, "GET", "/api/rules", "/api/rules?style=Aggressive", "", h.GetRules)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RulesResponse
	decode(t, rec, &resp)
	assert.Equal(t, "aggressive", resp.Style)
	assert.Len(t, resp.Hash, 64)
	require.NotNil(t, resp.Rules)
	assert.NotNil(t, resp.Warnings)

	want, err := rules.Hash(provider.Get("aggressive"))
	require.NoError(t, err)
	assert.Equal(t, want, resp.Hash)

	rec = serve(t, "POST", "/api/rules/reset", "/api/rules/reset", "", h.Reset)
	require.Equal(t, http.StatusOK, rec.Code)
	var reset struct {
		Status  string   `json:"status"`
		Cleared []string `json:"cleared"`
	}
	decode(t, rec, &reset)
	assert.Equal(t, "reset", reset.Status)
	assert.Equal(t, []string{"aggressive"}, reset.Cleared)
	assert.Empty(t, provider.CachedStyles())

	// 프리셋이 없는 스타일은 기본 스타일로 해석
	rec = serve(t, "GET", "/api/rules", "/api/rules?style=turbo", "", h.GetRules)
	decode(t, rec, &resp)
	assert.Equal(t, rules.StyleBalanced, resp.Style)
	assert.Equal(t, []string{rules.StyleBalanced}, provider.CachedStyles())
}

type fakeSectorSource struct {
	boardErr error
}

func (f *fakeSectorSource) FetchIndustryBoard(context.Context) ([]naver.IndustryQuote, error) {
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	return []naver.IndustryQuote{
		{Code: "278", Name: "반도체", ChangePct: 3.1},
		{Code: "261", Name: "은행", ChangePct: -0.4},
	}, nil
}

func (f *fakeSectorSource) FetchIndustryMembers(_ context.Context, code string) ([]naver.IndustryMember, error) {
	if code == "278" {
		return []naver.IndustryMember{
			{Code: "005930", Name: "삼성전자", ChangePct: 2.5},
			{Code: "000660", Name: "SK하이닉스", ChangePct: 6.2},
		}, nil
	}
	return []naver.IndustryMember{{Code: "105560", Name: "KB금융", ChangePct: -0.4}}, nil
}

func (f *fakeSectorSource) FetchIndexChange(context.Context, string) (float64, error) {
	return 0.5, nil
}

func newSectorHandler(src *fakeSectorSource) *SectorHandler {
	a := sector.NewAnalyzer(src, sector.DefaultConfig(), nil, sector.WithClock(func() time.Time { return testNow }))
	return NewSectorHandler(a, nil)
}

func TestGetHotSectors(t *testing.T) {
	h := newSectorHandler(&fakeSectorSource{})

	rec := serve(t, "GET", "/api/sectors", "/api/sectors?limit=5", "", h.GetHotSectors)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int              `json:"count"`
		Sectors []*sector.Result `json:"sectors"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "반도체", body.Sectors[0].Sector.Name)

	rec = serve(t, "GET", "/api/sectors", "/api/sectors?format=markdown", "", h.GetHotSectors)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "热门板块")

	rec = serve(t, "GET", "/api/sectors", "/api/sectors?limit=0", "", h.GetHotSectors)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHotSectors_SourceDown(t *testing.T) {
	h := newSectorHandler(&fakeSectorSource{boardErr: errors.New("503")})

	rec := serve(t, "GET", "/api/sectors", "/api/sectors", "", h.GetHotSectors)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetSector_Focus(t *testing.T) {
	h := newSectorHandler(&fakeSectorSource{})

	rec := serve(t, "GET", "/api/sectors/{code}", "/api/sectors/278?name=%EB%B0%98%EB%8F%84%EC%B2%B4&focus=000660,+005930", "", h.GetSector)
	require.Equal(t, http.StatusOK, rec.Code)
	var got sector.Result
	decode(t, rec, &got)
	assert.Equal(t, "반도체", got.Sector.Name)
	require.Len(t, got.FocusStocks, 2)
	assert.Equal(t, "000660", got.FocusStocks[0].Code)
	assert.True(t, got.FocusStocks[0].IsAbnormal)
	assert.Len(t, got.AbnormalStocks, 1)
}

type fakeBars struct {
	series contracts.PriceSeries
	err    error
	from   time.Time
}

func (f *fakeBars) SaveSeries(context.Context, string, string, contracts.PriceSeries) (int, error) {
	return 0, nil
}

func (f *fakeBars) GetSeries(_ context.Context, _, _ string, from, _ time.Time) (contracts.PriceSeries, error) {
	f.from = from
	return f.series, f.err
}

func (f *fakeBars) LatestDate(context.Context, string, string) (time.Time, error) {
	return time.Time{}, contracts.ErrNotFound
}

type fakeTags struct{ err error }

func (f fakeTags) Tags(_ context.Context, code string) (*contracts.StockTags, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.StockTags{Code: code, Industries: []string{"반도체"}}, nil
}

func TestGetDailyPrices(t *testing.T) {
	bars := &fakeBars{series: contracts.PriceSeries{{Date: testNow, Close: 70000}}}
	h := NewStockHandler(bars, fakeTags{}, nil)
	h.now = func() time.Time { return testNow }

	rec := serve(t, "GET", "/api/stocks/{code}/daily", "/api/stocks/005930/daily?days=30", "", h.GetDailyPrices)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testNow.AddDate(0, 0, -30), bars.from)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	noDB := NewStockHandler(nil, fakeTags{}, nil)
	rec = serve(t, "GET", "/api/stocks/{code}/daily", "/api/stocks/005930/daily", "", noDB.GetDailyPrices)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetTags(t *testing.T) {
	h := NewStockHandler(nil, fakeTags{}, nil)
	rec := serve(t, "GET", "/api/stocks/{code}/tags", "/api/stocks/005930/tags", "", h.GetTags)
	require.Equal(t, http.StatusOK, rec.Code)
	var tags contracts.StockTags
	decode(t, rec, &tags)
	assert.Equal(t, []string{"반도체"}, tags.Industries)

	failing := NewStockHandler(nil, fakeTags{err: errors.New("not listed")}, nil)
	rec = serve(t, "GET", "/api/stocks/{code}/tags", "/api/stocks/005930/tags", "", failing.GetTags)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
