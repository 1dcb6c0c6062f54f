package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/trendscore/internal/analyzer"
	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/logger"
)

const maxAnalyzeBody = 4 << 20

// AnalysisRunner runs and looks up stock analyses
type AnalysisRunner interface {
	AnalyzeOne(ctx context.Context, code, style string) (*contracts.AnalysisResult, error)
	Cached(ctx context.Context, code, style string) (*contracts.AnalysisResult, bool)
	Latest(ctx context.Context, code string) (*contracts.AnalysisResult, error)
	ListByDate(ctx context.Context, date time.Time) ([]*contracts.AnalysisResult, error)
}

// SeriesAnalyzer scores caller-supplied bar series
type SeriesAnalyzer interface {
	AnalyzeStyle(ctx context.Context, style, code string, daily, intraday contracts.PriceSeries) *contracts.AnalysisResult
}

// AnalysisHandler handles analysis API endpoints
// ⭐ SSOT: 종목 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	runner   AnalysisRunner
	analyzer SeriesAnalyzer
	logger   *logger.Logger
	now      func() time.Time
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(runner AnalysisRunner, a SeriesAnalyzer, log *logger.Logger) *AnalysisHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisHandler{
		runner:   runner,
		analyzer: a,
		logger:   log,
		now:      time.Now,
	}
}

// AnalyzeRequest is the body of POST /api/analysis
type AnalyzeRequest struct {
	Code     string                `json:"code"`
	Style    string                `json:"style"`
	Daily    contracts.PriceSeries `json:"daily"`
	Intraday contracts.PriceSeries `json:"intraday"`
}

// Analyze fetches bars and analyzes one stock
// GET /api/analysis/{code}?style=balanced&refresh=true&format=text
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.ToUpper(mux.Vars(r)["code"])
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}

	q := r.URL.Query()
	style := q.Get("style")
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	var result *contracts.AnalysisResult
	if !refresh {
		if cached, ok := h.runner.Cached(ctx, code, style); ok {
			result = cached
		}
	}
	if result == nil {
		fresh, err := h.runner.AnalyzeOne(ctx, code, style)
		if err != nil {
			h.logger.WithError(err).WithField("code", code).Error("Analysis failed")
			respondError(w, http.StatusBadGateway, "failed to fetch price data")
			return
		}
		result = fresh
	}

	h.write(w, r, result)
}

// AnalyzeSeries analyzes bars supplied in the request body
// POST /api/analysis
func (h *AnalysisHandler) AnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if !validCode(req.Code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}
	if len(req.Daily) == 0 {
		respondError(w, http.StatusBadRequest, "daily bars are required")
		return
	}

	daily := req.Daily.Sorted()
	if err := daily.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "daily bars: "+err.Error())
		return
	}

	result := h.analyzer.AnalyzeStyle(r.Context(), req.Style, req.Code, daily, req.Intraday.Sorted())
	h.write(w, r, result)
}

// GetLatest returns the last stored analysis of a stock
// GET /api/analysis/{code}/latest
func (h *AnalysisHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}

	result, err := h.runner.Latest(r.Context(), code)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no analysis stored for "+code)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to load latest analysis")
		respondError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	h.write(w, r, result)
}

// ListByDate returns stored analyses of a trade date, best score first
// GET /api/analysis?date=2024-01-15
func (h *AnalysisHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date := h.now()
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	results, err := h.runner.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list analyses")
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if results == nil {
		results = []*contracts.AnalysisResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"count":   len(results),
		"results": results,
	})
}

func (h *AnalysisHandler) write(w http.ResponseWriter, r *http.Request, result *contracts.AnalysisResult) {
	if r.URL.Query().Get("format") == "text" {
		respondMarkdown(w, http.StatusOK, analyzer.Format(result))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
