package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/trendscore/internal/contracts"
	"github.com/wonny/trendscore/pkg/logger"
)

// TagSource resolves stock tags
type TagSource interface {
	Tags(ctx context.Context, code string) (*contracts.StockTags, error)
}

// StockHandler handles stock data API endpoints
// ⭐ SSOT: 종목 데이터 API 핸들러는 이 구조체에서만
type StockHandler struct {
	bars   contracts.BarRepository
	tags   TagSource
	logger *logger.Logger
	now    func() time.Time
}

// NewStockHandler creates a new stock handler; bars may be nil when no database is configured
func NewStockHandler(bars contracts.BarRepository, tags TagSource, log *logger.Logger) *StockHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StockHandler{
		bars:   bars,
		tags:   tags,
		logger: log,
		now:    time.Now,
	}
}

// GetDailyPrices returns stored daily bars of a stock
// GET /api/stocks/{code}/daily?days=365
func (h *StockHandler) GetDailyPrices(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}
	if h.bars == nil {
		respondError(w, http.StatusServiceUnavailable, "price storage is not configured")
		return
	}

	// Parse days parameter (default: 365)
	days := 365
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	to := h.now()
	from := to.AddDate(0, 0, -days)
	series, err := h.bars.GetSeries(r.Context(), code, contracts.TimeframeDaily, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to load daily bars")
		respondError(w, http.StatusInternalServerError, "failed to load daily prices")
		return
	}
	if series == nil {
		series = contracts.PriceSeries{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":  code,
		"count": len(series),
		"bars":  series,
	})
}

// GetTags returns the industry/concept/style tags of a stock
// GET /api/stocks/{code}/tags
func (h *StockHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])
	if !validCode(code) {
		respondError(w, http.StatusBadRequest, "invalid stock code")
		return
	}
	if h.tags == nil {
		respondError(w, http.StatusServiceUnavailable, "tagging is not configured")
		return
	}

	tags, err := h.tags.Tags(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Warn("Tagging failed")
		respondError(w, http.StatusBadGateway, "failed to resolve tags")
		return
	}

	respondJSON(w, http.StatusOK, tags)
}
