package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/trendscore/internal/sector"
	"github.com/wonny/trendscore/pkg/logger"
)

// SectorAnalyzer analyzes industry boards
type SectorAnalyzer interface {
	HotSectors(ctx context.Context, limit int) ([]*sector.Result, error)
	AnalyzeSector(ctx context.Context, code, name string, typ sector.Type, focus []string) (*sector.Result, error)
}

// SectorHandler handles sector API endpoints
type SectorHandler struct {
	analyzer SectorAnalyzer
	logger   *logger.Logger
}

// NewSectorHandler creates a new sector handler
func NewSectorHandler(a SectorAnalyzer, log *logger.Logger) *SectorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SectorHandler{analyzer: a, logger: log}
}

// GetHotSectors ranks the strongest industries
// GET /api/sectors?limit=10&format=markdown
func (h *SectorHandler) GetHotSectors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 50 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	results, err := h.analyzer.HotSectors(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Hot sector analysis failed")
		respondError(w, http.StatusBadGateway, "failed to load industry board")
		return
	}

	if q.Get("format") == "markdown" {
		respondMarkdown(w, http.StatusOK, sector.FormatHotSectors(results))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"sectors": results,
	})
}

// GetSector analyzes one industry
// GET /api/sectors/{code}?name=반도체&focus=005930,000660&format=markdown
func (h *SectorHandler) GetSector(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "sector code is required")
		return
	}

	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = code
	}
	var focus []string
	for _, c := range strings.Split(q.Get("focus"), ",") {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			focus = append(focus, c)
		}
	}

	result, err := h.analyzer.AnalyzeSector(r.Context(), code, name, sector.TypeIndustry, focus)
	if err != nil {
		h.logger.WithError(err).WithField("sector", code).Error("Sector analysis failed")
		respondError(w, http.StatusBadGateway, "failed to analyze sector")
		return
	}

	if q.Get("format") == "markdown" {
		respondMarkdown(w, http.StatusOK, sector.FormatReport(result, true))
		return
	}
	respondJSON(w, http.StatusOK, result)
}
