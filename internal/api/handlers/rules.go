package handlers

import (
	"net/http"
	"sort"

	"github.com/wonny/trendscore/internal/rules"
	"github.com/wonny/trendscore/pkg/logger"
)

// RulesHandler exposes the resolved analyzer rules
type RulesHandler struct {
	provider *rules.Provider
	logger   *logger.Logger
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(provider *rules.Provider, log *logger.Logger) *RulesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RulesHandler{provider: provider, logger: log}
}

// RulesResponse is the resolved rule set of one style
type RulesResponse struct {
	Style    string          `json:"style"`
	Hash     string          `json:"hash"`
	Rules    *rules.Rules    `json:"rules"`
	Warnings []rules.Warning `json:"warnings"`
}

// GetRules returns the rules a style resolves to
// GET /api/rules?style=aggressive
func (h *RulesHandler) GetRules(w http.ResponseWriter, r *http.Request) {
	style := h.provider.ResolveStyle(r.URL.Query().Get("style"))
	resolved := h.provider.Get(style)

	warnings := rules.Warn(resolved)
	if warnings == nil {
		warnings = []rules.Warning{}
	}

	respondJSON(w, http.StatusOK, RulesResponse{
		Style:    style,
		Hash:     h.provider.Version(style),
		Rules:    resolved,
		Warnings: warnings,
	})
}

// Reset drops every cached style so the next request re-reads the rules file.
// Cached analysis results are keyed by rules version, so results of replaced
// rules stop being served.
// POST /api/rules/reset
func (h *RulesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	cleared := h.provider.CachedStyles()
	sort.Strings(cleared)
	h.provider.Reset()

	h.logger.WithField("styles", cleared).Info("Rules cache reset via API")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "reset",
		"cleared": cleared,
	})
}
