package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/trendscore/internal/api/handlers"
	"github.com/wonny/trendscore/pkg/logger"
	"github.com/wonny/trendscore/pkg/redis"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// Deps wires handlers and shared infrastructure into the router.
// Nil handlers leave their routes unregistered.
type Deps struct {
	Analysis *handlers.AnalysisHandler
	Rules    *handlers.RulesHandler
	Sectors  *handlers.SectorHandler
	Stocks   *handlers.StockHandler
	Hub      *Hub

	Limiter   *redis.RateLimiter
	RateLimit redis.RateLimitConfig
	Timeout   time.Duration

	Checks map[string]HealthCheck
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps Deps, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.Checks)).Methods("GET")

	// Websocket push
	if deps.Hub != nil {
		r.HandleFunc("/ws/analysis", deps.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(timeoutMiddleware(deps.Timeout))

	// Analysis endpoints (요청당 비용이 커서 레이트 리밋 적용)
	if deps.Analysis != nil {
		limited := rateLimitMiddleware(deps.Limiter, deps.RateLimit, log)
		api.Handle("/analysis", limited(http.HandlerFunc(deps.Analysis.ListByDate))).Methods("GET")
		api.Handle("/analysis", limited(http.HandlerFunc(deps.Analysis.AnalyzeSeries))).Methods("POST")
		api.Handle("/analysis/{code}", limited(http.HandlerFunc(deps.Analysis.Analyze))).Methods("GET")
		api.Handle("/analysis/{code}/latest", limited(http.HandlerFunc(deps.Analysis.GetLatest))).Methods("GET")
	}

	// Rules endpoints
	if deps.Rules != nil {
		api.HandleFunc("/rules", deps.Rules.GetRules).Methods("GET")
		api.HandleFunc("/rules/reset", deps.Rules.Reset).Methods("POST")
	}

	// Sector endpoints
	if deps.Sectors != nil {
		api.HandleFunc("/sectors", deps.Sectors.GetHotSectors).Methods("GET")
		api.HandleFunc("/sectors/{code}", deps.Sectors.GetSector).Methods("GET")
	}

	// Stock endpoints
	if deps.Stocks != nil {
		api.HandleFunc("/stocks/{code}/daily", deps.Stocks.GetDailyPrices).Methods("GET")
		api.HandleFunc("/stocks/{code}/tags", deps.Stocks.GetTags).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status; any failed check makes it 503
func healthCheckHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]interface{}{
			"status":  "ok",
			"service": "trendscore-api",
		}
		if len(names) > 0 {
			results := make(map[string]string, len(names))
			for _, name := range names {
				if err := checks[name](ctx); err != nil {
					results[name] = err.Error()
					status = http.StatusServiceUnavailable
					body["status"] = "degraded"
					continue
				}
				results[name] = "ok"
			}
			body["checks"] = results
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}
