package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/trendscore/internal/api"
	"github.com/wonny/trendscore/internal/api/handlers"
	"github.com/wonny/trendscore/internal/rules"
	"github.com/wonny/trendscore/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                       - Health check
  GET  /api/analysis/{code}          - 종목 분석 (?style=&refresh=&format=text)
  GET  /api/analysis/{code}/latest   - 마지막 저장 분석
  GET  /api/analysis?date=           - 일자별 분석 목록
  POST /api/analysis                 - 요청 본문의 시세로 분석
  GET  /api/rules?style=             - 최종 규칙 조회
  POST /api/rules/reset              - 규칙 캐시 초기화
  GET  /api/sectors                  - 상위 업종
  GET  /api/sectors/{code}           - 업종 리포트
  GET  /api/stocks/{code}/daily      - 저장된 일봉
  GET  /api/stocks/{code}/tags       - 종목 태그
  GET  /ws/analysis                  - 분석 결과 푸시 (WebSocket)

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	printTitle(out, "API Server")

	// 1. Load config
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Websocket hub
	hub := api.NewHub(log)
	go hub.Run(ctx)

	// 3. Wire services
	app, err := newApp(ctx, cfg, log, hub)
	if err != nil {
		return err
	}
	defer app.Close()

	// 4. Rules file watcher (선택)
	if cfg.Analyzer.WatchRules {
		startRulesWatcher(ctx, app)
	}

	// 5. Create router
	deps := api.Deps{
		Analysis:  handlers.NewAnalysisHandler(app.builder, app.analyzer, log),
		Rules:     handlers.NewRulesHandler(app.provider, log),
		Sectors:   handlers.NewSectorHandler(app.sectors, log),
		Stocks:    handlers.NewStockHandler(app.bars(), app.tagger, log),
		Hub:       hub,
		Limiter:   redis.NewRateLimiter(app.redis, cachePrefix),
		RateLimit: redis.AnalysisRateLimit(cfg.API.RateLimit, cfg.API.RateWindow),
		Timeout:   cfg.API.RequestTimeout,
		Checks:    map[string]api.HealthCheck{},
	}
	if app.db != nil {
		deps.Checks["database"] = app.db.Ping
	}
	if app.redis.Enabled() {
		deps.Checks["redis"] = app.redis.Ping
	}
	router := api.NewRouter(deps, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// startRulesWatcher resets the rules cache whenever the rules file changes
func startRulesWatcher(ctx context.Context, app *app) {
	w, err := rules.NewWatcher(app.provider, app.log)
	if err != nil {
		app.log.WithError(err).Warn("Rules file watch disabled")
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			app.log.WithError(err).Warn("Rules watcher stopped")
		}
	}()
}
