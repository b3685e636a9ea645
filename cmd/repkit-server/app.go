package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	jsonfileAdapter "repkit/adapters/jsonfile"
	mem "repkit/adapters/memory"
	redisAdapter "repkit/adapters/redis"
	sqlxAdapter "repkit/adapters/sqlx"
	"repkit/analytics"
	"repkit/api/httpapi"
	"repkit/config"
	"repkit/core"
	"repkit/engine"
	"repkit/integrations/webhook"
	"repkit/leaderboard"
	"repkit/progression"
	"repkit/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *realtime.Hub
	Board     leaderboard.Board
	Analytics *AnalyticsPipeline
	Service   *engine.ProgressionService
	Handler   http.Handler
	Server    *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	if path := os.Getenv("REPKIT_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideBoard() leaderboard.Board {
	return leaderboard.NewSkipList()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	return setupStorage(ctx, cfg)
}

func provideAnalytics(cfg *config.Config) *AnalyticsPipeline {
	if !cfg.Analytics.Enabled {
		return nil
	}
	var exporter analytics.Exporter = analytics.NewConsoleExporter("[repkit]")
	if cfg.Analytics.ExportEndpoint != "" {
		exporter = analytics.NewHTTPExporter(cfg.Analytics.ExportEndpoint, cfg.Analytics.ExportAPIKey, cfg.Analytics.BatchSize)
	}
	return &AnalyticsPipeline{
		DAU:      analytics.NewDAU(),
		Metrics:  analytics.NewReputationMetrics(),
		exporter: exporter,
		interval: time.Hour,
		done:     make(chan struct{}),
	}
}

func provideService(hub *realtime.Hub, board leaderboard.Board, storage engine.Storage, pipeline *AnalyticsPipeline, cfg *config.Config) *engine.ProgressionService {
	opts := []progression.Option{
		progression.WithRealtime(hub),
		progression.WithLeaderboard(board),
		progression.WithStorage(storage),
		progression.WithDispatchMode(engine.DispatchAsync),
	}
	if pipeline != nil {
		opts = append(opts, progression.WithAnalytics(pipeline.DAU, pipeline.Metrics))
	}
	if sink := setupWebhooks(cfg); sink != nil {
		opts = append(opts, progression.WithWebhooks(sink))
	}
	return progression.New(opts...)
}

func provideHandler(svc *engine.ProgressionService, hub *realtime.Hub, board leaderboard.Board, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// AnalyticsPipeline couples the KPI hooks with a periodic snapshot export.
type AnalyticsPipeline struct {
	DAU     *analytics.DAU
	Metrics *analytics.ReputationMetrics

	exporter analytics.Exporter
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

// Start launches the export loop. Safe to call on a nil pipeline.
func (p *AnalyticsPipeline) Start(ctx context.Context) {
	if p == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.export(ctx)
			case <-p.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop, exports a final snapshot, and closes the exporter.
func (p *AnalyticsPipeline) Stop(ctx context.Context) {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.done) })
	p.export(ctx)
	if err := p.exporter.Close(); err != nil {
		slog.Warn("analytics exporter close failed", "error", err)
	}
}

func (p *AnalyticsPipeline) export(ctx context.Context) {
	day := time.Now().UTC().Format("2006-01-02")
	snap := analytics.TakeSnapshot(p.DAU, p.Metrics, day)
	if err := p.exporter.Export(ctx, snap); err != nil {
		slog.Warn("analytics export failed", "day", day, "error", err)
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return jsonfileAdapter.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// setupWebhooks builds the outbound sink, or nil when no endpoints are configured.
func setupWebhooks(cfg *config.Config) *webhook.Sink {
	if len(cfg.Webhooks.Endpoints) == 0 {
		return nil
	}
	var opts []webhook.Option
	if len(cfg.Webhooks.EventTypes) > 0 {
		types := make([]core.EventType, 0, len(cfg.Webhooks.EventTypes))
		for _, t := range cfg.Webhooks.EventTypes {
			types = append(types, core.EventType(t))
		}
		opts = append(opts, webhook.WithEventTypes(types...))
	}
	return webhook.New(cfg.Webhooks.Endpoints, opts...)
}
