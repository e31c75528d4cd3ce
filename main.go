// Command streamroom is the main entrypoint for the streamroom API and
// background workers. It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres and runs idempotent migrations.
//   - Starts background jobs: session idle janitor and upload retention.
//   - Exposes the HTTP API: session/chat/tip/upload/wallet endpoints plus
//     /healthz, /readyz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hushline-media/streamroom/config"
	"github.com/hushline-media/streamroom/db"
	"github.com/hushline-media/streamroom/server"
	"github.com/hushline-media/streamroom/session"
	"github.com/hushline-media/streamroom/storage"
	"github.com/hushline-media/streamroom/telemetry"
	"github.com/hushline-media/streamroom/wallet"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))

	// Config (fails fast on chat parameter contract violations)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("streamroom", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// DB is optional: without DB_DSN the service runs purely in memory, which
	// matches the demo app's no-durable-backend nature.
	var database *sql.DB
	if cfg.DBDsn != "" {
		database, err = db.Connect()
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()

		// Dual-system migrations: versioned (golang-migrate) first, embedded
		// SQL as fallback for deployments without a schema_migrations table.
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
				slog.Any("err", err),
				slog.String("component", "db_migrate"))
			if err := db.Migrate(context.Background(), database); err != nil {
				slog.Error("failed to migrate db (both versioned and embedded SQL failed)", slog.Any("err", err))
				os.Exit(1)
			}
			slog.Info("embedded SQL migration completed", slog.String("component", "db_migrate"))
		}
	} else {
		slog.Info("DB_DSN not set; persistence disabled")
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session manager + idle janitor
	sessions := session.NewManager(session.Config{
		BufferSize:      cfg.ChatBufferSize,
		Templates:       cfg.ChatTemplates,
		Authors:         cfg.ChatAuthors,
		MinDelay:        cfg.ChatMinDelay,
		MaxDelay:        cfg.ChatMaxDelay,
		TTL:             cfg.SessionTTL,
		JanitorInterval: cfg.SessionJanitorInterval,
		MaxSessions:     cfg.MaxSessions,
	}, database)
	go sessions.StartJanitor(ctx)
	defer sessions.CloseAll()

	// Upload store + retention job
	store, err := storage.NewStore(cfg.DataDir, cfg.UploadMaxBytes, database)
	if err != nil {
		slog.Error("failed to init upload store", slog.Any("err", err))
		os.Exit(1)
	}
	policy := storage.RetentionPolicy{
		KeepDays:  cfg.UploadKeepDays,
		KeepCount: cfg.UploadKeepCount,
		DryRun:    cfg.UploadRetentionDryRun,
		Interval:  cfg.UploadRetentionInterval,
	}
	go store.StartRetentionJob(ctx, policy)

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	// HTTP server
	handlers := server.NewHandlers(database, sessions, store, policy, &wallet.Noop{})
	go func() {
		if err := server.Start(ctx, handlers, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
