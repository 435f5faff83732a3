/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Aloha Funds server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment (ALOHA_*), then apply command-line flags
  2. Validate configuration and build the logger
  3. Initialize SQLite store (migrations run on open)
  4. Create the treasury session and load the first snapshot
  5. Optionally seed demo data into an empty store
  6. Wire notification channels and start the birthday scheduler
  7. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides ALOHA_PORT)
  -db      SQLite database path (overrides ALOHA_DB_PATH)
           Use ":memory:" for in-memory database
  -env     .env file to load (default: .env)

OPTIONAL BACKENDS:
  ALOHA_GOTENBERG_URL    PDF reports
  ALOHA_REDIS_ADDR       Alert dedup shared across instances
  ALOHA_AMQP_URL         Birthday events to RabbitMQ
  ALOHA_RESEND_API_KEY   Birthday mail
  Each is skipped when unset. Redis and AMQP failures at startup are
  logged and the server continues without them.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the birthday scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close AMQP, Redis and database connections
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/aloha.db"

  # Run in-memory with demo data
  ALOHA_SEED_DEMO=true ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - notify/scheduler.go: Birthday scheduler
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alohafunds/engine/api"
	"github.com/alohafunds/engine/auth"
	"github.com/alohafunds/engine/config"
	"github.com/alohafunds/engine/fund"
	"github.com/alohafunds/engine/notify"
	"github.com/alohafunds/engine/report"
	"github.com/alohafunds/engine/store/sqlite"
	"github.com/alohafunds/engine/treasury"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Flags
	port := flag.String("port", "", "HTTP server port (overrides ALOHA_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides ALOHA_DB_PATH)")
	envFile := flag.String("env", ".env", ".env file to load")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	session := treasury.NewSession(store, treasury.WithLogger(logger))
	if err := session.Refresh(ctx); err != nil {
		logger.Warn("Initial snapshot load failed, starting empty", "error", err)
	}

	if cfg.SeedDemo {
		err := session.Seed(ctx, fund.Admin{Email: "system"}, api.DemoData())
		switch {
		case errors.Is(err, treasury.ErrNotEmpty):
			logger.Info("Store already has data, demo seed skipped")
		case err != nil:
			logger.Warn("Demo seed failed", "error", err)
		}
	}

	// Birthday alerts
	notifiers := notify.Multi{notify.LogNotifier{Logger: logger}}
	if cfg.ResendAPIKey != "" {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.MailFrom, cfg.MailTo))
		logger.Info("Email alerts enabled", "recipients", len(cfg.MailTo))
	}
	if cfg.AMQPURL != "" {
		publisher, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, birthday events disabled", "error", err)
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
			logger.Info("AMQP birthday events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var dedup notify.Deduper = notify.NewMemoryDeduper()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, using in-process alert dedup", "addr", cfg.RedisAddr, "error", err)
			client.Close()
		} else {
			defer client.Close()
			dedup = notify.NewRedisDeduper(client, notify.DefaultDedupTTL)
		}
	}

	scheduler := notify.NewScheduler(session, notify.NewAlerter(notifiers, dedup, logger), logger)
	scheduler.CheckInterval = cfg.BirthdayCheckInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Reports
	var renderer report.Renderer
	if cfg.GotenbergURL != "" {
		gotenberg := report.NewGotenberg(cfg.GotenbergURL)
		if err := gotenberg.Ping(ctx); err != nil {
			logger.Warn("Gotenberg not reachable yet", "url", cfg.GotenbergURL, "error", err)
		}
		renderer = gotenberg
	}
	exporter, err := report.NewExporter(renderer)
	if err != nil {
		return err
	}

	authSvc := auth.NewService(cfg.JWTSecret, cfg.JWTTTL, cfg.AdminEmail, cfg.AdminPasswordHash)
	if !authSvc.Enabled() {
		logger.Warn("Admin login not configured, API is read-only")
	}

	handler := api.NewHandler(session, authSvc, exporter, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", "http://localhost:"+cfg.Port, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	logger.Info("Shutting down server...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
