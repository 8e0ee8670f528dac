package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintech-news/internal/config"
	hhttp "fintech-news/internal/handler/http"
	harticle "fintech-news/internal/handler/http/article"
	"fintech-news/internal/handler/http/requestid"
	hsub "fintech-news/internal/handler/http/subscription"
	"fintech-news/internal/infra/adapter/persistence"
	"fintech-news/internal/infra/db"
	"fintech-news/internal/observability/logging"
	"fintech-news/internal/observability/tracing"
	artUC "fintech-news/internal/usecase/article"
	"fintech-news/internal/usecase/notify"
	subUC "fintech-news/internal/usecase/subscription"
)

func main() {
	logger := logging.NewLogger("api")
	slog.SetDefault(logger)

	cfg, err := config.LoadAPIConfigFromEnv()
	if err != nil {
		logger.Error("invalid API configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database, driver := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	repos, err := persistence.New(database, driver)
	if err != nil {
		logger.Error("failed to create repositories", slog.Any("error", err))
		os.Exit(1)
	}

	svc := subUC.Service{
		Repo:    repos.Subscriptions,
		Options: notify.Options{Location: cfg.Location()},
	}

	handler := setupServer(logger, cfg, database, svc, artUC.Service{Repo: repos.Articles})
	runServer(logger, cfg, handler)
}

// initDatabase opens the database and applies migrations.
func initDatabase(logger *slog.Logger) (*sql.DB, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, driver, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, driver); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready", slog.String("driver", driver))
	return database, driver
}

// setupServer builds the route table and the middleware chain.
func setupServer(logger *slog.Logger, cfg *config.APIConfig, database *sql.DB, svc subUC.Service, articles artUC.Service) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{DB: database, Version: cfg.Version, PushMode: cfg.PushMode()})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	registerLimiter := hhttp.NewRateLimiter(cfg.RegisterPerMinute, cfg.RegisterBurst)
	hsub.Register(mux, svc, registerLimiter.Middleware)
	mux.Handle("GET /push/public-key", hsub.PublicKeyHandler{Key: cfg.VAPIDPublicKey})
	harticle.Register(mux, articles)

	logger.Info("routes registered",
		slog.Int("register_rate_limit_per_minute", cfg.RegisterPerMinute),
		slog.Int("register_rate_burst", cfg.RegisterBurst))

	mws := []hhttp.Middleware{
		hhttp.Recover(logger),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		// Preflights are answered before routing; the mux has no OPTIONS routes.
		mws = append(mws, hhttp.CORS(hhttp.DefaultCORSConfig(cfg.CORSAllowedOrigins), logger))
		logger.Info("CORS enabled", slog.Any("origins", cfg.CORSAllowedOrigins))
	}
	// Metrics must sit between tracing and the mux so it sees the matched pattern.
	mws = append(mws, hhttp.Metrics(), hhttp.LimitRequestBody(cfg.MaxBodyBytes))
	return hhttp.Chain(mux, mws...)
}

func runServer(logger *slog.Logger, cfg *config.APIConfig, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
