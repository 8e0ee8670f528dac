package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fintech-news/internal/config"
	"fintech-news/internal/infra/adapter/persistence"
	"fintech-news/internal/infra/db"
	"fintech-news/internal/infra/fetcher"
	"fintech-news/internal/infra/newsapi"
	"fintech-news/internal/infra/notifier"
	"fintech-news/internal/infra/scraper"
	workerPkg "fintech-news/internal/infra/worker"
	"fintech-news/internal/observability/logging"
	"fintech-news/internal/usecase/ingest"
	"fintech-news/internal/usecase/notify"
	envconfig "fintech-news/pkg/config"
)

// shutdownGrace bounds how long shutdown waits for a running job.
const shutdownGrace = 2 * time.Minute

func main() {
	logger := logging.NewLogger("worker")
	slog.SetDefault(logger)

	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("dispatch_concurrency", workerConfig.DispatchConcurrency),
		slog.String("dispatch_mode", workerConfig.DispatchMode),
		slog.Duration("ingest_timeout", workerConfig.IngestTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, nil, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	svc := setupIngestService(logger, repos, workerConfig)

	runner := workerPkg.NewRunner(svc, workerConfig.IngestTimeout, workerMetrics, healthServer, logger)
	scheduler, err := workerPkg.NewScheduler(workerConfig.CronSchedule, workerConfig.Location(), runner, logger)
	if err != nil {
		logger.Error("failed to schedule ingestion", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone))

	if workerConfig.RunOnStart {
		go runner.RunOnce(context.Background())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")
	healthServer.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	// Stop only tracks jobs cron launched; the runner also covers the
	// on-start run.
	stopped := scheduler.Stop()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ingestion run still in progress at shutdown deadline", slog.Any("error", err))
	}
	select {
	case <-stopped.Done():
		logger.Info("scheduler stopped")
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown deadline")
	}
	cancel()
	logger.Info("worker stopped")
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

// setupIngestService wires sources, content enhancement and dispatch.
func setupIngestService(logger *slog.Logger, repos persistence.Repositories, cfg *workerPkg.WorkerConfig) *ingest.Service {
	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("invalid content fetch configuration", slog.Any("error", err))
		os.Exit(1)
	}
	httpClient := fetcher.NewHTTPClient(fetchCfg)

	sources := createSources(logger, httpClient)
	if len(sources) == 0 {
		logger.Warn("no ingestion sources configured; runs will store nothing")
	}

	var content ingest.ContentFetcher
	if fetchCfg.Enabled {
		content = fetcher.NewReadabilityFetcher(fetchCfg, httpClient)
		logger.Info("content enhancement enabled",
			slog.Int("threshold", fetchCfg.Threshold),
			slog.Int("parallelism", fetchCfg.Parallelism))
	} else {
		logger.Info("content enhancement disabled")
	}

	pushCfg, err := config.LoadPushConfigFromEnv()
	if err != nil {
		logger.Error("invalid push configuration", slog.Any("error", err))
		os.Exit(1)
	}
	coordinator := notify.NewCoordinator(repos.Subscriptions, createDelivery(logger, pushCfg), notify.Options{
		Location:        pushCfg.Location(),
		Concurrency:     cfg.DispatchConcurrency,
		DeliveryTimeout: pushCfg.DeliveryTimeout,
	}, logger)

	return ingest.NewService(repos.Articles, sources, content, coordinator, ingest.Config{
		Mode:               cfg.Mode(),
		ContentThreshold:   fetchCfg.Threshold,
		ContentParallelism: fetchCfg.Parallelism,
	}, logger)
}

// createSources builds NewsAPI plus the feeds listed in SOURCES_CONFIG.
// A missing NEWS_API_KEY skips NewsAPI with a warning.
func createSources(logger *slog.Logger, httpClient *http.Client) []ingest.Source {
	srcCfg, err := config.LoadSourcesConfig(envconfig.GetEnvString("SOURCES_CONFIG", ""))
	if err != nil {
		logger.Error("failed to load sources", slog.Any("error", err))
		os.Exit(1)
	}

	var sources []ingest.Source
	if srcCfg.NewsAPI.Enabled {
		apiKey := envconfig.GetEnvString("NEWS_API_KEY", "")
		if apiKey == "" {
			logger.Warn("NEWS_API_KEY not set, NewsAPI source disabled")
		} else {
			newsCfg := newsapi.DefaultConfig()
			newsCfg.APIKey = apiKey
			newsCfg.Queries = srcCfg.NewsAPI.Queries
			newsCfg.Language = srcCfg.NewsAPI.Language
			newsCfg.PageSize = srcCfg.NewsAPI.PageSize
			sources = append(sources, newsapi.NewClient(newsCfg, nil, logger))
		}
	}

	for _, feed := range srcCfg.Feeds {
		switch feed.Type {
		case config.SourceTypeHTML:
			s := feed.Selectors
			src, err := scraper.NewHTMLSource(feed.Name, feed.URL, scraper.Selectors{
				Item:        s.Item,
				Title:       s.Title,
				Link:        s.Link,
				Date:        s.Date,
				Description: s.Description,
				Image:       s.Image,
				DateFormat:  s.DateFormat,
			}, httpClient)
			if err != nil {
				logger.Error("skipping html source", slog.String("source", feed.Name), slog.Any("error", err))
				continue
			}
			sources = append(sources, src)
		default:
			sources = append(sources, scraper.NewRSSSource(feed.Name, feed.URL, httpClient))
		}
	}

	logger.Info("ingestion sources configured", slog.Int("count", len(sources)))
	return sources
}

// createDelivery returns the web-push transport, or a log-only one in dry-run mode.
func createDelivery(logger *slog.Logger, cfg *config.PushConfig) notify.Delivery {
	if !cfg.SendsPush() {
		logger.Warn("PUSH_DRY_RUN set, notifications will be logged only")
		return notifier.NewLogOnlyNotifier(logger)
	}

	wp, err := notifier.NewWebPushNotifier(notifier.WebPushConfig{
		Subject:           cfg.Subject,
		VAPIDPublicKey:    cfg.VAPIDPublicKey,
		VAPIDPrivateKey:   cfg.VAPIDPrivateKey,
		TTL:               cfg.TTL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if err != nil {
		logger.Error("failed to create web push notifier", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("web push delivery enabled", slog.String("subject", cfg.Subject))
	return wp
}
