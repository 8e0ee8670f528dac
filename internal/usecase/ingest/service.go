package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/observability/logging"
	"fintech-news/internal/observability/metrics"
	"fintech-news/internal/observability/tracing"
	"fintech-news/internal/repository"
	"fintech-news/internal/usecase/classify"
	"fintech-news/internal/usecase/notify"
)

const (
	defaultContentParallelism = 5
	defaultContentThreshold   = 1500
)

// Config controls content enhancement and dispatch.
type Config struct {
	Mode DispatchMode
	// ContentThreshold is the feed content length below which the full
	// page is fetched. Zero uses the default.
	ContentThreshold int
	// ContentParallelism bounds concurrent article processing.
	ContentParallelism int
}

// Stats summarises one ingestion run.
type Stats struct {
	Sources      int
	SourceErrors int
	Fetched      int
	Duplicates   int
	Invalid      int
	Stored       int
	Failed       int
	Dispatch     notify.Result
	Duration     time.Duration
}

// Service is the ingestion job.
type Service struct {
	Articles repository.ArticleRepository
	Sources  []Source
	// Content is optional; nil disables full-text enhancement.
	Content ContentFetcher
	// Dispatcher is optional; nil stores articles without notifying.
	Dispatcher Dispatcher
	Config     Config
	Logger     *slog.Logger
	Now        func() time.Time
}

// NewService wires a Service with defaults for unset config values.
func NewService(
	articles repository.ArticleRepository,
	sources []Source,
	content ContentFetcher,
	dispatcher Dispatcher,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.Mode == "" {
		cfg.Mode = ModePerArticle
	}
	if cfg.ContentThreshold <= 0 {
		cfg.ContentThreshold = defaultContentThreshold
	}
	if cfg.ContentParallelism <= 0 {
		cfg.ContentParallelism = defaultContentParallelism
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Articles:   articles,
		Sources:    sources,
		Content:    content,
		Dispatcher: dispatcher,
		Config:     cfg,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Run executes one ingestion cycle.
//
// Source failures are logged and counted; the run fails only when every
// source failed, the duplicate check failed, or dispatch could not start.
// Stats are returned in every case.
func (s *Service) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	ctx, requestID := logging.EnsureRequestID(ctx)
	logger := s.Logger.With(slog.String("request_id", requestID))

	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
	defer span.End()

	stats := &Stats{Sources: len(s.Sources)}
	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordIngestRun(stats.Duration)
		span.SetAttributes(
			attribute.Int("ingest.fetched", stats.Fetched),
			attribute.Int("ingest.stored", stats.Stored),
			attribute.Int("ingest.duplicates", stats.Duplicates),
		)
	}()

	raws, failed := s.fetchAll(ctx, logger)
	stats.SourceErrors = failed
	stats.Fetched = len(raws)
	if len(s.Sources) > 0 && failed == len(s.Sources) {
		span.SetStatus(codes.Error, ErrAllSourcesFailed.Error())
		return stats, ErrAllSourcesFailed
	}

	candidates := s.dedupe(raws, stats)
	fresh, err := s.dropStored(ctx, candidates, stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "duplicate check failed")
		return stats, err
	}

	now := s.Now()
	stored := s.storeAll(ctx, logger, fresh, now, stats)

	logger.Info("ingestion completed",
		slog.Int("sources", stats.Sources),
		slog.Int("source_errors", stats.SourceErrors),
		slog.Int("fetched", stats.Fetched),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("invalid", stats.Invalid),
		slog.Int("stored", stats.Stored),
		slog.Int("failed", stats.Failed),
	)

	if err := s.dispatch(ctx, logger, stored, now, stats); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return stats, err
	}
	return stats, nil
}

// fetchAll queries every source concurrently. Results keep source order so
// the first source to report a URL wins deduplication.
func (s *Service) fetchAll(ctx context.Context, logger *slog.Logger) ([]RawArticle, int) {
	perSource := make([][]RawArticle, len(s.Sources))
	errs := make([]error, len(s.Sources))

	var eg errgroup.Group
	for i, src := range s.Sources {
		eg.Go(func() error {
			fetchStart := time.Now()
			items, err := src.Fetch(ctx)
			duration := time.Since(fetchStart)
			if err != nil {
				errs[i] = err
				metrics.RecordSourceFetchError(src.Name(), duration)
				logger.Warn("failed to fetch source",
					slog.String("source", src.Name()),
					slog.Duration("duration", duration),
					slog.Any("error", err))
				return nil
			}
			perSource[i] = items
			metrics.RecordSourceFetch(src.Name(), duration, len(items))
			logger.Info("source fetched",
				slog.String("source", src.Name()),
				slog.Int("items", len(items)),
				slog.Duration("duration", duration))
			return nil
		})
	}
	_ = eg.Wait()

	var all []RawArticle
	failed := 0
	for i := range s.Sources {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, perSource[i]...)
	}
	return all, failed
}

// dedupe normalises raw items and removes in-run duplicates by URL.
// Items without a URL or title are dropped as invalid.
func (s *Service) dedupe(raws []RawArticle, stats *Stats) []RawArticle {
	seen := make(map[string]struct{}, len(raws))
	out := make([]RawArticle, 0, len(raws))
	for _, raw := range raws {
		item := normalize(raw)
		if item.URL == "" || item.Title == "" {
			stats.Invalid++
			metrics.RecordArticleResult("invalid")
			continue
		}
		if _, dup := seen[item.URL]; dup {
			stats.Duplicates++
			metrics.RecordArticleResult("duplicate")
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}

// dropStored removes items whose URL is already persisted, in one batch query.
func (s *Service) dropStored(ctx context.Context, items []RawArticle, stats *Stats) ([]RawArticle, error) {
	if len(items) == 0 {
		return nil, nil
	}
	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	exists, err := s.Articles.ExistsByURLBatch(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("check existing urls: %w", err)
	}

	fresh := items[:0]
	for _, item := range items {
		if exists[item.URL] {
			stats.Duplicates++
			metrics.RecordArticleResult("duplicate")
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh, nil
}

// storeAll enhances, classifies and persists items with bounded parallelism.
// The returned slice keeps input order and holds only stored articles.
func (s *Service) storeAll(ctx context.Context, logger *slog.Logger, items []RawArticle, now time.Time, stats *Stats) []*entity.Article {
	results := make([]*entity.Article, len(items))

	limit := s.Config.ContentParallelism
	if limit <= 0 {
		limit = defaultContentParallelism
	}
	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, item := range items {
		eg.Go(func() error {
			item.Content = s.enhanceContent(ctx, logger, item)
			art := s.buildArticle(item, now)
			if err := s.Articles.Create(ctx, art); err != nil {
				logger.Warn("failed to store article",
					slog.String("url", art.URL),
					slog.Any("error", err))
				return nil
			}
			results[i] = art
			return nil
		})
	}
	_ = eg.Wait()

	stored := make([]*entity.Article, 0, len(results))
	for _, art := range results {
		if art == nil {
			stats.Failed++
			metrics.RecordArticleResult("failed")
			continue
		}
		stats.Stored++
		metrics.RecordArticleResult("stored")
		metrics.RecordArticleClassified(string(art.Category))
		stored = append(stored, art)
	}
	return stored
}

// buildArticle classifies item and assigns identity and timestamps.
// Content falls back to the description and the summary to the title.
func (s *Service) buildArticle(item RawArticle, now time.Time) *entity.Article {
	content := item.Content
	if content == "" {
		content = item.Description
	}
	summary := item.Description
	if summary == "" {
		summary = item.Title
	}
	published := item.PublishedAt
	if published.IsZero() {
		published = now
	}

	result := classify.Classify(item.Title, item.Description, content)
	return &entity.Article{
		ID:          uuid.NewString(),
		Title:       item.Title,
		Summary:     summary,
		Content:     content,
		URL:         item.URL,
		ImageURL:    item.ImageURL,
		Source:      item.Source,
		PublishedAt: published,
		Category:    result.Category,
		TechLevel:   result.TechLevel,
		ReadingTime: result.ReadingTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// enhanceContent returns the full page text when the feed content is short
// and the fetched text is longer. It never fails; errors fall back to the
// feed content.
func (s *Service) enhanceContent(ctx context.Context, logger *slog.Logger, item RawArticle) string {
	if s.Content == nil {
		return item.Content
	}
	feedLength := len(item.Content)
	threshold := s.Config.ContentThreshold
	if threshold <= 0 {
		threshold = defaultContentThreshold
	}
	if feedLength >= threshold {
		metrics.RecordContentFetchSkipped()
		return item.Content
	}

	fetchStart := time.Now()
	full, err := s.Content.FetchContent(ctx, item.URL)
	duration := time.Since(fetchStart)
	if err != nil {
		metrics.RecordContentFetchFailed(duration)
		logger.Warn("content fetch failed, using feed content",
			slog.String("url", item.URL),
			slog.Duration("duration", duration),
			slog.Any("error", err))
		return item.Content
	}
	metrics.RecordContentFetchSuccess(duration)

	full = plainText(full)
	if len(full) > feedLength {
		return full
	}
	return item.Content
}

// dispatch hands stored articles to the dispatcher according to the mode.
// In per-article mode a failed pass is logged and the next article still
// goes out; all pass errors are joined.
func (s *Service) dispatch(ctx context.Context, logger *slog.Logger, stored []*entity.Article, now time.Time, stats *Stats) error {
	if s.Dispatcher == nil || len(stored) == 0 {
		return nil
	}

	if s.Config.Mode == ModeDigest {
		res, err := s.Dispatcher.NotifyDigest(ctx, stored, now)
		if err != nil {
			return fmt.Errorf("dispatch digest: %w", err)
		}
		stats.Dispatch = res
		return nil
	}

	var errs []error
	for _, art := range stored {
		res, err := s.Dispatcher.NotifySubscribers(ctx, art, now)
		if err != nil {
			logger.Error("dispatch failed",
				slog.String("article_id", art.ID),
				slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		stats.Dispatch.Sent += res.Sent
		stats.Dispatch.Failed += res.Failed
		stats.Dispatch.Skipped += res.Skipped
	}
	if len(errs) > 0 {
		return fmt.Errorf("dispatch: %w", errors.Join(errs...))
	}
	return nil
}
