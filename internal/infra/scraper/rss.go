// Package scraper implements ingestion sources that read publisher sites:
// RSS/Atom feeds through gofeed and HTML listing pages through goquery.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"fintech-news/internal/infra/fetcher"
	"fintech-news/internal/resilience/circuitbreaker"
	"fintech-news/internal/resilience/retry"
	"fintech-news/internal/usecase/ingest"
)

// RSSSource implements ingest.Source for one RSS or Atom feed.
type RSSSource struct {
	name           string
	feedURL        string
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSSource creates a feed source. name labels articles whose feed
// does not carry a title and is used in logs and metrics.
func NewRSSSource(name, feedURL string, client *http.Client) *RSSSource {
	return &RSSSource{
		name:           name,
		feedURL:        feedURL,
		client:         client,
		circuitBreaker: circuitbreaker.New(sourceBreakerConfig(name)),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (f *RSSSource) Name() string { return f.name }

// Fetch retrieves and parses the feed with retry and circuit breaking.
func (f *RSSSource) Fetch(ctx context.Context) ([]ingest.RawArticle, error) {
	var items []ingest.RawArticle

	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("source", f.name),
					slog.String("url", f.feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		items = result.([]ingest.RawArticle)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *RSSSource) doFetch(ctx context.Context) ([]ingest.RawArticle, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = fetcher.UserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return nil, err
	}

	source := f.name
	if source == "" {
		source = strings.TrimSpace(feed.Title)
	}

	items := make([]ingest.RawArticle, 0, len(feed.Items))
	for _, it := range feed.Items {
		raw := ingest.RawArticle{
			Title:       it.Title,
			Description: it.Description,
			Content:     it.Content,
			URL:         it.Link,
			ImageURL:    itemImage(it),
			Source:      source,
		}
		switch {
		case it.PublishedParsed != nil:
			raw.PublishedAt = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			raw.PublishedAt = *it.UpdatedParsed
		}
		items = append(items, raw)
	}
	return items, nil
}

// itemImage prefers the item image, then the first image enclosure.
func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func sourceBreakerConfig(name string) circuitbreaker.Config {
	cfg := circuitbreaker.FeedFetchConfig()
	cfg.Name = "feed-fetch:" + name
	return cfg
}
