// Package ingest runs the news ingestion job: it pulls raw articles from
// every configured source, drops the ones already stored, classifies and
// persists the rest, then hands them to the notification dispatcher.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/usecase/notify"
)

// Sentinel errors for ingestion runs.
var (
	// ErrAllSourcesFailed is returned when every configured source failed to fetch.
	ErrAllSourcesFailed = errors.New("all sources failed")

	// ErrInvalidDispatchMode is returned by ParseDispatchMode for unknown modes.
	ErrInvalidDispatchMode = errors.New("invalid dispatch mode")
)

// RawArticle is one item as returned by a source, before classification.
// Text fields may contain HTML; the service normalises them.
type RawArticle struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	Source      string
	PublishedAt time.Time
}

// Source fetches the current items of one upstream (NewsAPI, an RSS feed,
// an HTML listing page).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]RawArticle, error)
}

// ContentFetcher extracts the full text of an article page.
// Errors are never fatal: the service falls back to the feed content.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Dispatcher notifies subscribers about stored articles.
// *notify.Coordinator satisfies it.
type Dispatcher interface {
	NotifySubscribers(ctx context.Context, article *entity.Article, now time.Time) (notify.Result, error)
	NotifyDigest(ctx context.Context, articles []*entity.Article, now time.Time) (notify.Result, error)
}

// DispatchMode selects how stored articles are announced.
type DispatchMode string

const (
	// ModePerArticle sends one dispatch pass per stored article.
	ModePerArticle DispatchMode = "per_article"
	// ModeDigest sends one summarising push per subscriber per run.
	ModeDigest DispatchMode = "digest"
)

// ParseDispatchMode parses a configured mode. Empty means ModePerArticle.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch DispatchMode(s) {
	case "", ModePerArticle:
		return ModePerArticle, nil
	case ModeDigest:
		return ModeDigest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDispatchMode, s)
	}
}
