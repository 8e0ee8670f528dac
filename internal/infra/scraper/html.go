package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sony/gobreaker"

	"fintech-news/internal/infra/fetcher"
	"fintech-news/internal/resilience/circuitbreaker"
	"fintech-news/internal/resilience/retry"
	"fintech-news/internal/usecase/ingest"
)

const maxBodySize = 10 * 1024 * 1024

// ErrNoItems is returned when the item selector matched nothing, which
// usually means the page layout changed.
var ErrNoItems = errors.New("no items matched")

// Selectors locate articles on a listing page. Item, Title and Link are
// required; the rest are optional and evaluated inside each item.
type Selectors struct {
	Item        string
	Title       string
	Link        string
	Date        string
	Description string
	Image       string
	// DateFormat is a Go time layout. Empty tries common layouts.
	DateFormat string
}

// Validate reports a missing required selector.
func (s Selectors) Validate() error {
	switch {
	case s.Item == "":
		return errors.New("item selector is required")
	case s.Title == "":
		return errors.New("title selector is required")
	case s.Link == "":
		return errors.New("link selector is required")
	}
	return nil
}

// HTMLSource implements ingest.Source for publishers without a feed by
// extracting articles from a listing page with CSS selectors.
type HTMLSource struct {
	name           string
	pageURL        string
	selectors      Selectors
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewHTMLSource creates a listing page source.
func NewHTMLSource(name, pageURL string, selectors Selectors, client *http.Client) (*HTMLSource, error) {
	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	if _, err := url.Parse(pageURL); err != nil {
		return nil, fmt.Errorf("source %s: invalid url: %w", name, err)
	}
	return &HTMLSource{
		name:           name,
		pageURL:        pageURL,
		selectors:      selectors,
		client:         client,
		circuitBreaker: circuitbreaker.New(sourceBreakerConfig(name)),
		retryConfig:    retry.FeedFetchConfig(),
	}, nil
}

func (h *HTMLSource) Name() string { return h.name }

// Fetch downloads the listing page and extracts its articles.
func (h *HTMLSource) Fetch(ctx context.Context) ([]ingest.RawArticle, error) {
	var items []ingest.RawArticle

	err := retry.WithBackoff(ctx, h.retryConfig, func() error {
		result, err := h.circuitBreaker.Execute(func() (interface{}, error) {
			return h.doFetch(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("html source circuit breaker open, request rejected",
					slog.String("source", h.name),
					slog.String("url", h.pageURL),
					slog.String("state", h.circuitBreaker.State().String()))
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

func (h *HTMLSource) doFetch(ctx context.Context) ([]ingest.RawArticle, error) {
	doc, base, err := h.fetchHTML(ctx)
	if err != nil {
		return nil, err
	}

	items := h.extractItems(doc, base)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, h.selectors.Item)
	}
	return items, nil
}

func (h *HTMLSource) fetchHTML(ctx context.Context) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", fetcher.UserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, resp.Request.URL, nil
}

func (h *HTMLSource) extractItems(doc *goquery.Document, base *url.URL) []ingest.RawArticle {
	sel := h.selectors
	var items []ingest.RawArticle

	doc.Find(sel.Item).Each(func(i int, el *goquery.Selection) {
		title := strings.TrimSpace(el.Find(sel.Title).First().Text())
		if title == "" {
			slog.Debug("skipping item with empty title", slog.Int("index", i))
			return
		}

		href, _ := findAttr(el, sel.Link, "href")
		link := resolveURL(base, href)
		if link == "" {
			slog.Debug("skipping item with empty link",
				slog.Int("index", i),
				slog.String("title", title))
			return
		}

		raw := ingest.RawArticle{
			Title:  title,
			URL:    link,
			Source: h.name,
		}
		if sel.Description != "" {
			raw.Description = strings.TrimSpace(el.Find(sel.Description).First().Text())
		}
		if sel.Image != "" {
			if src, ok := findAttr(el, sel.Image, "src"); ok {
				raw.ImageURL = resolveURL(base, src)
			}
		}
		if sel.Date != "" {
			date := el.Find(sel.Date).First()
			value, ok := date.Attr("datetime")
			if !ok {
				value = date.Text()
			}
			raw.PublishedAt = parseDate(strings.TrimSpace(value), sel.DateFormat)
		}
		items = append(items, raw)
	})

	return items
}

// findAttr reads attr from the first match of selector inside el, or from
// el itself when el matches the selector (an item that is the link).
func findAttr(el *goquery.Selection, selector, attr string) (string, bool) {
	if el.Is(selector) {
		if v, ok := el.Attr(attr); ok {
			return strings.TrimSpace(v), true
		}
	}
	v, ok := el.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v), ok
}

// resolveURL makes ref absolute against the page URL. Non-http results are dropped.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
}

// parseDate tries layout first, then common layouts. Unparseable dates are
// left zero so ingestion stamps them with the run time.
func parseDate(value, layout string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if layout != "" {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	for _, l := range fallbackDateLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t
		}
	}
	slog.Debug("unparseable date", slog.String("value", value), slog.String("layout", layout))
	return time.Time{}
}
