// Package newsapi fetches fintech headlines from the NewsAPI "everything"
// endpoint, one request per configured search query.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"fintech-news/internal/resilience/circuitbreaker"
	"fintech-news/internal/resilience/retry"
	"fintech-news/internal/usecase/ingest"
)

// DefaultBaseURL is the NewsAPI "everything" endpoint.
const DefaultBaseURL = "https://newsapi.org/v2/everything"

// SourceName identifies this source in logs and metrics.
const SourceName = "newsapi"

// maxResponseBytes caps one decoded response body.
const maxResponseBytes = 5 << 20

// DefaultQueries are the searches run on every fetch.
var DefaultQueries = []string{
	"fintech",
	"financial technology",
	"blockchain",
	"cryptocurrency",
	"artificial intelligence finance",
}

// ErrAllQueriesFailed is returned when no query produced a response.
var ErrAllQueriesFailed = errors.New("newsapi: all queries failed")

// Config holds NewsAPI credentials and request shaping.
type Config struct {
	// APIKey empty disables the source; Fetch then returns nothing.
	APIKey   string
	BaseURL  string
	Queries  []string
	Language string
	PageSize int
	Timeout  time.Duration
	// RequestsPerSecond paces queries within one fetch.
	RequestsPerSecond float64
	Retry             retry.Config
}

// DefaultConfig returns the query set and limits used in production.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Queries:           DefaultQueries,
		Language:          "en",
		PageSize:          10,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 1,
		Retry:             retry.NewsAPIConfig(),
	}
}

// Client implements ingest.Source for NewsAPI.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if len(cfg.Queries) == 0 {
		cfg.Queries = def.Queries
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = def.Retry
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		breaker: circuitbreaker.New(circuitbreaker.NewsAPIConfig()),
		logger:  logger,
	}
}

func (c *Client) Name() string { return SourceName }

// Fetch runs every query and returns the combined articles.
// A failed query is logged and skipped. Without an API key the source is
// skipped with a warning and returns no articles.
func (c *Client) Fetch(ctx context.Context) ([]ingest.RawArticle, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("NEWS_API_KEY not set, skipping newsapi source")
		return nil, nil
	}

	var out []ingest.RawArticle
	failed := 0
	for _, query := range c.cfg.Queries {
		articles, err := c.fetchQuery(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			failed++
			c.logger.Warn("newsapi query failed",
				slog.String("query", query),
				slog.Any("error", err))
			continue
		}
		out = append(out, articles...)
	}

	if failed == len(c.cfg.Queries) {
		return nil, ErrAllQueriesFailed
	}
	return out, nil
}

func (c *Client) fetchQuery(ctx context.Context, query string) ([]ingest.RawArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var articles []ingest.RawArticle
	err := retry.WithBackoff(ctx, c.cfg.Retry, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, query)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				c.logger.Warn("newsapi circuit breaker open, request rejected",
					slog.String("query", query),
					slog.String("state", c.breaker.State().String()))
			}
			return err
		}
		articles = result.([]ingest.RawArticle)
		return nil
	})
	return articles, err
}

// response is the subset of the NewsAPI payload that is used.
type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

func (c *Client) requestURL(query string) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("language", c.cfg.Language)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doRequest(ctx context.Context, query string) ([]ingest.RawArticle, error) {
	target, err := c.requestURL(query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var body response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && body.Message != "" {
			msg = body.Message
		}
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %s", body.Status, body.Message)
	}

	out := make([]ingest.RawArticle, 0, len(body.Articles))
	for _, a := range body.Articles {
		out = append(out, toRaw(a))
	}
	return out, nil
}

func toRaw(a article) ingest.RawArticle {
	raw := ingest.RawArticle{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
		Source:      a.Source.Name,
	}
	if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
		raw.PublishedAt = t
	}
	return raw
}
