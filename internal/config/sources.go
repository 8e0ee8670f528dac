// Package config loads application settings that do not fit in single
// environment variables: the ingestion source list (YAML) and the
// web-push delivery settings.
package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Source types accepted in the sources file.
const (
	SourceTypeRSS  = "rss"
	SourceTypeHTML = "html"
)

// defaultNewsAPIQueries mirrors the newsapi client defaults so an absent
// file still yields a useful configuration.
var defaultNewsAPIQueries = []string{
	"fintech",
	"financial technology",
	"blockchain",
	"cryptocurrency",
	"artificial intelligence finance",
}

// SourcesConfig is the ingestion source list.
//
//	newsapi:
//	  enabled: true
//	  queries: [fintech, blockchain]
//	feeds:
//	  - name: fin-daily
//	    type: rss
//	    url: https://example.com/feed.xml
//	  - name: central-news
//	    type: html
//	    url: https://example.com/news
//	    selectors: {item: .post, title: h3, link: a}
type SourcesConfig struct {
	NewsAPI NewsAPISource `yaml:"newsapi"`
	Feeds   []FeedSource  `yaml:"feeds"`
}

// NewsAPISource configures the NewsAPI source. The key itself comes from
// NEWS_API_KEY and never from the file.
type NewsAPISource struct {
	Enabled  bool     `yaml:"enabled"`
	Queries  []string `yaml:"queries"`
	Language string   `yaml:"language"`
	PageSize int      `yaml:"page_size"`
}

// FeedSource is one RSS/Atom feed or HTML listing page.
type FeedSource struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	URL       string         `yaml:"url"`
	Selectors *HTMLSelectors `yaml:"selectors"`
}

// HTMLSelectors are CSS selectors for html sources.
type HTMLSelectors struct {
	Item        string `yaml:"item"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	DateFormat  string `yaml:"date_format"`
}

// DefaultSourcesConfig is used when no sources file is configured:
// NewsAPI only, with the default queries.
func DefaultSourcesConfig() *SourcesConfig {
	return &SourcesConfig{
		NewsAPI: NewsAPISource{
			Enabled:  true,
			Queries:  append([]string(nil), defaultNewsAPIQueries...),
			Language: "en",
			PageSize: 10,
		},
	}
}

// LoadSourcesConfig reads and validates the sources file. An empty path
// returns DefaultSourcesConfig.
// The path parameter is expected to come from a trusted source (environment or CLI flag).
func LoadSourcesConfig(path string) (*SourcesConfig, error) {
	if path == "" {
		return DefaultSourcesConfig(), nil
	}

	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSourcesConfig(data)
}

// ParseSourcesConfig parses YAML sources. Omitted newsapi fields take
// their defaults.
func ParseSourcesConfig(data []byte) (*SourcesConfig, error) {
	cfg := DefaultSourcesConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(cfg.NewsAPI.Queries) == 0 {
		cfg.NewsAPI.Queries = append([]string(nil), defaultNewsAPIQueries...)
	}

	if err := validateSourcesConfig(cfg); err != nil {
		return nil, fmt.Errorf("sources validation failed: %w", err)
	}
	return cfg, nil
}

func validateSourcesConfig(cfg *SourcesConfig) error {
	if cfg.NewsAPI.PageSize < 1 || cfg.NewsAPI.PageSize > 100 {
		return fmt.Errorf("newsapi page_size must be between 1 and 100")
	}

	seen := make(map[string]bool, len(cfg.Feeds))
	for i, feed := range cfg.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feeds[%d]: name is required", i)
		}
		if seen[feed.Name] {
			return fmt.Errorf("feeds[%d]: duplicate name %q", i, feed.Name)
		}
		seen[feed.Name] = true

		u, err := url.Parse(feed.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("feed %s: url must be an absolute http(s) URL", feed.Name)
		}

		switch feed.Type {
		case SourceTypeRSS, "":
		case SourceTypeHTML:
			s := feed.Selectors
			if s == nil || s.Item == "" || s.Title == "" || s.Link == "" {
				return fmt.Errorf("feed %s: html sources need item, title and link selectors", feed.Name)
			}
		default:
			return fmt.Errorf("feed %s: unknown type %q", feed.Name, feed.Type)
		}
	}
	return nil
}
