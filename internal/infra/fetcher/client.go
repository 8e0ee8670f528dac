// Package fetcher retrieves article pages over HTTP and extracts their
// readable text. Outbound requests go through an SSRF-safe client.
package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// UserAgent identifies the crawler to publishers.
const UserAgent = "FintechNewsBot/1.0"

const defaultTimeout = 10 * time.Second

// Sentinel errors for page fetching.
var (
	ErrInvalidURL        = errors.New("invalid URL or unsupported scheme")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("request timeout")
	ErrReadabilityFailed = errors.New("content extraction failed")
)

// NewHTTPClient builds the client used for every publisher request.
// With DenyPrivateIPs the dialer refuses private, loopback, link-local and
// metadata addresses after DNS resolution, so redirects and rebinding are
// covered too.
func NewHTTPClient(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var client *http.Client
	if cfg.DenyPrivateIPs {
		safeCfg := safeurl.GetConfigBuilder().
			SetTimeout(cfg.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = safeurl.Client(safeCfg).Client
	} else {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	maxRedirects := cfg.MaxRedirects
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
		}
		return nil
	}
	return client
}
