// Package notifier delivers encoded notification payloads to browser push
// services using the Web Push protocol with VAPID authentication.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"fintech-news/internal/resilience/circuitbreaker"
	"fintech-news/internal/usecase/notify"
)

// WebPushConfig contains VAPID credentials and transport limits.
type WebPushConfig struct {
	// Subject is the VAPID contact, a mailto: address or https URL
	Subject         string
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// TTL is how long the push service keeps an undelivered message
	TTL time.Duration

	// Timeout bounds one HTTP request to a push service
	Timeout time.Duration

	RequestsPerSecond float64
	Burst             int
}

// DefaultWebPushConfig returns limits suitable for a single worker.
// Credentials are left empty.
func DefaultWebPushConfig() WebPushConfig {
	return WebPushConfig{
		TTL:               24 * time.Hour,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 50,
		Burst:             20,
	}
}

// ErrMissingVAPIDKeys is returned by NewWebPushNotifier when either key is empty.
var ErrMissingVAPIDKeys = errors.New("VAPID key pair is required")

type sendFunc func(ctx context.Context, payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// WebPushNotifier implements notify.Delivery. It does not retry: a failed
// delivery is reported as transient and picked up by the next pass.
//
// Each push service host gets its own circuit breaker, so an outage at one
// vendor does not block endpoints hosted by another.
type WebPushNotifier struct {
	cfg         WebPushConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breakerCfg  circuitbreaker.Config
	breakers    sync.Map // host -> *circuitbreaker.CircuitBreaker
	send        sendFunc
}

func NewWebPushNotifier(cfg WebPushConfig) (*WebPushNotifier, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, ErrMissingVAPIDKeys
	}

	cbCfg := circuitbreaker.PushServiceConfig()
	// Vanished or malformed subscriptions say nothing about the push service's health.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, notify.ErrPermanentFailure) ||
			errors.Is(err, errSubscriberScoped)
	}

	return &WebPushNotifier{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		breakerCfg:  cbCfg,
		send:        webpush.SendNotificationWithContext,
	}, nil
}

// Deliver encrypts payload for target and posts it to the push service.
func (n *WebPushNotifier) Deliver(ctx context.Context, target notify.Target, payload []byte) (notify.DeliveryOutcome, error) {
	if err := n.rateLimiter.Allow(ctx); err != nil {
		return notify.TransientFailure, fmt.Errorf("rate limiter: %w", err)
	}

	breaker := n.breakerFor(target.Endpoint)
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, target, payload)
	})

	outcome := outcomeOf(err)
	switch outcome {
	case notify.Delivered:
		return outcome, nil
	case notify.PermanentFailure:
		slog.Info("push subscription expired",
			slog.String("user_id", target.UserID),
			slog.Any("error", err))
	default:
		slog.Warn("push delivery failed",
			slog.String("user_id", target.UserID),
			slog.String("circuit", breaker.Name()),
			slog.Bool("circuit_open", breaker.IsOpen()),
			slog.Any("error", err))
	}
	return outcome, err
}

func (n *WebPushNotifier) post(ctx context.Context, target notify.Target, payload []byte) error {
	sub := &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.Keys.P256dh,
			Auth:   target.Keys.Auth,
		},
	}
	opts := &webpush.Options{
		HTTPClient:      n.httpClient,
		Subscriber:      n.cfg.Subject,
		VAPIDPublicKey:  n.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: n.cfg.VAPIDPrivateKey,
		TTL:             int(n.cfg.TTL / time.Second),
		Urgency:         webpush.UrgencyNormal,
	}

	resp, err := n.send(ctx, payload, sub, opts)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if isTransportError(err) {
			return fmt.Errorf("send push: %w", err)
		}
		// Key decoding and payload encryption fail before any request is made.
		return fmt.Errorf("%w: send push: %w", errSubscriberScoped, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return classifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
}

// breakerFor returns the circuit breaker for the push service hosting endpoint.
func (n *WebPushNotifier) breakerFor(endpoint string) *circuitbreaker.CircuitBreaker {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	if cb, ok := n.breakers.Load(host); ok {
		return cb.(*circuitbreaker.CircuitBreaker)
	}
	cfg := n.breakerCfg
	cfg.Name = cfg.Name + ":" + host
	cb, _ := n.breakers.LoadOrStore(host, circuitbreaker.New(cfg))
	return cb.(*circuitbreaker.CircuitBreaker)
}
