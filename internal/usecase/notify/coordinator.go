// Package notify decides which subscribers should hear about new articles
// and dispatches push notifications to them.
//
// Decision logic (IsQuietNow, Decide, GenerateMessage) is pure and takes an
// explicit now. The Coordinator adds the I/O: it lists active subscribers,
// delivers to the eligible ones, and writes back last-notified stamps and
// deactivations.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/observability/logging"
	"fintech-news/internal/observability/tracing"
	"fintech-news/internal/repository"
)

const defaultDeliveryTimeout = 30 * time.Second

const (
	modeArticle = "article"
	modeDigest  = "digest"
)

// Result is the aggregate of one dispatch pass. Every subscriber considered
// lands in exactly one counter.
type Result struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Total returns the number of subscribers considered.
func (r Result) Total() int { return r.Sent + r.Failed + r.Skipped }

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeSkipped
)

// tally is shared by the workers of one pass.
type tally struct {
	mu sync.Mutex
	r  Result
}

func (t *tally) add(o outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch o {
	case outcomeSent:
		t.r.Sent++
	case outcomeFailed:
		t.r.Failed++
	default:
		t.r.Skipped++
	}
}

// planFunc decides, for one subscriber, whether to send and what.
// A nil payload means skip; the Decision is the reason.
type planFunc func(sub *entity.Subscription) (Decision, *Payload)

// Coordinator runs dispatch passes over all active subscribers.
type Coordinator struct {
	subs     repository.SubscriptionRepository
	delivery Delivery
	opts     Options
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. A nil logger uses slog.Default().
func NewCoordinator(subs repository.SubscriptionRepository, delivery Delivery, opts Options, logger *slog.Logger) *Coordinator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{subs: subs, delivery: delivery, opts: opts, logger: logger}
}

// NotifySubscribers sends one article to every eligible active subscriber.
//
// The returned error is non-nil only when the pass could not start. Once
// started, the pass always finishes: cancelling ctx does not abandon
// subscribers, each delivery is bounded by Options.DeliveryTimeout instead.
func (c *Coordinator) NotifySubscribers(ctx context.Context, article *entity.Article, now time.Time) (Result, error) {
	if article == nil || article.ID == "" || article.Title == "" {
		return Result{}, ErrInvalidArticle
	}

	articles := []*entity.Article{article}
	return c.run(ctx, modeArticle, now, func(sub *entity.Subscription) (Decision, *Payload) {
		d := Decide(article, sub, now, c.opts)
		if d != Allow {
			return d, nil
		}
		p := BuildPayload(articles, sub.Preferences.Frequency)
		return d, &p
	})
}

// NotifyDigest sends each subscriber one summary of the articles they are
// eligible for. Subscribers eligible for none are skipped with the reason
// reported for the first article.
func (c *Coordinator) NotifyDigest(ctx context.Context, articles []*entity.Article, now time.Time) (Result, error) {
	valid := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		if a != nil {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		return Result{}, nil
	}

	return c.run(ctx, modeDigest, now, func(sub *entity.Subscription) (Decision, *Payload) {
		eligible := make([]*entity.Article, 0, len(valid))
		first := Allow
		for i, a := range valid {
			d := Decide(a, sub, now, c.opts)
			if i == 0 {
				first = d
			}
			if d == Allow {
				eligible = append(eligible, a)
			}
		}
		if len(eligible) == 0 {
			return first, nil
		}
		p := BuildPayload(eligible, sub.Preferences.Frequency)
		return Allow, &p
	})
}

func (c *Coordinator) run(ctx context.Context, mode string, now time.Time, plan planFunc) (Result, error) {
	ctx, requestID := logging.EnsureRequestID(ctx)
	logger := c.logger.With(slog.String("request_id", requestID), slog.String("mode", mode))

	ctx, span := tracing.GetTracer().Start(ctx, "notify.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("dispatch.mode", mode))

	start := time.Now()

	subs, err := c.subs.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list active subscribers")
		return Result{}, fmt.Errorf("list active subscribers: %w", err)
	}

	logger.Info("Dispatch pass started", slog.Int("subscribers", len(subs)))

	// In-flight subscribers are never abandoned, so workers run on a
	// context that ignores the caller's cancellation.
	workCtx := context.WithoutCancel(ctx)

	var (
		t tally
		g errgroup.Group
	)
	g.SetLimit(c.opts.Concurrency)

	for _, sub := range subs {
		g.Go(func() error {
			activeDispatchWorkers.Inc()
			defer activeDispatchWorkers.Dec()

			t.add(c.process(workCtx, logger, sub, now, plan))
			return nil
		})
	}
	_ = g.Wait()

	result := t.r
	RecordPass(mode, result, time.Since(start))
	span.SetAttributes(
		attribute.Int("dispatch.subscribers", len(subs)),
		attribute.Int("dispatch.sent", result.Sent),
		attribute.Int("dispatch.failed", result.Failed),
		attribute.Int("dispatch.skipped", result.Skipped),
	)

	logger.Info("Dispatch pass completed",
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// process runs read-decide-act for one subscriber. Panics are recovered
// and counted as failures.
func (c *Coordinator) process(ctx context.Context, logger *slog.Logger, sub *entity.Subscription, now time.Time, plan planFunc) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while dispatching to subscriber",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			out = outcomeFailed
		}
	}()

	if sub == nil {
		logger.Warn("Nil subscriber in active list")
		return outcomeFailed
	}
	logger = logger.With(slog.String("user_id", sub.UserID))

	decision, payload := plan(sub)
	RecordDecision(decision)
	if payload == nil {
		logger.Debug("Subscriber skipped", slog.String("decision", decision.String()))
		return outcomeSkipped
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode push payload", slog.Any("error", err))
		return outcomeFailed
	}

	dctx, cancel := context.WithTimeout(ctx, c.opts.DeliveryTimeout)
	defer cancel()

	target := Target{UserID: sub.UserID, Endpoint: sub.Endpoint, Keys: sub.Keys}
	started := time.Now()
	result, deliverErr := c.delivery.Deliver(dctx, target, body)
	if deliverErr != nil && result == Delivered {
		result = TransientFailure
	}
	if errors.Is(deliverErr, ErrPermanentFailure) {
		result = PermanentFailure
	}
	RecordDelivery(result, time.Since(started))

	switch result {
	case Delivered:
		if err := c.subs.TouchLastNotified(ctx, sub.UserID, now); err != nil {
			RecordWritebackFailure("touch_last_notified")
			logger.Warn("Failed to stamp last notified", slog.Any("error", err))
		}
		logger.Info("Push delivered", slog.String("body", payload.Body))
		return outcomeSent

	case PermanentFailure:
		if err := c.subs.Deactivate(ctx, sub.UserID); err != nil {
			RecordWritebackFailure("deactivate")
			logger.Error("Failed to deactivate subscriber", slog.Any("error", err))
		} else {
			RecordDeactivation()
			logger.Info("Subscriber deactivated after permanent delivery failure", slog.Any("error", deliverErr))
		}
		return outcomeFailed

	default:
		logger.Warn("Push delivery failed",
			slog.String("outcome", result.String()),
			slog.Any("error", deliverErr))
		return outcomeFailed
	}
}
