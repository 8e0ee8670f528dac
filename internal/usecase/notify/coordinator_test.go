package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/observability/logging"
)

/* ───────── fakes ───────── */

type memSubscriptions struct {
	mu            sync.Mutex
	subs          map[string]*entity.Subscription
	listErr       error
	touchErr      error
	deactivateErr error
	touched       map[string]time.Time
	deactived     []string
}

func newMemSubscriptions(subs ...*entity.Subscription) *memSubscriptions {
	m := &memSubscriptions{subs: map[string]*entity.Subscription{}, touched: map[string]time.Time{}}
	for _, s := range subs {
		m.subs[s.UserID] = s
	}
	return m
}

func (m *memSubscriptions) Get(_ context.Context, id string) (*entity.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id], nil
}

func (m *memSubscriptions) Create(_ context.Context, s *entity.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.UserID] = s
	return nil
}

func (m *memSubscriptions) UpdatePreferences(_ context.Context, id string, p entity.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return entity.ErrNotFound
	}
	s.Preferences = p
	return nil
}

func (m *memSubscriptions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
	return nil
}

func (m *memSubscriptions) ListActive(_ context.Context) ([]*entity.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*entity.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		if s.Active {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptions) TouchLastNotified(_ context.Context, id string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touched[id] = t
	if s, ok := m.subs[id]; ok {
		s.LastNotified = &t
	}
	return nil
}

func (m *memSubscriptions) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	m.deactived = append(m.deactived, id)
	if s, ok := m.subs[id]; ok {
		s.Active = false
	}
	return nil
}

// nilEntrySubscriptions returns a nil entry alongside the stored subscribers.
type nilEntrySubscriptions struct {
	*memSubscriptions
}

func (n nilEntrySubscriptions) ListActive(ctx context.Context) ([]*entity.Subscription, error) {
	subs, err := n.memSubscriptions.ListActive(ctx)
	return append(subs, nil), err
}

func (m *memSubscriptions) active(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id].Active
}

type scriptedDelivery struct {
	mu       sync.Mutex
	outcomes map[string]DeliveryOutcome
	errs     map[string]error
	panics   map[string]bool
	payloads map[string]Payload
}

func newScriptedDelivery() *scriptedDelivery {
	return &scriptedDelivery{
		outcomes: map[string]DeliveryOutcome{},
		errs:     map[string]error{},
		panics:   map[string]bool{},
		payloads: map[string]Payload{},
	}
}

func (d *scriptedDelivery) Deliver(_ context.Context, target Target, payload []byte) (DeliveryOutcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panics[target.UserID] {
		panic("push transport exploded")
	}
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return TransientFailure, err
	}
	d.payloads[target.UserID] = p
	return d.outcomes[target.UserID], d.errs[target.UserID]
}

func (d *scriptedDelivery) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

func activeSub(id string, mutate func(s *entity.Subscription)) *entity.Subscription {
	s := subscriber(mutate)
	s.UserID = id
	s.Endpoint = "https://push.example.com/" + id
	return s
}

/* ───────── 1. NotifySubscribers ───────── */

func TestNotifySubscribers_OneOfEach(t *testing.T) {
	// Arrange
	a := activeSub("A", nil)
	b := activeSub("B", func(s *entity.Subscription) {
		s.Preferences.QuietHours = entity.QuietHours{Enabled: true, Start: "11:00", End: "13:00"}
	})
	c := activeSub("C", nil)
	repo := newMemSubscriptions(a, b, c)

	delivery := newScriptedDelivery()
	delivery.outcomes["A"] = Delivered
	delivery.outcomes["C"] = PermanentFailure
	delivery.errs["C"] = fmt.Errorf("status 410: %w", ErrPermanentFailure)

	coord := NewCoordinator(repo, delivery, Options{Concurrency: 3}, nil)

	// Act
	res, err := coord.NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 1, Skipped: 1}, res)
	assert.True(t, repo.active("A"))
	assert.True(t, repo.active("B"))
	assert.False(t, repo.active("C"))
	assert.Equal(t, []string{"C"}, repo.deactived)
	assert.Equal(t, map[string]time.Time{"A": noon}, repo.touched)
}

func TestNotifySubscribers_TransientFailureKeepsSubscriber(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	delivery := newScriptedDelivery()
	delivery.outcomes["A"] = TransientFailure
	delivery.errs["A"] = fmt.Errorf("status 503: %w", ErrTransientFailure)

	res, err := NewCoordinator(repo, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.True(t, repo.active("A"))
	assert.Empty(t, repo.deactived)
	assert.Empty(t, repo.touched)
}

func TestNotifySubscribers_DeactivateFailureStillCountsFailed(t *testing.T) {
	// Arrange
	repo := newMemSubscriptions(activeSub("A", nil))
	repo.deactivateErr = errors.New("database is locked")
	delivery := newScriptedDelivery()
	delivery.outcomes["A"] = PermanentFailure
	delivery.errs["A"] = fmt.Errorf("status 410: %w", ErrPermanentFailure)

	writebackBefore := testutil.ToFloat64(writebackFailuresTotal.WithLabelValues("deactivate"))
	deactivationsBefore := testutil.ToFloat64(subscriberDeactivationsTotal)

	// Act
	res, err := NewCoordinator(repo, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.True(t, repo.active("A"))
	assert.Empty(t, repo.deactived)
	assert.Equal(t, writebackBefore+1, testutil.ToFloat64(writebackFailuresTotal.WithLabelValues("deactivate")))
	assert.Equal(t, deactivationsBefore, testutil.ToFloat64(subscriberDeactivationsTotal))
}

func TestNotifySubscribers_NilSubscriberIsFailure(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	delivery := newScriptedDelivery()
	delivery.outcomes["A"] = Delivered

	res, err := NewCoordinator(nilEntrySubscriptions{repo}, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1, Failed: 1}, res)
	assert.Equal(t, 1, delivery.calls())
}

func TestNotifySubscribers_ErrorWithDeliveredOutcomeIsFailure(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	delivery := newScriptedDelivery()
	delivery.errs["A"] = errors.New("connection reset")

	res, err := NewCoordinator(repo, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)
	assert.True(t, repo.active("A"))
}

func TestNotifySubscribers_PanicIsIsolated(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil), activeSub("B", nil), activeSub("C", nil))
	delivery := newScriptedDelivery()
	delivery.panics["B"] = true

	res, err := NewCoordinator(repo, delivery, Options{Concurrency: 2}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 1}, res)
	assert.True(t, repo.active("B"))
}

func TestNotifySubscribers_TouchFailureStillSent(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	repo.touchErr = errors.New("db down")

	res, err := NewCoordinator(repo, newScriptedDelivery(), Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 1}, res)
}

func TestNotifySubscribers_InactiveNeverCandidates(t *testing.T) {
	inactive := activeSub("gone", func(s *entity.Subscription) { s.Active = false })
	repo := newMemSubscriptions(inactive, activeSub("A", nil))
	delivery := newScriptedDelivery()

	res, err := NewCoordinator(repo, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total())
	_, called := delivery.payloads["gone"]
	assert.False(t, called)
}

func TestNotifySubscribers_ListError(t *testing.T) {
	repo := newMemSubscriptions()
	repo.listErr = errors.New("connection refused")

	res, err := NewCoordinator(repo, newScriptedDelivery(), Options{}, nil).
		NotifySubscribers(context.Background(), plainArticle(entity.CategoryFintech), noon)

	assert.Error(t, err)
	assert.ErrorContains(t, err, "list active subscribers")
	assert.Equal(t, Result{}, res)
}

func TestNotifySubscribers_InvalidArticle(t *testing.T) {
	coord := NewCoordinator(newMemSubscriptions(), newScriptedDelivery(), Options{}, nil)

	_, err := coord.NotifySubscribers(context.Background(), nil, noon)
	assert.ErrorIs(t, err, ErrInvalidArticle)

	_, err = coord.NotifySubscribers(context.Background(), &entity.Article{ID: "x"}, noon)
	assert.ErrorIs(t, err, ErrInvalidArticle)
}

func TestNotifySubscribers_CancelledContextStillCompletes(t *testing.T) {
	subs := make([]*entity.Subscription, 0, 20)
	for i := 0; i < 20; i++ {
		subs = append(subs, activeSub(fmt.Sprintf("u%02d", i), nil))
	}
	repo := newMemSubscriptions(subs...)
	delivery := newScriptedDelivery()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewCoordinator(repo, delivery, Options{Concurrency: 4}, nil).
		NotifySubscribers(ctx, plainArticle(entity.CategoryFintech), noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 20}, res)
	assert.Equal(t, 20, delivery.calls())
}

func TestNotifySubscribers_PayloadForSingleArticle(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	delivery := newScriptedDelivery()
	article := urgentArticle(entity.CategoryFintech)

	_, err := NewCoordinator(repo, delivery, Options{}, nil).
		NotifySubscribers(context.Background(), article, midnight)

	require.NoError(t, err)
	p := delivery.payloads["A"]
	assert.Equal(t, "🔴 Breaking: "+article.Title, p.Body)
	assert.Equal(t, "/articles/"+article.ID, p.Data.URL)
}

func TestNotifySubscribers_RecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	repo := newMemSubscriptions(activeSub("A", nil))
	ctx := logging.ContextWithRequestID(context.Background(), "req-123")

	_, err := NewCoordinator(repo, newScriptedDelivery(), Options{}, nil).
		NotifySubscribers(ctx, plainArticle(entity.CategoryFintech), noon)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "notify.dispatch", spans[0].Name)

	attrs := map[string]int64{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInt64()
	}
	assert.Equal(t, int64(1), attrs["dispatch.sent"])
}

/* ───────── 2. NotifyDigest ───────── */

func TestNotifyDigest_SummarizesEligibleArticles(t *testing.T) {
	aiOnly := activeSub("ai", func(s *entity.Subscription) {
		s.Preferences.Categories = []entity.Category{entity.CategoryAIML}
		s.Preferences.Frequency = entity.FrequencyHourly
	})
	everything := activeSub("all", func(s *entity.Subscription) { s.Preferences.Frequency = entity.FrequencyDaily })
	security := activeSub("sec", func(s *entity.Subscription) {
		s.Preferences.Categories = []entity.Category{entity.CategorySecurity}
	})
	repo := newMemSubscriptions(aiOnly, everything, security)
	delivery := newScriptedDelivery()

	articles := []*entity.Article{
		{ID: "1", Title: "Model risk in lending", Category: entity.CategoryAIML},
		{ID: "2", Title: "Stablecoin rules", Category: entity.CategoryBlockchain},
		{ID: "3", Title: "Neural credit scoring", Category: entity.CategoryAIML},
	}

	res, err := NewCoordinator(repo, delivery, Options{Concurrency: 2}, nil).
		NotifyDigest(context.Background(), articles, noon)

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Skipped: 1}, res)
	assert.Equal(t, "2 new articles in the last hour", delivery.payloads["ai"].Body)
	assert.Equal(t, "3 new articles today", delivery.payloads["all"].Body)
	_, called := delivery.payloads["sec"]
	assert.False(t, called)
}

func TestNotifyDigest_SingleEligibleUsesTitle(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", func(s *entity.Subscription) {
		s.Preferences.Categories = []entity.Category{entity.CategoryCloud}
	}))
	delivery := newScriptedDelivery()
	articles := []*entity.Article{
		{ID: "1", Title: "Core banking on Kubernetes", Category: entity.CategoryCloud},
		{ID: "2", Title: "Token listing", Category: entity.CategoryBlockchain},
	}

	_, err := NewCoordinator(repo, delivery, Options{}, nil).NotifyDigest(context.Background(), articles, noon)

	require.NoError(t, err)
	assert.Equal(t, "Core banking on Kubernetes", delivery.payloads["A"].Body)
	assert.Equal(t, "1", delivery.payloads["A"].Data.ArticleID)
}

func TestNotifyDigest_NoArticles(t *testing.T) {
	repo := newMemSubscriptions(activeSub("A", nil))
	repo.listErr = errors.New("must not be called")

	res, err := NewCoordinator(repo, newScriptedDelivery(), Options{}, nil).
		NotifyDigest(context.Background(), []*entity.Article{nil}, noon)

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}
