package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/observability/metrics"
	"fintech-news/internal/repository"
	"fintech-news/internal/usecase/classify"
	"fintech-news/internal/usecase/notify"
)

// RegisterInput carries a browser push registration.
// Nil Preferences registers with entity.DefaultPreferences.
type RegisterInput struct {
	Endpoint    string
	Keys        entity.PushKeys
	Preferences *entity.Preferences
}

// PreviewInput describes an article to evaluate against a subscription.
// An empty Category is filled in by the classifier.
type PreviewInput struct {
	Title       string
	Summary     string
	Content     string
	URL         string
	Category    entity.Category
	PublishedAt time.Time
}

// PreviewResult is what the dispatcher would do with the article right now.
type PreviewResult struct {
	Decision      notify.Decision
	Category      entity.Category
	Urgency       entity.UrgencyTier
	NextBatchTime time.Time
	Payload       notify.Payload
}

// Service provides subscription management use cases.
type Service struct {
	Repo repository.SubscriptionRepository
	// Options supplies the default quiet-hours zone used by Preview.
	Options notify.Options
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register stores a new active subscription under a fresh user ID.
func (s *Service) Register(ctx context.Context, in RegisterInput) (sub *entity.Subscription, err error) {
	defer func() { metrics.RecordSubscriptionOperation("register", err) }()

	prefs := entity.DefaultPreferences()
	if in.Preferences != nil {
		prefs = *in.Preferences
	}

	sub = &entity.Subscription{
		UserID:      uuid.NewString(),
		Endpoint:    strings.TrimSpace(in.Endpoint),
		Keys:        in.Keys,
		Preferences: prefs,
		Active:      true,
		CreatedAt:   s.now().UTC(),
	}
	if err := entity.ValidateSubscription(sub); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// Get returns the subscription for userID, active or not.
func (s *Service) Get(ctx context.Context, userID string) (*entity.Subscription, error) {
	if userID == "" {
		return nil, &entity.ValidationError{Field: "userId", Message: "is required"}
	}
	sub, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// UpdatePreferences replaces the delivery preferences of userID.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs entity.Preferences) (err error) {
	defer func() { metrics.RecordSubscriptionOperation("update_preferences", err) }()

	if userID == "" {
		return &entity.ValidationError{Field: "userId", Message: "is required"}
	}
	if err := entity.ValidatePreferences(prefs); err != nil {
		return err
	}

	if err := s.Repo.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// Unregister removes the subscription of userID.
func (s *Service) Unregister(ctx context.Context, userID string) (err error) {
	defer func() { metrics.RecordSubscriptionOperation("unregister", err) }()

	if userID == "" {
		return &entity.ValidationError{Field: "userId", Message: "is required"}
	}
	if err := s.Repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrSubscriptionNotFound
		}
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Preview evaluates the article against the subscription of userID as the
// dispatcher would at this moment. Nothing is sent or recorded.
func (s *Service) Preview(ctx context.Context, userID string, in PreviewInput) (*PreviewResult, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &entity.ValidationError{Field: "title", Message: "is required"}
	}
	if in.Category != "" && !in.Category.IsValid() {
		return nil, &entity.ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	}

	sub, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	article := &entity.Article{
		ID:          "preview",
		Title:       in.Title,
		Summary:     in.Summary,
		Content:     in.Content,
		URL:         in.URL,
		Category:    in.Category,
		PublishedAt: in.PublishedAt,
	}
	cls := classify.Classify(in.Title, in.Summary, in.Content)
	if article.Category == "" {
		article.Category = cls.Category
	}
	article.TechLevel = cls.TechLevel
	article.ReadingTime = cls.ReadingTime
	if article.PublishedAt.IsZero() {
		article.PublishedAt = now
	}

	loc := notify.SubscriberLocation(sub.Preferences.Timezone, s.Options.Location)
	return &PreviewResult{
		Decision:      notify.Decide(article, sub, now, s.Options),
		Category:      article.Category,
		Urgency:       classify.ArticleUrgency(article),
		NextBatchTime: notify.NextBatchTime(sub.Preferences.Frequency, now, loc),
		Payload:       notify.BuildPayload([]*entity.Article{article}, sub.Preferences.Frequency),
	}, nil
}
