package repository

import (
	"context"
	"time"

	"fintech-news/internal/domain/entity"
)

// SubscriptionRepository stores push registrations keyed by user ID.
type SubscriptionRepository interface {
	// Get returns (nil, nil) when the subscription does not exist.
	// Inactive subscriptions are returned.
	Get(ctx context.Context, userID string) (*entity.Subscription, error)
	Create(ctx context.Context, sub *entity.Subscription) error
	// UpdatePreferences returns entity.ErrNotFound when no row matched.
	UpdatePreferences(ctx context.Context, userID string, prefs entity.Preferences) error
	// Delete returns entity.ErrNotFound when no row matched.
	Delete(ctx context.Context, userID string) error
	// ListActive returns only subscriptions with Active set.
	ListActive(ctx context.Context) ([]*entity.Subscription, error)
	TouchLastNotified(ctx context.Context, userID string, t time.Time) error
	Deactivate(ctx context.Context, userID string) error
}
