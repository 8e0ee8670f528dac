package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/repository"
)

type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `user_id, endpoint, p256dh, auth, enabled, categories, frequency,
       quiet_enabled, quiet_start, quiet_end, timezone, active, last_notified, created_at`

func scanSubscription(s rowScanner) (*entity.Subscription, error) {
	var (
		sub        entity.Subscription
		categories pq.StringArray
		frequency  string
	)
	if err := s.Scan(
		&sub.UserID, &sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth,
		&sub.Preferences.Enabled, &categories, &frequency,
		&sub.Preferences.QuietHours.Enabled, &sub.Preferences.QuietHours.Start, &sub.Preferences.QuietHours.End,
		&sub.Preferences.Timezone, &sub.Active, &sub.LastNotified, &sub.CreatedAt,
	); err != nil {
		return nil, err
	}
	sub.Preferences.Frequency = entity.Frequency(frequency)
	sub.Preferences.Categories = toCategories(categories)
	return &sub, nil
}

func toCategories(in []string) []entity.Category {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.Category, len(in))
	for i, c := range in {
		out[i] = entity.Category(c)
	}
	return out
}

func fromCategories(in []entity.Category) pq.StringArray {
	out := make(pq.StringArray, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}

func (repo *SubscriptionRepo) Get(ctx context.Context, userID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE user_id = $1
LIMIT 1`
	sub, err := scanSubscription(repo.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return sub, nil
}

func (repo *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	const query = `
INSERT INTO subscriptions (user_id, endpoint, p256dh, auth, enabled, categories, frequency,
                           quiet_enabled, quiet_start, quiet_end, timezone, active, last_notified, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	p := sub.Preferences
	_, err := repo.db.ExecContext(ctx, query,
		sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth,
		p.Enabled, fromCategories(p.Categories), string(p.Frequency),
		p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End, p.Timezone,
		sub.Active, sub.LastNotified, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) UpdatePreferences(ctx context.Context, userID string, p entity.Preferences) error {
	const query = `
UPDATE subscriptions SET
       enabled       = $1,
       categories    = $2,
       frequency     = $3,
       quiet_enabled = $4,
       quiet_start   = $5,
       quiet_end     = $6,
       timezone      = $7
WHERE user_id = $8`
	res, err := repo.db.ExecContext(ctx, query,
		p.Enabled, fromCategories(p.Categories), string(p.Frequency),
		p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End, p.Timezone,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdatePreferences: %w", err)
	}
	return requireAffected(res, "UpdatePreferences")
}

func (repo *SubscriptionRepo) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM subscriptions WHERE user_id = $1`
	res, err := repo.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireAffected(res, "Delete")
}

func (repo *SubscriptionRepo) ListActive(ctx context.Context) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE active = TRUE
ORDER BY created_at ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, 64)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: Scan: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (repo *SubscriptionRepo) TouchLastNotified(ctx context.Context, userID string, t time.Time) error {
	const query = `UPDATE subscriptions SET last_notified = $1 WHERE user_id = $2`
	if _, err := repo.db.ExecContext(ctx, query, t, userID); err != nil {
		return fmt.Errorf("TouchLastNotified: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) Deactivate(ctx context.Context, userID string) error {
	const query = `UPDATE subscriptions SET active = FALSE WHERE user_id = $1`
	if _, err := repo.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: RowsAffected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
	}
	return nil
}
