package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/repository"
)

// SubscriptionRepo stores subscriptions in SQLite. Categories are kept as a
// JSON array in a TEXT column.
type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `user_id, endpoint, p256dh, auth, enabled, categories, frequency,
       quiet_enabled, quiet_start, quiet_end, timezone, active, last_notified, created_at`

func scanSubscription(s rowScanner) (*entity.Subscription, error) {
	var (
		sub        entity.Subscription
		categories string
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
	if err := json.Unmarshal([]byte(categories), &sub.Preferences.Categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if len(sub.Preferences.Categories) == 0 {
		sub.Preferences.Categories = nil
	}
	return &sub, nil
}

func encodeCategories(cs []entity.Category) (string, error) {
	if cs == nil {
		cs = []entity.Category{}
	}
	b, err := json.Marshal(cs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (repo *SubscriptionRepo) Get(ctx context.Context, userID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE user_id = ?
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
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	p := sub.Preferences
	categories, err := encodeCategories(p.Categories)
	if err != nil {
		return fmt.Errorf("Create: encode categories: %w", err)
	}
	_, err = repo.db.ExecContext(ctx, query,
		sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth,
		p.Enabled, categories, string(p.Frequency),
		p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End, p.Timezone,
		sub.Active, utcPtr(sub.LastNotified), sub.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) UpdatePreferences(ctx context.Context, userID string, p entity.Preferences) error {
	const query = `
UPDATE subscriptions SET
       enabled = ?, categories = ?, frequency = ?,
       quiet_enabled = ?, quiet_start = ?, quiet_end = ?, timezone = ?
WHERE user_id = ?`
	categories, err := encodeCategories(p.Categories)
	if err != nil {
		return fmt.Errorf("UpdatePreferences: encode categories: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, query,
		p.Enabled, categories, string(p.Frequency),
		p.QuietHours.Enabled, p.QuietHours.Start, p.QuietHours.End, p.Timezone,
		userID,
	)
	if err != nil {
		return fmt.Errorf("UpdatePreferences: %w", err)
	}
	return requireAffected(res, "UpdatePreferences")
}

func (repo *SubscriptionRepo) Delete(ctx context.Context, userID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireAffected(res, "Delete")
}

func (repo *SubscriptionRepo) ListActive(ctx context.Context) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE active = 1
ORDER BY created_at ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: QueryContext: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows.Err: %w", err)
	}
	return subs, nil
}

func (repo *SubscriptionRepo) TouchLastNotified(ctx context.Context, userID string, t time.Time) error {
	const query = `UPDATE subscriptions SET last_notified = ? WHERE user_id = ?`
	if _, err := repo.db.ExecContext(ctx, query, t.UTC(), userID); err != nil {
		return fmt.Errorf("TouchLastNotified: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) Deactivate(ctx context.Context, userID string) error {
	const query = `UPDATE subscriptions SET active = 0 WHERE user_id = ?`
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
