package repository

import (
	"context"
	"time"

	"fintech-news/internal/domain/entity"
)

// ArticleFilter narrows ListRecent. Nil fields are not applied.
type ArticleFilter struct {
	Category     *entity.Category
	CreatedSince *time.Time
	// Limit caps the result size; <= 0 means the adapter default.
	Limit int
}

type ArticleRepository interface {
	// Get returns (nil, nil) when the article does not exist.
	Get(ctx context.Context, id string) (*entity.Article, error)
	// ListRecent returns articles ordered by published_at DESC.
	ListRecent(ctx context.Context, filter ArticleFilter) ([]*entity.Article, error)
	Create(ctx context.Context, article *entity.Article) error
	// ExistsByURLBatch checks many URLs in one round trip.
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
}
