package article

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/repository"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListInput filters the recent article feed. Zero values are not applied.
type ListInput struct {
	Category string
	Since    time.Time
	Limit    int
}

// Service provides article read use cases.
type Service struct {
	Repo repository.ArticleRepository
}

// ListRecent returns the newest articles first.
func (s *Service) ListRecent(ctx context.Context, in ListInput) ([]*entity.Article, error) {
	filter := repository.ArticleFilter{Limit: in.Limit}

	if c := strings.TrimSpace(in.Category); c != "" {
		cat := entity.Category(c)
		if !cat.IsValid() {
			return nil, &entity.ValidationError{Field: "category", Message: "unknown category"}
		}
		filter.Category = &cat
	}
	switch {
	case in.Limit == 0:
		filter.Limit = DefaultLimit
	case in.Limit < 0 || in.Limit > MaxLimit:
		return nil, &entity.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("must be between 1 and %d", MaxLimit),
		}
	}
	if !in.Since.IsZero() {
		since := in.Since.UTC()
		filter.CreatedSince = &since
	}

	articles, err := s.Repo.ListRecent(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recent articles: %w", err)
	}
	return articles, nil
}

// Get returns one article.
func (s *Service) Get(ctx context.Context, id string) (*entity.Article, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "is required"}
	}
	a, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if a == nil {
		return nil, ErrArticleNotFound
	}
	return a, nil
}
