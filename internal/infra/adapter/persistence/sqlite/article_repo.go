package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/repository"
)

// ArticleRepo implements the ArticleRepository interface using SQLite.
type ArticleRepo struct {
	db           *sql.DB
	queryBuilder *ArticleQueryBuilder
}

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db, queryBuilder: NewArticleQueryBuilder()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(s rowScanner) (*entity.Article, error) {
	var (
		a         entity.Article
		category  string
		techLevel string
	)
	if err := s.Scan(
		&a.ID, &a.Title, &a.Summary, &a.Content, &a.URL, &a.ImageURL, &a.Source,
		&a.PublishedAt, &category, &techLevel, &a.ReadingTime, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Category = entity.Category(category)
	a.TechLevel = entity.TechLevel(techLevel)
	return &a, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id string) (*entity.Article, error) {
	const query = `
SELECT id, title, summary, content, url, image_url, source,
       published_at, category, tech_level, reading_time, created_at, updated_at
FROM articles
WHERE id = ?
LIMIT 1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) ListRecent(ctx context.Context, filter repository.ArticleFilter) ([]*entity.Article, error) {
	query, args, err := repo.queryBuilder.BuildListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: build query: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, clampLimit(filter.Limit))
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRecent: Scan: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent: rows.Err: %w", err)
	}
	return articles, nil
}

// Create stores a. Timestamps are written in UTC so text comparison in
// ListRecent orders them correctly.
func (repo *ArticleRepo) Create(ctx context.Context, a *entity.Article) error {
	const query = `
INSERT INTO articles (id, title, summary, content, url, image_url, source,
                      published_at, category, tech_level, reading_time, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Summary, a.Content, a.URL, a.ImageURL, a.Source,
		a.PublishedAt.UTC(), string(a.Category), string(a.TechLevel), a.ReadingTime,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return make(map[string]bool), nil
	}

	query, args, err := repo.queryBuilder.BuildExistsQuery(urls)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: build query: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]bool, len(urls))
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: rows.Err: %w", err)
	}
	return result, nil
}
