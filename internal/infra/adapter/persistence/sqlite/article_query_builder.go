// Package sqlite provides SQLite implementations of repository interfaces.
package sqlite

import (
	sq "github.com/Masterminds/squirrel"

	"fintech-news/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var articleColumns = []string{
	"id", "title", "summary", "content", "url", "image_url", "source",
	"published_at", "category", "tech_level", "reading_time", "created_at", "updated_at",
}

// ArticleQueryBuilder builds article queries with ? placeholders.
type ArticleQueryBuilder struct {
	sb sq.StatementBuilderType
}

func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// BuildListQuery renders ListRecent's SELECT for filter.
func (qb *ArticleQueryBuilder) BuildListQuery(filter repository.ArticleFilter) (string, []interface{}, error) {
	q := qb.sb.Select(articleColumns...).From("articles")
	if filter.Category != nil {
		q = q.Where(sq.Eq{"category": string(*filter.Category)})
	}
	if filter.CreatedSince != nil {
		q = q.Where(sq.GtOrEq{"created_at": filter.CreatedSince.UTC()})
	}
	return q.OrderBy("published_at DESC", "id ASC").
		Limit(uint64(clampLimit(filter.Limit))).
		ToSql()
}

// BuildExistsQuery renders a lookup of which urls are already stored.
func (qb *ArticleQueryBuilder) BuildExistsQuery(urls []string) (string, []interface{}, error) {
	return qb.sb.Select("url").From("articles").Where(sq.Eq{"url": urls}).ToSql()
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	default:
		return n
	}
}
