package sqlite

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/repository"
)

func TestArticleQueryBuilder_BuildListQuery(t *testing.T) {
	qb := NewArticleQueryBuilder()
	cat := entity.CategoryBlockchain
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    repository.ArticleFilter
		wantWhere string
		wantArgs  []interface{}
		wantLimit string
	}{
		{
			name:      "no filter uses default limit",
			filter:    repository.ArticleFilter{},
			wantLimit: "LIMIT 50",
		},
		{
			name:      "category only",
			filter:    repository.ArticleFilter{Category: &cat, Limit: 5},
			wantWhere: "WHERE category = ?",
			wantArgs:  []interface{}{"blockchain"},
			wantLimit: "LIMIT 5",
		},
		{
			name:      "category and created since",
			filter:    repository.ArticleFilter{Category: &cat, CreatedSince: &since, Limit: 10_000},
			wantWhere: "WHERE category = ? AND created_at >= ?",
			wantArgs:  []interface{}{"blockchain", since},
			wantLimit: "LIMIT 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := qb.BuildListQuery(tt.filter)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(query, "SELECT id, title, summary"))
			assert.Contains(t, query, "ORDER BY published_at DESC, id ASC")
			assert.Contains(t, query, tt.wantLimit)
			if tt.wantWhere == "" {
				assert.NotContains(t, query, "WHERE")
				assert.Empty(t, args)
			} else {
				assert.Contains(t, query, tt.wantWhere)
				assert.Equal(t, tt.wantArgs, args)
			}
			assert.NotContains(t, query, "$1")
		})
	}
}

func TestArticleQueryBuilder_BuildExistsQuery(t *testing.T) {
	query, args, err := NewArticleQueryBuilder().BuildExistsQuery([]string{"https://a", "https://b"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT url FROM articles WHERE url IN (?,?)", query)
	assert.Equal(t, []interface{}{"https://a", "https://b"}, args)
}
