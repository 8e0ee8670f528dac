package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintech-news/internal/infra/adapter/persistence/postgres"
	"fintech-news/internal/infra/adapter/persistence/sqlite"
)

func TestNew(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	t.Run("postgres", func(t *testing.T) {
		repos, err := New(database, "postgres")
		require.NoError(t, err)
		assert.IsType(t, postgres.NewArticleRepo(database), repos.Articles)
		assert.IsType(t, postgres.NewSubscriptionRepo(database), repos.Subscriptions)
	})

	t.Run("sqlite", func(t *testing.T) {
		repos, err := New(database, "sqlite")
		require.NoError(t, err)
		assert.IsType(t, sqlite.NewArticleRepo(database), repos.Articles)
		assert.IsType(t, sqlite.NewSubscriptionRepo(database), repos.Subscriptions)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := New(database, "mysql")
		assert.Error(t, err)
	})
}
