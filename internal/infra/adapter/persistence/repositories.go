// Package persistence selects the SQL repository implementations that
// match the configured database driver.
package persistence

import (
	"database/sql"
	"fmt"

	"fintech-news/internal/infra/adapter/persistence/postgres"
	"fintech-news/internal/infra/adapter/persistence/sqlite"
	"fintech-news/internal/infra/db"
	"fintech-news/internal/repository"
)

// Repositories bundles the stores used by the API and the worker.
type Repositories struct {
	Articles      repository.ArticleRepository
	Subscriptions repository.SubscriptionRepository
}

// New returns the repositories for driver, as reported by db.Open.
func New(database *sql.DB, driver string) (Repositories, error) {
	switch driver {
	case db.DriverPostgres:
		return Repositories{
			Articles:      postgres.NewArticleRepo(database),
			Subscriptions: postgres.NewSubscriptionRepo(database),
		}, nil
	case db.DriverSQLite:
		return Repositories{
			Articles:      sqlite.NewArticleRepo(database),
			Subscriptions: sqlite.NewSubscriptionRepo(database),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
