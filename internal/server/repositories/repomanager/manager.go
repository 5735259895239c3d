// Package repomanager vends repository implementations for a storage
// backend and owns the backend's lifecycle (migrations, transactions,
// closing).
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
)

// RepositoryManager is implemented by the PostgreSQL and in-memory backends.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error

	// Users returns a repository outside of any transaction.
	Users() users.Repository

	// WithTx runs fn with a repository bound to a single transaction. The
	// transaction commits when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error

	Close() error
}
