package repomanager

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-process users repository.
// Transactions are not supported; WithTx simply calls fn, which is enough
// because every MemoryRepository method is individually atomic.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	return fn(ctx, m.users)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
