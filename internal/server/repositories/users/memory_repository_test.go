package users

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func TestMemory_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byName, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.UserName)

	_, err = repo.GetUserByLogin(ctx, "Alice")
	assert.ErrorIs(t, err, common.ErrorNotFound, "usernames are case-sensitive")

	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_CreateDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h2", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, common.ErrorConflict)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "h1", got.PasswordHash)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.Role = models.RoleSuperAdmin

	again, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, again.Role)
}

func TestMemory_RefreshTokenLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.SetRefreshToken(ctx, "ghost", "x", now), common.ErrorNotFound)

	ok, err := repo.SwapRefreshToken(ctx, u.ID, "", "new", now.Add(time.Hour), now)
	require.NoError(t, err)
	assert.False(t, ok, "nothing stored yet")

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "h1", now.Add(time.Hour)))

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "wrong", "h2", now.Add(time.Hour), now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "h1", "h2", now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "h1", "h3", now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.False(t, ok, "old hash is gone")

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "h2", "h3", now.Add(3*time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "expired token cannot be swapped")

	require.NoError(t, repo.ClearRefreshToken(ctx, u.ID))
	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.HasRefreshToken())

	require.NoError(t, repo.ClearRefreshToken(ctx, "ghost"))
}

func TestMemory_ConcurrentSwapsHaveOneWinner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)
	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "old", now.Add(time.Hour)))

	const n = 32
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := repo.SwapRefreshToken(ctx, u.ID, "old", "new", now.Add(time.Hour), now)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
