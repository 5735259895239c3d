package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It is used when no
// database DSN is configured and in tests. Every method holds the mutex for
// its whole duration, which makes SwapRefreshToken a true compare-and-swap.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*models.User),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[user.UserName]; ok {
		return nil, common.ErrorConflict
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrorConflict
	}
	user.CreatedAt = r.now()

	stored := *user
	r.byID[user.ID] = &stored
	r.byName[user.UserName] = user.ID

	return user, nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *stored
	return &u, nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshTokenHash = tokenHash
	u.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (r *MemoryRepository) SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, newExpiresAt, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok || u.RefreshTokenHash == "" || u.RefreshTokenHash != oldHash || !now.Before(u.RefreshTokenExpiresAt) {
		return false, nil
	}
	u.RefreshTokenHash = newHash
	u.RefreshTokenExpiresAt = newExpiresAt
	return true, nil
}

func (r *MemoryRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[userID]; ok {
		u.RefreshTokenHash = ""
		u.RefreshTokenExpiresAt = time.Time{}
	}
	return nil
}
