// Package users declares the user-record store used by the auth service and
// provides PostgreSQL and in-memory implementations.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// Repository persists users together with their single refresh token.
// Lookups of a missing user return common.ErrorNotFound; creating a
// duplicate username returns common.ErrorConflict.
type Repository interface {
	// Create stores a new user. An empty ID is filled in.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// SetRefreshToken replaces whatever refresh token the user holds.
	SetRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// SwapRefreshToken replaces the stored token with newHash only if the
	// stored hash equals oldHash and has not expired at now. It reports
	// whether the swap happened and must be atomic with respect to other
	// swaps of the same user.
	SwapRefreshToken(ctx context.Context, userID, oldHash, newHash string, newExpiresAt, now time.Time) (bool, error)

	// ClearRefreshToken drops the stored token, if any.
	ClearRefreshToken(ctx context.Context, userID string) error
}
