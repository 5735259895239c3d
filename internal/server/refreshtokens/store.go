// Package refreshtokens issues, checks and rotates the opaque refresh token
// each user holds. Only the SHA-256 of a token is persisted.
package refreshtokens

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
)

// Store binds refresh token operations to a users repository.
type Store struct {
	repo     users.Repository
	validity time.Duration
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(repo users.Repository, validity time.Duration, opts ...Option) *Store {
	s := &Store{repo: repo, validity: validity, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WithRepository returns a copy of s operating on repo, typically a
// transaction-scoped repository.
func (s *Store) WithRepository(repo users.Repository) *Store {
	c := *s
	c.repo = repo
	return &c
}

// Validity is the lifetime of a newly issued token.
func (s *Store) Validity() time.Duration { return s.validity }

// Issue generates a fresh token for userID and replaces whatever token the
// user held before.
func (s *Store) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := common.MakeRandHexString(common.RefreshTokenSize)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}
	expiresAt := s.now().Add(s.validity)
	if err := s.repo.SetRefreshToken(ctx, userID, common.Sha256Hex(token), expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate reports whether presented is the live, unexpired token of userID.
// It never mutates state; an unknown user is simply not valid.
func (s *Store) Validate(ctx context.Context, userID, presented string) (bool, error) {
	u, err := s.Holder(ctx, userID, presented)
	return u != nil, err
}

// Holder is Validate returning the user that holds presented, or nil when
// the token is not live.
func (s *Store) Holder(ctx context.Context, userID, presented string) (*models.User, error) {
	if userID == "" || presented == "" {
		return nil, nil
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.HasRefreshToken() {
		return nil, nil
	}
	match := subtle.ConstantTimeCompare([]byte(u.RefreshTokenHash), []byte(common.Sha256Hex(presented))) == 1
	if !match || !s.now().Before(u.RefreshTokenExpiresAt) {
		return nil, nil
	}
	return u, nil
}

// Rotate replaces presented with a new token in a single compare-and-swap.
// When presented is no longer the live token, because it expired or a
// concurrent rotation won, common.ErrorUnauthorized is returned.
func (s *Store) Rotate(ctx context.Context, userID, presented string) (string, time.Time, error) {
	if userID == "" || presented == "" {
		return "", time.Time{}, common.ErrorUnauthorized
	}
	token, err := common.MakeRandHexString(common.RefreshTokenSize)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.validity)
	swapped, err := s.repo.SwapRefreshToken(ctx, userID, common.Sha256Hex(presented), common.Sha256Hex(token), expiresAt, now)
	if err != nil {
		return "", time.Time{}, err
	}
	if !swapped {
		return "", time.Time{}, common.ErrorUnauthorized
	}
	return token, expiresAt, nil
}

// Revoke drops the user's refresh token, if any.
func (s *Store) Revoke(ctx context.Context, userID string) error {
	return s.repo.ClearRefreshToken(ctx, userID)
}
