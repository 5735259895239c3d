// Package services contains server-side business logic. AuthService handles
// registration, login, refresh token rotation and logout on top of the
// password hasher, the access token issuer and the refresh token store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/credkeeper/internal/server/refreshtokens"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
)

// AuthService provides authentication-related operations. Credential
// failures are always common.ErrorUnauthorized; persistence faults are
// wrapped with common.ErrorInternal.
type AuthService struct {
	repos  repomanager.RepositoryManager
	hasher *passwords.Hasher
	issuer *auth.Issuer
	tokens *refreshtokens.Store
	log    logging.Logger
}

// NewAuthService wires the service. tokens may be bound to any repository;
// the service rebinds it per call.
func NewAuthService(repos repomanager.RepositoryManager, hasher *passwords.Hasher, issuer *auth.Issuer, tokens *refreshtokens.Store, log logging.Logger) *AuthService {
	return &AuthService{
		repos:  repos,
		hasher: hasher,
		issuer: issuer,
		tokens: tokens,
		log:    log.With("module", "auth"),
	}
}

// Register creates a user with the default role and returns it without
// secrets. An existing username yields common.ErrorConflict.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	repo := s.repos.Users()
	if _, err := repo.GetUserByLogin(ctx, username); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internal(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal(err)
	}

	u, err := repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Role: models.DefaultRole})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, internal(err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u.Public(), nil
}

// Login checks the credentials and returns a fresh token pair. The refresh
// token replaces any the user held before.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	repo := s.repos.Users()
	u, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep timing in line with a real mismatch
			s.hasher.Verify(password, s.hasher.Decoy())
			s.log.Debug(ctx, "login failed")
			return nil, common.ErrorUnauthorized
		}
		return nil, internal(err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.log.Debug(ctx, "login failed")
		return nil, common.ErrorUnauthorized
	}

	access, accessExp, err := s.issuer.IssueAccessToken(u.ID, u.UserName, u.Role)
	if err != nil {
		return nil, internal(err)
	}
	refresh, refreshExp, err := s.tokens.WithRepository(repo).Issue(ctx, u.ID)
	if err != nil {
		return nil, internal(err)
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID)
	return &models.TokenPair{
		UserID:           u.ID,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges the live refresh token of userID for a new pair. The
// presented token is dead afterwards; of several concurrent calls with the
// same token exactly one succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userID string) (*models.TokenPair, error) {
	var pair *models.TokenPair

	err := s.repos.WithTx(ctx, func(ctx context.Context, repo users.Repository) error {
		tokens := s.tokens.WithRepository(repo)

		u, err := tokens.Holder(ctx, userID, refreshToken)
		if err != nil {
			return internal(err)
		}
		if u == nil {
			return common.ErrorUnauthorized
		}

		refresh, refreshExp, err := tokens.Rotate(ctx, userID, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				return err
			}
			return internal(err)
		}

		access, accessExp, err := s.issuer.IssueAccessToken(u.ID, u.UserName, u.Role)
		if err != nil {
			return internal(err)
		}

		pair = &models.TokenPair{
			UserID:           u.ID,
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.log.Debug(ctx, "refresh rejected", "user_id", userID)
			return nil, common.ErrorUnauthorized
		}
		if !errors.Is(err, common.ErrorInternal) {
			err = internal(err)
		}
		s.log.Error(ctx, "refresh failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "tokens refreshed", "user_id", userID)
	return pair, nil
}

// RefreshWithAccessToken is Refresh with the request additionally bound to
// an access token previously issued to the same user. The access token may
// be expired. When userID is empty it is taken from the access token.
func (s *AuthService) RefreshWithAccessToken(ctx context.Context, refreshToken, userID, accessToken string) (*models.TokenPair, error) {
	if accessToken != "" {
		sub, err := s.issuer.Subject(accessToken)
		if err != nil {
			return nil, common.ErrorUnauthorized
		}
		if userID == "" {
			userID = sub
		} else if sub != userID {
			return nil, common.ErrorUnauthorized
		}
	}
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	return s.Refresh(ctx, refreshToken, userID)
}

// Logout drops the user's refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.WithRepository(s.repos.Users()).Revoke(ctx, userID); err != nil {
		return internal(err)
	}
	s.log.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authenticate validates an access token. Any failure is
// common.ErrInvalidToken.
func (s *AuthService) Authenticate(accessToken string) (*auth.Claims, error) {
	return s.issuer.Validate(accessToken)
}

func internal(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorInternal, err)
}
