// Package services contains application services for the credctl client.
// This file defines the authentication service: register, login, token
// refresh and logout, plus persistence of the session in the local database
// so a later run can resume it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/client/client"
	"github.com/dmitrijs2005/credkeeper/internal/client/models"
	"github.com/dmitrijs2005/credkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
)

// Metadata keys the session is stored under.
const (
	keyUserID           = "user_id"
	keyUsername         = "username"
	keyAccessToken      = "access_token"
	keyRefreshToken     = "refresh_token"
	keyAccessExpiresAt  = "access_expires_at"
	keyRefreshExpiresAt = "refresh_expires_at"
)

var sessionKeys = []string{keyUserID, keyUsername, keyAccessToken, keyRefreshToken, keyAccessExpiresAt, keyRefreshExpiresAt}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a new user on the server.
//   - Login: authenticate and persist the resulting session.
//   - Restore: resume a saved session, if it is still usable.
//   - Refresh: rotate the token pair.
//   - WhoAmI / Probe: authenticated calls.
//   - Logout: revoke server-side and forget the local session.
//
// Token rotations that happen implicitly during a call are persisted too.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) (*authapi.User, error)
	Login(ctx context.Context, username string, password []byte) (*models.Session, error)
	Restore(ctx context.Context) (*models.Session, error)
	Refresh(ctx context.Context) (*models.Session, error)
	WhoAmI(ctx context.Context) (*authapi.WhoAmIResponse, error)
	Probe(ctx context.Context, method string) (string, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// NewAuthService binds the API client to the local session database.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	a := &authService{client: c, db: db, now: time.Now}
	c.OnSessionChange(a.persist)
	return a
}

func (a *authService) persist(ctx context.Context, s models.Session) {
	var err error
	if s.RefreshToken == "" {
		err = a.clearSession(ctx)
	} else {
		err = a.saveSession(ctx, s)
	}
	if err != nil {
		log.Printf("session not saved: %s", err.Error())
	}
}

// saveSession writes every session key in a single transaction.
func (a *authService) saveSession(ctx context.Context, s models.Session) error {
	values := map[string]string{
		keyUserID:           s.UserID,
		keyUsername:         s.Username,
		keyAccessToken:      s.AccessToken,
		keyRefreshToken:     s.RefreshToken,
		keyAccessExpiresAt:  formatTime(s.AccessExpiresAt),
		keyRefreshExpiresAt: formatTime(s.RefreshExpiresAt),
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, k := range sessionKeys {
			if err := repo.Set(ctx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *authService) clearSession(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Delete(ctx, sessionKeys...)
}

func (a *authService) loadSession(ctx context.Context) (*models.Session, error) {
	repo := metadata.NewSQLiteRepository(a.db)

	values := make(map[string]string, len(sessionKeys))
	for _, k := range sessionKeys {
		v, found, err := repo.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		values[k] = v
	}

	accessExp, err := parseTime(values[keyAccessExpiresAt])
	if err != nil {
		return nil, err
	}
	refreshExp, err := parseTime(values[keyRefreshExpiresAt])
	if err != nil {
		return nil, err
	}

	return &models.Session{
		UserID:           values[keyUserID],
		Username:         values[keyUsername],
		AccessToken:      values[keyAccessToken],
		RefreshToken:     values[keyRefreshToken],
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad saved timestamp %q: %w", s, err)
	}
	return t, nil
}

func (a *authService) Register(ctx context.Context, username string, password []byte) (*authapi.User, error) {
	return a.client.Register(ctx, username, string(password))
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (*models.Session, error) {
	s, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return s, nil
}

// Restore loads the saved session into the client. It returns nil, nil
// when there is nothing usable to resume; a stale record is removed.
func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	s, err := a.loadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}
	if !s.Active(a.now()) {
		return nil, a.clearSession(ctx)
	}
	a.client.SetSession(*s)
	return s, nil
}

func (a *authService) Refresh(ctx context.Context) (*models.Session, error) {
	return a.client.Refresh(ctx)
}

func (a *authService) WhoAmI(ctx context.Context) (*authapi.WhoAmIResponse, error) {
	return a.client.WhoAmI(ctx)
}

func (a *authService) Probe(ctx context.Context, method string) (string, error) {
	return a.client.Probe(ctx, method)
}

// Logout forgets the local session even when the server cannot be reached.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if cerr := a.clearSession(ctx); cerr != nil {
		return errors.Join(err, cerr)
	}
	if errors.Is(err, client.ErrUnauthorized) {
		return nil
	}
	return err
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
