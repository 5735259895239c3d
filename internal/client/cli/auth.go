package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/client/client"
	"github.com/dmitrijs2005/credkeeper/internal/common"
)

// promptUsername and promptPassword are replaced in tests.
var (
	promptUsername = PromptUsername
	promptPassword = PromptPassword
)

// probeNames maps REPL arguments to probe endpoints.
var probeNames = map[string]string{
	"authenticated": authapi.MethodAuthenticated,
	"admin":         authapi.MethodAdminOnly,
	"superadmin":    authapi.MethodSuperAdminOnly,
	"useradmin":     authapi.MethodUserAndAdmin,
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

var errSessionExpired = errors.New("session expired, please log in again")

// dropIfUnauthorized forgets the in-memory session once the server no
// longer accepts it, even after a refresh attempt.
func (a *App) dropIfUnauthorized(err error) error {
	if errors.Is(err, client.ErrUnauthorized) && a.isLoggedIn() {
		a.session = nil
		return errSessionExpired
	}
	return err
}

func (a *App) credentials() (string, []byte, error) {
	userName, err := promptUsername(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts for credentials and creates an account. The password
// is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Register(ctx, userName, password)
	if err != nil {
		return err
	}

	a.printf("Registered %s (role %s)\n", u.Username, u.Role)
	return nil
}

// Login prompts for credentials and starts a session that is remembered
// across runs.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			return fmt.Errorf("server unavailable: %w", err)
		}
		return err
	}

	a.session = s
	a.printf("Login successful\n")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}
	s, err := a.authService.Refresh(ctx)
	if err != nil {
		return a.dropIfUnauthorized(err)
	}
	a.session = s
	a.printf("Tokens refreshed, access token valid until %s\n", s.AccessExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}
	who, err := a.authService.WhoAmI(ctx)
	if err != nil {
		return a.dropIfUnauthorized(err)
	}
	a.printf("%s (id %s, role %s)\n", who.Username, who.UserID, who.Role)
	return nil
}

func (a *App) Probe(ctx context.Context, name string) error {
	method, ok := probeNames[name]
	if !ok {
		return fmt.Errorf("unknown probe %q", name)
	}
	msg, err := a.authService.Probe(ctx, method)
	if err != nil {
		return a.dropIfUnauthorized(err)
	}
	a.printf("%s\n", msg)
	return nil
}

// Logout ends the session locally and, when reachable, on the server.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrNotLoggedIn
	}
	err := a.authService.Logout(ctx)
	a.session = nil
	if err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}
