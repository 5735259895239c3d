package client

import (
	"context"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/client/models"
)

// Client is the API contract credctl needs from the backend. Implementations
// hold the current session and keep it up to date as tokens rotate.
type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (*authapi.User, error)
	Login(ctx context.Context, username, password string) (*models.Session, error)
	Refresh(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*authapi.WhoAmIResponse, error)
	Probe(ctx context.Context, method string) (string, error)
	Session() models.Session
	SetSession(s models.Session)
	OnSessionChange(fn func(ctx context.Context, s models.Session))
}
