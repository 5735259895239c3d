package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/credkeeper/internal/client/client"
	"github.com/dmitrijs2005/credkeeper/internal/client/config"
	"github.com/dmitrijs2005/credkeeper/internal/client/models"
	"github.com/dmitrijs2005/credkeeper/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	db          *sql.DB
	session     *models.Session
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionFile)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := newApp(services.NewAuthService(apiClient, db), os.Stdin, os.Stdout)
	app.config = c
	app.db = db
	return app, nil
}

func newApp(as services.AuthService, in io.Reader, out io.Writer) *App {
	return &App{authService: as, reader: bufio.NewReader(in), out: out}
}

// Run resumes a saved session if possible and blocks in the REPL.
func (a *App) Run(ctx context.Context) error {
	defer a.close(ctx)

	s, err := a.authService.Restore(ctx)
	if err != nil {
		a.printf("Saved session unusable: %s\n", err.Error())
	}
	if s != nil {
		a.session = s
		a.printf("Resumed session for %s\n", s.Username)
	}

	a.printf("Welcome to credctl (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

func (a *App) close(ctx context.Context) {
	_ = a.authService.Close(ctx)
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return ""
	}
	return "(" + a.session.Username + ")"
}
