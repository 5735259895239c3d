// Package server initializes and runs the credkeeper server: it opens the
// user store, wires the auth service, serves gRPC and shuts down gracefully.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/credkeeper/internal/server/refreshtokens"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/credkeeper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	authService *services.AuthService
}

// NewApp opens storage, runs migrations and wires the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the built-in development secret key, set CREDKEEPER_SECRET_KEY")
	}

	repos, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	algorithm, err := passwords.ParseAlgorithm(c.PasswordAlgorithm)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	hasher := passwords.NewHasher(passwords.WithAlgorithm(algorithm))

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.TokenIssuer, c.TokenAudience, c.AccessTokenValidityDuration)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	tokens := refreshtokens.NewStore(repos.Users(), c.RefreshTokenValidityDuration)

	as := services.NewAuthService(repos, hasher, issuer, tokens, logger)

	return &App{config: c, logger: logger, repos: repos, authService: as}, nil
}

func openRepositories(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN configured, users are kept in memory")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	m := repomanager.NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)
		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
