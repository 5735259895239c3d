// Package grpc exposes AuthService over gRPC using the authapi contract.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AuthService is the subset of services.AuthService the transport needs.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	RefreshWithAccessToken(ctx context.Context, refreshToken, userID, accessToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	Authenticate(accessToken string) (*auth.Claims, error)
}

type GRPCServer struct {
	address  string
	auth     AuthService
	logger   logging.Logger
	policies map[string]auth.Requirement
}

func NewGRPCServer(address string, l logging.Logger, as AuthService) *GRPCServer {
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		auth:     as,
		policies: DefaultPolicies(),
	}
}

// DefaultPolicies maps each protected full method name to the requirement
// its caller must meet. Methods absent from the map are public.
func DefaultPolicies() map[string]auth.Requirement {
	return map[string]auth.Requirement{
		authapi.FullMethod(authapi.MethodLogout):         auth.Authenticated{},
		authapi.FullMethod(authapi.MethodWhoAmI):         auth.Authenticated{},
		authapi.FullMethod(authapi.MethodAuthenticated):  auth.Authenticated{},
		authapi.FullMethod(authapi.MethodAdminOnly):      auth.RequireRole(models.RoleAdmin),
		authapi.FullMethod(authapi.MethodSuperAdminOnly): auth.RequireRole(models.RoleSuperAdmin),
		authapi.FullMethod(authapi.MethodUserAndAdmin):   auth.RequireAnyRole(models.RoleUser, models.RoleAdmin),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	authapi.RegisterAuthServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(authapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
