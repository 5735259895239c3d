package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ authapi.AuthServiceServer = (*GRPCServer)(nil)

func (s *GRPCServer) Register(ctx context.Context, req *authapi.RegisterRequest) (*authapi.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request")

	u, err := s.auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &authapi.RegisterResponse{User: authapi.User{
		ID:        u.ID,
		Username:  u.UserName,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *authapi.LoginRequest) (*authapi.TokenResponse, error) {
	pair, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return tokenResponse(pair), nil
}

// Refresh accepts the access token either in the request body or in the
// usual metadata keys.
func (s *GRPCServer) Refresh(ctx context.Context, req *authapi.RefreshRequest) (*authapi.TokenResponse, error) {
	accessToken := req.AccessToken
	if accessToken == "" {
		accessToken = tokenFromMetadata(ctx)
	}

	pair, err := s.auth.RefreshWithAccessToken(ctx, req.RefreshToken, req.UserID, accessToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return tokenResponse(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *authapi.LogoutRequest) (*authapi.LogoutResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, claims.Subject); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &authapi.LogoutResponse{}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *authapi.WhoAmIRequest) (*authapi.WhoAmIResponse, error) {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return nil, err
	}
	resp := &authapi.WhoAmIResponse{
		UserID:   claims.Subject,
		Username: claims.Name,
		Role:     claims.Role.String(),
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	return resp, nil
}

func (s *GRPCServer) Authenticated(ctx context.Context, _ *authapi.ProbeRequest) (*authapi.ProbeResponse, error) {
	return probe(ctx, "You are authenticated (All Authenticated)")
}

func (s *GRPCServer) AdminOnly(ctx context.Context, _ *authapi.ProbeRequest) (*authapi.ProbeResponse, error) {
	return probe(ctx, "You are authenticated (Admin)")
}

func (s *GRPCServer) SuperAdminOnly(ctx context.Context, _ *authapi.ProbeRequest) (*authapi.ProbeResponse, error) {
	return probe(ctx, "You are authenticated (SuperAdmin)")
}

func (s *GRPCServer) UserAndAdmin(ctx context.Context, _ *authapi.ProbeRequest) (*authapi.ProbeResponse, error) {
	return probe(ctx, "You are authenticated (User And Admin)")
}

func probe(ctx context.Context, msg string) (*authapi.ProbeResponse, error) {
	if _, err := claimsFrom(ctx); err != nil {
		return nil, err
	}
	return &authapi.ProbeResponse{Message: msg}, nil
}

// claimsFrom guards handlers that are only reachable through the access
// token interceptor.
func claimsFrom(ctx context.Context) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return claims, nil
}

func tokenResponse(p *models.TokenPair) *authapi.TokenResponse {
	return &authapi.TokenResponse{
		UserID:           p.UserID,
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

// toStatus maps service errors to gRPC codes. Internal causes are logged and
// never sent to the caller.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
