package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	s := newTestServer(&fakeAuth{})
	ctx := context.Background()

	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorConflict, codes.AlreadyExists},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrInvalidToken, codes.Unauthenticated},
		{fmt.Errorf("%w: username is required", common.ErrorValidation), codes.InvalidArgument},
		{fmt.Errorf("%w: %w", common.ErrorInternal, errors.New("conn refused")), codes.Internal},
		{errors.New("anything else"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, status.Code(s.toStatus(ctx, tt.err)), tt.err.Error())
	}

	st := status.Convert(s.toStatus(ctx, fmt.Errorf("%w: %w", common.ErrorInternal, errors.New("password=hunter2"))))
	assert.NotContains(t, st.Message(), "hunter2")
}

func TestRegister_Handler(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeAuth{regUser: &models.User{ID: "u1", UserName: "alice", Role: models.RoleUser, CreatedAt: created}}
	s := newTestServer(f)

	resp, err := s.Register(context.Background(), &authapi.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, authapi.User{ID: "u1", Username: "alice", Role: "User", CreatedAt: created}, resp.User)

	f.regErr = common.ErrorConflict
	_, err = s.Register(context.Background(), &authapi.RegisterRequest{Username: "alice", Password: "pw"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestLoginAndRefresh_Handlers(t *testing.T) {
	pair := &models.TokenPair{UserID: "u1", AccessToken: "a", RefreshToken: "r"}
	f := &fakeAuth{pair: pair}
	s := newTestServer(f)

	resp, err := s.Login(context.Background(), &authapi.LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)

	_, err = s.Refresh(withToken(common.AccessTokenHeaderName, "from-md"), &authapi.RefreshRequest{RefreshToken: "r"})
	require.NoError(t, err)
	assert.Equal(t, "from-md", f.gotRefresh.accessToken, "metadata token is used when body has none")

	_, err = s.Refresh(withToken(common.AccessTokenHeaderName, "from-md"), &authapi.RefreshRequest{RefreshToken: "r", AccessToken: "from-body", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "from-body", f.gotRefresh.accessToken)
	assert.Equal(t, "u1", f.gotRefresh.userID)

	f.refreshErr = common.ErrorUnauthorized
	_, err = s.Refresh(context.Background(), &authapi.RefreshRequest{RefreshToken: "r", UserID: "u1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	f.loginErr = common.ErrorUnauthorized
	_, err = s.Login(context.Background(), &authapi.LoginRequest{Username: "alice", Password: "bad"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestClaimsHandlers(t *testing.T) {
	f := &fakeAuth{}
	s := newTestServer(f)

	_, err := s.WhoAmI(context.Background(), &authapi.WhoAmIRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.AdminOnly(context.Background(), &authapi.ProbeRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	exp := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	ctx := auth.ContextWithClaims(context.Background(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)},
		Name:             "alice",
		Role:             models.RoleAdmin,
	})

	who, err := s.WhoAmI(ctx, &authapi.WhoAmIRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u1", who.UserID)
	assert.Equal(t, "alice", who.Username)
	assert.Equal(t, "Admin", who.Role)
	assert.True(t, exp.Equal(who.ExpiresAt))

	p, err := s.AdminOnly(ctx, &authapi.ProbeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "You are authenticated (Admin)", p.Message)

	_, err = s.Logout(ctx, &authapi.LogoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "u1", f.loggedOut)

	f.logoutErr = errors.New("db down")
	_, err = s.Logout(ctx, &authapi.LogoutRequest{})
	assert.Equal(t, codes.Internal, status.Code(err))
}
