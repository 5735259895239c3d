package client

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/authapi"
	"github.com/dmitrijs2005/credkeeper/internal/client/models"
	"github.com/dmitrijs2005/credkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var _ Client = (*GRPCClient)(nil)

// authAPI is the subset of authapi.AuthServiceClient used here.
type authAPI interface {
	Register(ctx context.Context, in *authapi.RegisterRequest, opts ...grpc.CallOption) (*authapi.RegisterResponse, error)
	Login(ctx context.Context, in *authapi.LoginRequest, opts ...grpc.CallOption) (*authapi.TokenResponse, error)
	Refresh(ctx context.Context, in *authapi.RefreshRequest, opts ...grpc.CallOption) (*authapi.TokenResponse, error)
	Logout(ctx context.Context, in *authapi.LogoutRequest, opts ...grpc.CallOption) (*authapi.LogoutResponse, error)
	WhoAmI(ctx context.Context, in *authapi.WhoAmIRequest, opts ...grpc.CallOption) (*authapi.WhoAmIResponse, error)
	Probe(ctx context.Context, method string, opts ...grpc.CallOption) (*authapi.ProbeResponse, error)
}

// publicMethods are called without an access token and never retried.
var publicMethods = map[string]bool{
	authapi.FullMethod(authapi.MethodRegister): true,
	authapi.FullMethod(authapi.MethodLogin):    true,
	authapi.FullMethod(authapi.MethodRefresh):  true,
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      authAPI

	mu        sync.Mutex
	session   models.Session
	onChange  func(ctx context.Context, s models.Session)
	refreshMu sync.Mutex
}

// NewGRPCClient dials endpointURL lazily. Extra dial options are appended
// after the defaults, so tests can swap the dialer.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = authapi.NewAuthServiceClient(conn)
	return c, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// tokenRejected matches the status the server returns for an expired or
// otherwise unusable access token.
func tokenRejected(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrInvalidToken.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if publicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	used := s.Session().AccessToken
	err := invoker(withAccessToken(ctx, used), method, req, reply, cc, opts...)
	if err == nil || !tokenRejected(err) {
		return err
	}

	if rerr := s.refresh(ctx, used); rerr != nil {
		return err
	}

	// tokens refreshed, retry once with the new access token
	return invoker(withAccessToken(ctx, s.Session().AccessToken), method, req, reply, cc, opts...)
}

// refresh rotates the token pair unless another caller already replaced
// the stale access token.
func (s *GRPCClient) refresh(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	cur := s.Session()
	if cur.AccessToken != stale {
		return nil
	}
	if cur.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	resp, err := s.client.Refresh(ctx, &authapi.RefreshRequest{
		RefreshToken: cur.RefreshToken,
		UserID:       cur.UserID,
		AccessToken:  cur.AccessToken,
	})
	if err != nil {
		return mapError(err)
	}

	s.apply(ctx, sessionFrom(cur.Username, resp))
	return nil
}

func sessionFrom(username string, resp *authapi.TokenResponse) models.Session {
	return models.Session{
		UserID:           resp.UserID,
		Username:         username,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		AccessExpiresAt:  resp.AccessExpiresAt,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	}
}

func (s *GRPCClient) apply(ctx context.Context, next models.Session) {
	s.mu.Lock()
	s.session = next
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, next)
	}
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Session returns a copy of the current session.
func (s *GRPCClient) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetSession restores a saved session without notifying OnSessionChange.
func (s *GRPCClient) SetSession(next models.Session) {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()
}

// OnSessionChange registers fn to run whenever tokens are issued, rotated
// or dropped.
func (s *GRPCClient) OnSessionChange(fn func(ctx context.Context, s models.Session)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) (*authapi.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &authapi.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) (*models.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &authapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, mapError(err)
	}

	next := sessionFrom(username, resp)
	s.apply(ctx, next)
	return &next, nil
}

// Refresh rotates the token pair explicitly.
func (s *GRPCClient) Refresh(ctx context.Context) (*models.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.refresh(ctx, s.Session().AccessToken); err != nil {
		return nil, err
	}
	next := s.Session()
	return &next, nil
}

// Logout revokes the refresh token server-side and always forgets the
// local session.
func (s *GRPCClient) Logout(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.Session().RefreshToken == "" {
		return ErrNotLoggedIn
	}

	_, err := s.client.Logout(ctx, &authapi.LogoutRequest{})
	s.apply(ctx, models.Session{})
	return mapError(err)
}

func (s *GRPCClient) WhoAmI(ctx context.Context) (*authapi.WhoAmIResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.WhoAmI(ctx, &authapi.WhoAmIRequest{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

// Probe calls one of authapi.ProbeMethods and returns its message.
func (s *GRPCClient) Probe(ctx context.Context, method string) (string, error) {
	if !slices.Contains(authapi.ProbeMethods, method) {
		return "", fmt.Errorf("%w: unknown probe %q", ErrInvalidArgument, method)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Probe(ctx, method)
	if err != nil {
		return "", mapError(err)
	}
	return resp.Message, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
