package authapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "credkeeper.v1.AuthService"

const (
	MethodRegister       = "Register"
	MethodLogin          = "Login"
	MethodRefresh        = "Refresh"
	MethodLogout         = "Logout"
	MethodWhoAmI         = "WhoAmI"
	MethodAuthenticated  = "Authenticated"
	MethodAdminOnly      = "AdminOnly"
	MethodSuperAdminOnly = "SuperAdminOnly"
	MethodUserAndAdmin   = "UserAndAdmin"
)

// FullMethod returns the "/service/method" path gRPC routes on.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ProbeMethods lists the role-gated probe endpoints.
var ProbeMethods = []string{MethodAuthenticated, MethodAdminOnly, MethodSuperAdminOnly, MethodUserAndAdmin}

// AuthServiceServer is implemented by the server.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*WhoAmIResponse, error)
	Authenticated(context.Context, *ProbeRequest) (*ProbeResponse, error)
	AdminOnly(context.Context, *ProbeRequest) (*ProbeResponse, error)
	SuperAdminOnly(context.Context, *ProbeRequest) (*ProbeResponse, error)
	UserAndAdmin(context.Context, *ProbeRequest) (*ProbeResponse, error)
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodRegister, Handler: unary(MethodRegister, AuthServiceServer.Register)},
		{MethodName: MethodLogin, Handler: unary(MethodLogin, AuthServiceServer.Login)},
		{MethodName: MethodRefresh, Handler: unary(MethodRefresh, AuthServiceServer.Refresh)},
		{MethodName: MethodLogout, Handler: unary(MethodLogout, AuthServiceServer.Logout)},
		{MethodName: MethodWhoAmI, Handler: unary(MethodWhoAmI, AuthServiceServer.WhoAmI)},
		{MethodName: MethodAuthenticated, Handler: unary(MethodAuthenticated, AuthServiceServer.Authenticated)},
		{MethodName: MethodAdminOnly, Handler: unary(MethodAdminOnly, AuthServiceServer.AdminOnly)},
		{MethodName: MethodSuperAdminOnly, Handler: unary(MethodSuperAdminOnly, AuthServiceServer.SuperAdminOnly)},
		{MethodName: MethodUserAndAdmin, Handler: unary(MethodUserAndAdmin, AuthServiceServer.UserAndAdmin)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "credkeeper/v1/auth",
}

func unary[Req, Resp any](method string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceClient is the typed client stub.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *AuthServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, MethodLogout, in, opts)
}

func (c *AuthServiceClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*WhoAmIResponse, error) {
	return invoke[WhoAmIResponse](ctx, c.cc, MethodWhoAmI, in, opts)
}

// Probe calls one of ProbeMethods.
func (c *AuthServiceClient) Probe(ctx context.Context, method string, opts ...grpc.CallOption) (*ProbeResponse, error) {
	return invoke[ProbeResponse](ctx, c.cc, method, &ProbeRequest{}, opts)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
