package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/dmitrijs2005/taskmark/internal/models"
)

const ServiceName = "taskmark.v1.Backend"

const (
	MethodSignUp                = "/taskmark.v1.Backend/SignUp"
	MethodSignIn                = "/taskmark.v1.Backend/SignIn"
	MethodRefreshToken          = "/taskmark.v1.Backend/RefreshToken"
	MethodSignOut               = "/taskmark.v1.Backend/SignOut"
	MethodGetUser               = "/taskmark.v1.Backend/GetUser"
	MethodUpdateUser            = "/taskmark.v1.Backend/UpdateUser"
	MethodResetPasswordForEmail = "/taskmark.v1.Backend/ResetPasswordForEmail"
	MethodVerifyRecovery        = "/taskmark.v1.Backend/VerifyRecovery"
	MethodSelect                = "/taskmark.v1.Backend/Select"
	MethodInsert                = "/taskmark.v1.Backend/Insert"
	MethodUpdate                = "/taskmark.v1.Backend/Update"
	MethodDelete                = "/taskmark.v1.Backend/Delete"
	MethodPing                  = "/taskmark.v1.Backend/Ping"
)

// PublicMethods can be called without an access token.
var PublicMethods = map[string]bool{
	MethodSignUp:                true,
	MethodSignIn:                true,
	MethodRefreshToken:          true,
	MethodResetPasswordForEmail: true,
	MethodVerifyRecovery:        true,
	MethodPing:                  true,
}

// BackendClient is the client API for the taskmark.v1.Backend service.
type BackendClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*models.Session, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*models.Session, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*models.TokenPair, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetUser(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*UserResponse, error)
	UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*UserResponse, error)
	ResetPasswordForEmail(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	VerifyRecovery(ctx context.Context, in *VerifyRecoveryRequest, opts ...grpc.CallOption) (*models.Session, error)
	Select(ctx context.Context, in *SelectRequest, opts ...grpc.CallOption) (*SelectResponse, error)
	Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*RowResponse, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*RowResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*PingResponse, error)
}

type backendClient struct {
	cc grpc.ClientConnInterface
}

func NewBackendClient(cc grpc.ClientConnInterface) BackendClient {
	return &backendClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *backendClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*models.Session, error) {
	return invoke[SignUpRequest, models.Session](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *backendClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*models.Session, error) {
	return invoke[SignInRequest, models.Session](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *backendClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*models.TokenPair, error) {
	return invoke[RefreshTokenRequest, models.TokenPair](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *backendClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[SignOutRequest, emptypb.Empty](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *backendClient) GetUser(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[emptypb.Empty, UserResponse](ctx, c.cc, MethodGetUser, in, opts)
}

func (c *backendClient) UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[UpdateUserRequest, UserResponse](ctx, c.cc, MethodUpdateUser, in, opts)
}

func (c *backendClient) ResetPasswordForEmail(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[ResetPasswordRequest, emptypb.Empty](ctx, c.cc, MethodResetPasswordForEmail, in, opts)
}

func (c *backendClient) VerifyRecovery(ctx context.Context, in *VerifyRecoveryRequest, opts ...grpc.CallOption) (*models.Session, error) {
	return invoke[VerifyRecoveryRequest, models.Session](ctx, c.cc, MethodVerifyRecovery, in, opts)
}

func (c *backendClient) Select(ctx context.Context, in *SelectRequest, opts ...grpc.CallOption) (*SelectResponse, error) {
	return invoke[SelectRequest, SelectResponse](ctx, c.cc, MethodSelect, in, opts)
}

func (c *backendClient) Insert(ctx context.Context, in *InsertRequest, opts ...grpc.CallOption) (*RowResponse, error) {
	return invoke[InsertRequest, RowResponse](ctx, c.cc, MethodInsert, in, opts)
}

func (c *backendClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*RowResponse, error) {
	return invoke[UpdateRequest, RowResponse](ctx, c.cc, MethodUpdate, in, opts)
}

func (c *backendClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[DeleteRequest, emptypb.Empty](ctx, c.cc, MethodDelete, in, opts)
}

func (c *backendClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[emptypb.Empty, PingResponse](ctx, c.cc, MethodPing, in, opts)
}

// BackendServer is the server API for the taskmark.v1.Backend service.
type BackendServer interface {
	SignUp(context.Context, *SignUpRequest) (*models.Session, error)
	SignIn(context.Context, *SignInRequest) (*models.Session, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*models.TokenPair, error)
	SignOut(context.Context, *SignOutRequest) (*emptypb.Empty, error)
	GetUser(context.Context, *emptypb.Empty) (*UserResponse, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error)
	ResetPasswordForEmail(context.Context, *ResetPasswordRequest) (*emptypb.Empty, error)
	VerifyRecovery(context.Context, *VerifyRecoveryRequest) (*models.Session, error)
	Select(context.Context, *SelectRequest) (*SelectResponse, error)
	Insert(context.Context, *InsertRequest) (*RowResponse, error)
	Update(context.Context, *UpdateRequest) (*RowResponse, error)
	Delete(context.Context, *DeleteRequest) (*emptypb.Empty, error)
	Ping(context.Context, *emptypb.Empty) (*PingResponse, error)
}

// UnimplementedBackendServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedBackendServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedBackendServer) SignUp(context.Context, *SignUpRequest) (*models.Session, error) {
	return nil, unimplemented("SignUp")
}
func (UnimplementedBackendServer) SignIn(context.Context, *SignInRequest) (*models.Session, error) {
	return nil, unimplemented("SignIn")
}
func (UnimplementedBackendServer) RefreshToken(context.Context, *RefreshTokenRequest) (*models.TokenPair, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedBackendServer) SignOut(context.Context, *SignOutRequest) (*emptypb.Empty, error) {
	return nil, unimplemented("SignOut")
}
func (UnimplementedBackendServer) GetUser(context.Context, *emptypb.Empty) (*UserResponse, error) {
	return nil, unimplemented("GetUser")
}
func (UnimplementedBackendServer) UpdateUser(context.Context, *UpdateUserRequest) (*UserResponse, error) {
	return nil, unimplemented("UpdateUser")
}
func (UnimplementedBackendServer) ResetPasswordForEmail(context.Context, *ResetPasswordRequest) (*emptypb.Empty, error) {
	return nil, unimplemented("ResetPasswordForEmail")
}
func (UnimplementedBackendServer) VerifyRecovery(context.Context, *VerifyRecoveryRequest) (*models.Session, error) {
	return nil, unimplemented("VerifyRecovery")
}
func (UnimplementedBackendServer) Select(context.Context, *SelectRequest) (*SelectResponse, error) {
	return nil, unimplemented("Select")
}
func (UnimplementedBackendServer) Insert(context.Context, *InsertRequest) (*RowResponse, error) {
	return nil, unimplemented("Insert")
}
func (UnimplementedBackendServer) Update(context.Context, *UpdateRequest) (*RowResponse, error) {
	return nil, unimplemented("Update")
}
func (UnimplementedBackendServer) Delete(context.Context, *DeleteRequest) (*emptypb.Empty, error) {
	return nil, unimplemented("Delete")
}
func (UnimplementedBackendServer) Ping(context.Context, *emptypb.Empty) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}

func RegisterBackendServer(s grpc.ServiceRegistrar, srv BackendServer) {
	s.RegisterService(&Backend_ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(BackendServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BackendServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BackendServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Backend_ServiceDesc is the grpc.ServiceDesc for the taskmark.v1.Backend service.
var Backend_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(MethodSignUp, BackendServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(MethodSignIn, BackendServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unaryHandler(MethodRefreshToken, BackendServer.RefreshToken)},
		{MethodName: "SignOut", Handler: unaryHandler(MethodSignOut, BackendServer.SignOut)},
		{MethodName: "GetUser", Handler: unaryHandler(MethodGetUser, BackendServer.GetUser)},
		{MethodName: "UpdateUser", Handler: unaryHandler(MethodUpdateUser, BackendServer.UpdateUser)},
		{MethodName: "ResetPasswordForEmail", Handler: unaryHandler(MethodResetPasswordForEmail, BackendServer.ResetPasswordForEmail)},
		{MethodName: "VerifyRecovery", Handler: unaryHandler(MethodVerifyRecovery, BackendServer.VerifyRecovery)},
		{MethodName: "Select", Handler: unaryHandler(MethodSelect, BackendServer.Select)},
		{MethodName: "Insert", Handler: unaryHandler(MethodInsert, BackendServer.Insert)},
		{MethodName: "Update", Handler: unaryHandler(MethodUpdate, BackendServer.Update)},
		{MethodName: "Delete", Handler: unaryHandler(MethodDelete, BackendServer.Delete)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, BackendServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskmark/v1/backend",
}
