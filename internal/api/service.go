package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophauth.AccountService"

// Full method names, as seen by interceptors.
const (
	MethodRegister           = "/" + ServiceName + "/Register"
	MethodLogin              = "/" + ServiceName + "/Login"
	MethodLogout             = "/" + ServiceName + "/Logout"
	MethodCurrent            = "/" + ServiceName + "/Current"
	MethodVerify             = "/" + ServiceName + "/Verify"
	MethodResendVerification = "/" + ServiceName + "/ResendVerification"
	MethodUploadAvatar       = "/" + ServiceName + "/UploadAvatar"
	MethodListEmails         = "/" + ServiceName + "/ListEmails"
	MethodPing               = "/" + ServiceName + "/Ping"
)

// AccountServiceServer is implemented by the gRPC transport of the server.
type AccountServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Current(context.Context, *CurrentRequest) (*CurrentResponse, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
	ResendVerification(context.Context, *ResendVerificationRequest) (*ResendVerificationResponse, error)
	UploadAvatar(context.Context, *UploadAvatarRequest) (*UploadAvatarResponse, error)
	ListEmails(context.Context, *ListEmailsRequest) (*ListEmailsResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// unary adapts a typed server method to the grpc.MethodDesc handler signature.
func unary[Req any, Resp any](fullMethod string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, AccountServiceServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, AccountServiceServer.Login)},
		{MethodName: "Logout", Handler: unary(MethodLogout, AccountServiceServer.Logout)},
		{MethodName: "Current", Handler: unary(MethodCurrent, AccountServiceServer.Current)},
		{MethodName: "Verify", Handler: unary(MethodVerify, AccountServiceServer.Verify)},
		{MethodName: "ResendVerification", Handler: unary(MethodResendVerification, AccountServiceServer.ResendVerification)},
		{MethodName: "UploadAvatar", Handler: unary(MethodUploadAvatar, AccountServiceServer.UploadAvatar)},
		{MethodName: "ListEmails", Handler: unary(MethodListEmails, AccountServiceServer.ListEmails)},
		{MethodName: "Ping", Handler: unary(MethodPing, AccountServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/account_service",
}

func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountServiceDesc, srv)
}
