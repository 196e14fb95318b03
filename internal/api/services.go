package api

import (
	"context"

	"google.golang.org/grpc"
)

// Service names.
const (
	IdentityServiceName   = "vesting.v1.Identity"
	VestingServiceName    = "vesting.v1.Vesting"
	RevocationServiceName = "vesting.v1.Revocation"
)

// Full method names, as seen by interceptors.
const (
	MethodRegister = "/" + IdentityServiceName + "/Register"
	MethodLogin    = "/" + IdentityServiceName + "/Login"

	MethodCreateAuthority = "/" + VestingServiceName + "/CreateAuthority"
	MethodGetAuthority    = "/" + VestingServiceName + "/GetAuthority"
	MethodListAuthorities = "/" + VestingServiceName + "/ListAuthorities"
	MethodFundTreasury    = "/" + VestingServiceName + "/FundTreasury"
	MethodCreateSchedule  = "/" + VestingServiceName + "/CreateSchedule"
	MethodGetSchedule     = "/" + VestingServiceName + "/GetSchedule"
	MethodListSchedules   = "/" + VestingServiceName + "/ListSchedules"
	MethodClaim           = "/" + VestingServiceName + "/Claim"
	MethodGetBalance      = "/" + VestingServiceName + "/GetBalance"

	MethodRevoke = "/" + RevocationServiceName + "/Revoke"
)

// IdentityServer is the server API of vesting.v1.Identity.
type IdentityServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
}

// VestingServer is the server API of vesting.v1.Vesting.
type VestingServer interface {
	CreateAuthority(context.Context, *CreateAuthorityRequest) (*Authority, error)
	GetAuthority(context.Context, *GetAuthorityRequest) (*Authority, error)
	ListAuthorities(context.Context, *ListAuthoritiesRequest) (*ListAuthoritiesResponse, error)
	FundTreasury(context.Context, *FundTreasuryRequest) (*FundTreasuryResponse, error)
	CreateSchedule(context.Context, *CreateScheduleRequest) (*Schedule, error)
	GetSchedule(context.Context, *GetScheduleRequest) (*ScheduleView, error)
	ListSchedules(context.Context, *ListSchedulesRequest) (*ListSchedulesResponse, error)
	Claim(context.Context, *ClaimRequest) (*ClaimResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
}

// RevocationServer is the server API of vesting.v1.Revocation.
type RevocationServer interface {
	Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error)
}

// unary adapts a typed method to a grpc.MethodHandler.
func unary[S, Req, Resp any](fullMethod string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var identityDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, IdentityServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, IdentityServer.Login)},
	},
	Metadata: "vesting/v1/identity",
}

var vestingDesc = grpc.ServiceDesc{
	ServiceName: VestingServiceName,
	HandlerType: (*VestingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAuthority", Handler: unary(MethodCreateAuthority, VestingServer.CreateAuthority)},
		{MethodName: "GetAuthority", Handler: unary(MethodGetAuthority, VestingServer.GetAuthority)},
		{MethodName: "ListAuthorities", Handler: unary(MethodListAuthorities, VestingServer.ListAuthorities)},
		{MethodName: "FundTreasury", Handler: unary(MethodFundTreasury, VestingServer.FundTreasury)},
		{MethodName: "CreateSchedule", Handler: unary(MethodCreateSchedule, VestingServer.CreateSchedule)},
		{MethodName: "GetSchedule", Handler: unary(MethodGetSchedule, VestingServer.GetSchedule)},
		{MethodName: "ListSchedules", Handler: unary(MethodListSchedules, VestingServer.ListSchedules)},
		{MethodName: "Claim", Handler: unary(MethodClaim, VestingServer.Claim)},
		{MethodName: "GetBalance", Handler: unary(MethodGetBalance, VestingServer.GetBalance)},
	},
	Metadata: "vesting/v1/vesting",
}

var revocationDesc = grpc.ServiceDesc{
	ServiceName: RevocationServiceName,
	HandlerType: (*RevocationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Revoke", Handler: unary(MethodRevoke, RevocationServer.Revoke)},
	},
	Metadata: "vesting/v1/revocation",
}

// RegisterIdentityServer registers srv with s.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&identityDesc, srv)
}

// RegisterVestingServer registers srv with s.
func RegisterVestingServer(s grpc.ServiceRegistrar, srv VestingServer) {
	s.RegisterService(&vestingDesc, srv)
}

// RegisterRevocationServer registers srv with s. Deployments without
// revocation simply do not call it.
func RegisterRevocationServer(s grpc.ServiceRegistrar, srv RevocationServer) {
	s.RegisterService(&revocationDesc, srv)
}
