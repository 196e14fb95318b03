package api

import (
	"context"

	"google.golang.org/grpc"
)

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// IdentityClient calls vesting.v1.Identity.
type IdentityClient struct{ cc grpc.ClientConnInterface }

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient { return &IdentityClient{cc: cc} }

func (c *IdentityClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *IdentityClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

// VestingClient calls vesting.v1.Vesting.
type VestingClient struct{ cc grpc.ClientConnInterface }

func NewVestingClient(cc grpc.ClientConnInterface) *VestingClient { return &VestingClient{cc: cc} }

func (c *VestingClient) CreateAuthority(ctx context.Context, in *CreateAuthorityRequest, opts ...grpc.CallOption) (*Authority, error) {
	return invoke[Authority](ctx, c.cc, MethodCreateAuthority, in, opts)
}

func (c *VestingClient) GetAuthority(ctx context.Context, in *GetAuthorityRequest, opts ...grpc.CallOption) (*Authority, error) {
	return invoke[Authority](ctx, c.cc, MethodGetAuthority, in, opts)
}

func (c *VestingClient) ListAuthorities(ctx context.Context, in *ListAuthoritiesRequest, opts ...grpc.CallOption) (*ListAuthoritiesResponse, error) {
	return invoke[ListAuthoritiesResponse](ctx, c.cc, MethodListAuthorities, in, opts)
}

func (c *VestingClient) FundTreasury(ctx context.Context, in *FundTreasuryRequest, opts ...grpc.CallOption) (*FundTreasuryResponse, error) {
	return invoke[FundTreasuryResponse](ctx, c.cc, MethodFundTreasury, in, opts)
}

func (c *VestingClient) CreateSchedule(ctx context.Context, in *CreateScheduleRequest, opts ...grpc.CallOption) (*Schedule, error) {
	return invoke[Schedule](ctx, c.cc, MethodCreateSchedule, in, opts)
}

func (c *VestingClient) GetSchedule(ctx context.Context, in *GetScheduleRequest, opts ...grpc.CallOption) (*ScheduleView, error) {
	return invoke[ScheduleView](ctx, c.cc, MethodGetSchedule, in, opts)
}

func (c *VestingClient) ListSchedules(ctx context.Context, in *ListSchedulesRequest, opts ...grpc.CallOption) (*ListSchedulesResponse, error) {
	return invoke[ListSchedulesResponse](ctx, c.cc, MethodListSchedules, in, opts)
}

func (c *VestingClient) Claim(ctx context.Context, in *ClaimRequest, opts ...grpc.CallOption) (*ClaimResponse, error) {
	return invoke[ClaimResponse](ctx, c.cc, MethodClaim, in, opts)
}

func (c *VestingClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	return invoke[GetBalanceResponse](ctx, c.cc, MethodGetBalance, in, opts)
}

// RevocationClient calls vesting.v1.Revocation.
type RevocationClient struct{ cc grpc.ClientConnInterface }

func NewRevocationClient(cc grpc.ClientConnInterface) *RevocationClient {
	return &RevocationClient{cc: cc}
}

func (c *RevocationClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error) {
	return invoke[RevokeResponse](ctx, c.cc, MethodRevoke, in, opts)
}
