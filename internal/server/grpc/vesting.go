package grpcserver

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/convert"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/service"
)

// CreateAuthority creates an authority owned by the caller.
func (s *Server) CreateAuthority(ctx context.Context, req *api.CreateAuthorityRequest) (*api.Authority, error) {
	owner, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.authorities.CreateAuthority(ctx, owner, req.AssetID, req.TenantKey)
	if err != nil {
		return nil, err
	}
	return convert.ToAuthority(a), nil
}

// GetAuthority returns an authority with its current treasury balance.
func (s *Server) GetAuthority(ctx context.Context, req *api.GetAuthorityRequest) (*api.Authority, error) {
	var (
		a   model.Authority
		err error
	)
	if req.ID == "" && req.TenantKey != "" {
		a, err = s.authorities.GetAuthorityByTenant(ctx, req.TenantKey)
	} else {
		var id uuid.UUID
		if id, err = convert.ParseID("id", req.ID); err != nil {
			return nil, err
		}
		a, err = s.authorities.GetAuthority(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	bal, err := s.authorities.TreasuryBalance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	out := convert.ToAuthority(a)
	out.TreasuryBalance = bal
	return out, nil
}

// ListAuthorities returns the authorities of req.Owner, the caller by default.
func (s *Server) ListAuthorities(ctx context.Context, req *api.ListAuthoritiesRequest) (*api.ListAuthoritiesResponse, error) {
	var (
		owner uuid.UUID
		err   error
	)
	if req.Owner != "" {
		owner, err = convert.ParseID("owner", req.Owner)
	} else {
		owner, err = caller(ctx)
	}
	if err != nil {
		return nil, err
	}
	list, err := s.authorities.ListAuthorities(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &api.ListAuthoritiesResponse{Authorities: convert.ToAuthorities(list)}, nil
}

// FundTreasury deposits into an authority's treasury.
func (s *Server) FundTreasury(ctx context.Context, req *api.FundTreasuryRequest) (*api.FundTreasuryResponse, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID("authority_id", req.AuthorityID)
	if err != nil {
		return nil, err
	}
	bal, err := s.authorities.FundTreasury(ctx, who, id, req.Amount)
	if err != nil {
		return nil, err
	}
	return &api.FundTreasuryResponse{Balance: bal}, nil
}

// CreateSchedule creates a grant under an authority owned by the caller.
func (s *Server) CreateSchedule(ctx context.Context, req *api.CreateScheduleRequest) (*api.Schedule, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	authID, err := convert.ParseID("authority_id", req.AuthorityID)
	if err != nil {
		return nil, err
	}
	ben, err := convert.ParseID("beneficiary", req.Beneficiary)
	if err != nil {
		return nil, err
	}
	sc, err := s.schedules.CreateSchedule(ctx, service.CreateScheduleRequest{
		Caller:      who,
		AuthorityID: authID,
		Beneficiary: ben,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CliffTime:   req.CliffTime,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		return nil, err
	}
	return convert.ToSchedule(sc), nil
}

// GetSchedule returns a schedule with its figures now, or at req.At.
func (s *Server) GetSchedule(ctx context.Context, req *api.GetScheduleRequest) (*api.ScheduleView, error) {
	id, err := convert.ParseID("id", req.ID)
	if err != nil {
		return nil, err
	}
	var (
		sc   model.Schedule
		snap model.Snapshot
	)
	if req.At != nil {
		sc, snap, err = s.schedules.PreviewAt(ctx, id, *req.At)
	} else {
		sc, snap, err = s.schedules.Preview(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return convert.ToScheduleView(sc, snap), nil
}

// ListSchedules returns the schedules of an authority, or the grants of a
// beneficiary (the caller by default).
func (s *Server) ListSchedules(ctx context.Context, req *api.ListSchedulesRequest) (*api.ListSchedulesResponse, error) {
	var (
		list []model.Schedule
		id   uuid.UUID
		err  error
	)
	switch {
	case req.AuthorityID != "":
		if id, err = convert.ParseID("authority_id", req.AuthorityID); err != nil {
			return nil, err
		}
		list, err = s.schedules.ListSchedules(ctx, id)
	case req.Beneficiary != "":
		if id, err = convert.ParseID("beneficiary", req.Beneficiary); err != nil {
			return nil, err
		}
		list, err = s.schedules.ListGrants(ctx, id)
	default:
		if id, err = caller(ctx); err != nil {
			return nil, err
		}
		list, err = s.schedules.ListGrants(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &api.ListSchedulesResponse{Schedules: convert.ToSchedules(list)}, nil
}

// Claim transfers everything currently claimable to the caller.
func (s *Server) Claim(ctx context.Context, req *api.ClaimRequest) (*api.ClaimResponse, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := convert.ParseID("schedule_id", req.ScheduleID)
	if err != nil {
		return nil, err
	}
	amount, err := s.claims.Claim(ctx, who, id)
	if err != nil {
		return nil, err
	}
	return &api.ClaimResponse{Amount: amount}, nil
}

// GetBalance returns an account's custody balance of an asset.
// AccountID defaults to the caller.
func (s *Server) GetBalance(ctx context.Context, req *api.GetBalanceRequest) (*api.GetBalanceResponse, error) {
	var (
		id  uuid.UUID
		err error
	)
	if req.AccountID == "" {
		id, err = caller(ctx)
	} else {
		id, err = convert.ParseID("account_id", req.AccountID)
	}
	if err != nil {
		return nil, err
	}
	bal, err := s.claims.Balance(ctx, id, req.AssetID)
	if err != nil {
		return nil, err
	}
	return &api.GetBalanceResponse{AccountID: id.String(), AssetID: req.AssetID, Balance: bal}, nil
}
