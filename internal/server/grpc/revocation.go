package grpcserver

import (
	"context"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/convert"
	"github.com/and161185/vesting-engine/internal/service"
)

// Revocation serves vesting.v1.Revocation.
type Revocation struct {
	svc service.RevocationService
}

func NewRevocation(svc service.RevocationService) *Revocation { return &Revocation{svc: svc} }

// Revoke stops further vesting of a schedule.
func (r *Revocation) Revoke(ctx context.Context, req *api.RevokeRequest) (*api.RevokeResponse, error) {
	who, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	authID, err := convert.ParseID("authority_id", req.AuthorityID)
	if err != nil {
		return nil, err
	}
	schedID, err := convert.ParseID("schedule_id", req.ScheduleID)
	if err != nil {
		return nil, err
	}
	ev, err := r.svc.Revoke(ctx, who, authID, schedID)
	if err != nil {
		return nil, err
	}
	return convert.ToRevokeResponse(ev), nil
}
