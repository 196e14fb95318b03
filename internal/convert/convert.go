// Package convert maps domain models to wire messages and back.
package convert

import (
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

// ParseID parses a canonical UUID string. field names the argument in the error.
func ParseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad %s %q", errs.ErrInvalidArgument, field, s)
	}
	return id, nil
}

// ToAuthority converts a domain authority to its wire form.
func ToAuthority(a model.Authority) *api.Authority {
	return &api.Authority{
		ID:         a.ID.String(),
		Owner:      a.Owner.String(),
		AssetID:    a.AssetID,
		TreasuryID: a.TreasuryID.String(),
		TenantKey:  a.TenantKey,
		CreatedAt:  a.CreatedAt.Unix(),
	}
}

// ToAuthorities converts a slice, keeping order. A nil input yields an empty slice.
func ToAuthorities(in []model.Authority) []api.Authority {
	out := make([]api.Authority, 0, len(in))
	for _, a := range in {
		out = append(out, *ToAuthority(a))
	}
	return out
}

// ToSchedule converts a domain schedule to its wire form.
func ToSchedule(s model.Schedule) *api.Schedule {
	out := &api.Schedule{
		ID:             s.ID.String(),
		AuthorityID:    s.AuthorityID.String(),
		Beneficiary:    s.Beneficiary.String(),
		TotalAmount:    s.TotalAmount,
		TotalWithdrawn: s.TotalWithdrawn,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		CliffTime:      s.CliffTime,
	}
	if s.RevokedAt != nil {
		at := *s.RevokedAt
		out.RevokedAt = &at
	}
	return out
}

// ToSchedules converts a slice, keeping order. A nil input yields an empty slice.
func ToSchedules(in []model.Schedule) []api.Schedule {
	out := make([]api.Schedule, 0, len(in))
	for _, s := range in {
		out = append(out, *ToSchedule(s))
	}
	return out
}

func ToSnapshot(s model.Snapshot) api.Snapshot {
	return api.Snapshot{At: s.At, Vested: s.Vested, Claimable: s.Claimable, Recoverable: s.Recoverable}
}

// ToScheduleView pairs a schedule with its figures.
func ToScheduleView(s model.Schedule, snap model.Snapshot) *api.ScheduleView {
	return &api.ScheduleView{Schedule: *ToSchedule(s), Snapshot: ToSnapshot(snap)}
}

func ToRevokeResponse(e model.ScheduleRevoked) *api.RevokeResponse {
	return &api.RevokeResponse{
		ScheduleID:      e.ScheduleID.String(),
		AuthorityID:     e.AuthorityID.String(),
		Beneficiary:     e.Beneficiary.String(),
		RevokedAt:       e.RevokedAt,
		UnclaimedAmount: e.UnclaimedAmount,
	}
}
