package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// RevocationService stops schedules. It is only wired into deployments
// that offer revocation.
type RevocationService interface {
	Revoke(ctx context.Context, caller, authorityID, scheduleID uuid.UUID) (model.ScheduleRevoked, error)
}

// Revoker implements RevocationService.
type Revoker struct {
	tx          repository.Transactor
	authorities repository.AuthorityRepository
	schedules   repository.ScheduleRepository
	events      events.Emitter
	now         func() time.Time
}

// NewRevoker constructs a Revoker.
func NewRevoker(repos repository.Set, em events.Emitter) *Revoker {
	return &Revoker{
		tx:          repos.Tx,
		authorities: repos.Authorities,
		schedules:   repos.Schedules,
		events:      em,
		now:         time.Now,
	}
}

// Revoke marks a schedule revoked and reports the unclaimed remainder.
// A schedule of another authority is reported as not found.
func (r *Revoker) Revoke(ctx context.Context, caller, authorityID, scheduleID uuid.UUID) (model.ScheduleRevoked, error) {
	now := r.now().Unix()
	var ev model.ScheduleRevoked
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := r.authorities.Get(ctx, authorityID)
		if err != nil {
			return err
		}
		if !a.HasOwner(caller) {
			return errs.ErrUnauthorized
		}
		s, err := r.schedules.GetForUpdate(ctx, scheduleID)
		if err != nil {
			return err
		}
		if s.AuthorityID != a.ID {
			return errs.ErrNotFound
		}
		if s.Revoked() {
			return errs.ErrAlreadyRevoked
		}

		s.RevokedAt = &now
		if err := r.schedules.Update(ctx, s); err != nil {
			return err
		}
		ev = model.ScheduleRevoked{
			ScheduleID:      s.ID,
			AuthorityID:     a.ID,
			Beneficiary:     s.Beneficiary,
			RevokedAt:       now,
			UnclaimedAmount: s.Unclaimed(),
		}
		return r.events.Emit(ctx, ev)
	})
	if err != nil {
		return model.ScheduleRevoked{}, err
	}
	return ev, nil
}
