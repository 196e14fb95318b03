package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
	"github.com/and161185/vesting-engine/internal/treasury"
	"github.com/and161185/vesting-engine/internal/vesting"
)

// ClaimService releases vested tokens to beneficiaries.
type ClaimService interface {
	// Claim transfers everything claimable now and returns the amount.
	Claim(ctx context.Context, caller, scheduleID uuid.UUID) (uint64, error)
	// Balance returns an account's custody balance of assetID.
	Balance(ctx context.Context, account uuid.UUID, assetID string) (uint64, error)
}

// ClaimEngine implements ClaimService. A claim locks the schedule record for
// its whole transaction, so concurrent claims on one schedule serialize and
// the second one sees the first one's withdrawal.
type ClaimEngine struct {
	tx          repository.Transactor
	authorities repository.AuthorityRepository
	schedules   repository.ScheduleRepository
	keeper      *treasury.Keeper
	events      events.Emitter
	now         func() time.Time
}

// NewClaimEngine constructs the claim engine.
func NewClaimEngine(repos repository.Set, keeper *treasury.Keeper, em events.Emitter) *ClaimEngine {
	return &ClaimEngine{
		tx:          repos.Tx,
		authorities: repos.Authorities,
		schedules:   repos.Schedules,
		keeper:      keeper,
		events:      em,
		now:         time.Now,
	}
}

// Claim checks, in order: the caller is the beneficiary, the schedule is not
// revoked, the cliff has passed, something is claimable. The transfer, the
// withdrawn counter and the TokensClaimed event commit together or not at all.
func (e *ClaimEngine) Claim(ctx context.Context, caller, scheduleID uuid.UUID) (uint64, error) {
	now := e.now().Unix()
	var claimed uint64
	err := e.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := e.schedules.GetForUpdate(ctx, scheduleID)
		if err != nil {
			return err
		}
		if caller == uuid.Nil || caller != s.Beneficiary {
			return errs.ErrUnauthorized
		}
		if s.Revoked() {
			return errs.ErrRevokedSchedule
		}
		if now < s.CliffTime {
			return errs.ErrUnavailableClaim
		}
		amount, err := vesting.Claimable(*s, now)
		if err != nil {
			return err
		}

		a, err := e.authorities.Get(ctx, s.AuthorityID)
		if err != nil {
			return err
		}
		if err := e.keeper.Signer(*a).Release(ctx, s.Beneficiary, amount); err != nil {
			return err
		}
		if s.TotalWithdrawn, err = vesting.AddWithdrawn(s.TotalWithdrawn, amount); err != nil {
			return err
		}
		if err := e.schedules.Update(ctx, s); err != nil {
			return err
		}
		claimed = amount
		return e.events.Emit(ctx, model.TokensClaimed{
			ScheduleID:  s.ID,
			Beneficiary: s.Beneficiary,
			Amount:      amount,
			ClaimedAt:   now,
		})
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}

func (e *ClaimEngine) Balance(ctx context.Context, account uuid.UUID, assetID string) (uint64, error) {
	return e.keeper.Balance(ctx, account, assetID)
}
