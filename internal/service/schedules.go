package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/address"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
	"github.com/and161185/vesting-engine/internal/vesting"
)

// ScheduleService creates and reads vesting schedules.
type ScheduleService interface {
	// CreateSchedule adds a beneficiary's grant to an authority. Owner only.
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (model.Schedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (model.Schedule, error)
	// ListSchedules returns an authority's schedules ordered by start time.
	ListSchedules(ctx context.Context, authorityID uuid.UUID) ([]model.Schedule, error)
	// ListGrants returns the schedules granted to a beneficiary across all
	// authorities, ordered by start time.
	ListGrants(ctx context.Context, beneficiary uuid.UUID) ([]model.Schedule, error)
	// Preview returns the schedule with its figures at the current time.
	Preview(ctx context.Context, id uuid.UUID) (model.Schedule, model.Snapshot, error)
	// PreviewAt is Preview at an arbitrary Unix time.
	PreviewAt(ctx context.Context, id uuid.UUID, at int64) (model.Schedule, model.Snapshot, error)
}

// CreateScheduleRequest carries the parameters of a new schedule.
// Times are Unix seconds.
type CreateScheduleRequest struct {
	Caller      uuid.UUID
	AuthorityID uuid.UUID
	Beneficiary uuid.UUID
	StartTime   int64
	EndTime     int64
	CliffTime   int64
	TotalAmount uint64
}

type ScheduleServiceImpl struct {
	tx          repository.Transactor
	authorities repository.AuthorityRepository
	schedules   repository.ScheduleRepository
	events      events.Emitter
	now         func() time.Time
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repos repository.Set, em events.Emitter) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		tx:          repos.Tx,
		authorities: repos.Authorities,
		schedules:   repos.Schedules,
		events:      em,
		now:         time.Now,
	}
}

// CreateSchedule checks, in order: the authority exists, the caller owns it,
// the period is non-empty, the cliff is not before the start, the amount is
// positive, and no schedule exists yet for the (beneficiary, authority) pair.
func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (model.Schedule, error) {
	var sc model.Schedule
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.authorities.Get(ctx, req.AuthorityID)
		if err != nil {
			return err
		}
		if !a.HasOwner(req.Caller) {
			return errs.ErrUnauthorized
		}
		if req.Beneficiary == uuid.Nil {
			return fmt.Errorf("%w: empty beneficiary", errs.ErrInvalidArgument)
		}
		if req.EndTime <= req.StartTime {
			return errs.ErrInvalidVestingPeriod
		}
		if req.CliffTime < req.StartTime {
			return errs.ErrInvalidCliffTime
		}
		if req.TotalAmount == 0 {
			return errs.ErrZeroAmount
		}

		sc = model.Schedule{
			ID:          address.Schedule(req.Beneficiary, a.ID),
			AuthorityID: a.ID,
			Beneficiary: req.Beneficiary,
			TotalAmount: req.TotalAmount,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			CliffTime:   req.CliffTime,
		}
		if err := s.schedules.Create(ctx, &sc); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.ScheduleCreated{
			ScheduleID:  sc.ID,
			AuthorityID: sc.AuthorityID,
			Beneficiary: sc.Beneficiary,
			TotalAmount: sc.TotalAmount,
			StartTime:   sc.StartTime,
		})
	})
	if err != nil {
		return model.Schedule{}, err
	}
	return sc, nil
}

func (s *ScheduleServiceImpl) GetSchedule(ctx context.Context, id uuid.UUID) (model.Schedule, error) {
	sc, err := s.schedules.Get(ctx, id)
	if err != nil {
		return model.Schedule{}, err
	}
	return *sc, nil
}

func (s *ScheduleServiceImpl) ListSchedules(ctx context.Context, authorityID uuid.UUID) ([]model.Schedule, error) {
	if _, err := s.authorities.Get(ctx, authorityID); err != nil {
		return nil, err
	}
	return s.schedules.ListByAuthority(ctx, authorityID)
}

func (s *ScheduleServiceImpl) ListGrants(ctx context.Context, beneficiary uuid.UUID) ([]model.Schedule, error) {
	if beneficiary == uuid.Nil {
		return nil, fmt.Errorf("%w: empty beneficiary", errs.ErrInvalidArgument)
	}
	return s.schedules.ListByBeneficiary(ctx, beneficiary)
}

func (s *ScheduleServiceImpl) Preview(ctx context.Context, id uuid.UUID) (model.Schedule, model.Snapshot, error) {
	return s.PreviewAt(ctx, id, s.now().Unix())
}

func (s *ScheduleServiceImpl) PreviewAt(ctx context.Context, id uuid.UUID, at int64) (model.Schedule, model.Snapshot, error) {
	sc, err := s.GetSchedule(ctx, id)
	if err != nil {
		return model.Schedule{}, model.Snapshot{}, err
	}
	snap, err := vesting.Preview(sc, at)
	if err != nil {
		return model.Schedule{}, model.Snapshot{}, err
	}
	return sc, snap, nil
}
