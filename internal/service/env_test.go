package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
	"github.com/and161185/vesting-engine/internal/repository/memory"
	"github.com/and161185/vesting-engine/internal/treasury"
)

const t0 = int64(1_700_000_000)

// env is a complete engine over the in-memory store with a settable clock.
type env struct {
	store   *memory.Store
	repos   repository.Set
	keeper  *treasury.Keeper
	auth    *AuthorityServiceImpl
	sched   *ScheduleServiceImpl
	claims  *ClaimEngine
	revoker *Revoker
	now     int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	repos := store.Repos()
	keeper := treasury.NewKeeper(memory.NewLedgerRepo(store))
	em := events.NewOutbox(repos.Events)

	e := &env{
		store:   store,
		repos:   repos,
		keeper:  keeper,
		auth:    NewAuthorityService(repos, keeper, em),
		sched:   NewScheduleService(repos, em),
		claims:  NewClaimEngine(repos, keeper, em),
		revoker: NewRevoker(repos, em),
		now:     t0,
	}
	clock := func() time.Time { return time.Unix(e.now, 0) }
	e.auth.now, e.sched.now, e.claims.now, e.revoker.now = clock, clock, clock, clock
	return e
}

func newID() uuid.UUID { return uuid.Must(uuid.NewV4()) }

// authority creates a funded authority owned by a fresh identity.
func (e *env) authority(t *testing.T, tenant string, funds uint64) (model.Authority, uuid.UUID) {
	t.Helper()
	owner := newID()
	a, err := e.auth.CreateAuthority(context.Background(), owner, "MESG", tenant)
	require.NoError(t, err)
	if funds > 0 {
		_, err = e.auth.FundTreasury(context.Background(), owner, a.ID, funds)
		require.NoError(t, err)
	}
	return a, owner
}

// schedule creates the reference grant: 1000 over [t0, t0+1000], cliff at t0+100.
func (e *env) schedule(t *testing.T, a model.Authority, owner, ben uuid.UUID) model.Schedule {
	t.Helper()
	s, err := e.sched.CreateSchedule(context.Background(), CreateScheduleRequest{
		Caller:      owner,
		AuthorityID: a.ID,
		Beneficiary: ben,
		StartTime:   t0,
		EndTime:     t0 + 1000,
		CliffTime:   t0 + 100,
		TotalAmount: 1000,
	})
	require.NoError(t, err)
	return s
}

// emitted returns the committed events decoded, oldest first.
func (e *env) emitted(t *testing.T) []model.Event {
	t.Helper()
	recs, err := e.repos.Events.Unpublished(context.Background(), 1000)
	require.NoError(t, err)
	out := make([]model.Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := events.Decode(rec.Kind, rec.AggregateID, rec.Payload)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func (e *env) balance(t *testing.T, account uuid.UUID) uint64 {
	t.Helper()
	b, err := e.keeper.Balance(context.Background(), account, "MESG")
	require.NoError(t, err)
	return b
}
