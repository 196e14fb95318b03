package memory

import (
	"context"
	"math/bits"
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

// AccountRepo implements AccountRepository in memory.
type AccountRepo struct{ s *Store }

// NewAccountRepo constructs an account repository over s.
func NewAccountRepo(s *Store) *AccountRepo { return &AccountRepo{s: s} }

func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := s.accountNames[a.Name]; ok {
		return errs.ErrAlreadyExists
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = *a
	s.accountNames[a.Name] = a.ID
	record(ctx, func() {
		delete(s.accounts, a.ID)
		delete(s.accountNames, a.Name)
	})
	return nil
}

func (r *AccountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepo) GetByName(ctx context.Context, name string) (*model.Account, error) {
	r.s.mu.Lock()
	id, ok := r.s.accountNames[name]
	r.s.mu.Unlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// AuthorityRepo implements AuthorityRepository in memory.
type AuthorityRepo struct{ s *Store }

// NewAuthorityRepo constructs an authority repository over s.
func NewAuthorityRepo(s *Store) *AuthorityRepo { return &AuthorityRepo{s: s} }

func (r *AuthorityRepo) Create(ctx context.Context, a *model.Authority) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.authorities[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := s.tenantKeys[a.TenantKey]; ok {
		return errs.ErrAlreadyExists
	}
	s.authorities[a.ID] = *a
	s.tenantKeys[a.TenantKey] = a.ID
	record(ctx, func() {
		delete(s.authorities, a.ID)
		delete(s.tenantKeys, a.TenantKey)
	})
	return nil
}

func (r *AuthorityRepo) Get(_ context.Context, id uuid.UUID) (*model.Authority, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.authorities[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (r *AuthorityRepo) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Authority, error) {
	r.s.mu.Lock()
	var out []model.Authority
	for _, a := range r.s.authorities {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	r.s.mu.Unlock()
	slices.SortFunc(out, func(a, b model.Authority) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID.Bytes(), b.ID.Bytes())
	})
	return out, nil
}

// ScheduleRepo implements ScheduleRepository in memory.
type ScheduleRepo struct{ s *Store }

// NewScheduleRepo constructs a schedule repository over s.
func NewScheduleRepo(s *Store) *ScheduleRepo { return &ScheduleRepo{s: s} }

func (r *ScheduleRepo) Create(ctx context.Context, sc *model.Schedule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[sc.ID]; ok {
		return errs.ErrAlreadyExists
	}
	s.schedules[sc.ID] = clone(*sc)
	record(ctx, func() { delete(s.schedules, sc.ID) })
	return nil
}

func (r *ScheduleRepo) Get(_ context.Context, id uuid.UUID) (*model.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.schedules[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	sc = clone(sc)
	return &sc, nil
}

func (r *ScheduleRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	if err := r.s.lockRow(ctx, id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *ScheduleRepo) Update(ctx context.Context, sc *model.Schedule) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.schedules[sc.ID]
	if !ok {
		return errs.ErrNotFound
	}
	next := prev
	next.TotalWithdrawn = sc.TotalWithdrawn
	next.RevokedAt = sc.RevokedAt
	s.schedules[sc.ID] = clone(next)
	record(ctx, func() { s.schedules[sc.ID] = prev })
	return nil
}

func (r *ScheduleRepo) ListByAuthority(_ context.Context, authorityID uuid.UUID) ([]model.Schedule, error) {
	return r.list(func(sc model.Schedule) bool { return sc.AuthorityID == authorityID }), nil
}

func (r *ScheduleRepo) ListByBeneficiary(_ context.Context, beneficiary uuid.UUID) ([]model.Schedule, error) {
	return r.list(func(sc model.Schedule) bool { return sc.Beneficiary == beneficiary }), nil
}

// list returns the matching schedules ordered by start time, then id.
func (r *ScheduleRepo) list(match func(model.Schedule) bool) []model.Schedule {
	r.s.mu.Lock()
	var out []model.Schedule
	for _, sc := range r.s.schedules {
		if match(sc) {
			out = append(out, clone(sc))
		}
	}
	r.s.mu.Unlock()
	slices.SortFunc(out, func(a, b model.Schedule) int {
		if a.StartTime != b.StartTime {
			if a.StartTime < b.StartTime {
				return -1
			}
			return 1
		}
		return slices.Compare(a.ID.Bytes(), b.ID.Bytes())
	})
	return out
}

func clone(sc model.Schedule) model.Schedule {
	if sc.RevokedAt != nil {
		at := *sc.RevokedAt
		sc.RevokedAt = &at
	}
	return sc
}

// LedgerRepo implements LedgerRepository in memory.
type LedgerRepo struct{ s *Store }

// NewLedgerRepo constructs a ledger over s.
func NewLedgerRepo(s *Store) *LedgerRepo { return &LedgerRepo{s: s} }

func (r *LedgerRepo) Deposit(ctx context.Context, account uuid.UUID, assetID string, amount uint64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	k := balanceKey{account, assetID}
	sum, carry := bits.Add64(s.balances[k], amount, 0)
	if carry != 0 {
		return errs.ErrCalculationOverflow
	}
	s.balances[k] = sum
	record(ctx, func() { s.balances[k] -= amount })
	return nil
}

func (r *LedgerRepo) Transfer(ctx context.Context, from, to uuid.UUID, assetID string, amount uint64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	src, dst := balanceKey{from, assetID}, balanceKey{to, assetID}
	if s.balances[src] < amount {
		return errs.ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	sum, carry := bits.Add64(s.balances[dst], amount, 0)
	if carry != 0 {
		return errs.ErrCalculationOverflow
	}
	s.balances[src] -= amount
	s.balances[dst] = sum
	record(ctx, func() {
		s.balances[dst] -= amount
		s.balances[src] += amount
	})
	return nil
}

func (r *LedgerRepo) Balance(_ context.Context, account uuid.UUID, assetID string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.balances[balanceKey{account, assetID}], nil
}

// Outbox implements EventLog in memory. Events appended inside a
// transaction are hidden from Unpublished until it commits.
type Outbox struct{ s *Store }

// NewOutbox constructs an outbox over s.
func NewOutbox(s *Store) *Outbox { return &Outbox{s: s} }

func (o *Outbox) Append(ctx context.Context, rec model.EventRecord) (int64, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rec.Seq = s.seq
	e := &event{rec: rec}
	s.events = append(s.events, e)
	if t, ok := txFrom(ctx); ok {
		t.onCommit = append(t.onCommit, func() { e.committed = true })
		t.undo = append(t.undo, func() {
			s.events = slices.DeleteFunc(s.events, func(x *event) bool { return x == e })
		})
	} else {
		e.committed = true
	}
	return rec.Seq, nil
}

func (o *Outbox) Unpublished(_ context.Context, limit int) ([]model.EventRecord, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var out []model.EventRecord
	for _, e := range o.s.events {
		if len(out) >= limit {
			break
		}
		if e.committed && e.rec.PublishedAt == nil {
			out = append(out, e.rec)
		}
	}
	return out, nil
}

func (o *Outbox) MarkPublished(_ context.Context, seqs []int64, at time.Time) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, e := range o.s.events {
		if e.rec.PublishedAt == nil && slices.Contains(seqs, e.rec.Seq) {
			ts := at
			e.rec.PublishedAt = &ts
		}
	}
	return nil
}
