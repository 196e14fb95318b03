// Package memory is an in-process implementation of the repository
// interfaces, used when no database DSN is configured and in tests.
//
// Writes become visible to other goroutines as soon as they happen and are
// undone if the surrounding transaction fails. Schedule rows locked with
// GetForUpdate stay locked until the transaction ends, so claims and
// revocations on one schedule are serialized exactly as with Postgres.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// errNoTx is returned by operations that need a row lock outside WithinTx.
var errNoTx = errors.New("memory: operation requires a transaction")

type balanceKey struct {
	account uuid.UUID
	asset   string
}

type event struct {
	rec       model.EventRecord
	committed bool
}

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]model.Account
	accountNames map[string]uuid.UUID
	authorities  map[uuid.UUID]model.Authority
	tenantKeys   map[string]uuid.UUID
	schedules    map[uuid.UUID]model.Schedule
	rowLocks     map[uuid.UUID]*sync.Mutex
	balances     map[balanceKey]uint64
	events       []*event
	seq          int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]model.Account),
		accountNames: make(map[string]uuid.UUID),
		authorities:  make(map[uuid.UUID]model.Authority),
		tenantKeys:   make(map[string]uuid.UUID),
		schedules:    make(map[uuid.UUID]model.Schedule),
		rowLocks:     make(map[uuid.UUID]*sync.Mutex),
		balances:     make(map[balanceKey]uint64),
	}
}

type txKey struct{}

type tx struct {
	undo     []func() // run in reverse under Store.mu on rollback
	onCommit []func() // run under Store.mu on commit
	held     map[uuid.UUID]*sync.Mutex
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// WithinTx implements repository.Transactor. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	t := &tx{held: make(map[uuid.UUID]*sync.Mutex)}
	defer func() {
		p := recover()
		s.mu.Lock()
		if err != nil || p != nil {
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
		} else {
			for _, f := range t.onCommit {
				f()
			}
		}
		s.mu.Unlock()
		for _, l := range t.held {
			l.Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()
	return fn(context.WithValue(ctx, txKey{}, t))
}

// record registers undo for the caller's transaction. Must hold s.mu.
func record(ctx context.Context, undo func()) {
	if t, ok := txFrom(ctx); ok {
		t.undo = append(t.undo, undo)
	}
}

// lockRow takes the row lock for id for the rest of the transaction.
func (s *Store) lockRow(ctx context.Context, id uuid.UUID) error {
	t, ok := txFrom(ctx)
	if !ok {
		return errNoTx
	}
	if _, held := t.held[id]; held {
		return nil
	}
	s.mu.Lock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	t.held[id] = l
	return nil
}

// Repos returns the repositories backed by s.
func (s *Store) Repos() repository.Set {
	return repository.Set{
		Tx:          s,
		Accounts:    NewAccountRepo(s),
		Authorities: NewAuthorityRepo(s),
		Schedules:   NewScheduleRepo(s),
		Events:      NewOutbox(s),
	}
}
