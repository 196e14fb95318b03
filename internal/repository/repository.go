// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/model"
)

// Transactor runs fn inside one transaction. Repositories called with the
// context handed to fn take part in that transaction; nested calls join the
// outer one. The transaction commits only if fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository stores identities able to sign requests.
type AccountRepository interface {
	// Create inserts a new account; a taken name yields ErrAlreadyExists.
	Create(ctx context.Context, a *model.Account) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	// GetByName loads an account by login name.
	GetByName(ctx context.Context, name string) (*model.Account, error)
}

// AuthorityRepository stores vesting authorities under their derived address.
type AuthorityRepository interface {
	// Create inserts the authority; an occupied address yields ErrAlreadyExists.
	Create(ctx context.Context, a *model.Authority) error
	// Get loads an authority by address.
	Get(ctx context.Context, id uuid.UUID) (*model.Authority, error)
	// ListByOwner returns the authorities an account owns, oldest first.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Authority, error)
}

// ScheduleRepository stores vesting schedules under their derived address.
type ScheduleRepository interface {
	// Create inserts the schedule; an occupied address yields ErrAlreadyExists.
	Create(ctx context.Context, s *model.Schedule) error
	// Get loads a schedule without locking it.
	Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	// GetForUpdate loads a schedule and holds an exclusive lock on it until
	// the surrounding transaction ends. It must run inside WithinTx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	// Update persists the mutable fields (total withdrawn, revocation time).
	Update(ctx context.Context, s *model.Schedule) error
	// ListByAuthority returns the schedules of one authority ordered by start time.
	ListByAuthority(ctx context.Context, authorityID uuid.UUID) ([]model.Schedule, error)
	// ListByBeneficiary returns the grants of one account across all
	// authorities, ordered by start time.
	ListByBeneficiary(ctx context.Context, beneficiary uuid.UUID) ([]model.Schedule, error)
}

// Set bundles the repositories of one backend. The custody ledger is not
// part of it; only the treasury keeper holds it.
type Set struct {
	Tx          Transactor
	Accounts    AccountRepository
	Authorities AuthorityRepository
	Schedules   ScheduleRepository
	Events      EventLog
}
