package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, name, secret)
VALUES ($1, $2, $3)`
	_, err := r.db.q(ctx).Exec(ctx, q, a.ID, a.Name, a.Secret)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `
SELECT id, name, secret, created_at
FROM accounts WHERE id=$1`
	return scanAccount(r.db.q(ctx).QueryRow(ctx, q, id))
}

// GetByName selects an account by login name.
func (r *AccountRepo) GetByName(ctx context.Context, name string) (*model.Account, error) {
	const q = `
SELECT id, name, secret, created_at
FROM accounts WHERE name=$1`
	return scanAccount(r.db.q(ctx).QueryRow(ctx, q, name))
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Secret, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
