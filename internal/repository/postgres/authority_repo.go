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

// AuthorityRepo implements AuthorityRepository using PostgreSQL.
type AuthorityRepo struct{ db *DB }

// NewAuthorityRepo constructs an authority repository.
func NewAuthorityRepo(db *DB) *AuthorityRepo { return &AuthorityRepo{db: db} }

// Create inserts the authority. Both the derived id and the tenant key are unique.
func (r *AuthorityRepo) Create(ctx context.Context, a *model.Authority) error {
	const q = `
INSERT INTO vesting_authorities (id, owner_id, asset_id, treasury_id, tenant_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.q(ctx).Exec(ctx, q, a.ID, a.Owner, a.AssetID, a.TreasuryID, a.TenantKey, a.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

const authorityCols = `id, owner_id, asset_id, treasury_id, tenant_key, created_at`

// Get selects an authority by address.
func (r *AuthorityRepo) Get(ctx context.Context, id uuid.UUID) (*model.Authority, error) {
	const q = `SELECT ` + authorityCols + ` FROM vesting_authorities WHERE id=$1`
	return scanAuthority(r.db.q(ctx).QueryRow(ctx, q, id))
}

// ListByOwner selects the authorities of one owner, oldest first.
func (r *AuthorityRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Authority, error) {
	const q = `SELECT ` + authorityCols + `
FROM vesting_authorities WHERE owner_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.q(ctx).Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Authority
	for rows.Next() {
		a, err := scanAuthority(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAuthority(row pgx.Row) (*model.Authority, error) {
	var a model.Authority
	err := row.Scan(&a.ID, &a.Owner, &a.AssetID, &a.TreasuryID, &a.TenantKey, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan authority: %w", err)
	}
	return &a, nil
}
