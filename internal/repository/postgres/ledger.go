package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/and161185/vesting-engine/internal/errs"
)

// LedgerRepo implements LedgerRepository on the ledger_balances table.
type LedgerRepo struct{ db *DB }

// NewLedgerRepo constructs a ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const credit = `
INSERT INTO ledger_balances (account_id, asset_id, balance)
VALUES ($1, $2, $3)
ON CONFLICT (account_id, asset_id)
DO UPDATE SET balance = ledger_balances.balance + EXCLUDED.balance`

// Deposit credits account with amount.
func (r *LedgerRepo) Deposit(ctx context.Context, account uuid.UUID, assetID string, amount uint64) error {
	_, err := r.db.q(ctx).Exec(ctx, credit, account, assetID, numeric(amount))
	return balanceErr(err)
}

// Transfer debits from and credits to in one transaction.
func (r *LedgerRepo) Transfer(ctx context.Context, from, to uuid.UUID, assetID string, amount uint64) error {
	const debit = `
UPDATE ledger_balances
SET balance = balance - $3
WHERE account_id=$1 AND asset_id=$2 AND balance >= $3`
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		tx, _ := txFrom(ctx)
		tag, err := tx.Exec(ctx, debit, from, assetID, numeric(amount))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrInsufficientFunds
		}
		_, err = tx.Exec(ctx, credit, to, assetID, numeric(amount))
		return balanceErr(err)
	})
}

// Balance returns the balance of account in assetID.
func (r *LedgerRepo) Balance(ctx context.Context, account uuid.UUID, assetID string) (uint64, error) {
	const q = `SELECT balance FROM ledger_balances WHERE account_id=$1 AND asset_id=$2`
	var n pgtype.Numeric
	err := r.db.q(ctx).QueryRow(ctx, q, account, assetID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("scan balance: %w", err)
	}
	return amount(n)
}

// balanceErr maps the column's upper bound check onto an overflow.
func balanceErr(err error) error {
	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.Code == "23514" {
		return errs.ErrCalculationOverflow
	}
	return err
}
