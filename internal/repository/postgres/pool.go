// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/repository"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close shuts down the pool and frees resources.
	Close()
}

// querier is what both the pool and an open transaction offer.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps pgxpool.Pool to satisfy repository constructors and allow testing.
type DB struct{ Pool PgxPool }

// New creates a new connection pool for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

// numeric encodes an amount for a NUMERIC(20,0) column; Postgres has no unsigned bigint.
func numeric(v uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Valid: true}
}

// amount decodes a NUMERIC(20,0) column back into an amount.
func amount(n pgtype.Numeric) (uint64, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return 0, fmt.Errorf("amount: not a finite number")
	}
	v := new(big.Int).Set(n.Int)
	if n.Exp != 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
		if n.Exp > 0 {
			v.Mul(v, scale)
		} else {
			var rem big.Int
			v.QuoRem(v, scale, &rem)
			if rem.Sign() != 0 {
				return 0, fmt.Errorf("amount: fractional value")
			}
		}
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, errs.ErrCalculationOverflow
	}
	return v.Uint64(), nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Repos returns the repositories backed by db.
func (db *DB) Repos() repository.Set {
	return repository.Set{
		Tx:          db,
		Accounts:    NewAccountRepo(db),
		Authorities: NewAuthorityRepo(db),
		Schedules:   NewScheduleRepo(db),
		Events:      NewOutbox(db),
	}
}
