package postgres

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/vesting-engine/internal/errs"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestWithinTx_CommitRollbackAndJoin(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, db.WithinTx(ctx, func(ctx context.Context) error {
		// nested call joins, no second BEGIN expected
		return db.WithinTx(ctx, func(ctx context.Context) error {
			_, ok := txFrom(ctx)
			require.True(t, ok)
			return nil
		})
	}))

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()
	require.ErrorIs(t, db.WithinTx(ctx, func(context.Context) error { return boom }), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAmount(t *testing.T) {
	t.Parallel()

	v, err := amount(numeric(math.MaxUint64))
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	v, err = amount(pgtype.Numeric{Int: big.NewInt(12), Exp: 2, Valid: true})
	require.NoError(t, err)
	require.Equal(t, uint64(1200), v)

	v, err = amount(pgtype.Numeric{Int: big.NewInt(1200), Exp: -2, Valid: true})
	require.NoError(t, err)
	require.Equal(t, uint64(12), v)

	_, err = amount(pgtype.Numeric{Int: big.NewInt(1234), Exp: -2, Valid: true})
	require.Error(t, err)

	_, err = amount(pgtype.Numeric{})
	require.Error(t, err)

	over := new(big.Int).Add(new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1))
	_, err = amount(pgtype.Numeric{Int: over, Valid: true})
	require.ErrorIs(t, err, errs.ErrCalculationOverflow)
}
