package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

var scheduleColumns = []string{
	"id", "authority_id", "beneficiary", "total_amount", "total_withdrawn",
	"start_time", "end_time", "cliff_time", "revoked_at",
}

const (
	insertSchedule    = `INSERT INTO vesting_schedules \(id, authority_id, beneficiary, total_amount, total_withdrawn, start_time, end_time, cliff_time, revoked_at\) VALUES`
	selectSchedule    = `SELECT id, authority_id, beneficiary, total_amount, total_withdrawn, start_time, end_time, cliff_time, revoked_at FROM vesting_schedules WHERE id=\$1`
	selectScheduleFor = selectSchedule + ` FOR UPDATE`
	updateSchedule    = `UPDATE vesting_schedules SET total_withdrawn=\$2, revoked_at=\$3 WHERE id=\$1`
)

func sampleSchedule() *model.Schedule {
	return &model.Schedule{
		ID:             uuid.Must(uuid.NewV4()),
		AuthorityID:    uuid.Must(uuid.NewV4()),
		Beneficiary:    uuid.Must(uuid.NewV4()),
		TotalAmount:    1000,
		TotalWithdrawn: 0,
		StartTime:      0,
		EndTime:        1000,
		CliffTime:      100,
	}
}

func scheduleRow(s *model.Schedule) *pgxmock.Rows {
	var revoked any
	if s.RevokedAt != nil {
		revoked = s.RevokedAt
	}
	return pgxmock.NewRows(scheduleColumns).AddRow(
		s.ID, s.AuthorityID, s.Beneficiary, numeric(s.TotalAmount), numeric(s.TotalWithdrawn),
		s.StartTime, s.EndTime, s.CliffTime, revoked)
}

func TestScheduleRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	ctx := context.Background()
	s := sampleSchedule()

	mock.ExpectExec(insertSchedule).
		WithArgs(s.ID, s.AuthorityID, s.Beneficiary, numeric(1000), numeric(0), int64(0), int64(1000), int64(100), s.RevokedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, s))

	mock.ExpectExec(insertSchedule).
		WithArgs(s.ID, s.AuthorityID, s.Beneficiary, numeric(1000), numeric(0), int64(0), int64(1000), int64(100), s.RevokedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, s), errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	ctx := context.Background()
	s := sampleSchedule()
	s.TotalWithdrawn = 250

	mock.ExpectQuery(selectSchedule).WithArgs(s.ID).WillReturnRows(scheduleRow(s))
	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s, got)

	revoked := int64(700)
	s.RevokedAt = &revoked
	mock.ExpectQuery(selectSchedule).WithArgs(s.ID).WillReturnRows(scheduleRow(s))
	got, err = r.Get(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked())
	require.Equal(t, int64(700), *got.RevokedAt)

	mock.ExpectQuery(selectSchedule).WithArgs(s.ID).WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, s.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestScheduleRepo_GetForUpdate_RequiresTx(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	s := sampleSchedule()

	_, err := r.GetForUpdate(context.Background(), s.ID)
	require.ErrorIs(t, err, errNoTx)

	mock.ExpectBegin()
	mock.ExpectQuery(selectScheduleFor).WithArgs(s.ID).WillReturnRows(scheduleRow(s))
	mock.ExpectExec(updateSchedule).
		WithArgs(s.ID, numeric(400), s.RevokedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = db.WithinTx(context.Background(), func(ctx context.Context) error {
		got, err := r.GetForUpdate(ctx, s.ID)
		if err != nil {
			return err
		}
		got.TotalWithdrawn = 400
		return r.Update(ctx, got)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepo_Update_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	s := sampleSchedule()

	mock.ExpectExec(updateSchedule).
		WithArgs(s.ID, numeric(0), s.RevokedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(context.Background(), s), errs.ErrNotFound)
}

func TestScheduleRepo_ListByAuthority(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	a, b := sampleSchedule(), sampleSchedule()
	b.AuthorityID = a.AuthorityID
	b.StartTime, b.EndTime = 50, 500

	rows := pgxmock.NewRows(scheduleColumns).
		AddRow(a.ID, a.AuthorityID, a.Beneficiary, numeric(1000), numeric(0), int64(0), int64(1000), int64(100), nil).
		AddRow(b.ID, b.AuthorityID, b.Beneficiary, numeric(1000), numeric(0), int64(50), int64(500), int64(100), nil)
	mock.ExpectQuery(`SELECT .* FROM vesting_schedules WHERE authority_id=\$1 ORDER BY start_time ASC, id ASC`).
		WithArgs(a.AuthorityID).
		WillReturnRows(rows)

	out, err := r.ListByAuthority(context.Background(), a.AuthorityID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, a.ID, out[0].ID)
	require.Equal(t, int64(50), out[1].StartTime)
}

func TestScheduleRepo_ListByBeneficiary(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewScheduleRepo(db)
	s := sampleSchedule()

	mock.ExpectQuery(`SELECT .* FROM vesting_schedules WHERE beneficiary=\$1 ORDER BY start_time ASC, id ASC`).
		WithArgs(s.Beneficiary).
		WillReturnRows(pgxmock.NewRows(scheduleColumns).
			AddRow(s.ID, s.AuthorityID, s.Beneficiary, numeric(1000), numeric(250), int64(0), int64(1000), int64(100), nil))

	out, err := r.ListByBeneficiary(context.Background(), s.Beneficiary)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, s.AuthorityID, out[0].AuthorityID)
	require.Equal(t, uint64(250), out[0].TotalWithdrawn)
	require.NoError(t, mock.ExpectationsWereMet())
}
