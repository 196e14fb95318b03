package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

// ScheduleRepo implements ScheduleRepository using PostgreSQL.
type ScheduleRepo struct{ db *DB }

// NewScheduleRepo constructs a schedule repository.
func NewScheduleRepo(db *DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const scheduleCols = `id, authority_id, beneficiary, total_amount, total_withdrawn, start_time, end_time, cliff_time, revoked_at`

// Create inserts a schedule row.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `
INSERT INTO vesting_schedules (` + scheduleCols + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.q(ctx).Exec(ctx, q,
		s.ID, s.AuthorityID, s.Beneficiary,
		numeric(s.TotalAmount), numeric(s.TotalWithdrawn),
		s.StartTime, s.EndTime, s.CliffTime, s.RevokedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects a schedule by address.
func (r *ScheduleRepo) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	const q = `SELECT ` + scheduleCols + ` FROM vesting_schedules WHERE id=$1`
	return scanSchedule(r.db.q(ctx).QueryRow(ctx, q, id))
}

// GetForUpdate selects a schedule and locks its row until the transaction ends.
func (r *ScheduleRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	tx, ok := txFrom(ctx)
	if !ok {
		return nil, errNoTx
	}
	const q = `SELECT ` + scheduleCols + ` FROM vesting_schedules WHERE id=$1 FOR UPDATE`
	return scanSchedule(tx.QueryRow(ctx, q, id))
}

// Update writes the mutable columns of a schedule.
func (r *ScheduleRepo) Update(ctx context.Context, s *model.Schedule) error {
	const q = `
UPDATE vesting_schedules
SET total_withdrawn=$2, revoked_at=$3
WHERE id=$1`
	tag, err := r.db.q(ctx).Exec(ctx, q, s.ID, numeric(s.TotalWithdrawn), s.RevokedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListByAuthority returns the schedules of an authority ordered by start time.
func (r *ScheduleRepo) ListByAuthority(ctx context.Context, authorityID uuid.UUID) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleCols + `
FROM vesting_schedules WHERE authority_id=$1 ORDER BY start_time ASC, id ASC`
	return r.list(ctx, q, authorityID)
}

// ListByBeneficiary returns the schedules granted to one account ordered by start time.
func (r *ScheduleRepo) ListByBeneficiary(ctx context.Context, beneficiary uuid.UUID) ([]model.Schedule, error) {
	const q = `SELECT ` + scheduleCols + `
FROM vesting_schedules WHERE beneficiary=$1 ORDER BY start_time ASC, id ASC`
	return r.list(ctx, q, beneficiary)
}

func (r *ScheduleRepo) list(ctx context.Context, q string, arg uuid.UUID) ([]model.Schedule, error) {
	rows, err := r.db.q(ctx).Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var (
		s                model.Schedule
		total, withdrawn pgtype.Numeric
	)
	err := row.Scan(&s.ID, &s.AuthorityID, &s.Beneficiary, &total, &withdrawn,
		&s.StartTime, &s.EndTime, &s.CliffTime, &s.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	if s.TotalAmount, err = amount(total); err != nil {
		return nil, fmt.Errorf("schedule %s total: %w", s.ID, err)
	}
	if s.TotalWithdrawn, err = amount(withdrawn); err != nil {
		return nil, fmt.Errorf("schedule %s withdrawn: %w", s.ID, err)
	}
	return &s, nil
}
