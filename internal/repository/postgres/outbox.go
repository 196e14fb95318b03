package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/vesting-engine/internal/model"
)

// Outbox implements EventLog on the vesting_events table.
type Outbox struct{ db *DB }

// NewOutbox constructs an event outbox.
func NewOutbox(db *DB) *Outbox { return &Outbox{db: db} }

// Append inserts an event row in the caller's transaction, if any.
func (o *Outbox) Append(ctx context.Context, rec model.EventRecord) (int64, error) {
	const q = `
INSERT INTO vesting_events (kind, aggregate_id, payload, created_at)
VALUES ($1, $2, $3, $4)
RETURNING seq`
	var seq int64
	if err := o.db.q(ctx).QueryRow(ctx, q, string(rec.Kind), rec.AggregateID, rec.Payload, rec.CreatedAt).Scan(&seq); err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return seq, nil
}

// Unpublished returns the oldest undelivered events.
func (o *Outbox) Unpublished(ctx context.Context, limit int) ([]model.EventRecord, error) {
	const q = `
SELECT seq, kind, aggregate_id, payload, created_at
FROM vesting_events
WHERE published_at IS NULL
ORDER BY seq ASC
LIMIT $1`
	rows, err := o.db.q(ctx).Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EventRecord
	for rows.Next() {
		var (
			rec  model.EventRecord
			kind string
		)
		if err := rows.Scan(&rec.Seq, &kind, &rec.AggregateID, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Kind = model.EventKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkPublished stamps the given events as delivered.
func (o *Outbox) MarkPublished(ctx context.Context, seqs []int64, at time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	const q = `UPDATE vesting_events SET published_at=$2 WHERE seq = ANY($1) AND published_at IS NULL`
	_, err := o.db.q(ctx).Exec(ctx, q, seqs, at)
	return err
}
