package repository

import (
	"context"
	"time"

	"github.com/and161185/vesting-engine/internal/model"
)

// EventLog is the append-only outbox of encoded events.
type EventLog interface {
	// Append stores rec and returns its sequence number.
	Append(ctx context.Context, rec model.EventRecord) (int64, error)
	// Unpublished returns up to limit records not yet delivered, oldest first.
	Unpublished(ctx context.Context, limit int) ([]model.EventRecord, error)
	// MarkPublished records delivery of the given sequence numbers.
	MarkPublished(ctx context.Context, seqs []int64, at time.Time) error
}
