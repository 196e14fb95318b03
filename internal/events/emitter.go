package events

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// Emitter records state-change events. Emit must be called with the context
// of the transaction that makes the change, so the event commits with it.
type Emitter interface {
	Emit(ctx context.Context, e model.Event) error
}

// Outbox is the Emitter backed by the event log.
type Outbox struct {
	log repository.EventLog
	now func() time.Time
}

// NewOutbox returns an emitter appending to log.
func NewOutbox(log repository.EventLog) *Outbox {
	return &Outbox{log: log, now: time.Now}
}

// Emit encodes e and appends it to the outbox.
func (o *Outbox) Emit(ctx context.Context, e model.Event) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	_, err = o.log.Append(ctx, model.EventRecord{
		Kind:        e.Kind(),
		AggregateID: e.Aggregate(),
		Payload:     payload,
		CreatedAt:   o.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("emit %s: %w", e.Kind(), err)
	}
	return nil
}
