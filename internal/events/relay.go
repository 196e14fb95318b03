package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// Sink delivers committed outbox records downstream.
type Sink interface {
	Publish(ctx context.Context, recs []model.EventRecord) error
}

// Relay moves records from the outbox to a sink. Delivery is at least once:
// a crash between Publish and MarkPublished resends the batch.
type Relay struct {
	log    repository.EventLog
	sink   Sink
	batch  int
	logger *zap.Logger
	now    func() time.Time
}

// NewRelay constructs a relay forwarding up to batch records per flush.
func NewRelay(log repository.EventLog, sink Sink, batch int, logger *zap.Logger) *Relay {
	if batch <= 0 {
		batch = 100
	}
	return &Relay{log: log, sink: sink, batch: batch, logger: logger, now: time.Now}
}

// Flush forwards one batch and returns how many records were delivered.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	recs, err := r.log.Unpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	if err := r.sink.Publish(ctx, recs); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}
	seqs := make([]int64, len(recs))
	for i, rec := range recs {
		seqs[i] = rec.Seq
	}
	if err := r.log.MarkPublished(ctx, seqs, r.now().UTC()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	return len(recs), nil
}

// Drain flushes until the outbox is empty or ctx is done.
func (r *Relay) Drain(ctx context.Context) error {
	for ctx.Err() == nil {
		n, err := r.Flush(ctx)
		if err != nil {
			return err
		}
		if n < r.batch {
			return nil
		}
	}
	return ctx.Err()
}

// Start runs Drain every interval until the returned stop function is called.
func (r *Relay) Start(interval time.Duration) (stop func() error, err error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("outbox-relay"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("create relay job: %w", err)
	}
	s.Start()
	return s.Shutdown, nil
}

func (r *Relay) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.Drain(ctx); err != nil {
		r.logger.Warn("outbox relay", zap.Error(err))
	}
}
