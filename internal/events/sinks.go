package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/vesting-engine/internal/model"
)

// DefaultStream is the Redis stream events are appended to.
const DefaultStream = "vesting:events"

// RedisStream appends records to a Redis stream, one entry per event.
// Entries carry the raw protowire payload next to the envelope fields.
type RedisStream struct {
	rdb    redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStream returns a sink writing to stream, trimmed to about maxLen
// entries when maxLen > 0.
func NewRedisStream(rdb redis.Cmdable, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

// Publish writes recs in one pipeline.
func (s *RedisStream) Publish(ctx context.Context, recs []model.EventRecord) error {
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, rec := range recs {
			p.XAdd(ctx, &redis.XAddArgs{
				Stream: s.stream,
				MaxLen: s.maxLen,
				Approx: s.maxLen > 0,
				Values: map[string]any{
					"seq":          rec.Seq,
					"kind":         string(rec.Kind),
					"aggregate_id": rec.AggregateID.String(),
					"payload":      rec.Payload,
					"created_at":   rec.CreatedAt.Format(time.RFC3339Nano),
				},
			})
		}
		return nil
	})
	return err
}

// LogSink writes decoded events to a zap logger. Used when no broker is configured.
type LogSink struct{ logger *zap.Logger }

// NewLogSink returns a sink logging at info level.
func NewLogSink(logger *zap.Logger) *LogSink { return &LogSink{logger: logger} }

// Publish logs every record; undecodable payloads are logged raw.
func (s *LogSink) Publish(_ context.Context, recs []model.EventRecord) error {
	for _, rec := range recs {
		fields := []zap.Field{
			zap.Int64("seq", rec.Seq),
			zap.String("kind", string(rec.Kind)),
			zap.Stringer("aggregate", rec.AggregateID),
		}
		if ev, err := Decode(rec.Kind, rec.AggregateID, rec.Payload); err != nil {
			fields = append(fields, zap.Binary("payload", rec.Payload), zap.NamedError("decode", err))
		} else {
			fields = append(fields, zap.Any("event", ev))
		}
		s.logger.Info("vesting event", fields...)
	}
	return nil
}
