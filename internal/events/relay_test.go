package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository/memory"
)

type recordingSink struct {
	got  []model.EventRecord
	fail error
}

func (s *recordingSink) Publish(_ context.Context, recs []model.EventRecord) error {
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, recs...)
	return nil
}

func emitClaims(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	em := NewOutbox(memory.NewOutbox(store))
	for i := 0; i < n; i++ {
		err := store.WithinTx(context.Background(), func(ctx context.Context) error {
			return em.Emit(ctx, model.TokensClaimed{
				ScheduleID:  uuid.Must(uuid.NewV4()),
				Beneficiary: uuid.Must(uuid.NewV4()),
				Amount:      uint64(i + 1),
			})
		})
		require.NoError(t, err)
	}
}

func TestRelay_FlushInOrderAndMarks(t *testing.T) {
	t.Parallel()

	store := memory.New()
	emitClaims(t, store, 5)
	sink := &recordingSink{}
	r := NewRelay(memory.NewOutbox(store), sink, 2, zaptest.NewLogger(t))

	n, err := r.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, r.Drain(context.Background()))
	require.Len(t, sink.got, 5)
	for i, rec := range sink.got {
		require.Equal(t, int64(i+1), rec.Seq)
		ev, err := Decode(rec.Kind, rec.AggregateID, rec.Payload)
		require.NoError(t, err)
		require.Equal(t, uint64(i+1), ev.(model.TokensClaimed).Amount)
	}

	n, err = r.Flush(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRelay_SinkFailureKeepsRecords(t *testing.T) {
	t.Parallel()

	store := memory.New()
	emitClaims(t, store, 1)
	sink := &recordingSink{fail: errors.New("broker down")}
	r := NewRelay(memory.NewOutbox(store), sink, 10, zaptest.NewLogger(t))

	_, err := r.Flush(context.Background())
	require.Error(t, err)

	sink.fail = nil
	n, err := r.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRelay_Start(t *testing.T) {
	t.Parallel()

	store := memory.New()
	emitClaims(t, store, 3)
	sink := &recordingSink{}
	r := NewRelay(memory.NewOutbox(store), sink, 10, zaptest.NewLogger(t))

	stop, err := r.Start(20 * time.Millisecond)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		pending, _ := memory.NewOutbox(store).Unpublished(context.Background(), 10)
		return len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, stop())
	require.Len(t, sink.got, 3)
}

func TestRedisStream_Publish(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	agg := uuid.Must(uuid.NewV4())
	payload, err := Encode(model.TokensClaimed{ScheduleID: agg, Beneficiary: uuid.Must(uuid.NewV4()), Amount: 42})
	require.NoError(t, err)

	sink := NewRedisStream(rdb, "", 0)
	require.NoError(t, sink.Publish(ctx, []model.EventRecord{
		{Seq: 1, Kind: model.KindTokensClaimed, AggregateID: agg, Payload: payload, CreatedAt: time.Now()},
		{Seq: 2, Kind: model.KindTokensClaimed, AggregateID: agg, Payload: payload, CreatedAt: time.Now()},
	}))

	msgs, err := rdb.XRange(ctx, DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "TokensClaimed", msgs[0].Values["kind"])
	require.Equal(t, agg.String(), msgs[0].Values["aggregate_id"])
	require.Equal(t, "2", msgs[1].Values["seq"])

	ev, err := Decode(model.KindTokensClaimed, agg, []byte(msgs[0].Values["payload"].(string)))
	require.NoError(t, err)
	require.Equal(t, uint64(42), ev.(model.TokensClaimed).Amount)
}

func TestLogSink_Publish(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(zaptest.NewLogger(t))
	require.NoError(t, sink.Publish(context.Background(), []model.EventRecord{
		{Seq: 1, Kind: model.KindScheduleRevoked, Payload: []byte{0xff}},
	}))
}
