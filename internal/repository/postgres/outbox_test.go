package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/vesting-engine/internal/model"
)

func TestOutbox_AppendUnpublishedMark(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	o := NewOutbox(db)
	ctx := context.Background()
	agg := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	rec := model.EventRecord{Kind: model.KindTokensClaimed, AggregateID: agg, Payload: []byte{0x0a, 0x01}, CreatedAt: now}

	mock.ExpectQuery(`INSERT INTO vesting_events \(kind, aggregate_id, payload, created_at\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING seq`).
		WithArgs("TokensClaimed", agg, rec.Payload, now).
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(7)))
	seq, err := o.Append(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)

	mock.ExpectQuery(`SELECT seq, kind, aggregate_id, payload, created_at FROM vesting_events WHERE published_at IS NULL ORDER BY seq ASC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"seq", "kind", "aggregate_id", "payload", "created_at"}).
			AddRow(int64(7), "TokensClaimed", agg, rec.Payload, now).
			AddRow(int64(8), "ScheduleRevoked", agg, []byte{}, now))
	out, err := o.Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, model.KindTokensClaimed, out[0].Kind)
	require.Equal(t, model.KindScheduleRevoked, out[1].Kind)

	mock.ExpectExec(`UPDATE vesting_events SET published_at=\$2 WHERE seq = ANY\(\$1\) AND published_at IS NULL`).
		WithArgs([]int64{7, 8}, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	require.NoError(t, o.MarkPublished(ctx, []int64{7, 8}, now))

	// empty batch is a no-op
	require.NoError(t, o.MarkPublished(ctx, nil, now))
	require.NoError(t, mock.ExpectationsWereMet())
}
