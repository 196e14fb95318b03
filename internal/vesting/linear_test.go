package vesting

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

func TestLinearVested_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		total           uint64
		start, end, now int64
		want            uint64
		wantErr         error
	}{
		{name: "before start", total: 1000, start: 100, end: 1100, now: 0, want: 0},
		{name: "at start", total: 1000, start: 0, end: 1000, now: 0, want: 0},
		{name: "ten percent", total: 1000, start: 0, end: 1000, now: 100, want: 100},
		{name: "half", total: 1000, start: 0, end: 1000, now: 500, want: 500},
		{name: "rounds down", total: 10, start: 0, end: 3, now: 1, want: 3},
		{name: "at end", total: 1000, start: 0, end: 1000, now: 1000, want: 1000},
		{name: "after end", total: 1000, start: 0, end: 1000, now: 5000, want: 1000},
		{name: "unit grant", total: 1, start: 0, end: 1, now: 1, want: 1},
		{name: "negative epoch", total: 400, start: -200, end: 200, now: 0, want: 200},
		{name: "empty period", total: 1000, start: 10, end: 10, now: 10, wantErr: errs.ErrInvalidVestingPeriod},
		{name: "inverted period", total: 1000, start: 10, end: 5, now: 10, wantErr: errs.ErrInvalidVestingPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LinearVested(tt.total, tt.start, tt.end, tt.now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLinearVested_ExtremeMagnitudes(t *testing.T) {
	t.Parallel()

	// the whole int64 range as a period, max supply: the 64-bit product would overflow
	got, err := LinearVested(math.MaxUint64, math.MinInt64, math.MaxInt64, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<63), got)

	got, err = LinearVested(math.MaxUint64, 0, 2, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64/2), got)

	got, err = LinearVested(math.MaxUint64, math.MinInt64, math.MaxInt64, math.MaxInt64-1)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64-1), got)
}

func TestLinearVested_MonotoneInNow(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		total := r.Uint64()
		start := r.Int63n(1 << 40)
		end := start + 1 + r.Int63n(1<<30)

		var prev uint64
		for now := start - 10; now <= end+10; now += 1 + (end-start)/50 {
			v, err := LinearVested(total, start, end, now)
			require.NoError(t, err)
			require.GreaterOrEqual(t, v, prev, "total=%d start=%d end=%d now=%d", total, start, end, now)
			require.LessOrEqual(t, v, total)
			prev = v
		}
	}
}

func schedule(total, withdrawn uint64, start, end, cliff int64) model.Schedule {
	return model.Schedule{
		TotalAmount:    total,
		TotalWithdrawn: withdrawn,
		StartTime:      start,
		EndTime:        end,
		CliffTime:      cliff,
	}
}

func TestClaimable_Scenario(t *testing.T) {
	t.Parallel()

	s := schedule(1000, 0, 0, 1000, 100)

	got, err := Claimable(s, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), got)

	s.TotalWithdrawn = 100
	_, err = Claimable(s, 100)
	require.ErrorIs(t, err, errs.ErrZeroClaim)

	got, err = Claimable(s, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(400), got)

	got, err = Claimable(s, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(900), got)

	got, err = Claimable(s, 99999)
	require.NoError(t, err)
	require.Equal(t, uint64(900), got)
}

func TestClaimable_FullVestingAfterEnd(t *testing.T) {
	t.Parallel()

	for _, withdrawn := range []uint64{0, 1, 250, 999} {
		s := schedule(1000, withdrawn, 0, 1000, 0)
		got, err := Claimable(s, 1000)
		require.NoError(t, err)
		require.Equal(t, 1000-withdrawn, got)
	}

	_, err := Claimable(schedule(1000, 1000, 0, 1000, 0), 2000)
	require.ErrorIs(t, err, errs.ErrZeroClaim)
}

func TestClaimable_WithdrawnAheadOfVestingSaturates(t *testing.T) {
	t.Parallel()

	_, err := Claimable(schedule(1000, 600, 0, 1000, 0), 500)
	require.ErrorIs(t, err, errs.ErrZeroClaim)
}

func TestClaimable_InvalidPeriod(t *testing.T) {
	t.Parallel()

	_, err := Claimable(schedule(1000, 0, 10, 10, 10), 10)
	require.ErrorIs(t, err, errs.ErrInvalidVestingPeriod)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	s := schedule(1000, 100, 0, 1000, 200)

	snap, err := Preview(s, 150)
	require.NoError(t, err)
	require.Equal(t, model.Snapshot{At: 150, Vested: 150}, snap, "nothing claimable before the cliff")

	snap, err = Preview(s, 400)
	require.NoError(t, err)
	require.Equal(t, uint64(400), snap.Vested)
	require.Equal(t, uint64(300), snap.Claimable)

	snap, err = Preview(s, 50)
	require.NoError(t, err)
	require.Zero(t, snap.Claimable)

	revokedAt := int64(500)
	s.RevokedAt = &revokedAt
	snap, err = Preview(s, 600)
	require.NoError(t, err)
	require.Zero(t, snap.Claimable)
	require.Equal(t, uint64(900), snap.Recoverable)
}

func TestAddWithdrawn(t *testing.T) {
	t.Parallel()

	got, err := AddWithdrawn(100, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(150), got)

	_, err = AddWithdrawn(math.MaxUint64, 1)
	require.ErrorIs(t, err, errs.ErrCalculationOverflow)
}
