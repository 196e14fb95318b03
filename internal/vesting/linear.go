// Package vesting implements the integer arithmetic of linear vesting.
// All functions are pure and use no floating point.
package vesting

import (
	"math/bits"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
)

// span returns b-a for a <= b without int64 overflow, and 0 when b < a.
func span(a, b int64) uint64 {
	if b <= a {
		return 0
	}
	return uint64(b) - uint64(a)
}

// LinearVested returns the part of total vested at now on a straight line
// from start (nothing) to end (everything), rounded down.
func LinearVested(total uint64, start, end, now int64) (uint64, error) {
	if end <= start {
		return 0, errs.ErrInvalidVestingPeriod
	}
	if now >= end {
		return total, nil
	}
	duration := span(start, end)
	elapsed := span(start, now)

	hi, lo := bits.Mul64(total, elapsed)
	// Div64 panics when the quotient does not fit in 64 bits.
	if hi >= duration {
		return 0, errs.ErrCalculationOverflow
	}
	vested, _ := bits.Div64(hi, lo, duration)
	return vested, nil
}

// Claimable returns what the beneficiary may withdraw at now. A zero result
// is reported as ErrZeroClaim.
func Claimable(s model.Schedule, now int64) (uint64, error) {
	vested, err := LinearVested(s.TotalAmount, s.StartTime, s.EndTime, now)
	if err != nil {
		return 0, err
	}
	var claimable uint64
	if vested > s.TotalWithdrawn {
		claimable = vested - s.TotalWithdrawn
	}
	if claimable == 0 {
		return 0, errs.ErrZeroClaim
	}
	return claimable, nil
}

// Preview reports the schedule's figures at now for display. Unlike Claimable
// it never fails on a zero amount, and it honours the cliff and revocation.
func Preview(s model.Schedule, now int64) (model.Snapshot, error) {
	vested, err := LinearVested(s.TotalAmount, s.StartTime, s.EndTime, now)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap := model.Snapshot{At: now, Vested: vested}
	switch {
	case s.Revoked():
		snap.Recoverable = s.Unclaimed()
	case now >= s.CliffTime && vested > s.TotalWithdrawn:
		snap.Claimable = vested - s.TotalWithdrawn
	}
	return snap, nil
}

// AddWithdrawn returns withdrawn+amount, failing instead of wrapping.
func AddWithdrawn(withdrawn, amount uint64) (uint64, error) {
	sum, carry := bits.Add64(withdrawn, amount, 0)
	if carry != 0 {
		return 0, errs.ErrCalculationOverflow
	}
	return sum, nil
}
