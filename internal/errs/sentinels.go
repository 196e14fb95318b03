// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Code is a stable, machine-readable error kind. Codes are part of the
// public API and must never be renamed.
type Code string

// Error kinds surfaced to callers.
const (
	CodeInternal             Code = "Internal"
	CodeInvalidArgument      Code = "InvalidArgument"
	CodeUnauthorized         Code = "Unauthorized"
	CodeNotFound             Code = "NotFound"
	CodeAlreadyExists        Code = "AlreadyExists"
	CodeInvalidVestingPeriod Code = "InvalidVestingPeriod"
	CodeInvalidCliffTime     Code = "InvalidCliffTime"
	CodeZeroAmount           Code = "ZeroAmount"
	CodeUnavailableClaim     Code = "UnavailableClaim"
	CodeZeroClaim            Code = "ZeroClaim"
	CodeRevokedSchedule      Code = "RevokedSchedule"
	CodeAlreadyRevoked       Code = "AlreadyRevoked"
	CodeCalculationOverflow  Code = "CalculationOverflow"
	CodeInsufficientFunds    Code = "InsufficientFunds"
	CodeRateLimited          Code = "RateLimited"
)

// Error is a sentinel carrying a stable Code.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(code Code, msg string) *Error { return &Error{Code: code, msg: msg} }

// Common sentinels across repo/service layers.
var (
	// ErrInvalidArgument indicates malformed input (empty ids, oversized tenant key, ...).
	ErrInvalidArgument = newErr(CodeInvalidArgument, "invalid argument")

	// ErrUnauthorized indicates the caller is not the required owner/beneficiary,
	// or failed authentication.
	ErrUnauthorized = newErr(CodeUnauthorized, "unauthorized")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = newErr(CodeNotFound, "not found")

	// ErrAlreadyExists indicates the derived address is already occupied.
	ErrAlreadyExists = newErr(CodeAlreadyExists, "already exists")

	ErrInvalidVestingPeriod = newErr(CodeInvalidVestingPeriod, "invalid vesting period")
	ErrInvalidCliffTime     = newErr(CodeInvalidCliffTime, "invalid cliff time")
	ErrZeroAmount           = newErr(CodeZeroAmount, "zero amount")
	ErrUnavailableClaim     = newErr(CodeUnavailableClaim, "claim not available yet")
	ErrZeroClaim            = newErr(CodeZeroClaim, "no tokens to claim")
	ErrRevokedSchedule      = newErr(CodeRevokedSchedule, "schedule has been revoked")
	ErrAlreadyRevoked       = newErr(CodeAlreadyRevoked, "schedule has already been revoked")
	ErrCalculationOverflow  = newErr(CodeCalculationOverflow, "calculation overflow")

	// ErrInsufficientFunds is returned by custody when the source account cannot cover a transfer.
	ErrInsufficientFunds = newErr(CodeInsufficientFunds, "insufficient funds")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = newErr(CodeRateLimited, "rate limited")
)

var all = []*Error{
	ErrInvalidArgument, ErrUnauthorized, ErrNotFound, ErrAlreadyExists,
	ErrInvalidVestingPeriod, ErrInvalidCliffTime, ErrZeroAmount, ErrUnavailableClaim,
	ErrZeroClaim, ErrRevokedSchedule, ErrAlreadyRevoked, ErrCalculationOverflow,
	ErrInsufficientFunds, ErrRateLimited,
}

// CodeOf returns the stable code of err, or CodeInternal for errors
// that do not wrap a sentinel.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// FromCode returns the sentinel for code, or nil when the code is unknown.
func FromCode(code Code) error {
	for _, e := range all {
		if e.Code == code {
			return e
		}
	}
	return nil
}
