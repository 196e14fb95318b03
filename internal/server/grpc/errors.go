package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
)

// grpcCode maps a domain error code to the closest gRPC status code.
func grpcCode(c errs.Code) codes.Code {
	switch c {
	case errs.CodeInvalidArgument, errs.CodeInvalidVestingPeriod, errs.CodeInvalidCliffTime, errs.CodeZeroAmount:
		return codes.InvalidArgument
	case errs.CodeUnauthorized:
		return codes.PermissionDenied
	case errs.CodeNotFound:
		return codes.NotFound
	case errs.CodeAlreadyExists, errs.CodeAlreadyRevoked:
		return codes.AlreadyExists
	case errs.CodeUnavailableClaim, errs.CodeZeroClaim, errs.CodeRevokedSchedule, errs.CodeInsufficientFunds:
		return codes.FailedPrecondition
	case errs.CodeCalculationOverflow:
		return codes.OutOfRange
	case errs.CodeRateLimited:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// newStatus builds a status error carrying the domain code as ErrorInfo.
func newStatus(c codes.Code, code errs.Code, msg string) error {
	st := status.New(c, msg)
	if d, err := st.WithDetails(&errdetails.ErrorInfo{Reason: string(code), Domain: api.ErrorDomain}); err == nil {
		st = d
	}
	return st.Err()
}

// toStatus converts a service error to a gRPC status. Errors that are not
// domain errors become Internal without leaking their text; status errors
// pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := errs.CodeOf(err)
	if code == errs.CodeInternal {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return status.FromContextError(err).Err()
		}
		if _, ok := status.FromError(err); ok {
			return err
		}
		return newStatus(codes.Internal, code, "internal")
	}
	return newStatus(grpcCode(code), code, err.Error())
}
