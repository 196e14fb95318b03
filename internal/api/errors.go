package api

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/and161185/vesting-engine/internal/errs"
)

// ErrorDomain is the ErrorInfo domain of vesting error codes.
const ErrorDomain = "vesting"

// CodeFromError extracts the stable error code from a gRPC error returned by
// a vesting server. Errors without one report CodeInternal.
func CodeFromError(err error) errs.Code {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return errs.CodeInternal
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return errs.Code(info.GetReason())
		}
	}
	return errs.CodeInternal
}

// AsSentinel maps a gRPC error back to the matching errs sentinel, so callers
// can use errors.Is across the wire. Unknown errors are returned unchanged.
func AsSentinel(err error) error {
	if err == nil {
		return nil
	}
	s := errs.FromCode(CodeFromError(err))
	if s == nil {
		return err
	}
	if msg := status.Convert(err).Message(); msg != "" && msg != s.Error() {
		return fmt.Errorf("%w: %s", s, msg)
	}
	return s
}
