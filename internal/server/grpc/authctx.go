package grpcserver

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"

	"github.com/and161185/vesting-engine/internal/errs"
)

// Caller is the account a request acts for, as proven by its access token.
// Ownership and beneficiary checks in the services compare against Account.
type Caller struct {
	Account   uuid.UUID
	ExpiresAt time.Time
}

type callerKey struct{}

// WithCaller attaches c to ctx. AuthUnary does this for every non-public method.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached by AuthUnary. Public methods have none.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || c.Account == uuid.Nil {
		return Caller{}, false
	}
	return c, true
}

// caller is the account id handlers pass to the services.
func caller(ctx context.Context) (uuid.UUID, error) {
	c, ok := CallerFrom(ctx)
	if !ok {
		return uuid.Nil, newStatus(codes.Unauthenticated, errs.CodeUnauthorized, "no auth")
	}
	return c.Account, nil
}
