package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
)

// PublicMethods are served without a bearer token.
func PublicMethods() mapset.Set[string] {
	return mapset.NewSet(
		api.MethodRegister,
		api.MethodLogin,
		"/grpc.health.v1.Health/Check",
	)
}

// AuthUnary authenticates every call outside public and stores the caller
// in the request context.
func AuthUnary(signKey []byte, public mapset.Set[string]) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if public.Contains(info.FullMethod) {
			return next(ctx, req)
		}
		c, err := callerFromToken(ctx, signKey)
		if err != nil {
			return nil, newStatus(codes.Unauthenticated, errs.CodeUnauthorized, err.Error())
		}
		return next(WithCaller(ctx, c), req)
	}
}

// callerFromToken extracts "authorization: Bearer <JWT>", verifies HS256 and
// the expiry, and returns the account named by sub.
func callerFromToken(ctx context.Context, signKey []byte) (Caller, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return Caller{}, err
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Caller{}, errors.New("invalid token")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return Caller{}, errors.New("bad subject")
	}
	return Caller{Account: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
