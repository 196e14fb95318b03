package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
)

// Register creates a new account.
func (s *Server) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	id, err := s.identity.Register(ctx, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	return &api.RegisterResponse{AccountID: id.String()}, nil
}

// Login authenticates an account and returns an access token.
func (s *Server) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tok, acc, err := s.identity.Login(ctx, req.Name, req.Password, remoteIP(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, newStatus(codes.Unauthenticated, errs.CodeUnauthorized, "bad credentials")
		}
		return nil, err
	}
	return &api.LoginResponse{
		AccountID:   acc.ID.String(),
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt.Unix(),
	}, nil
}
