// Package service contains the application services of the vesting engine:
// identities, authorities, schedules, claims and revocation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/vesting-engine/internal/crypto"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/limiter"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// IdentityService registers accounts and issues the access tokens that
// identify owners and beneficiaries.
type IdentityService interface {
	// Register creates a new account with a hashed password.
	Register(ctx context.Context, name, password string) (uuid.UUID, error)
	// Login applies rate-limiting and authenticates the account.
	Login(ctx context.Context, name, password, ip string) (model.Tokens, model.Account, error)
}

type IdentityServiceImpl struct {
	accounts  repository.AccountRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	now       func() time.Time
}

// NewIdentityService constructs IdentityService with required dependencies.
func NewIdentityService(accounts repository.AccountRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *IdentityServiceImpl {
	return &IdentityServiceImpl{accounts: accounts, signKey: signKey, accessTTL: accessTTL, lim: lim, now: time.Now}
}

// Register creates a new account record.
func (s *IdentityServiceImpl) Register(ctx context.Context, name, password string) (uuid.UUID, error) {
	if name == "" || password == "" {
		return uuid.Nil, fmt.Errorf("%w: empty name/password", errs.ErrInvalidArgument)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	secret, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	a := &model.Account{ID: id, Name: name, Secret: secret, CreatedAt: s.now().UTC()}
	if err := s.accounts.Create(ctx, a); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Login authenticates with rate limiting by (name, ip).
func (s *IdentityServiceImpl) Login(ctx context.Context, name, password, ip string) (model.Tokens, model.Account, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, name, ipHash)
	if err != nil {
		return model.Tokens{}, model.Account{}, err
	}
	if !allowed {
		return model.Tokens{}, model.Account{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByName(ctx, name)
	var ok bool
	if err == nil {
		ok, err = pkgcrypto.VerifyPassword(password, a.Secret)
	}
	if err != nil || !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, name, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.Account{}, errs.ErrRateLimited
		}
		// unknown name and wrong password look the same
		return model.Tokens{}, model.Account{}, errs.ErrUnauthorized
	}

	// best-effort
	_ = s.lim.Success(ctx, name, ipHash)

	access, exp, err := s.issueAccessToken(a.ID)
	if err != nil {
		return model.Tokens{}, model.Account{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *a, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *IdentityServiceImpl) issueAccessToken(id uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
