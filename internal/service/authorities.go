package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/address"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
	"github.com/and161185/vesting-engine/internal/treasury"
)

// AuthorityService manages vesting authorities and their treasuries.
type AuthorityService interface {
	// CreateAuthority registers a tenant under its derived address.
	CreateAuthority(ctx context.Context, owner uuid.UUID, assetID, tenantKey string) (model.Authority, error)
	GetAuthority(ctx context.Context, id uuid.UUID) (model.Authority, error)
	GetAuthorityByTenant(ctx context.Context, tenantKey string) (model.Authority, error)
	// ListAuthorities returns the authorities an account owns, oldest first.
	ListAuthorities(ctx context.Context, owner uuid.UUID) ([]model.Authority, error)
	// FundTreasury credits the treasury and returns its new balance. Owner only.
	FundTreasury(ctx context.Context, caller, authorityID uuid.UUID, amount uint64) (uint64, error)
	TreasuryBalance(ctx context.Context, authorityID uuid.UUID) (uint64, error)
}

type AuthorityServiceImpl struct {
	tx          repository.Transactor
	authorities repository.AuthorityRepository
	keeper      *treasury.Keeper
	events      events.Emitter
	now         func() time.Time
}

// NewAuthorityService constructs AuthorityService.
func NewAuthorityService(repos repository.Set, keeper *treasury.Keeper, em events.Emitter) *AuthorityServiceImpl {
	return &AuthorityServiceImpl{
		tx:          repos.Tx,
		authorities: repos.Authorities,
		keeper:      keeper,
		events:      em,
		now:         time.Now,
	}
}

// ValidTenantKey reports whether key may name an authority: valid UTF-8,
// 1..MaxTenantKeyLen characters, no control characters.
func ValidTenantKey(key string) bool {
	n := utf8.RuneCountInString(key)
	if !utf8.ValidString(key) || n < 1 || n > model.MaxTenantKeyLen {
		return false
	}
	return !strings.ContainsFunc(key, unicode.IsControl)
}

// CreateAuthority validates input, stores the authority and emits AuthorityCreated
// in one transaction.
func (s *AuthorityServiceImpl) CreateAuthority(ctx context.Context, owner uuid.UUID, assetID, tenantKey string) (model.Authority, error) {
	if owner == uuid.Nil {
		return model.Authority{}, fmt.Errorf("%w: empty owner", errs.ErrInvalidArgument)
	}
	if !ValidTenantKey(tenantKey) {
		return model.Authority{}, fmt.Errorf("%w: tenant key must be 1..%d printable characters", errs.ErrInvalidArgument, model.MaxTenantKeyLen)
	}
	if assetID == "" {
		return model.Authority{}, fmt.Errorf("%w: empty asset id", errs.ErrInvalidArgument)
	}

	a := model.Authority{
		ID:         address.Authority(tenantKey),
		Owner:      owner,
		AssetID:    assetID,
		TreasuryID: address.Treasury(tenantKey),
		TenantKey:  tenantKey,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.authorities.Create(ctx, &a); err != nil {
			return err
		}
		return s.events.Emit(ctx, model.AuthorityCreated{
			AuthorityID: a.ID,
			Owner:       a.Owner,
			TenantKey:   a.TenantKey,
			AssetID:     a.AssetID,
			CreatedAt:   a.CreatedAt.Unix(),
		})
	})
	if err != nil {
		return model.Authority{}, err
	}
	return a, nil
}

// GetAuthority loads an authority by address.
func (s *AuthorityServiceImpl) GetAuthority(ctx context.Context, id uuid.UUID) (model.Authority, error) {
	a, err := s.authorities.Get(ctx, id)
	if err != nil {
		return model.Authority{}, err
	}
	return *a, nil
}

// GetAuthorityByTenant derives the address from tenantKey and loads it.
func (s *AuthorityServiceImpl) GetAuthorityByTenant(ctx context.Context, tenantKey string) (model.Authority, error) {
	if !ValidTenantKey(tenantKey) {
		return model.Authority{}, errs.ErrInvalidArgument
	}
	return s.GetAuthority(ctx, address.Authority(tenantKey))
}

func (s *AuthorityServiceImpl) ListAuthorities(ctx context.Context, owner uuid.UUID) ([]model.Authority, error) {
	if owner == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner", errs.ErrInvalidArgument)
	}
	return s.authorities.ListByOwner(ctx, owner)
}

// FundTreasury credits the authority's treasury. Only the owner may fund it.
func (s *AuthorityServiceImpl) FundTreasury(ctx context.Context, caller, authorityID uuid.UUID, amount uint64) (uint64, error) {
	var balance uint64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.authorities.Get(ctx, authorityID)
		if err != nil {
			return err
		}
		if !a.HasOwner(caller) {
			return errs.ErrUnauthorized
		}
		if err := s.keeper.Fund(ctx, *a, amount); err != nil {
			return err
		}
		balance, err = s.keeper.TreasuryBalance(ctx, *a)
		return err
	})
	return balance, err
}

// TreasuryBalance returns what the authority's treasury holds.
func (s *AuthorityServiceImpl) TreasuryBalance(ctx context.Context, authorityID uuid.UUID) (uint64, error) {
	a, err := s.authorities.Get(ctx, authorityID)
	if err != nil {
		return 0, err
	}
	return s.keeper.TreasuryBalance(ctx, *a)
}
