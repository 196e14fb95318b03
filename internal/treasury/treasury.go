// Package treasury guards the custody accounts that back vesting authorities.
// Only a Keeper may move funds, and only through a Signer bound to one
// authority's treasury.
package treasury

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

// Keeper owns the custody ledger.
type Keeper struct {
	ledger repository.LedgerRepository
}

// NewKeeper wraps ledger. Callers must not keep their own reference to it.
func NewKeeper(ledger repository.LedgerRepository) *Keeper {
	return &Keeper{ledger: ledger}
}

// Signer returns the release capability of a's treasury.
func (k *Keeper) Signer(a model.Authority) Signer {
	return Signer{ledger: k.ledger, treasury: a.TreasuryID, asset: a.AssetID}
}

// Fund credits a's treasury with amount.
func (k *Keeper) Fund(ctx context.Context, a model.Authority, amount uint64) error {
	if amount == 0 {
		return errs.ErrZeroAmount
	}
	if err := k.ledger.Deposit(ctx, a.TreasuryID, a.AssetID, amount); err != nil {
		return fmt.Errorf("fund treasury %s: %w", a.TreasuryID, err)
	}
	return nil
}

// TreasuryBalance returns what a's treasury holds.
func (k *Keeper) TreasuryBalance(ctx context.Context, a model.Authority) (uint64, error) {
	return k.ledger.Balance(ctx, a.TreasuryID, a.AssetID)
}

// Balance returns what account holds in assetID.
func (k *Keeper) Balance(ctx context.Context, account uuid.UUID, assetID string) (uint64, error) {
	return k.ledger.Balance(ctx, account, assetID)
}

// Signer releases funds from exactly one treasury.
type Signer struct {
	ledger   repository.LedgerRepository
	treasury uuid.UUID
	asset    string
}

// Treasury returns the account the signer releases from.
func (s Signer) Treasury() uuid.UUID { return s.treasury }

// Release transfers amount of the authority's asset from its treasury to to.
func (s Signer) Release(ctx context.Context, to uuid.UUID, amount uint64) error {
	if s.ledger == nil {
		return fmt.Errorf("treasury: unbound signer")
	}
	if err := s.ledger.Transfer(ctx, s.treasury, to, s.asset, amount); err != nil {
		return fmt.Errorf("release from %s: %w", s.treasury, err)
	}
	return nil
}
