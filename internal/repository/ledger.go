package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// LedgerRepository is the custody ledger holding fungible balances per
// (account, asset). It stands in for the external token program.
type LedgerRepository interface {
	// Deposit credits account with amount brought in from outside the ledger.
	Deposit(ctx context.Context, account uuid.UUID, assetID string, amount uint64) error
	// Transfer moves amount between accounts atomically; an uncovered source
	// yields ErrInsufficientFunds and changes nothing.
	Transfer(ctx context.Context, from, to uuid.UUID, assetID string, amount uint64) error
	// Balance returns the balance of account in assetID (0 if never credited).
	Balance(ctx context.Context, account uuid.UUID, assetID string) (uint64, error)
}
