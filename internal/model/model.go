// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// MaxTenantKeyLen bounds the human tenant identifier an authority is addressed by.
const MaxTenantKeyLen = 30

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Account is an identity able to sign requests: an authority owner or a beneficiary.
type Account struct {
	ID        uuid.UUID // PK, the identity used in owner/beneficiary checks
	Name      string    // unique login name
	Secret    string    // encoded Argon2id verifier, never the password
	CreatedAt time.Time
}

// Authority binds one tenant to one treasury holding the asset under vesting.
type Authority struct {
	ID         uuid.UUID // derived from TenantKey
	Owner      uuid.UUID // only identity allowed to create/revoke schedules
	AssetID    string
	TreasuryID uuid.UUID // custody account, derived from TenantKey
	TenantKey  string    // immutable, unique
	CreatedAt  time.Time
}

// HasOwner reports whether id owns the authority.
func (a Authority) HasOwner(id uuid.UUID) bool { return id != uuid.Nil && a.Owner == id }

// Schedule is one beneficiary's linear grant under one authority.
// Timestamps are Unix seconds.
type Schedule struct {
	ID             uuid.UUID // derived from (Beneficiary, AuthorityID)
	AuthorityID    uuid.UUID
	Beneficiary    uuid.UUID
	TotalAmount    uint64
	TotalWithdrawn uint64 // non-decreasing, <= TotalAmount
	StartTime      int64
	EndTime        int64
	CliffTime      int64
	RevokedAt      *int64 // set once, never cleared
}

// Revoked reports whether the schedule has been revoked.
func (s Schedule) Revoked() bool { return s.RevokedAt != nil }

// Unclaimed is the part of the grant not yet transferred to the beneficiary.
func (s Schedule) Unclaimed() uint64 {
	if s.TotalWithdrawn >= s.TotalAmount {
		return 0
	}
	return s.TotalAmount - s.TotalWithdrawn
}

// Snapshot is a read-only view of a schedule at a given instant.
type Snapshot struct {
	At          int64
	Vested      uint64
	Claimable   uint64 // 0 before the cliff and after revocation
	Recoverable uint64 // unclaimed remainder owed back to the authority once revoked
}
