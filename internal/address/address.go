// Package address derives deterministic record ids from their natural keys,
// so any record can be located without a scan and a second creation for the
// same key collides on the primary key.
package address

import (
	"github.com/gofrs/uuid/v5"
)

// Seed prefixes; changing any of them re-addresses every stored record.
const (
	authoritySeed = "vesting_authority"
	treasurySeed  = "vesting_treasury"
	scheduleSeed  = "vesting_schedule"
)

// namespace is the UUIDv5 namespace of all vesting addresses.
var namespace = uuid.Must(uuid.FromString("5b7f63c1-6e0e-4c8c-9a43-2f0d7d3c1a90"))

func derive(seed string, parts ...[]byte) uuid.UUID {
	n := len(seed)
	for _, p := range parts {
		n += 1 + len(p)
	}
	name := make([]byte, 0, n)
	name = append(name, seed...)
	for _, p := range parts {
		// length-prefix each part so ("ab","c") and ("a","bc") never meet
		name = append(name, byte(len(p)))
		name = append(name, p...)
	}
	return uuid.NewV5(namespace, string(name))
}

// Authority returns the address of the authority bound to tenantKey.
func Authority(tenantKey string) uuid.UUID {
	return derive(authoritySeed, []byte(tenantKey))
}

// Treasury returns the custody account address of the authority bound to tenantKey.
func Treasury(tenantKey string) uuid.UUID {
	return derive(treasurySeed, []byte(tenantKey))
}

// Schedule returns the address of the single schedule a beneficiary may hold
// under an authority.
func Schedule(beneficiary, authorityID uuid.UUID) uuid.UUID {
	return derive(scheduleSeed, beneficiary.Bytes(), authorityID.Bytes())
}
