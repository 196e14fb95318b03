package api

// Field names are shared by the msgpack wire form and the JSON of the HTTP API.
// Ids are canonical UUID strings, times Unix seconds.

// --- Identity ---

type RegisterRequest struct {
	Name     string `msgpack:"name" json:"name"`
	Password string `msgpack:"password" json:"-"`
}

type RegisterResponse struct {
	AccountID string `msgpack:"account_id" json:"account_id"`
}

type LoginRequest struct {
	Name     string `msgpack:"name" json:"name"`
	Password string `msgpack:"password" json:"-"`
}

type LoginResponse struct {
	AccountID   string `msgpack:"account_id" json:"account_id"`
	AccessToken string `msgpack:"access_token" json:"-"`
	ExpiresAt   int64  `msgpack:"expires_at" json:"expires_at"`
}

// --- Vesting ---

type Authority struct {
	ID         string `msgpack:"id" json:"id"`
	Owner      string `msgpack:"owner" json:"owner"`
	AssetID    string `msgpack:"asset_id" json:"asset_id"`
	TreasuryID string `msgpack:"treasury_id" json:"treasury_id"`
	TenantKey  string `msgpack:"tenant_key" json:"tenant_key"`
	CreatedAt  int64  `msgpack:"created_at" json:"created_at"`

	// Treasury balance at read time; not set on creation.
	TreasuryBalance uint64 `msgpack:"treasury_balance,omitempty" json:"treasury_balance,omitempty"`
}

type Schedule struct {
	ID             string `msgpack:"id" json:"id"`
	AuthorityID    string `msgpack:"authority_id" json:"authority_id"`
	Beneficiary    string `msgpack:"beneficiary" json:"beneficiary"`
	TotalAmount    uint64 `msgpack:"total_amount" json:"total_amount"`
	TotalWithdrawn uint64 `msgpack:"total_withdrawn" json:"total_withdrawn"`
	StartTime      int64  `msgpack:"start_time" json:"start_time"`
	EndTime        int64  `msgpack:"end_time" json:"end_time"`
	CliffTime      int64  `msgpack:"cliff_time" json:"cliff_time"`
	RevokedAt      *int64 `msgpack:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

type Snapshot struct {
	At          int64  `msgpack:"at" json:"at"`
	Vested      uint64 `msgpack:"vested" json:"vested"`
	Claimable   uint64 `msgpack:"claimable" json:"claimable"`
	Recoverable uint64 `msgpack:"recoverable" json:"recoverable"`
}

type CreateAuthorityRequest struct {
	AssetID   string `msgpack:"asset_id"`
	TenantKey string `msgpack:"tenant_key"`
}

// GetAuthorityRequest selects by ID, or by TenantKey when ID is empty.
type GetAuthorityRequest struct {
	ID        string `msgpack:"id"`
	TenantKey string `msgpack:"tenant_key"`
}

// ListAuthoritiesRequest lists the authorities of Owner, the caller when empty.
type ListAuthoritiesRequest struct {
	Owner string `msgpack:"owner"`
}

type ListAuthoritiesResponse struct {
	Authorities []Authority `msgpack:"authorities" json:"authorities"`
}

type FundTreasuryRequest struct {
	AuthorityID string `msgpack:"authority_id"`
	Amount      uint64 `msgpack:"amount"`
}

type FundTreasuryResponse struct {
	Balance uint64 `msgpack:"balance" json:"balance"`
}

type CreateScheduleRequest struct {
	AuthorityID string `msgpack:"authority_id"`
	Beneficiary string `msgpack:"beneficiary"`
	StartTime   int64  `msgpack:"start_time"`
	EndTime     int64  `msgpack:"end_time"`
	CliffTime   int64  `msgpack:"cliff_time"`
	TotalAmount uint64 `msgpack:"total_amount"`
}

// GetScheduleRequest asks for a schedule and its figures at At (now when nil).
type GetScheduleRequest struct {
	ID string `msgpack:"id"`
	At *int64 `msgpack:"at,omitempty"`
}

type ScheduleView struct {
	Schedule Schedule `msgpack:"schedule" json:"schedule"`
	Snapshot Snapshot `msgpack:"snapshot" json:"snapshot"`
}

// ListSchedulesRequest lists the schedules of an authority, or the grants of
// Beneficiary when AuthorityID is empty. With both empty it lists the
// caller's grants.
type ListSchedulesRequest struct {
	AuthorityID string `msgpack:"authority_id,omitempty"`
	Beneficiary string `msgpack:"beneficiary,omitempty"`
}

type ListSchedulesResponse struct {
	Schedules []Schedule `msgpack:"schedules" json:"schedules"`
}

type ClaimRequest struct {
	ScheduleID string `msgpack:"schedule_id"`
}

type ClaimResponse struct {
	Amount uint64 `msgpack:"amount" json:"amount"`
}

type GetBalanceRequest struct {
	AccountID string `msgpack:"account_id"`
	AssetID   string `msgpack:"asset_id"`
}

type GetBalanceResponse struct {
	AccountID string `msgpack:"account_id" json:"account_id"`
	AssetID   string `msgpack:"asset_id" json:"asset_id"`
	Balance   uint64 `msgpack:"balance" json:"balance"`
}

// --- Revocation ---

type RevokeRequest struct {
	AuthorityID string `msgpack:"authority_id"`
	ScheduleID  string `msgpack:"schedule_id"`
}

type RevokeResponse struct {
	ScheduleID      string `msgpack:"schedule_id" json:"schedule_id"`
	AuthorityID     string `msgpack:"authority_id" json:"authority_id"`
	Beneficiary     string `msgpack:"beneficiary" json:"beneficiary"`
	RevokedAt       int64  `msgpack:"revoked_at" json:"revoked_at"`
	UnclaimedAmount uint64 `msgpack:"unclaimed_amount" json:"unclaimed_amount"`
}
