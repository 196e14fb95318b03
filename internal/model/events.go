package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// EventKind names an event type on the outbox and the published stream.
type EventKind string

const (
	KindAuthorityCreated EventKind = "AuthorityCreated"
	KindScheduleCreated  EventKind = "ScheduleCreated"
	KindScheduleRevoked  EventKind = "ScheduleRevoked"
	KindTokensClaimed    EventKind = "TokensClaimed"
)

// Event is a state-change notification. Field sets are consumed by
// external indexers and must stay stable.
type Event interface {
	Kind() EventKind
	// Aggregate returns the id of the record the event belongs to.
	Aggregate() uuid.UUID
}

// AuthorityCreated is emitted once per authority.
type AuthorityCreated struct {
	AuthorityID uuid.UUID
	Owner       uuid.UUID
	TenantKey   string
	AssetID     string
	CreatedAt   int64
}

// ScheduleCreated is emitted once per schedule.
type ScheduleCreated struct {
	ScheduleID  uuid.UUID
	AuthorityID uuid.UUID
	Beneficiary uuid.UUID
	TotalAmount uint64
	StartTime   int64
}

// ScheduleRevoked reports the unclaimed remainder the authority may recover.
type ScheduleRevoked struct {
	ScheduleID      uuid.UUID
	AuthorityID     uuid.UUID
	Beneficiary     uuid.UUID
	RevokedAt       int64
	UnclaimedAmount uint64
}

// TokensClaimed is emitted after a committed claim.
type TokensClaimed struct {
	ScheduleID  uuid.UUID
	Beneficiary uuid.UUID
	Amount      uint64
	ClaimedAt   int64
}

func (AuthorityCreated) Kind() EventKind { return KindAuthorityCreated }
func (ScheduleCreated) Kind() EventKind  { return KindScheduleCreated }
func (ScheduleRevoked) Kind() EventKind  { return KindScheduleRevoked }
func (TokensClaimed) Kind() EventKind    { return KindTokensClaimed }

func (e AuthorityCreated) Aggregate() uuid.UUID { return e.AuthorityID }
func (e ScheduleCreated) Aggregate() uuid.UUID  { return e.ScheduleID }
func (e ScheduleRevoked) Aggregate() uuid.UUID  { return e.ScheduleID }
func (e TokensClaimed) Aggregate() uuid.UUID    { return e.ScheduleID }

// EventRecord is an outbox row: an encoded event plus delivery metadata.
type EventRecord struct {
	Seq         int64 // append order
	Kind        EventKind
	AggregateID uuid.UUID
	Payload     []byte // protowire-encoded event
	CreatedAt   time.Time
	PublishedAt *time.Time
}
