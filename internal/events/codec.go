// Package events encodes vesting events, records them in the outbox and
// relays committed records to external sinks.
package events

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/and161185/vesting-engine/internal/model"
)

// Field numbers of the wire layout. Indexers decode by number, so a number
// is never reused once published; new fields get new numbers.
const (
	fAuthorityCreatedOwner     protowire.Number = 1
	fAuthorityCreatedTenantKey protowire.Number = 2
	fAuthorityCreatedAssetID   protowire.Number = 3
	fAuthorityCreatedCreatedAt protowire.Number = 4

	fScheduleCreatedAuthority   protowire.Number = 1
	fScheduleCreatedBeneficiary protowire.Number = 2
	fScheduleCreatedTotalAmount protowire.Number = 3
	fScheduleCreatedStartTime   protowire.Number = 4

	fScheduleRevokedAuthority   protowire.Number = 1
	fScheduleRevokedBeneficiary protowire.Number = 2
	fScheduleRevokedRevokedAt   protowire.Number = 3
	fScheduleRevokedUnclaimed   protowire.Number = 4

	fTokensClaimedBeneficiary protowire.Number = 1
	fTokensClaimedAmount      protowire.Number = 2
	fTokensClaimedClaimedAt   protowire.Number = 3
)

// ErrUnknownKind is returned for an event kind this build cannot decode.
var ErrUnknownKind = errors.New("events: unknown kind")

type encoder []byte

func (b *encoder) id(n protowire.Number, v uuid.UUID) {
	*b = protowire.AppendTag(*b, n, protowire.BytesType)
	*b = protowire.AppendBytes(*b, v.Bytes())
}

func (b *encoder) str(n protowire.Number, v string) {
	*b = protowire.AppendTag(*b, n, protowire.BytesType)
	*b = protowire.AppendString(*b, v)
}

func (b *encoder) u64(n protowire.Number, v uint64) {
	*b = protowire.AppendTag(*b, n, protowire.VarintType)
	*b = protowire.AppendVarint(*b, v)
}

// i64 is encoded as sint64.
func (b *encoder) i64(n protowire.Number, v int64) {
	b.u64(n, protowire.EncodeZigZag(v))
}

// Encode returns the wire form of e. The aggregate id travels on the
// envelope, not in the payload.
func Encode(e model.Event) ([]byte, error) {
	var b encoder
	switch ev := e.(type) {
	case model.AuthorityCreated:
		b.id(fAuthorityCreatedOwner, ev.Owner)
		b.str(fAuthorityCreatedTenantKey, ev.TenantKey)
		b.str(fAuthorityCreatedAssetID, ev.AssetID)
		b.i64(fAuthorityCreatedCreatedAt, ev.CreatedAt)
	case model.ScheduleCreated:
		b.id(fScheduleCreatedAuthority, ev.AuthorityID)
		b.id(fScheduleCreatedBeneficiary, ev.Beneficiary)
		b.u64(fScheduleCreatedTotalAmount, ev.TotalAmount)
		b.i64(fScheduleCreatedStartTime, ev.StartTime)
	case model.ScheduleRevoked:
		b.id(fScheduleRevokedAuthority, ev.AuthorityID)
		b.id(fScheduleRevokedBeneficiary, ev.Beneficiary)
		b.i64(fScheduleRevokedRevokedAt, ev.RevokedAt)
		b.u64(fScheduleRevokedUnclaimed, ev.UnclaimedAmount)
	case model.TokensClaimed:
		b.id(fTokensClaimedBeneficiary, ev.Beneficiary)
		b.u64(fTokensClaimedAmount, ev.Amount)
		b.i64(fTokensClaimedClaimedAt, ev.ClaimedAt)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
	return b, nil
}

// fields is a decoded payload keyed by field number. Unknown numbers are kept
// and ignored so older readers accept newer payloads.
type fields struct {
	bytes   map[protowire.Number][]byte
	varints map[protowire.Number]uint64
}

func parse(b []byte) (fields, error) {
	f := fields{bytes: map[protowire.Number][]byte{}, varints: map[protowire.Number]uint64{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return f, protowire.ParseError(n)
			}
			f.bytes[num] = v
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return f, protowire.ParseError(n)
			}
			f.varints[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return f, nil
}

func (f fields) id(n protowire.Number) (uuid.UUID, error) {
	b, ok := f.bytes[n]
	if !ok {
		return uuid.Nil, nil
	}
	return uuid.FromBytes(b)
}

func (f fields) str(n protowire.Number) string { return string(f.bytes[n]) }
func (f fields) u64(n protowire.Number) uint64 { return f.varints[n] }
func (f fields) i64(n protowire.Number) int64  { return protowire.DecodeZigZag(f.varints[n]) }

// Decode rebuilds the event of the given kind from its envelope and payload.
func Decode(kind model.EventKind, aggregate uuid.UUID, payload []byte) (model.Event, error) {
	f, err := parse(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	ids := func(nums ...protowire.Number) ([]uuid.UUID, error) {
		out := make([]uuid.UUID, len(nums))
		for i, n := range nums {
			if out[i], err = f.id(n); err != nil {
				return nil, fmt.Errorf("decode %s field %d: %w", kind, n, err)
			}
		}
		return out, nil
	}

	switch kind {
	case model.KindAuthorityCreated:
		v, err := ids(fAuthorityCreatedOwner)
		if err != nil {
			return nil, err
		}
		return model.AuthorityCreated{
			AuthorityID: aggregate,
			Owner:       v[0],
			TenantKey:   f.str(fAuthorityCreatedTenantKey),
			AssetID:     f.str(fAuthorityCreatedAssetID),
			CreatedAt:   f.i64(fAuthorityCreatedCreatedAt),
		}, nil
	case model.KindScheduleCreated:
		v, err := ids(fScheduleCreatedAuthority, fScheduleCreatedBeneficiary)
		if err != nil {
			return nil, err
		}
		return model.ScheduleCreated{
			ScheduleID:  aggregate,
			AuthorityID: v[0],
			Beneficiary: v[1],
			TotalAmount: f.u64(fScheduleCreatedTotalAmount),
			StartTime:   f.i64(fScheduleCreatedStartTime),
		}, nil
	case model.KindScheduleRevoked:
		v, err := ids(fScheduleRevokedAuthority, fScheduleRevokedBeneficiary)
		if err != nil {
			return nil, err
		}
		return model.ScheduleRevoked{
			ScheduleID:      aggregate,
			AuthorityID:     v[0],
			Beneficiary:     v[1],
			RevokedAt:       f.i64(fScheduleRevokedRevokedAt),
			UnclaimedAmount: f.u64(fScheduleRevokedUnclaimed),
		}, nil
	case model.KindTokensClaimed:
		v, err := ids(fTokensClaimedBeneficiary)
		if err != nil {
			return nil, err
		}
		return model.TokensClaimed{
			ScheduleID:  aggregate,
			Beneficiary: v[0],
			Amount:      f.u64(fTokensClaimedAmount),
			ClaimedAt:   f.i64(fTokensClaimedClaimedAt),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
