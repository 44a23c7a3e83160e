// Package domain defines the core types, sentinel errors, and collaborator
// interfaces shared across the vote-escrow ledger.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CustodyKind selects which value-transfer backend holds a position's locked
// amount. The numeric values match the custody flag bit in the packed record.
type CustodyKind uint8

const (
	// CustodyInternalLedger keeps the locked amount on the internal
	// unclaimed-balance ledger.
	CustodyInternalLedger CustodyKind = 0

	// CustodyExternalToken pulls the locked amount over the external
	// fungible-token transfer path.
	CustodyExternalToken CustodyKind = 1
)

// String returns a human-readable custody kind name.
func (k CustodyKind) String() string {
	switch k {
	case CustodyInternalLedger:
		return "internal_ledger"
	case CustodyExternalToken:
		return "external_token"
	default:
		return "unknown"
	}
}

// Position is the decoded view of one lock. Amount and Custody are immutable
// after creation; Duration and LockedUntil change only through an extension.
type Position struct {
	ID          uint64
	Amount      *uint256.Int
	Duration    uint64 // seconds, one of the allowed tiers
	LockedUntil uint64 // unix seconds
	Custody     CustodyKind
	Owner       common.Address
}

// Matured reports whether the position can be unlocked at the given instant.
// Maturity is strict: unlocking at exactly LockedUntil is still too early.
func (p Position) Matured(at time.Time) bool {
	return uint64(at.Unix()) > p.LockedUntil
}

// PositionRecord is the persisted form of a position: the packed 256-bit
// register plus the current owner. It is what the snapshot store writes and
// what the ledger restores from on startup.
type PositionRecord struct {
	ID     uint64
	Record *uint256.Int
	Owner  common.Address
}

// AuditEntry is one row of the append-only audit log.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// ListOpts carries pagination and time-range options for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}
