package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CustodyBackend is one value-transfer path. TransferIn pulls amount from the
// account into contract custody; TransferOut releases it to the beneficiary.
// Backend failures are returned verbatim and must not be masked by callers.
type CustodyBackend interface {
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	TransferIn(ctx context.Context, from common.Address, amount *uint256.Int) error
	TransferOut(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// CustodyRouter resolves a custody kind to its backend.
type CustodyRouter interface {
	Backend(kind CustodyKind) CustodyBackend
}

// TransferHook observes every ownership change. Mints fire with a zero from
// address, burns with a zero to address.
type TransferHook func(id uint64, from, to common.Address)

// OwnershipRegistry supplies unique-owner-per-id semantics, enumeration by
// owner, and a hook fired on every ownership change. The ledger depends on it
// but does not implement it.
type OwnershipRegistry interface {
	Mint(id uint64, to common.Address) error
	Burn(id uint64) error
	Transfer(id uint64, from, to common.Address) error
	OwnerOf(id uint64) (common.Address, error)
	PositionsOf(owner common.Address) []uint64
	OnTransfer(hook TransferHook)
}

// MetadataResolver composes a human-readable URI for a position from its
// decoded fields.
type MetadataResolver interface {
	Describe(ctx context.Context, id uint64, amount *uint256.Int, duration, lockedUntil uint64) (string, error)
}

// RecordStore persists packed position records so the in-memory ledger can be
// restored after a restart. Save is an upsert keyed by position id.
type RecordStore interface {
	Save(ctx context.Context, rec PositionRecord) error
	UpdateOwner(ctx context.Context, id uint64, owner common.Address) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context) ([]PositionRecord, error)
}

// AuditStore is the append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
}

// SignalBus is a lightweight pub/sub fan-out for position lifecycle events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter uploads a blob to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
