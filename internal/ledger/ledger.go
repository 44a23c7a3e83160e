package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// Ledger owns the mapping from position id to packed record and enforces the
// lock/extend/unlock state machine. It is the single writer of position
// state: every mutating operation runs under one mutex, held across the
// custody backend call, so no reentrant mutation can interleave with an
// in-flight transfer.
type Ledger struct {
	mu       sync.RWMutex
	records  map[uint64]*uint256.Int
	nextID   uint64
	registry domain.OwnershipRegistry
	custody  domain.CustodyRouter
	now      func() time.Time
}

// New creates a Ledger with the given ownership registry and custody router.
// now may be nil, in which case time.Now is used.
func New(registry domain.OwnershipRegistry, custody domain.CustodyRouter, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		records:  make(map[uint64]*uint256.Int),
		registry: registry,
		custody:  custody,
		now:      now,
	}
}

// Lock escrows amount from account for duration seconds and mints a new
// position owned by beneficiary. Only the account itself may lock its own
// balance. The custody transfer is the final step; if the backend fails, the
// mint, the stored record, and the id counter all roll back and the backend
// error is returned unchanged.
func (l *Ledger) Lock(ctx context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, useExternalCustody bool) (domain.Position, error) {
	if caller != account {
		return domain.Position{}, domain.ErrInvalidAccount
	}
	if !IsAllowedDuration(duration) {
		return domain.Position{}, domain.ErrInvalidDuration
	}
	if amount == nil || amount.Gt(maxAmount) {
		return domain.Position{}, fmt.Errorf("ledger: lock: amount not representable in %d bits", amountBits)
	}

	kind := domain.CustodyInternalLedger
	if useExternalCustody {
		kind = domain.CustodyExternalToken
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	backend := l.custody.Backend(kind)
	balance, err := backend.BalanceOf(ctx, account)
	if err != nil {
		return domain.Position{}, fmt.Errorf("ledger: balance query: %w", err)
	}
	if balance.Lt(amount) {
		return domain.Position{}, domain.ErrInsufficientBalance
	}

	lockedUntil := uint64(l.now().Unix()) + duration
	reg, err := EncodeRecord(amount, duration, lockedUntil, kind)
	if err != nil {
		return domain.Position{}, err
	}

	id := l.nextID + 1
	if err := l.registry.Mint(id, beneficiary); err != nil {
		return domain.Position{}, fmt.Errorf("ledger: mint position %d: %w", id, err)
	}
	l.records[id] = reg
	l.nextID = id

	// Custody pull is last; everything above rolls back if it fails.
	if err := backend.TransferIn(ctx, account, amount); err != nil {
		delete(l.records, id)
		_ = l.registry.Burn(id)
		l.nextID = id - 1
		return domain.Position{}, err
	}

	return domain.Position{
		ID:          id,
		Amount:      amount.Clone(),
		Duration:    duration,
		LockedUntil: lockedUntil,
		Custody:     kind,
		Owner:       beneficiary,
	}, nil
}

// Unlock destroys a matured position and releases its amount to beneficiary
// through the backend recorded at creation time. Only the current owner may
// unlock, and only strictly after LockedUntil.
func (l *Ledger) Unlock(ctx context.Context, caller common.Address, id uint64, beneficiary common.Address) (domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reg, ok := l.records[id]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	owner, err := l.registry.OwnerOf(id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("ledger: owner of %d: %w", id, err)
	}
	if caller != owner {
		return domain.Position{}, domain.ErrInvalidAccount
	}

	amount, duration, lockedUntil, kind, err := DecodeRecord(reg)
	if err != nil {
		return domain.Position{}, err
	}
	if uint64(l.now().Unix()) <= lockedUntil {
		return domain.Position{}, domain.ErrLockPeriodNotOver
	}

	delete(l.records, id)
	if err := l.registry.Burn(id); err != nil {
		l.records[id] = reg
		return domain.Position{}, fmt.Errorf("ledger: burn position %d: %w", id, err)
	}

	// Custody release is last; restore the position if it fails.
	if err := l.custody.Backend(kind).TransferOut(ctx, beneficiary, amount); err != nil {
		l.records[id] = reg
		_ = l.registry.Mint(id, owner)
		return domain.Position{}, err
	}

	return domain.Position{
		ID:          id,
		Amount:      amount,
		Duration:    duration,
		LockedUntil: lockedUntil,
		Custody:     kind,
		Owner:       owner,
	}, nil
}

// ExtendLock rewrites a position's duration tier, preserving already-elapsed
// lock time: newLockedUntil = oldLockedUntil + newDuration - oldDuration.
// Shortening is rejected; a lockup can never be reduced.
func (l *Ledger) ExtendLock(ctx context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error) {
	if !IsAllowedDuration(newDuration) {
		return domain.Position{}, domain.ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	reg, ok := l.records[id]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	owner, err := l.registry.OwnerOf(id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("ledger: owner of %d: %w", id, err)
	}
	if caller != owner {
		return domain.Position{}, domain.ErrInvalidAccount
	}

	amount, duration, lockedUntil, kind, err := DecodeRecord(reg)
	if err != nil {
		return domain.Position{}, err
	}
	if newDuration < duration {
		return domain.Position{}, domain.ErrInvalidDuration
	}

	newLockedUntil := lockedUntil + newDuration - duration
	newReg, err := EncodeRecord(amount, newDuration, newLockedUntil, kind)
	if err != nil {
		return domain.Position{}, err
	}
	l.records[id] = newReg

	return domain.Position{
		ID:          id,
		Amount:      amount,
		Duration:    newDuration,
		LockedUntil: newLockedUntil,
		Custody:     kind,
		Owner:       owner,
	}, nil
}

// Specs returns the decoded fields and current owner of a position.
func (l *Ledger) Specs(id uint64) (domain.Position, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	reg, ok := l.records[id]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	amount, duration, lockedUntil, kind, err := DecodeRecord(reg)
	if err != nil {
		return domain.Position{}, err
	}
	owner, err := l.registry.OwnerOf(id)
	if err != nil {
		return domain.Position{}, fmt.Errorf("ledger: owner of %d: %w", id, err)
	}
	return domain.Position{
		ID:          id,
		Amount:      amount,
		Duration:    duration,
		LockedUntil: lockedUntil,
		Custody:     kind,
		Owner:       owner,
	}, nil
}

// PackedRecord returns a copy of the raw 256-bit register for a position.
func (l *Ledger) PackedRecord(id uint64) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	reg, ok := l.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return reg.Clone(), nil
}

// ImportPosition restores a previously persisted position, minting ownership
// and advancing the id counter past the restored id. It is only meant for
// startup recovery from the record store.
func (l *Ledger) ImportPosition(rec domain.PositionRecord) error {
	if _, _, _, _, err := DecodeRecord(rec.Record); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[rec.ID]; ok {
		return fmt.Errorf("ledger: import position %d: %w", rec.ID, domain.ErrAlreadyExists)
	}
	if err := l.registry.Mint(rec.ID, rec.Owner); err != nil {
		return fmt.Errorf("ledger: import mint %d: %w", rec.ID, err)
	}
	l.records[rec.ID] = rec.Record.Clone()
	if rec.ID > l.nextID {
		l.nextID = rec.ID
	}
	return nil
}

// Len returns the number of live positions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// NextID returns the id the next lock will be assigned.
func (l *Ledger) NextID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID + 1
}
