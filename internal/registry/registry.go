// Package registry provides an in-memory enumerable ownership registry with
// unique-owner-per-id semantics and transfer hooks. The position ledger
// depends on this capability but does not implement it.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/veledger/internal/domain"
)

var zeroAddress common.Address

// Registry implements domain.OwnershipRegistry. Hooks registered via
// OnTransfer fire synchronously after every ownership change, including mints
// (from = zero address) and burns (to = zero address).
type Registry struct {
	mu      sync.RWMutex
	owners  map[uint64]common.Address
	byOwner map[common.Address]map[uint64]struct{}
	hooks   []domain.TransferHook
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		owners:  make(map[uint64]common.Address),
		byOwner: make(map[common.Address]map[uint64]struct{}),
	}
}

// Mint assigns a fresh id to an owner.
func (r *Registry) Mint(id uint64, to common.Address) error {
	if to == zeroAddress {
		return fmt.Errorf("registry: mint %d to zero address: %w", id, domain.ErrInvalidAccount)
	}

	r.mu.Lock()
	if _, ok := r.owners[id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: mint %d: %w", id, domain.ErrAlreadyExists)
	}
	r.owners[id] = to
	r.index(to, id)
	hooks := r.snapshotHooks()
	r.mu.Unlock()

	fire(hooks, id, zeroAddress, to)
	return nil
}

// Burn removes an id and its ownership.
func (r *Registry) Burn(id uint64) error {
	r.mu.Lock()
	owner, ok := r.owners[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: burn %d: %w", id, domain.ErrNotFound)
	}
	delete(r.owners, id)
	r.unindex(owner, id)
	hooks := r.snapshotHooks()
	r.mu.Unlock()

	fire(hooks, id, owner, zeroAddress)
	return nil
}

// Transfer moves an id from its current owner to another account.
func (r *Registry) Transfer(id uint64, from, to common.Address) error {
	if to == zeroAddress {
		return fmt.Errorf("registry: transfer %d to zero address: %w", id, domain.ErrInvalidAccount)
	}

	r.mu.Lock()
	owner, ok := r.owners[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: transfer %d: %w", id, domain.ErrNotFound)
	}
	if owner != from {
		r.mu.Unlock()
		return fmt.Errorf("registry: transfer %d: %w", id, domain.ErrInvalidAccount)
	}
	r.owners[id] = to
	r.unindex(from, id)
	r.index(to, id)
	hooks := r.snapshotHooks()
	r.mu.Unlock()

	fire(hooks, id, from, to)
	return nil
}

// OwnerOf returns the current owner of an id.
func (r *Registry) OwnerOf(id uint64) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[id]
	if !ok {
		return common.Address{}, fmt.Errorf("registry: owner of %d: %w", id, domain.ErrNotFound)
	}
	return owner, nil
}

// PositionsOf enumerates every id owned by the account.
func (r *Registry) PositionsOf(owner common.Address) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byOwner[owner]
	if !ok {
		return nil
	}
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// OnTransfer registers a hook fired on every ownership change.
func (r *Registry) OnTransfer(hook domain.TransferHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

func (r *Registry) index(owner common.Address, id uint64) {
	set, ok := r.byOwner[owner]
	if !ok {
		set = make(map[uint64]struct{})
		r.byOwner[owner] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) unindex(owner common.Address, id uint64) {
	if set, ok := r.byOwner[owner]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byOwner, owner)
		}
	}
}

func (r *Registry) snapshotHooks() []domain.TransferHook {
	hooks := make([]domain.TransferHook, len(r.hooks))
	copy(hooks, r.hooks)
	return hooks
}

func fire(hooks []domain.TransferHook, id uint64, from, to common.Address) {
	for _, hook := range hooks {
		hook(id, from, to)
	}
}
