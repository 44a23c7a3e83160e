package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// BalanceLedger is the internal unclaimed-balance custody backend: a plain
// account -> balance map plus a running total of value held in escrow.
// Credit and Debit are the administrative entry points that feed unclaimed
// balances into it; TransferIn/TransferOut are the escrow moves the position
// ledger drives.
type BalanceLedger struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
	escrowed *uint256.Int
}

// NewBalanceLedger creates an empty BalanceLedger.
func NewBalanceLedger() *BalanceLedger {
	return &BalanceLedger{
		balances: make(map[common.Address]*uint256.Int),
		escrowed: new(uint256.Int),
	}
}

// BalanceOf returns the account's unclaimed balance.
func (b *BalanceLedger) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if bal, ok := b.balances[account]; ok {
		return bal.Clone(), nil
	}
	return new(uint256.Int), nil
}

// TransferIn moves amount from the account's balance into escrow.
func (b *BalanceLedger) TransferIn(_ context.Context, from common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.balances[from]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("custody: internal transfer in from %s: %w", from, domain.ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	b.escrowed.Add(b.escrowed, amount)
	return nil
}

// TransferOut releases amount from escrow to the beneficiary's balance.
func (b *BalanceLedger) TransferOut(_ context.Context, to common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.escrowed.Lt(amount) {
		return fmt.Errorf("custody: internal transfer out to %s: %w", to, domain.ErrInsufficientBalance)
	}
	b.escrowed.Sub(b.escrowed, amount)
	b.credit(to, amount)
	return nil
}

// Credit adds amount to an account's unclaimed balance.
func (b *BalanceLedger) Credit(account common.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, amount)
}

// Debit removes amount from an account's unclaimed balance.
func (b *BalanceLedger) Debit(account common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal, ok := b.balances[account]
	if !ok || bal.Lt(amount) {
		return fmt.Errorf("custody: debit %s: %w", account, domain.ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	return nil
}

// Escrowed returns the total value currently held in escrow.
func (b *BalanceLedger) Escrowed() *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.escrowed.Clone()
}

func (b *BalanceLedger) credit(account common.Address, amount *uint256.Int) {
	if bal, ok := b.balances[account]; ok {
		bal.Add(bal, amount)
		return
	}
	b.balances[account] = amount.Clone()
}
