package custody

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/veledger/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// TestBalanceLedgerEscrowCycle checks credit -> escrow -> release moves value
// without creating or destroying any.
func TestBalanceLedgerEscrowCycle(t *testing.T) {
	ctx := context.Background()
	b := NewBalanceLedger()
	b.Credit(alice, uint256.NewInt(1_000))

	require.NoError(t, b.TransferIn(ctx, alice, uint256.NewInt(400)))

	bal, err := b.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "600", bal.Dec())
	assert.Equal(t, "400", b.Escrowed().Dec())

	require.NoError(t, b.TransferOut(ctx, bob, uint256.NewInt(400)))

	bal, err = b.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "400", bal.Dec())
	assert.True(t, b.Escrowed().IsZero())
}

// TestBalanceLedgerInsufficientFunds checks every overdraw path fails with
// ErrInsufficientBalance and leaves state untouched.
func TestBalanceLedgerInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b := NewBalanceLedger()
	b.Credit(alice, uint256.NewInt(100))

	err := b.TransferIn(ctx, alice, uint256.NewInt(101))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Unknown account has a zero balance.
	err = b.TransferIn(ctx, bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	err = b.TransferOut(ctx, alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	err = b.Debit(alice, uint256.NewInt(101))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	bal, err := b.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "100", bal.Dec())
	assert.True(t, b.Escrowed().IsZero())
}

// TestBalanceLedgerCreditDebit checks the administrative balance moves.
func TestBalanceLedgerCreditDebit(t *testing.T) {
	ctx := context.Background()
	b := NewBalanceLedger()

	b.Credit(alice, uint256.NewInt(50))
	b.Credit(alice, uint256.NewInt(25))
	require.NoError(t, b.Debit(alice, uint256.NewInt(30)))

	bal, err := b.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "45", bal.Dec())
}

// TestBalanceLedgerReturnsCopies checks that returned values do not alias
// internal state.
func TestBalanceLedgerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	b := NewBalanceLedger()
	b.Credit(alice, uint256.NewInt(10))

	bal, err := b.BalanceOf(ctx, alice)
	require.NoError(t, err)
	bal.SetUint64(999)

	bal, err = b.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "10", bal.Dec())
}
