package registry

import (
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/veledger/internal/domain"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// TestMintBurnOwnership checks the basic own/enumerate/destroy cycle.
func TestMintBurnOwnership(t *testing.T) {
	r := New()

	require.NoError(t, r.Mint(1, alice))
	require.NoError(t, r.Mint(2, alice))
	require.NoError(t, r.Mint(3, bob))

	owner, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	ids := r.PositionsOf(alice)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{1, 2}, ids)

	require.NoError(t, r.Burn(1))
	_, err = r.OwnerOf(1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []uint64{2}, r.PositionsOf(alice))

	assert.ErrorIs(t, r.Burn(1), domain.ErrNotFound)
}

// TestMintRejections checks duplicate ids and the zero address.
func TestMintRejections(t *testing.T) {
	r := New()

	require.NoError(t, r.Mint(1, alice))
	assert.ErrorIs(t, r.Mint(1, bob), domain.ErrAlreadyExists)
	assert.ErrorIs(t, r.Mint(2, common.Address{}), domain.ErrInvalidAccount)
}

// TestTransfer checks ownership moves and the from-owner guard.
func TestTransfer(t *testing.T) {
	r := New()
	require.NoError(t, r.Mint(1, alice))

	assert.ErrorIs(t, r.Transfer(1, bob, bob), domain.ErrInvalidAccount)
	assert.ErrorIs(t, r.Transfer(1, alice, common.Address{}), domain.ErrInvalidAccount)
	assert.ErrorIs(t, r.Transfer(2, alice, bob), domain.ErrNotFound)

	require.NoError(t, r.Transfer(1, alice, bob))
	owner, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	assert.Empty(t, r.PositionsOf(alice))
	assert.Equal(t, []uint64{1}, r.PositionsOf(bob))
}

// TestTransferHooks checks hooks fire for mint (from zero), transfer, and
// burn (to zero), in order.
func TestTransferHooks(t *testing.T) {
	type event struct {
		id       uint64
		from, to common.Address
	}

	r := New()
	var events []event
	r.OnTransfer(func(id uint64, from, to common.Address) {
		events = append(events, event{id, from, to})
	})

	require.NoError(t, r.Mint(1, alice))
	require.NoError(t, r.Transfer(1, alice, bob))
	require.NoError(t, r.Burn(1))

	require.Len(t, events, 3)
	assert.Equal(t, event{1, common.Address{}, alice}, events[0])
	assert.Equal(t, event{1, alice, bob}, events[1])
	assert.Equal(t, event{1, bob, common.Address{}}, events[2])
}

// TestHookCanReadRegistry checks a hook may call back into the registry
// without deadlocking.
func TestHookCanReadRegistry(t *testing.T) {
	r := New()
	var sawOwner common.Address
	r.OnTransfer(func(id uint64, from, to common.Address) {
		if owner, err := r.OwnerOf(id); err == nil {
			sawOwner = owner
		}
	})

	require.NoError(t, r.Mint(7, alice))
	assert.Equal(t, alice, sawOwner)
}
