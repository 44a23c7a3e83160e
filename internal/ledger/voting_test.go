package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/veledger/internal/custody"
	"github.com/alanyoungcy/veledger/internal/registry"
)

// TestVotingPowerDecay checks the weight formula amount * remaining / R at a
// few fixed points in a position's life.
func TestVotingPowerDecay(t *testing.T) {
	h := newHarness(t)

	_, err := h.ledger.Lock(context.Background(), alice, alice, uint256.NewInt(1_000_000), Duration1000Days, alice, true)
	require.NoError(t, err)

	// Fresh lock at the reference tier: full weight.
	power, err := h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.Equal(t, "1000000", power.Dec())

	// Half the reference period gone: half weight.
	h.clock.advance(Duration1000Days / 2)
	power, err = h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.Equal(t, "500000", power.Dec())

	// One second of remaining lock: floor(1_000_000 * 1 / 86_400_000) = 0.
	h.clock.advance(Duration1000Days/2 - 1)
	power, err = h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.True(t, power.IsZero())
}

// TestVotingPowerTruncates pins the flooring division: 7 units with 10 days
// remaining out of the 1000-day reference is floor(7 * 864000 / 86400000) = 0,
// while 101 units give exactly 1.
func TestVotingPowerTruncates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.Lock(ctx, alice, alice, uint256.NewInt(7), Duration10Days, alice, true)
	require.NoError(t, err)

	power, err := h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.True(t, power.IsZero())

	_, err = h.ledger.Lock(ctx, bob, bob, uint256.NewInt(101), Duration10Days, bob, true)
	require.NoError(t, err)

	power, err = h.ledger.VotingPower(bob)
	require.NoError(t, err)
	assert.Equal(t, "1", power.Dec())
}

// TestVotingPowerSumsPositions checks per-position truncation before the sum:
// two 7-unit 10-day positions still add up to zero, and mixed tiers add their
// individual floors.
func TestVotingPowerSumsPositions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.Lock(ctx, alice, alice, uint256.NewInt(7), Duration10Days, alice, true)
	require.NoError(t, err)
	_, err = h.ledger.Lock(ctx, alice, alice, uint256.NewInt(7), Duration10Days, alice, true)
	require.NoError(t, err)

	power, err := h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.True(t, power.IsZero())

	// 1000 * 864000/86400000 = 10, plus 2000 * 2160000/86400000 = 50.
	_, err = h.ledger.Lock(ctx, bob, bob, uint256.NewInt(1_000), Duration10Days, bob, true)
	require.NoError(t, err)
	_, err = h.ledger.Lock(ctx, bob, bob, uint256.NewInt(2_000), Duration25Days, bob, true)
	require.NoError(t, err)

	power, err = h.ledger.VotingPower(bob)
	require.NoError(t, err)
	assert.Equal(t, "60", power.Dec())
}

// TestVotingPowerMaturedPositionIsZero checks that a position past maturity
// contributes nothing, even while it still exists.
func TestVotingPowerMaturedPositionIsZero(t *testing.T) {
	h := newHarness(t)

	_, err := h.ledger.Lock(context.Background(), alice, alice, uint256.NewInt(1_000_000), Duration10Days, alice, true)
	require.NoError(t, err)

	h.clock.advance(Duration10Days)
	power, err := h.ledger.VotingPower(alice)
	require.NoError(t, err)
	assert.True(t, power.IsZero())
	assert.Equal(t, 1, h.ledger.Len())
}

// TestVotingPowerLargeAmount checks that amounts near the 152-bit cap survive
// the multiply without truncation.
func TestVotingPowerLargeAmount(t *testing.T) {
	clock := &testClock{now: time.Unix(1_800_000_000, 0)}
	reg := registry.New()
	external := custody.NewBalanceLedger()
	external.Credit(alice, MaxAmount())
	led := New(reg, custody.NewRouter(external, custody.NewBalanceLedger()), clock.Now)

	_, err := led.Lock(context.Background(), alice, alice, MaxAmount(), Duration1000Days, alice, true)
	require.NoError(t, err)

	// Full remaining time at the reference tier: weight equals the amount.
	power, err := led.VotingPower(alice)
	require.NoError(t, err)
	assert.True(t, power.Eq(MaxAmount()))
}

// TestVotingPowerUnknownAccount checks an account with no positions reads as
// zero without error.
func TestVotingPowerUnknownAccount(t *testing.T) {
	h := newHarness(t)

	power, err := h.ledger.VotingPower(carol)
	require.NoError(t, err)
	assert.True(t, power.IsZero())
}
