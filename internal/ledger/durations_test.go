package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIsAllowedDuration checks the duration gate accepts exactly the five
// tiers and rejects boundary-adjacent values.
func TestIsAllowedDuration(t *testing.T) {
	allowed := AllowedDurations()
	assert.Len(t, allowed, 5)

	for _, d := range allowed {
		assert.True(t, IsAllowedDuration(d), "tier %d", d)
		assert.False(t, IsAllowedDuration(d-1), "tier %d - 1", d)
		assert.False(t, IsAllowedDuration(d+1), "tier %d + 1", d)
	}

	assert.False(t, IsAllowedDuration(0))
	assert.False(t, IsAllowedDuration(1))
	assert.False(t, IsAllowedDuration(uint64(1)<<48-1))
}

// TestDurationTierValues pins the exact second counts so a tier can never
// drift silently.
func TestDurationTierValues(t *testing.T) {
	assert.Equal(t, uint64(864_000), Duration10Days)
	assert.Equal(t, uint64(2_160_000), Duration25Days)
	assert.Equal(t, uint64(8_640_000), Duration100Days)
	assert.Equal(t, uint64(21_600_000), Duration250Days)
	assert.Equal(t, uint64(86_400_000), Duration1000Days)
	assert.Equal(t, Duration1000Days, uint64(ReferencePeriod))
}
