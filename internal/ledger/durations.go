package ledger

// Lock duration tiers, in seconds. Exactly these five values pass the
// duration gate; everything else is rejected.
const (
	Duration10Days   uint64 = 864_000
	Duration25Days   uint64 = 2_160_000
	Duration100Days  uint64 = 8_640_000
	Duration250Days  uint64 = 21_600_000
	Duration1000Days uint64 = 86_400_000

	// ReferencePeriod is the longest tier; voting power decays linearly
	// against it.
	ReferencePeriod = Duration1000Days
)

// AllowedDurations lists every accepted tier in ascending order.
func AllowedDurations() []uint64 {
	return []uint64{
		Duration10Days,
		Duration25Days,
		Duration100Days,
		Duration250Days,
		Duration1000Days,
	}
}

// IsAllowedDuration reports whether d is exactly one of the fixed tiers.
func IsAllowedDuration(d uint64) bool {
	switch d {
	case Duration10Days, Duration25Days, Duration100Days, Duration250Days, Duration1000Days:
		return true
	default:
		return false
	}
}
