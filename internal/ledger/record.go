// Package ledger implements the vote-escrow position ledger: the packed
// record codec, the duration policy, the lock/extend/unlock state machine,
// and the time-decayed voting power calculation.
package ledger

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// Packed record layout, one 256-bit register per position:
//
//	bits [0,152)   amount
//	bits [152,200) duration (seconds)
//	bits [200,248) lockedUntil (unix seconds)
//	bit  248       custody flag (1 = external token)
//	bits [249,256) reserved, must be zero
const (
	amountBits       = 152
	durationShift    = 152
	lockedUntilShift = 200
	custodyShift     = 248

	fieldMask48 = uint64(1)<<48 - 1
)

var (
	one = uint256.NewInt(1)

	// maxAmount is 2^152 - 1, the largest encodable amount.
	maxAmount = new(uint256.Int).Sub(new(uint256.Int).Lsh(one, amountBits), one)
)

// MaxAmount returns the largest amount a record can hold.
func MaxAmount() *uint256.Int {
	return maxAmount.Clone()
}

// EncodeRecord packs the position fields into a single 256-bit register.
// Field values outside their bit widths are rejected rather than truncated.
func EncodeRecord(amount *uint256.Int, duration, lockedUntil uint64, kind domain.CustodyKind) (*uint256.Int, error) {
	if amount == nil {
		return nil, fmt.Errorf("ledger: encode: nil amount")
	}
	if amount.Gt(maxAmount) {
		return nil, fmt.Errorf("ledger: encode: amount exceeds %d bits", amountBits)
	}
	if duration > fieldMask48 {
		return nil, fmt.Errorf("ledger: encode: duration exceeds 48 bits")
	}
	if lockedUntil > fieldMask48 {
		return nil, fmt.Errorf("ledger: encode: lockedUntil exceeds 48 bits")
	}
	if kind != domain.CustodyInternalLedger && kind != domain.CustodyExternalToken {
		return nil, fmt.Errorf("ledger: encode: unknown custody kind %d", kind)
	}

	reg := new(uint256.Int).Set(amount)

	field := new(uint256.Int).SetUint64(duration)
	reg.Or(reg, field.Lsh(field, durationShift))

	field.SetUint64(lockedUntil)
	reg.Or(reg, field.Lsh(field, lockedUntilShift))

	if kind == domain.CustodyExternalToken {
		field.SetUint64(1)
		reg.Or(reg, field.Lsh(field, custodyShift))
	}

	return reg, nil
}

// DecodeRecord is the exact inverse of EncodeRecord. A register with any
// reserved bit set is treated as data corruption and fails fast with
// domain.ErrCorruptRecord.
func DecodeRecord(reg *uint256.Int) (amount *uint256.Int, duration, lockedUntil uint64, kind domain.CustodyKind, err error) {
	if reg == nil {
		return nil, 0, 0, 0, fmt.Errorf("ledger: decode: %w", domain.ErrCorruptRecord)
	}

	if !new(uint256.Int).Rsh(reg, custodyShift+1).IsZero() {
		return nil, 0, 0, 0, fmt.Errorf("ledger: decode: reserved bits set: %w", domain.ErrCorruptRecord)
	}

	amount = new(uint256.Int).And(reg, maxAmount)
	duration = new(uint256.Int).Rsh(reg, durationShift).Uint64() & fieldMask48
	lockedUntil = new(uint256.Int).Rsh(reg, lockedUntilShift).Uint64() & fieldMask48

	kind = domain.CustodyInternalLedger
	if new(uint256.Int).Rsh(reg, custodyShift).Uint64()&1 == 1 {
		kind = domain.CustodyExternalToken
	}

	return amount, duration, lockedUntil, kind, nil
}
