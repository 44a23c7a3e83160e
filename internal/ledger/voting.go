package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var referencePeriod = uint256.NewInt(ReferencePeriod)

// VotingPower sums the time-decayed weight of every position owned by
// account: amount * remaining / ReferencePeriod per position, truncated only
// at the final division. It is a pure function of current time and live
// positions and is recomputed on every call, never cached. A matured position
// contributes zero.
func (l *Ledger) VotingPower(account common.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	nowUnix := uint64(l.now().Unix())
	total := new(uint256.Int)

	for _, id := range l.registry.PositionsOf(account) {
		reg, ok := l.records[id]
		if !ok {
			// Registry ids the ledger never issued carry no weight.
			continue
		}
		amount, _, lockedUntil, _, err := DecodeRecord(reg)
		if err != nil {
			return nil, err
		}
		if lockedUntil <= nowUnix {
			continue
		}

		// amount < 2^152 and remaining < 2^48, so the product fits the
		// register with room to spare; no intermediate truncation.
		contrib := new(uint256.Int).Mul(amount, uint256.NewInt(lockedUntil-nowUnix))
		total.Add(total, contrib.Div(contrib, referencePeriod))
	}

	return total, nil
}
