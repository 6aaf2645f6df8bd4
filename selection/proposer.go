// Package selection implements deterministic, stake-weighted proposer
// and committee sampling given a slot and a validator set snapshot.
// The randomness is derived inside this package from the slot:
// SHA256(slot_le) for the proposer and SHA256(slot_le ||
// committee_index_le) for committees. Neither SelectProposer nor
// Selector.Committee takes a randomness parameter, so no other source
// (such as a RANDAO mix) can be supplied.
package selection

import (
	"github.com/holiman/uint256"

	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

// leU128 parses the first 16 bytes of h as a little-endian u128,
// returned as a uint256.Int (which can represent it exactly).
func leU128(h primitives.Hash) *uint256.Int {
	var be [16]byte
	for i := 0; i < 16; i++ {
		be[i] = h[15-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

func le64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return buf
}

// SelectProposer implements §4.3's stake-weighted sampling: order the
// active validator set by insertion order, sum total stake as a
// 128-bit width, derive r = LE_u128(SHA256(slot_le)) mod W, then walk
// the ordered set accumulating stake and return the first validator
// whose running sum strictly exceeds r.
func SelectProposer(slot primitives.Slot, set *validators.Set) (primitives.Address, error) {
	active := set.ActiveValidators()
	if len(active) == 0 {
		return primitives.Address{}, consensuserr.New(consensuserr.NotFound, "no active validators")
	}

	total := new(uint256.Int)
	for _, v := range active {
		total.AddUint64(total, uint64(v.TotalStake()))
	}
	if total.IsZero() {
		return primitives.Address{}, consensuserr.New(consensuserr.InsufficientStake, "active validator set has zero total stake")
	}

	seed := crypto.Hash(le64Bytes(uint64(slot)))
	r := leU128(seed)
	r.Mod(r, total)

	running := new(uint256.Int)
	for _, v := range active {
		running.AddUint64(running, uint64(v.TotalStake()))
		if r.Lt(running) {
			return v.Address, nil
		}
	}
	// Unreachable given r < total by construction; fall back to the
	// first validator for a total-ordering guarantee.
	return active[0].Address, nil
}
