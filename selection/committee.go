package selection

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	bitfield "github.com/prysmaticlabs/go-bitfield"

	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

const defaultCommitteeCacheSize = 256

// Selector memoizes committees keyed by (slot, epoch, committee_index,
// number of active validators), since a committee is requested
// repeatedly, mirroring the teacher's beacon-chain/cache
// committee/shuffled_indices caches. A change in active membership that
// leaves the count unchanged reuses the cached committee.
type Selector struct {
	cache *lru.Cache
}

// NewSelector returns a Selector with a bounded committee cache.
func NewSelector() *Selector {
	c, err := lru.New(defaultCommitteeCacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size, which
		// defaultCommitteeCacheSize never is.
		panic(err)
	}
	return &Selector{cache: c}
}

type committeeCacheKey struct {
	slot            primitives.Slot
	epoch           primitives.Epoch
	committeeIndex  uint64
	validatorSetLen int
}

// Committee implements §4.3's committee sampling: seed with
// SHA256(slot_le || committee_index_le), Fisher-Yates shuffle the
// index space, and truncate to min(len(active), maxCommitteeSize).
func (s *Selector) Committee(slot primitives.Slot, epoch primitives.Epoch, committeeIndex uint64, set *validators.Set, maxCommitteeSize uint64) []primitives.ValidatorIndex {
	active := set.ActiveValidators()
	key := committeeCacheKey{slot: slot, epoch: epoch, committeeIndex: committeeIndex, validatorSetLen: len(active)}
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]primitives.ValidatorIndex)
	}

	indices := shuffledIndices(slot, committeeIndex, len(active))

	limit := maxCommitteeSize
	if uint64(len(indices)) < limit {
		limit = uint64(len(indices))
	}
	out := make([]primitives.ValidatorIndex, limit)
	for i := uint64(0); i < limit; i++ {
		out[i] = primitives.ValidatorIndex(indices[i])
	}

	s.cache.Add(key, out)
	return out
}

// shuffledIndices runs the Fisher-Yates shuffle over [0,n): with
// seed = SHA256(slot_le || committee_index_le), step i swaps index i
// with j = LE_u128(SHA256(seed || i_le)) mod (i+1).
func shuffledIndices(slot primitives.Slot, committeeIndex uint64, n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if n <= 1 {
		return indices
	}

	seed := crypto.Hash(append(le64Bytes(uint64(slot)), le64Bytes(committeeIndex)...))

	for i := n - 1; i >= 1; i-- {
		digest := crypto.Hash(append(append([]byte(nil), seed[:]...), le64Bytes(uint64(i))...))
		j := leU128(digest)
		bound := uint256.NewInt(uint64(i) + 1)
		j.Mod(j, bound)
		jInt := int(j.Uint64())
		indices[i], indices[jInt] = indices[jInt], indices[i]
	}
	return indices
}

// AggregationBitlist builds a go-bitfield Bitlist of the given length
// with bits set at each committee position present in attesting.
func AggregationBitlist(length uint64, attesting []int) bitfield.Bitlist {
	bl := bitfield.NewBitlist(length)
	for _, idx := range attesting {
		if idx < 0 || uint64(idx) >= length {
			continue
		}
		bl.SetBitAt(uint64(idx), true)
	}
	return bl
}

// OverlapsBitlist reports whether a and b have any bit set in common —
// an intersection test over two aggregated-attestation bitlists of
// possibly differing length.
func OverlapsBitlist(a, b bitfield.Bitlist) bool {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := uint64(0); i < n; i++ {
		if a.BitAt(i) && b.BitAt(i) {
			return true
		}
	}
	return false
}
