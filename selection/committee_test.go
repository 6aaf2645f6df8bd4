package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

func buildCommitteeSet(t *testing.T, n int) *validators.Set {
	t.Helper()
	set := validators.NewSet(1, 1000, 0)
	for i := 0; i < n; i++ {
		var addr primitives.Address
		addr[0] = byte(i + 1)
		v := validators.New(addr, primitives.PublicKey{}, 100, 0, 0, blocks.ValidatorMetadata{})
		require.NoError(t, set.Add(v))
	}
	return set
}

func TestCommitteeDeterministicAndMemoized(t *testing.T) {
	set := buildCommitteeSet(t, 40)
	sel := NewSelector()

	a := sel.Committee(10, 0, 0, set, 128)
	b := sel.Committee(10, 0, 0, set, 128)
	require.Equal(t, a, b)
	require.Len(t, a, 40)
}

func TestCommitteeTruncatesToMax(t *testing.T) {
	set := buildCommitteeSet(t, 200)
	sel := NewSelector()

	c := sel.Committee(10, 0, 0, set, 128)
	require.Len(t, c, 128)
}

func TestCommitteeDiffersByIndex(t *testing.T) {
	set := buildCommitteeSet(t, 50)
	sel := NewSelector()

	c0 := sel.Committee(10, 0, 0, set, 128)
	c1 := sel.Committee(10, 0, 1, set, 128)
	require.NotEqual(t, c0, c1)
}

func TestAggregationBitlistAndOverlap(t *testing.T) {
	a := AggregationBitlist(16, []int{1, 3, 5})
	b := AggregationBitlist(16, []int{5, 7})
	require.True(t, OverlapsBitlist(a, b))

	c := AggregationBitlist(16, []int{2, 4})
	require.False(t, OverlapsBitlist(a, c))
}
