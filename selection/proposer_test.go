package selection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

func buildSet(t *testing.T, stakes ...primitives.Amount) *validators.Set {
	t.Helper()
	set := validators.NewSet(1, 100, 0)
	for i, stake := range stakes {
		var addr primitives.Address
		addr[0] = byte(i + 1)
		v := validators.New(addr, primitives.PublicKey{}, stake, 0, 0, blocks.ValidatorMetadata{})
		require.NoError(t, set.Add(v))
	}
	return set
}

func TestSelectProposerDeterministic(t *testing.T) {
	set := buildSet(t, 100, 200, 300, 400)

	a1, err := SelectProposer(100, set)
	require.NoError(t, err)
	a2, err := SelectProposer(100, set)
	require.NoError(t, err)
	require.Equal(t, a1, a2)
}

func TestSelectProposerVariesAcrossSlots(t *testing.T) {
	set := buildSet(t, 100, 200, 300, 400, 500)

	seen := map[primitives.Address]bool{}
	for slot := primitives.Slot(0); slot < 50; slot++ {
		addr, err := SelectProposer(slot, set)
		require.NoError(t, err)
		seen[addr] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestSelectProposerFailsWithNoActiveValidators(t *testing.T) {
	set := validators.NewSet(1, 10, 0)
	_, err := SelectProposer(1, set)
	require.Error(t, err)
}
