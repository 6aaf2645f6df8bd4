package forkchoice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
)

func makeBlock(slot primitives.Slot, parent primitives.Hash, nonce uint64) *blocks.Block {
	return &blocks.Block{
		Header: blocks.BlockHeader{
			Height:       uint64(slot),
			PreviousHash: parent,
			Slot:         slot,
			GasLimit:     nonce, // vary header content so hashes differ
		},
	}
}

func TestAddBlockIsIdempotentAndSetsProposerBoost(t *testing.T) {
	s := NewStore(primitives.Hash{})
	b := makeBlock(1, primitives.Hash{}, 1)
	h1 := s.AddBlock(b)
	h2 := s.AddBlock(b)
	require.Equal(t, h1, h2)
	require.Equal(t, h1, s.ProposerBoostRoot())
}

func TestHeadFollowsVoteWeight(t *testing.T) {
	genesis := primitives.Hash{}
	s := NewStore(genesis)

	childA := makeBlock(1, genesis, 1)
	childB := makeBlock(1, genesis, 2)
	hA := s.AddBlock(childA)
	hB := s.AddBlock(childB)

	s.AddAttestation(&blocks.Attestation{ValidatorIndex: 0, Target: primitives.Checkpoint{Root: hA}})
	s.AddAttestation(&blocks.Attestation{ValidatorIndex: 1, Target: primitives.Checkpoint{Root: hA}})
	s.AddAttestation(&blocks.Attestation{ValidatorIndex: 2, Target: primitives.Checkpoint{Root: hB}})

	// Proposer boost (100) sits on hB, the last block added, so hB's
	// weight is 1 + 100 = 101 against hA's 2: the head is hB.
	head := s.Head()
	require.Equal(t, hB, head)
}

func TestAddAttestationRetractsPreviousVote(t *testing.T) {
	genesis := primitives.Hash{}
	s := NewStore(genesis)
	b := makeBlock(1, genesis, 1)
	h := s.AddBlock(b)

	s.AddAttestation(&blocks.Attestation{ValidatorIndex: 0, Target: primitives.Checkpoint{Root: h}})
	require.Equal(t, uint64(1), s.votes[h])

	other := makeBlock(1, genesis, 2)
	hOther := s.AddBlock(other)
	s.AddAttestation(&blocks.Attestation{ValidatorIndex: 0, Target: primitives.Checkpoint{Root: hOther}})
	require.Equal(t, uint64(0), s.votes[h])
	require.Equal(t, uint64(1), s.votes[hOther])
}

func TestUpdateJustifiedAndFinalizedMonotonicity(t *testing.T) {
	genesis := primitives.Hash{}
	s := NewStore(genesis)

	require.NoError(t, s.UpdateJustified(primitives.Checkpoint{Epoch: 1, Root: genesis}))
	require.Error(t, s.UpdateJustified(primitives.Checkpoint{Epoch: 1, Root: genesis}))

	require.NoError(t, s.UpdateFinalized(primitives.Checkpoint{Epoch: 1, Root: genesis}))
	require.Error(t, s.UpdateFinalized(primitives.Checkpoint{Epoch: 1, Root: genesis}))

	err := s.UpdateJustified(primitives.Checkpoint{Epoch: 0, Root: genesis})
	require.Error(t, err)
}

func TestFinalizationPrunesNonDescendants(t *testing.T) {
	genesis := primitives.Hash{}
	s := NewStore(genesis)

	keep := makeBlock(1, genesis, 1)
	hKeep := s.AddBlock(keep)
	drop := makeBlock(1, genesis, 2)
	hDrop := s.AddBlock(drop)

	keepChild := makeBlock(2, hKeep, 3)
	hKeepChild := s.AddBlock(keepChild)

	require.NoError(t, s.UpdateJustified(primitives.Checkpoint{Epoch: 1, Root: hKeep}))
	require.NoError(t, s.UpdateFinalized(primitives.Checkpoint{Epoch: 1, Root: hKeep}))

	_, stillThere := s.Block(hKeep)
	require.True(t, stillThere)
	_, childThere := s.Block(hKeepChild)
	require.True(t, childThere)
	_, dropped := s.Block(hDrop)
	require.False(t, dropped)
}

func TestAncestorAndIsDescendant(t *testing.T) {
	genesis := primitives.Hash{}
	s := NewStore(genesis)

	b1 := makeBlock(1, genesis, 1)
	h1 := s.AddBlock(b1)
	b2 := makeBlock(2, h1, 2)
	h2 := s.AddBlock(b2)

	anc, ok := s.Ancestor(h2, 1)
	require.True(t, ok)
	require.Equal(t, h1, anc)

	require.True(t, s.IsDescendant(h1, h2))
	require.True(t, s.IsDescendant(h2, h2))
	require.False(t, s.IsDescendant(h2, h1))
}
