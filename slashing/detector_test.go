package slashing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
)

func TestCheckProposerSlashingDetectsEquivocation(t *testing.T) {
	var proposer primitives.Address
	proposer[0] = 1
	h1 := blocks.BlockHeader{Proposer: proposer, Slot: 5, GasLimit: 1}
	h2 := blocks.BlockHeader{Proposer: proposer, Slot: 5, GasLimit: 2}

	ev := CheckProposerSlashing(&h1, &h2)
	require.NotNil(t, ev)
	require.Equal(t, proposer, ev.Proposer)
}

func TestCheckProposerSlashingIgnoresDifferentProposerOrSlot(t *testing.T) {
	var p1, p2 primitives.Address
	p1[0], p2[0] = 1, 2
	h1 := blocks.BlockHeader{Proposer: p1, Slot: 5}
	h2 := blocks.BlockHeader{Proposer: p2, Slot: 5}
	require.Nil(t, CheckProposerSlashing(&h1, &h2))

	h3 := blocks.BlockHeader{Proposer: p1, Slot: 6}
	require.Nil(t, CheckProposerSlashing(&h1, &h3))
}

func TestCheckAttesterSlashingDoubleVote(t *testing.T) {
	a := blocks.Attestation{
		ValidatorIndex: 1,
		Target:         primitives.Checkpoint{Epoch: 10, Root: primitives.Hash{1}},
	}
	b := blocks.Attestation{
		ValidatorIndex: 1,
		Target:         primitives.Checkpoint{Epoch: 10, Root: primitives.Hash{2}},
	}
	ev := CheckAttesterSlashing(&a, &b)
	require.NotNil(t, ev)
	require.Equal(t, []primitives.ValidatorIndex{1}, ev.Overlapping)
}

func TestCheckAttesterSlashingSurroundVote(t *testing.T) {
	a := blocks.Attestation{
		ValidatorIndex: 2,
		Source:         primitives.Checkpoint{Epoch: 1},
		Target:         primitives.Checkpoint{Epoch: 10},
	}
	b := blocks.Attestation{
		ValidatorIndex: 2,
		Source:         primitives.Checkpoint{Epoch: 3},
		Target:         primitives.Checkpoint{Epoch: 4},
	}
	require.NotNil(t, CheckAttesterSlashing(&a, &b))
}

func TestCheckAttesterSlashingRequiresOverlap(t *testing.T) {
	a := blocks.Attestation{ValidatorIndex: 1, Target: primitives.Checkpoint{Epoch: 10, Root: primitives.Hash{1}}}
	b := blocks.Attestation{ValidatorIndex: 2, Target: primitives.Checkpoint{Epoch: 10, Root: primitives.Hash{2}}}
	require.Nil(t, CheckAttesterSlashing(&a, &b))
}

func TestPenaltyHasFloorOfOne(t *testing.T) {
	require.Equal(t, primitives.Amount(1), Penalty(0))
	require.Greater(t, uint64(Penalty(1_000_000)), uint64(0))
}
