// Package slashing detects proposer and attester equivocation and
// computes the deterministic penalty the validator registry applies.
// original_source/src/consensus/slashing.rs is an unfilled stub
// (check_proposer_slashing/check_attester_slashing always return None);
// the detection rules below are filled in from spec.md §4.7.
package slashing

import (
	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/params"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// ProposerSlashingEvent records two conflicting signed headers from the
// same proposer at the same slot.
type ProposerSlashingEvent struct {
	Proposer primitives.Address
	Slot     primitives.Slot
	Header1  blocks.BlockHeader
	Header2  blocks.BlockHeader
}

// AttesterSlashingEvent records two attestations that violate the
// double-vote or surround-vote rule, and the validator indices common
// to both.
type AttesterSlashingEvent struct {
	Attestation1 blocks.Attestation
	Attestation2 blocks.Attestation
	Overlapping  []primitives.ValidatorIndex
}

// CheckProposerSlashing reports whether h1 and h2 are two distinct
// signed headers from the same proposer for the same slot.
func CheckProposerSlashing(h1, h2 *blocks.BlockHeader) *ProposerSlashingEvent {
	if h1.Proposer != h2.Proposer {
		return nil
	}
	if h1.Slot != h2.Slot {
		return nil
	}
	if h1.SigningHash() == h2.SigningHash() {
		return nil // identical header, not equivocation
	}
	return &ProposerSlashingEvent{
		Proposer: h1.Proposer,
		Slot:     h1.Slot,
		Header1:  *h1,
		Header2:  *h2,
	}
}

// attestingIndices returns the validator indices two attestations have
// in common. Each attestation here represents a single validator's
// vote (per the data model), so overlap is either empty or the shared
// index.
func attestingIndices(a, b *blocks.Attestation) []primitives.ValidatorIndex {
	if a.ValidatorIndex == b.ValidatorIndex {
		return []primitives.ValidatorIndex{a.ValidatorIndex}
	}
	return nil
}

// isDoubleVote reports whether a and b vote for the same target epoch
// but a different target root.
func isDoubleVote(a, b *blocks.Attestation) bool {
	return a.Target.Epoch == b.Target.Epoch && a.Target.Root != b.Target.Root
}

// isSurroundVote reports whether one attestation's (source, target)
// span strictly surrounds the other's: a's span surrounds b's if
// a.source < b.source and a.target > b.target (and symmetrically).
func isSurroundVote(a, b *blocks.Attestation) bool {
	surrounds := func(outer, inner *blocks.Attestation) bool {
		return outer.Source.Epoch < inner.Source.Epoch && outer.Target.Epoch > inner.Target.Epoch
	}
	return surrounds(a, b) || surrounds(b, a)
}

// CheckAttesterSlashing reports whether a and b form a slashable pair:
// they must share at least one attesting validator and either double-
// vote or surround-vote.
func CheckAttesterSlashing(a, b *blocks.Attestation) *AttesterSlashingEvent {
	overlap := attestingIndices(a, b)
	if len(overlap) == 0 {
		return nil
	}
	if !isDoubleVote(a, b) && !isSurroundVote(a, b) {
		return nil
	}
	return &AttesterSlashingEvent{
		Attestation1: *a,
		Attestation2: *b,
		Overlapping:  overlap,
	}
}

// Penalty computes the deterministic slashing penalty for a validator
// with the given total stake: max(total_stake / min_slashing_penalty_quotient, 1).
func Penalty(totalStake primitives.Amount) primitives.Amount {
	quotient := params.BeaconConfig().MinSlashingPenaltyQuotient
	if quotient == 0 {
		quotient = 1
	}
	p := uint64(totalStake) / quotient
	if p < 1 {
		p = 1
	}
	return primitives.Amount(p)
}
