// Package forkchoice implements the fork-choice DAG: block storage,
// vote tallies, justification/finalization checkpoints, and head
// selection with proposer-boost. Each validator's latest vote counts as
// one unit; votes are not weighted by the validator's stake.
package forkchoice

import (
	"bytes"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/params"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Store holds every block not yet pruned below finalization, the vote
// tally, each validator's latest message, and the justified/finalized
// checkpoints.
type Store struct {
	blocks            map[primitives.Hash]*blocks.Block
	children          map[primitives.Hash][]primitives.Hash
	votes             map[primitives.Hash]uint64
	latestMessages    map[primitives.ValidatorIndex]primitives.Hash
	justified         primitives.Checkpoint
	finalized         primitives.Checkpoint
	proposerBoostRoot primitives.Hash
}

// NewStore builds a Store rooted at genesisRoot, with both checkpoints
// pinned to epoch 0.
func NewStore(genesisRoot primitives.Hash) *Store {
	return &Store{
		blocks:         make(map[primitives.Hash]*blocks.Block),
		children:       make(map[primitives.Hash][]primitives.Hash),
		votes:          make(map[primitives.Hash]uint64),
		latestMessages: make(map[primitives.ValidatorIndex]primitives.Hash),
		justified:      primitives.Checkpoint{Epoch: 0, Root: genesisRoot},
		finalized:      primitives.Checkpoint{Epoch: 0, Root: genesisRoot},
	}
}

func (s *Store) Justified() primitives.Checkpoint { return s.justified }
func (s *Store) Finalized() primitives.Checkpoint { return s.finalized }
func (s *Store) ProposerBoostRoot() primitives.Hash { return s.proposerBoostRoot }

// ClearProposerBoost revokes the boost AddBlock most recently granted,
// used when the block that requested it arrived outside the timeliness
// window and so is not entitled to the bonus in subtreeWeights.
func (s *Store) ClearProposerBoost() {
	s.proposerBoostRoot = primitives.Hash{}
}

// Block looks up a stored block by hash.
func (s *Store) Block(h primitives.Hash) (*blocks.Block, bool) {
	b, ok := s.blocks[h]
	return b, ok
}

// AddBlock inserts b (keyed by its identity hash) and marks it as the
// proposer-boost root. Insertion never fails: an unknown-parent
// (orphan) block is stored but stays unreachable from the finalized
// root during head selection. Duplicate inserts are idempotent.
func (s *Store) AddBlock(b *blocks.Block) primitives.Hash {
	h := b.Hash()
	if _, exists := s.blocks[h]; !exists {
		s.blocks[h] = b
		parent := b.Header.PreviousHash
		s.children[parent] = append(s.children[parent], h)
	}
	s.proposerBoostRoot = h
	return h
}

// AddAttestation records a's vote. If the validator's previous vote
// differs, it is retracted (saturating) before the new one is applied;
// a repeat vote for the same target is a no-op.
func (s *Store) AddAttestation(a *blocks.Attestation) {
	i := a.ValidatorIndex
	target := a.Target.Root

	if prev, ok := s.latestMessages[i]; ok {
		if prev == target {
			return
		}
		if s.votes[prev] > 0 {
			s.votes[prev]--
		}
	}
	s.latestMessages[i] = target
	s.votes[target]++
}

// UpdateJustified advances the justified checkpoint. Fails with
// NonMonotonic unless c.Epoch > justified.Epoch.
func (s *Store) UpdateJustified(c primitives.Checkpoint) error {
	if c.Epoch <= s.justified.Epoch {
		return consensuserr.New(consensuserr.NonMonotonic, "justified checkpoint did not advance")
	}
	s.justified = c
	return nil
}

// UpdateFinalized advances the finalized checkpoint and prunes every
// block that is not a descendant of the new finalized root, cleaning
// votes and latest_messages entries that pointed at dropped blocks.
// Fails with NonMonotonic unless finalized.Epoch < c.Epoch <=
// justified.Epoch.
func (s *Store) UpdateFinalized(c primitives.Checkpoint) error {
	if c.Epoch <= s.finalized.Epoch {
		return consensuserr.New(consensuserr.NonMonotonic, "finalized checkpoint did not advance")
	}
	if c.Epoch > s.justified.Epoch {
		return consensuserr.New(consensuserr.NonMonotonic, "finalized epoch exceeds justified epoch")
	}
	s.finalized = c
	s.prune(c.Root)
	return nil
}

// prune retains root and every descendant of root, dropping everything
// else and the votes/latest_messages entries pointing at dropped
// blocks.
func (s *Store) prune(root primitives.Hash) {
	keep := map[primitives.Hash]bool{root: true}
	worklist := []primitives.Hash{root}
	for len(worklist) > 0 {
		h := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, c := range s.children[h] {
			if !keep[c] {
				keep[c] = true
				worklist = append(worklist, c)
			}
		}
	}

	for h := range s.blocks {
		if !keep[h] {
			delete(s.blocks, h)
			delete(s.children, h)
			delete(s.votes, h)
		}
	}
	for i, target := range s.latestMessages {
		if !keep[target] {
			delete(s.latestMessages, i)
		}
	}
	if !keep[s.proposerBoostRoot] {
		s.proposerBoostRoot = primitives.Hash{}
	}
}

// Ancestor walks parents from root until it reaches a block with
// slot <= targetSlot, returning its hash. Returns (zero, false) if the
// walk reaches the all-zero genesis parent first.
func (s *Store) Ancestor(root primitives.Hash, targetSlot primitives.Slot) (primitives.Hash, bool) {
	h := root
	for {
		b, ok := s.blocks[h]
		if !ok {
			return primitives.Hash{}, false
		}
		if b.Header.Slot <= targetSlot {
			return h, true
		}
		if b.Header.PreviousHash.IsZero() {
			return primitives.Hash{}, false
		}
		h = b.Header.PreviousHash
	}
}

// IsDescendant reports whether a is an ancestor of d (reflexive):
// walking parents of d eventually reaches a, or d == a immediately.
func (s *Store) IsDescendant(a, d primitives.Hash) bool {
	h := d
	for {
		if h == a {
			return true
		}
		b, ok := s.blocks[h]
		if !ok || b.Header.PreviousHash.IsZero() {
			return false
		}
		h = b.Header.PreviousHash
	}
}

// Head implements §4.4's iterative (non-recursive) head selection:
// starting at the finalized root, repeatedly move to the child
// maximizing the descendant-inclusive vote count (one unit per
// validator, not weighted by stake) plus the proposer-boost bonus,
// breaking ties by lexicographically greater
// hash. Weight is memoized per call via a post-order worklist so a
// large DAG never recurses.
func (s *Store) Head() primitives.Hash {
	root := s.finalized.Root
	weight := s.subtreeWeights(root)

	current := root
	for {
		kids := s.children[current]
		if len(kids) == 0 {
			return current
		}
		best := kids[0]
		bestWeight := weight[best]
		for _, c := range kids[1:] {
			w := weight[c]
			if w > bestWeight || (w == bestWeight && bytes.Compare(c[:], best[:]) > 0) {
				best = c
				bestWeight = w
			}
		}
		current = best
	}
}

// subtreeWeights computes, for every node reachable from root, the sum
// of its own vote weight (plus proposer boost) and every descendant's
// vote weight, using an explicit two-pass iterative traversal (no
// recursion): a DFS to establish post-order, then a bottom-up
// accumulation pass.
func (s *Store) subtreeWeights(root primitives.Hash) map[primitives.Hash]uint64 {
	var postOrder []primitives.Hash
	visited := map[primitives.Hash]bool{}
	worklist := []primitives.Hash{root}

	for len(worklist) > 0 {
		h := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if visited[h] {
			continue
		}
		visited[h] = true
		postOrder = append(postOrder, h)
		worklist = append(worklist, s.children[h]...)
	}

	weight := make(map[primitives.Hash]uint64, len(postOrder))
	for i := len(postOrder) - 1; i >= 0; i-- {
		h := postOrder[i]
		w := s.votes[h]
		if h == s.proposerBoostRoot {
			w += params.BeaconConfig().ProposerBoost
		}
		for _, c := range s.children[h] {
			w += weight[c]
		}
		weight[h] = w
	}
	return weight
}
