// Package blocks defines the block, header, transaction, and
// attestation wire types the consensus engine operates on, along with
// their signing-root and identity hashes.
package blocks

import (
	"time"

	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// BlockHeader carries everything that identifies and authenticates a
// block except the transaction bodies themselves.
type BlockHeader struct {
	Height           uint64
	PreviousHash     primitives.Hash
	MerkleRoot       primitives.Hash
	StateRoot        primitives.Hash
	Timestamp        int64 // unix seconds
	Slot             primitives.Slot
	Epoch            primitives.Epoch
	Proposer         primitives.Address
	ProposerSig      primitives.Signature
	RandaoReveal     primitives.Signature
	GasLimit         uint64
	GasUsed          uint64
}

// SigningHash hashes every header field except ProposerSig, in declared
// field order with little-endian integers, per the signing-root
// convention the crypto service defines.
func (h *BlockHeader) SigningHash() primitives.Hash {
	b := crypto.NewHashBuilder().
		UpdateU64(h.Height).
		UpdateHash(h.PreviousHash).
		UpdateHash(h.MerkleRoot).
		UpdateHash(h.StateRoot).
		UpdateU64(uint64(h.Timestamp)).
		UpdateU64(uint64(h.Slot)).
		UpdateU64(uint64(h.Epoch)).
		UpdateAddress(h.Proposer).
		Update(h.RandaoReveal[:]).
		UpdateU64(h.GasLimit).
		UpdateU64(h.GasUsed)
	return b.Finalize()
}

// Block pairs a header with its transaction list. A block's identity is
// the SHA-256 of its header serialization (its SigningHash, which
// already excludes nothing but the signature — identity and signing
// root coincide here since the header has no other mutable field once
// signed).
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// Hash returns the block's identity hash.
func (b *Block) Hash() primitives.Hash {
	return b.Header.SigningHash()
}

// Sign fills in Header.ProposerSig by signing the header's signing hash
// with priv.
func (b *Block) Sign(priv primitives.PrivateKey) {
	h := b.Header.SigningHash()
	b.Header.ProposerSig = crypto.Sign(priv, h[:])
}

// VerifySignature checks Header.ProposerSig against pub.
func (b *Block) VerifySignature(pub primitives.PublicKey) error {
	h := b.Header.SigningHash()
	return crypto.Verify(pub, h[:], b.Header.ProposerSig)
}

// ComputeMerkleRoot hashes every transaction and returns the Merkle
// root over that leaf list (odd leaves duplicated, per crypto.MerkleTree).
func ComputeMerkleRoot(txs []*Transaction) primitives.Hash {
	leaves := make([]primitives.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.Hash()
	}
	return crypto.NewMerkleTree(leaves).Root()
}

// SumGasUsed sums gas_limit across txs, matching the header invariant
// gas_used = Σ tx.gas_limit for included transactions.
func SumGasUsed(txs []*Transaction) uint64 {
	var sum uint64
	for _, tx := range txs {
		sum += tx.GasLimit
	}
	return sum
}

// Attestation is a validator's vote for a target checkpoint, anchored
// to the block it was produced against.
type Attestation struct {
	Slot            primitives.Slot
	BeaconBlockRoot primitives.Hash
	Source          primitives.Checkpoint
	Target          primitives.Checkpoint
	ValidatorIndex  primitives.ValidatorIndex
	Signature       primitives.Signature
}

// SigningHash hashes the attestation's data fields (everything but the
// signature) in declared field order.
func (a *Attestation) SigningHash() primitives.Hash {
	return crypto.NewHashBuilder().
		UpdateU64(uint64(a.Slot)).
		UpdateHash(a.BeaconBlockRoot).
		UpdateU64(uint64(a.Source.Epoch)).
		UpdateHash(a.Source.Root).
		UpdateU64(uint64(a.Target.Epoch)).
		UpdateHash(a.Target.Root).
		UpdateU64(uint64(a.ValidatorIndex)).
		Finalize()
}

// Sign fills in Signature by signing the attestation's signing hash
// with priv.
func (a *Attestation) Sign(priv primitives.PrivateKey) {
	h := a.SigningHash()
	a.Signature = crypto.Sign(priv, h[:])
}

// VerifySignature checks Signature against pub using the attestation's
// signing hash.
func (a *Attestation) VerifySignature(pub primitives.PublicKey) error {
	h := a.SigningHash()
	return crypto.Verify(pub, h[:], a.Signature)
}

// isWithin24Hours reports whether t is within 24 hours of now, used by
// the transaction validity predicate.
func isWithin24Hours(t, now time.Time) bool {
	d := now.Sub(t)
	if d < 0 {
		d = -d
	}
	return d <= 24*time.Hour
}
