// Package crypto provides the hashing, signing, and Merkle primitives the
// consensus engine uses to authenticate blocks, attestations, and state.
//
// All hashing uses SHA-256 (via the AVX2-accelerated minio/sha256-simd
// drop-in) and all integer encoding is little-endian, per the core's
// determinism requirement: every transition must be reproducible
// byte-for-byte across independent nodes given the same inputs.
package crypto

import (
	sha256 "github.com/minio/sha256-simd"

	"github.com/republic-chain/proof-of-stake/primitives"
)

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) primitives.Hash {
	return primitives.Hash(sha256.Sum256(data))
}

// HashTwo hashes the concatenation of left and right, used by the Merkle
// tree implementations below.
func HashTwo(left, right primitives.Hash) primitives.Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return Hash(buf[:])
}

// HashBuilder accumulates a declared-field-order digest with typed
// little-endian updates, used to build signing roots over structured
// values such as a BlockHeader without an intermediate serialization
// format.
type HashBuilder struct {
	state []byte
}

// NewHashBuilder returns a HashBuilder ready for chained Update calls.
func NewHashBuilder() *HashBuilder {
	return &HashBuilder{state: make([]byte, 0, 256)}
}

func (b *HashBuilder) Update(data []byte) *HashBuilder {
	b.state = append(b.state, data...)
	return b
}

func (b *HashBuilder) UpdateHash(h primitives.Hash) *HashBuilder {
	return b.Update(h[:])
}

func (b *HashBuilder) UpdateAddress(a primitives.Address) *HashBuilder {
	return b.Update(a[:])
}

func (b *HashBuilder) UpdateU64(v uint64) *HashBuilder {
	var buf [8]byte
	putUint64LE(buf[:], v)
	return b.Update(buf[:])
}

func (b *HashBuilder) UpdateU32(v uint32) *HashBuilder {
	var buf [4]byte
	putUint32LE(buf[:], v)
	return b.Update(buf[:])
}

func (b *HashBuilder) Finalize() primitives.Hash {
	return Hash(b.state)
}

func putUint64LE(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

func putUint32LE(buf []byte, v uint32) {
	for i := 0; i < 4; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

// ComputeDomain derives a domain-separated 32-byte tag from a 4-byte domain
// type, the 4-byte fork version, and the genesis validators root:
//
//	SHA256(domain_type || SHA256(fork_version || genesis_root)[..28])
func ComputeDomain(domainType, forkVersion [4]byte, genesisRoot primitives.Hash) primitives.Hash {
	forkDataRoot := NewHashBuilder().Update(forkVersion[:]).UpdateHash(genesisRoot).Finalize()
	return NewHashBuilder().Update(domainType[:]).Update(forkDataRoot[:28]).Finalize()
}

// SigningRoot combines an object's root with a domain to produce the value
// actually signed: SHA256(object_root || domain).
func SigningRoot(objectRoot, domain primitives.Hash) primitives.Hash {
	return NewHashBuilder().UpdateHash(objectRoot).UpdateHash(domain).Finalize()
}
