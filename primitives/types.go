// Package primitives defines the scalar and fixed-size value types shared
// across the consensus core: hashes, addresses, signatures, amounts, and
// the slot/epoch/checkpoint units the engine reasons about.
package primitives

import (
	"encoding/hex"
	"fmt"
)

// Hash is a 32-byte opaque digest.
type Hash [32]byte

// ZeroHash is the all-zero root used to mark the genesis parent.
var ZeroHash = Hash{}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromBytes copies b into a Hash, erroring if the length is wrong.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("primitives: expected %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Address is a 32-byte validator/account identifier derived from a public
// key via SHA-256 (see crypto.AddressFromPublicKey).
type Address [32]byte

var ZeroAddress = Address{}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != len(a) {
		return a, fmt.Errorf("primitives: expected %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [32]byte

// PrivateKey is a 32-byte Ed25519 private key seed.
type PrivateKey [32]byte

// Signature is a 64-byte Ed25519 signature.
type Signature [64]byte

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// Amount, Slot, Epoch, and Nonce are unsigned 64-bit quantities.
type (
	Amount uint64
	Slot   uint64
	Epoch  uint64
	Nonce  uint64
)

// NetworkID identifies the chain a node participates in. Wire encoding is
// fixed by spec: 1=Mainnet, 2=Testnet, 3=Devnet.
type NetworkID uint8

const (
	Mainnet NetworkID = 1
	Testnet NetworkID = 2
	Devnet  NetworkID = 3
)

func (n NetworkID) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(n))
	}
}

// ParseNetworkID maps a CLI/config network name to its wire NetworkID.
func ParseNetworkID(s string) (NetworkID, error) {
	switch s {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	case "devnet":
		return Devnet, nil
	default:
		return 0, fmt.Errorf("primitives: unknown network %q", s)
	}
}

// Checkpoint pins justification/finalization to a specific epoch and block
// root.
type Checkpoint struct {
	Epoch Epoch
	Root  Hash
}

// ValidatorIndex identifies a validator by its position, used by
// attestations and committees instead of the full Address.
type ValidatorIndex uint64
