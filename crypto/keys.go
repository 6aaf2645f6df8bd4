package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/republic-chain/proof-of-stake/primitives"
)

// KeyPair holds an Ed25519 signing key together with the derived public
// key and address.
type KeyPair struct {
	Private primitives.PrivateKey
	Public  primitives.PublicKey
	Address primitives.Address
}

// GenerateKeyPair creates a new random Ed25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "crypto: generate key pair")
	}
	return KeyPairFromSeed(seedOf(priv), pub)
}

func seedOf(priv ed25519.PrivateKey) primitives.PrivateKey {
	var seed primitives.PrivateKey
	copy(seed[:], priv.Seed())
	return seed
}

// KeyPairFromPrivate reconstructs a KeyPair from a 32-byte Ed25519 seed.
func KeyPairFromPrivate(priv primitives.PrivateKey) (*KeyPair, error) {
	signing := ed25519.NewKeyFromSeed(priv[:])
	pub, ok := signing.Public().(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("crypto: unexpected public key type")
	}
	return KeyPairFromSeed(priv, pub)
}

func KeyPairFromSeed(priv primitives.PrivateKey, pub ed25519.PublicKey) (*KeyPair, error) {
	var pk primitives.PublicKey
	if len(pub) != len(pk) {
		return nil, errors.Errorf("crypto: bad public key length %d", len(pub))
	}
	copy(pk[:], pub)
	return &KeyPair{
		Private: priv,
		Public:  pk,
		Address: AddressFromPublicKey(pk),
	}, nil
}

// AddressFromPublicKey derives a validator/account Address as the SHA-256
// digest of the public key.
func AddressFromPublicKey(pub primitives.PublicKey) primitives.Address {
	return primitives.Address(Hash(pub[:]))
}

// Sign produces an Ed25519 signature over message using priv.
func Sign(priv primitives.PrivateKey, message []byte) primitives.Signature {
	signing := ed25519.NewKeyFromSeed(priv[:])
	sig := ed25519.Sign(signing, message)
	var out primitives.Signature
	copy(out[:], sig)
	return out
}

// Verify reports whether sig is a valid Ed25519 signature over message by
// the holder of pub. A malformed public key or signature length, or a
// failed verification, is surfaced as an error rather than silently
// returning false.
func Verify(pub primitives.PublicKey, message []byte, sig primitives.Signature) error {
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:]) {
		return errors.New("crypto: signature verification failed")
	}
	return nil
}

// BatchVerifyItem is one (public key, message, signature) triple checked by
// BatchVerify.
type BatchVerifyItem struct {
	PublicKey primitives.PublicKey
	Message   []byte
	Signature primitives.Signature
}

// BatchVerify verifies every item concurrently, one errgroup goroutine
// per item with no concurrency limit, and returns the first failure
// encountered (if any). Unlike a
// true BLS aggregate check this still performs len(items) individual
// Ed25519 verifications; it only parallelizes the independent work.
func BatchVerify(items []BatchVerifyItem) error {
	var g errgroup.Group
	for _, item := range items {
		item := item
		g.Go(func() error {
			return Verify(item.PublicKey, item.Message, item.Signature)
		})
	}
	return g.Wait()
}
