// Package keystore reads and writes the plain hex/JSON keystore
// document mandated by spec.md §6, and provides a BIP-39-seeded
// generator for the CLI's `keystore new` subcommand.
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"

	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Document is the on-disk keystore format: hex-encoded key material
// plus the derived address, written with 0600 permissions.
type Document struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Address    string `json:"address"`
	CreatedAt  string `json:"created_at"`
}

func toDocument(kp *crypto.KeyPair) *Document {
	return &Document{
		PrivateKey: hex.EncodeToString(kp.Private[:]),
		PublicKey:  hex.EncodeToString(kp.Public[:]),
		Address:    kp.Address.String(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// KeyPair decodes the document's hex private key back into a usable
// crypto.KeyPair.
func (d *Document) KeyPair() (*crypto.KeyPair, error) {
	raw, err := hex.DecodeString(d.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "keystore: decode private key hex")
	}
	if len(raw) != 32 {
		return nil, errors.Errorf("keystore: private key must be 32 bytes, got %d", len(raw))
	}
	var priv primitives.PrivateKey
	copy(priv[:], raw)
	return crypto.KeyPairFromPrivate(priv)
}

// Load reads and decodes a keystore document from path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "keystore: read %s", path)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "keystore: decode %s", path)
	}
	return &doc, nil
}

// Save writes doc to path as indented JSON with 0600 permissions.
func Save(path string, doc *Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "keystore: encode document")
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return errors.Wrapf(err, "keystore: write %s", path)
	}
	return nil
}

// Generate creates a brand new random key pair and its document.
func Generate() (*crypto.KeyPair, *Document, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, nil, errors.Wrap(err, "keystore: generate key pair")
	}
	return kp, toDocument(kp), nil
}

// GenerateMnemonic returns a fresh 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.Wrap(err, "keystore: generate entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "keystore: derive mnemonic")
	}
	return mnemonic, nil
}

// FromMnemonic derives a deterministic key pair from a BIP-39 mnemonic
// and optional passphrase, using the first 32 bytes of the derived seed
// as the Ed25519 seed.
func FromMnemonic(mnemonic, passphrase string) (*crypto.KeyPair, *Document, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, nil, errors.New("keystore: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	var priv primitives.PrivateKey
	copy(priv[:], seed[:32])

	kp, err := crypto.KeyPairFromPrivate(priv)
	if err != nil {
		return nil, nil, err
	}
	return kp, toDocument(kp), nil
}
