package store

import (
	"sync"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/validators"
)

// BlockStore is the persistence collaborator's block-facing contract.
// Every operation is atomic per call; no cross-call transaction is
// assumed.
type BlockStore interface {
	PutBlock(b *blocks.Block) error
	GetBlock(h primitives.Hash) (*blocks.Block, bool, error)
	LatestHeight() (uint64, error)
}

// AccountStore is the persistence collaborator's account-facing
// contract.
type AccountStore interface {
	PutAccount(a *Account) error
	GetAccount(addr primitives.Address) (*Account, bool, error)
}

// ValidatorStore is the persistence collaborator's validator-facing
// contract.
type ValidatorStore interface {
	PutValidator(v *validators.Validator) error
	GetValidator(addr primitives.Address) (*validators.Validator, bool, error)
}

// Memory is an in-memory reference implementation of BlockStore,
// AccountStore, and ValidatorStore, standing in for the durable
// persistence collaborator this core does not own. Used by tests and a
// devnet.
type Memory struct {
	mu            sync.RWMutex
	blocks        map[primitives.Hash]*blocks.Block
	accounts      map[primitives.Address]*Account
	validatorsSet map[primitives.Address]*validators.Validator
	latestHeight  uint64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		blocks:        make(map[primitives.Hash]*blocks.Block),
		accounts:      make(map[primitives.Address]*Account),
		validatorsSet: make(map[primitives.Address]*validators.Validator),
	}
}

func (m *Memory) PutBlock(b *blocks.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := b.Hash()
	m.blocks[h] = b
	if b.Header.Height > m.latestHeight {
		m.latestHeight = b.Header.Height
	}
	return nil
}

func (m *Memory) GetBlock(h primitives.Hash) (*blocks.Block, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[h]
	return b, ok, nil
}

func (m *Memory) LatestHeight() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestHeight, nil
}

func (m *Memory) PutAccount(a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.Address] = a
	return nil
}

func (m *Memory) GetAccount(addr primitives.Address) (*Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[addr]
	return a, ok, nil
}

func (m *Memory) PutValidator(v *validators.Validator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validatorsSet[v.Address] = v
	return nil
}

func (m *Memory) GetValidator(addr primitives.Address) (*validators.Validator, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.validatorsSet[addr]
	return v, ok, nil
}

var (
	_ BlockStore      = (*Memory)(nil)
	_ AccountStore     = (*Memory)(nil)
	_ ValidatorStore   = (*Memory)(nil)
)
