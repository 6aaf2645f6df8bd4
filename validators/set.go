package validators

import (
	"sync"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Set is the Address->Validator registry: a cached total_stake, a
// min_stake admission threshold, a max_validators bound, and the epoch
// the set is pinned to.
//
// Invariants: cached total equals the sum of member totals at all
// times; membership never exceeds max_validators; any admitted member
// satisfied total_stake >= min_stake at admission.
type Set struct {
	mu            sync.RWMutex
	byAddress     map[primitives.Address]*Validator
	order         []primitives.Address // insertion order, for deterministic iteration
	totalStake    primitives.Amount
	minStake      primitives.Amount
	maxValidators int
	epoch         primitives.Epoch
}

// NewSet constructs an empty registry pinned to epoch.
func NewSet(minStake primitives.Amount, maxValidators int, epoch primitives.Epoch) *Set {
	return &Set{
		byAddress:     make(map[primitives.Address]*Validator),
		minStake:      minStake,
		maxValidators: maxValidators,
		epoch:         epoch,
	}
}

func (s *Set) MinStake() primitives.Amount { return s.minStake }
func (s *Set) MaxValidators() int          { return s.maxValidators }

func (s *Set) Epoch() primitives.Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Set) SetEpoch(e primitives.Epoch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = e
}

func (s *Set) TotalStake() primitives.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalStake
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Add admits v if capacity allows and v.TotalStake() >= min_stake.
func (s *Set) Add(v *Validator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[v.Address]; exists {
		return consensuserr.Newf(consensuserr.StructuralInvalid, "validator %s already registered", v.Address)
	}
	if len(s.order) >= s.maxValidators {
		return consensuserr.New(consensuserr.CapacityExceeded, "validator set at max_validators")
	}
	if v.TotalStake() < s.minStake {
		return consensuserr.New(consensuserr.InsufficientStake, "total stake below min_stake")
	}

	s.byAddress[v.Address] = v
	s.order = append(s.order, v.Address)
	s.totalStake += v.TotalStake()
	return nil
}

// Remove evicts the validator at address, decrementing the cached
// total. Fails with NotFound if absent.
func (s *Set) Remove(address primitives.Address) (*Validator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byAddress[address]
	if !ok {
		return nil, consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	delete(s.byAddress, address)
	for i, a := range s.order {
		if a == address {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.totalStake -= v.TotalStake()
	return v, nil
}

// Get returns the validator at address, or NotFound.
func (s *Set) Get(address primitives.Address) (*Validator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byAddress[address]
	if !ok {
		return nil, consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	return v, nil
}

// ActiveValidators returns members with status=Active and
// total_stake >= min_stake, in insertion order — the order proposer
// and committee selection both depend on for reproducibility.
func (s *Set) ActiveValidators() []*Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Validator, 0, len(s.order))
	for _, addr := range s.order {
		v := s.byAddress[addr]
		if v.IsEligible(s.minStake) {
			out = append(out, v)
		}
	}
	return out
}

// All returns every registered validator in insertion order, regardless
// of status.
func (s *Set) All() []*Validator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Validator, 0, len(s.order))
	for _, addr := range s.order {
		out = append(out, s.byAddress[addr])
	}
	return out
}

// RecordProposal records a block-proposal outcome for the validator at
// address, leaving its attestation counters untouched.
func (s *Set) RecordProposal(address primitives.Address, proposed bool, epoch primitives.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	before := v.TotalStake()
	v.RecordProposal(proposed, epoch)
	s.totalStake += v.TotalStake() - before
	return nil
}

// RecordAttestation records an attestation outcome for the validator at
// address, leaving its proposal counters untouched.
func (s *Set) RecordAttestation(address primitives.Address, attested bool, epoch primitives.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	before := v.TotalStake()
	v.RecordAttestation(attested, epoch)
	s.totalStake += v.TotalStake() - before
	return nil
}

// Slash applies a stake penalty to the validator at address and keeps
// the cached total consistent.
func (s *Set) Slash(address primitives.Address, amount primitives.Amount, epoch primitives.Epoch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	if v.Status == Exited {
		return consensuserr.New(consensuserr.StructuralInvalid, "cannot slash an exited validator")
	}
	before := v.TotalStake()
	v.Slash(amount, epoch)
	s.totalStake -= before - v.TotalStake()
	return nil
}

// AddStake credits amount to the validator at address's delegated
// stake, keeping the cached total consistent. Used for Stake/Delegate
// transaction effects.
func (s *Set) AddStake(address primitives.Address, amount primitives.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	v.DelegatedStake += amount
	s.totalStake += amount
	return nil
}

// RemoveStake debits amount from the validator at address's delegated
// stake (saturating at zero), keeping the cached total consistent.
// Used for Unstake/Undelegate transaction effects.
func (s *Set) RemoveStake(address primitives.Address, amount primitives.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	if amount > v.DelegatedStake {
		amount = v.DelegatedStake
	}
	v.DelegatedStake -= amount
	s.totalStake -= amount
	return nil
}

// AddReward credits amount to the validator at address's self-stake,
// keeping the cached total consistent. Used by epoch reward
// distribution.
func (s *Set) AddReward(address primitives.Address, amount primitives.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	v.SelfStake += amount
	s.totalStake += amount
	return nil
}

// UpdateMetadata rewrites the commission rate and metadata of the
// validator at address. Status must not already be Exited.
func (s *Set) UpdateMetadata(address primitives.Address, commissionRate uint16, metadata blocks.ValidatorMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	if v.Status == Exited {
		return consensuserr.New(consensuserr.StructuralInvalid, "cannot update an exited validator")
	}
	v.CommissionRate = commissionRate
	v.Metadata = metadata
	return nil
}

// SetExiting transitions the validator at address into Exiting,
// enforcing the monotone Active/Jailed -> Exiting progression.
func (s *Set) SetExiting(address primitives.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byAddress[address]
	if !ok {
		return consensuserr.Newf(consensuserr.NotFound, "validator %s not registered", address)
	}
	if v.Status == Exited {
		return consensuserr.New(consensuserr.NonMonotonic, "validator already exited")
	}
	v.Status = Exiting
	return nil
}

// RemoveExited removes address (an Exiting validator past its
// withdrawability delay) from the set in place of a direct status
// write, since Exited validators are removed rather than retained.
func (s *Set) RemoveExited(address primitives.Address) error {
	_, err := s.Remove(address)
	return err
}
