// Package validators implements the validator registry: stake
// accounting, status lifecycle, and the performance counters the reward
// and ejection logic in blockchain.Service reads every epoch.
package validators

import (
	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Status is a validator's lifecycle stage. Progression is monotone:
// Active -> Jailed/Exiting -> Exited. Once Exited, no stake mutation is
// permitted.
type Status int

const (
	Active Status = iota
	Inactive
	Jailed
	Exiting
	Exited
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Jailed:
		return "jailed"
	case Exiting:
		return "exiting"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// Performance tracks the counters reward distribution and ejection read
// each epoch.
type Performance struct {
	BlocksProposed      uint64
	BlocksMissed        uint64
	AttestationsMade    uint64
	AttestationsMissed  uint64
	SlashCount          uint64
	LastSlashEpoch      primitives.Epoch
	HasLastSlashEpoch   bool
}

// Validator is one registered stake-holding participant.
type Validator struct {
	Address           primitives.Address
	PublicKey         primitives.PublicKey
	SelfStake         primitives.Amount
	DelegatedStake    primitives.Amount
	CommissionRate    uint16 // basis points, [0,10000]
	Status            Status
	RegistrationEpoch primitives.Epoch
	LastActiveEpoch   primitives.Epoch
	Metadata          blocks.ValidatorMetadata
	Performance       Performance
}

// New constructs a freshly-registered, Active validator.
func New(addr primitives.Address, pub primitives.PublicKey, selfStake primitives.Amount, commissionRate uint16, registrationEpoch primitives.Epoch, metadata blocks.ValidatorMetadata) *Validator {
	return &Validator{
		Address:           addr,
		PublicKey:         pub,
		SelfStake:         selfStake,
		CommissionRate:    commissionRate,
		Status:            Active,
		RegistrationEpoch: registrationEpoch,
		LastActiveEpoch:   registrationEpoch,
		Metadata:          metadata,
	}
}

// TotalStake is self-stake plus delegated stake.
func (v *Validator) TotalStake() primitives.Amount {
	return v.SelfStake + v.DelegatedStake
}

func (v *Validator) IsActive() bool { return v.Status == Active }

// IsEligible reports whether v is active and its total stake clears
// minStake.
func (v *Validator) IsEligible(minStake primitives.Amount) bool {
	return v.IsActive() && v.TotalStake() >= minStake
}

// RecordProposal records a single block-proposal outcome for epoch and
// updates LastActiveEpoch. It never touches the attestation counters:
// a validator that proposes but has not yet attested this slot must
// not have its attestation_ratio degraded by the proposal alone.
func (v *Validator) RecordProposal(proposed bool, epoch primitives.Epoch) {
	if proposed {
		v.Performance.BlocksProposed++
	} else {
		v.Performance.BlocksMissed++
	}
	v.LastActiveEpoch = epoch
}

// RecordAttestation records a single attestation outcome for epoch and
// updates LastActiveEpoch. It never touches the proposal counters, the
// mirror of RecordProposal's isolation.
func (v *Validator) RecordAttestation(attested bool, epoch primitives.Epoch) {
	if attested {
		v.Performance.AttestationsMade++
	} else {
		v.Performance.AttestationsMissed++
	}
	v.LastActiveEpoch = epoch
}

// Slash subtracts amount from self-stake (saturating at zero),
// increments the slash counter, and jails the validator if the
// slashed amount exceeds a tenth of its (post-deduction) total stake.
func (v *Validator) Slash(amount primitives.Amount, epoch primitives.Epoch) {
	if amount > v.SelfStake {
		v.SelfStake = 0
	} else {
		v.SelfStake -= amount
	}
	v.Performance.SlashCount++
	v.Performance.LastSlashEpoch = epoch
	v.Performance.HasLastSlashEpoch = true

	if amount > v.TotalStake()/10 {
		v.Status = Jailed
	}
}

// UptimeRatio is blocks_proposed/(proposed+missed), defined as 1.0 when
// the denominator is zero.
func (v *Validator) UptimeRatio() float64 {
	total := v.Performance.BlocksProposed + v.Performance.BlocksMissed
	if total == 0 {
		return 1.0
	}
	return float64(v.Performance.BlocksProposed) / float64(total)
}

// AttestationRatio is attestations_made/(made+missed), defined as 1.0
// when the denominator is zero.
func (v *Validator) AttestationRatio() float64 {
	total := v.Performance.AttestationsMade + v.Performance.AttestationsMissed
	if total == 0 {
		return 1.0
	}
	return float64(v.Performance.AttestationsMade) / float64(total)
}
