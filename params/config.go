// Package params holds the tunable constants the consensus core is
// parameterized over, mirroring the teacher's config/params convention
// of a single global, swappable BeaconConfig.
package params

import "sync"

// BeaconConfigT collects every tunable the engine, selector, fork-choice,
// and slashing detector read. Field names follow
// original_source/src/types/consensus.rs's ConsensusConfig, trimmed to
// the subset this core actually consumes (no Altair/Bellatrix fork
// overrides — there is only one fork schedule here).
type BeaconConfigT struct {
	SlotsPerEpoch uint64

	MinStake                     uint64
	MaxValidators                uint64
	EjectionBalance              uint64
	MinValidatorWithdrawabilityDelay uint64 // epochs

	MinSlashingPenaltyQuotient uint64
	ProposerReward             uint64

	// ProposerBoost is the flat weight added to the proposer-boost root's
	// vote tally during head selection. Swappable per spec's redesign
	// note rather than hardcoded inline at the call site.
	ProposerBoost uint64

	// TotalRewardsPerEpoch is the reference constant used by
	// finalize_epoch's reward distribution.
	TotalRewardsPerEpoch uint64

	SecondsPerSlot    uint64
	IntervalsPerSlot  uint64

	MaxCommitteeSize uint64

	NetworkID uint8
}

var (
	mu     sync.RWMutex
	active = mainnetConfig()
)

func mainnetConfig() *BeaconConfigT {
	return &BeaconConfigT{
		SlotsPerEpoch:                     32,
		MinStake:                          1,
		MaxValidators:                     1 << 20,
		EjectionBalance:                   16_000_000_000,
		MinValidatorWithdrawabilityDelay:  256,
		MinSlashingPenaltyQuotient:        128,
		ProposerReward:                    8,
		ProposerBoost:                     100,
		TotalRewardsPerEpoch:              1_000_000,
		SecondsPerSlot:                    12,
		IntervalsPerSlot:                  3,
		MaxCommitteeSize:                  128,
		NetworkID:                         1,
	}
}

// BeaconConfig returns the process-wide active configuration.
func BeaconConfig() *BeaconConfigT {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// OverrideBeaconConfig replaces the active configuration process-wide,
// e.g. to shrink slots_per_epoch or the ejection balance for a devnet.
// No package, command or test in this module calls it.
func OverrideBeaconConfig(cfg *BeaconConfigT) {
	mu.Lock()
	defer mu.Unlock()
	active = cfg
}

// Copy returns a shallow copy of cfg, letting a caller override a field
// without mutating the shared default.
func (c *BeaconConfigT) Copy() *BeaconConfigT {
	cp := *c
	return &cp
}
