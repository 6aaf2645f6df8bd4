package blockchain

import (
	"time"

	"github.com/republic-chain/proof-of-stake/params"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// Clock converts wall-clock time to slots/epochs given a genesis time,
// per spec.md §4.6, and additionally knows genesis time so that
// proposer-boost timeliness can be evaluated (§4.4/§9).
type Clock struct {
	genesisTime time.Time
}

// NewClock returns a Clock anchored at genesisTime.
func NewClock(genesisTime time.Time) *Clock {
	return &Clock{genesisTime: genesisTime}
}

// SlotToEpoch is floor(slot / slots_per_epoch).
func SlotToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(uint64(slot) / params.BeaconConfig().SlotsPerEpoch)
}

// EpochToSlot is epoch * slots_per_epoch.
func EpochToSlot(epoch primitives.Epoch) primitives.Slot {
	return primitives.Slot(uint64(epoch) * params.BeaconConfig().SlotsPerEpoch)
}

// IsEpochBoundary reports whether slot is the first slot of an epoch.
func IsEpochBoundary(slot primitives.Slot) bool {
	return uint64(slot)%params.BeaconConfig().SlotsPerEpoch == 0
}

// CurrentSlot returns the slot wall-clock now falls into, given the
// genesis time and SecondsPerSlot.
func (c *Clock) CurrentSlot(now time.Time) primitives.Slot {
	elapsed := now.Sub(c.genesisTime)
	if elapsed < 0 {
		return 0
	}
	return primitives.Slot(uint64(elapsed.Seconds()) / params.BeaconConfig().SecondsPerSlot)
}

// SlotStart returns the wall-clock instant slot begins.
func (c *Clock) SlotStart(slot primitives.Slot) time.Time {
	return c.genesisTime.Add(time.Duration(uint64(slot)*params.BeaconConfig().SecondsPerSlot) * time.Second)
}

// IsTimely reports whether a block for slot arriving at arrival is
// within SecondsPerSlot/IntervalsPerSlot of slot start — the
// timeliness window proposer-boost is granted within, grounded on the
// teacher's forkchoice/protoarray BoostProposerRoot check.
func (c *Clock) IsTimely(slot primitives.Slot, arrival time.Time) bool {
	cfg := params.BeaconConfig()
	window := time.Duration(cfg.SecondsPerSlot/cfg.IntervalsPerSlot) * time.Second
	return !arrival.After(c.SlotStart(slot).Add(window))
}
