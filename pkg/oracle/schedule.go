// This file holds the slot schedule math and the bounded backward search that
// maps a wall clock time onto a historical block root.

package oracle

import (
	"context"
	"errors"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	ErrOutOfRetentionWindow = errors.New("the requested slot is older than the root sources retention window")
	ErrNoRootAvailable      = errors.New("no root is available for the requested slot")
)

// The timing parameters of the tracked chain. Constant after construction.
type ChainSchedule struct {
	GenesisTime    uint64 // Unix timestamp of the chains genesis.
	SecondsPerSlot uint64 // The duration of a single slot, in seconds.
	SlotsPerEpoch  uint64 // Number of consecutive slots grouped into an epoch.
	RetentionSlots uint64 // How many slots back the root source can still answer for.
}

// SlotStartTime provides the wall clock time at which the given slot begins.
func (cs ChainSchedule) SlotStartTime(slot uint64) uint64 {
	return cs.GenesisTime + slot*cs.SecondsPerSlot
}

// EpochStartTime provides the wall clock time at which the given epoch begins.
// Used to bound transition staleness.
func (cs ChainSchedule) EpochStartTime(epoch uint64) uint64 {
	return cs.GenesisTime + epoch*cs.SlotsPerEpoch*cs.SecondsPerSlot
}

// EpochAtSlot provides the epoch the given slot falls in.
func (cs ChainSchedule) EpochAtSlot(slot uint64) uint64 {
	return slot / cs.SlotsPerEpoch
}

// A RootSource can answer "what root was stored at this timestamp", within its
// retention window. A miss is not an error, it represents a skipped slot.
type RootSource interface {
	ProbeRoot(ctx context.Context, timestamp uint64) (Root, bool, error)
}

// ResolveRootAtSlot maps a slot onto its block root by probing the root source.
// The root for slot N is retrievable at slot N+1's timestamp because the source
// stores parent roots. A miss means the slot was skipped, so we walk forward one
// slot at a time until we find the next produced root, bounded by now.
func ResolveRootAtSlot(ctx context.Context, source RootSource, schedule ChainSchedule, slot uint64, now uint64) (Root, error) {
	candidateTime := schedule.SlotStartTime(slot + 1)

	window := schedule.RetentionSlots * schedule.SecondsPerSlot
	if now > window && candidateTime < now-window {
		loghelper.LogSlot(slot).Debug("The requested slot is outside the retention window.")
		return Root{}, ErrOutOfRetentionWindow
	}

	for candidateTime <= now {
		root, found, err := source.ProbeRoot(ctx, candidateTime)
		if err != nil {
			return Root{}, err
		}
		if found {
			return root, nil
		}
		candidateTime += schedule.SecondsPerSlot
	}
	loghelper.LogSlot(slot).Debug("Walked forward to now without finding a root.")
	return Root{}, ErrNoRootAvailable
}
