// This file holds the consensus transition engine. It validates proof carrying
// state transitions against the current register and a staleness bound, applies
// them, and raises the proof channel confirmation for the freshly finalized
// checkpoint.

package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	ErrInvalidPreState       = errors.New("the journals pre-state does not equal the current consensus state")
	ErrStalenessExceeded     = errors.New("the pre-states finalized epoch is older than the permissible timespan")
	ErrFinalizedSlotMismatch = errors.New("the journals finalized slot does not correspond to the post-states finalized epoch")
	ErrInvalidPostState      = errors.New("the journals post-state does not respect finalized <= justified")
	ErrNoOpUpdate            = errors.New("the new value equals the current one")
)

// A TransitionJournal is the public claim a transition proof is computed over.
type TransitionJournal struct {
	PreState      ConsensusState // The state the prover observed before the transition.
	PostState     ConsensusState // The state after the transition.
	FinalizedSlot uint64         // The slot of the newly finalized checkpoints root.
}

// Digest provides the claim hash the proof is verified against. The encoding is
// fixed width so the digest is deterministic: for each state the justified and
// finalized checkpoints as (epoch u64 be, root), then the finalized slot.
func (j TransitionJournal) Digest() [32]byte {
	buf := make([]byte, 0, 2*80+8)
	for _, state := range []ConsensusState{j.PreState, j.PostState} {
		for _, cp := range []Checkpoint{state.CurrentJustified, state.Finalized} {
			var epoch [8]byte
			binary.BigEndian.PutUint64(epoch[:], cp.Epoch)
			buf = append(buf, epoch[:]...)
			buf = append(buf, cp.Root[:]...)
		}
	}
	var slot [8]byte
	binary.BigEndian.PutUint64(slot[:], j.FinalizedSlot)
	buf = append(buf, slot[:]...)
	return sha256.Sum256(buf)
}

// Transition validates and applies a proof carrying consensus update.
//
// The pre-state must equal the current register bit for bit, which protects
// against stale or reordered submissions. The pre-states finalized epoch must
// not be older than the permissible timespan. The proof is checked by the
// external verifier against the journals digest and the configured image id,
// any verifier error propagates untouched. On success the post-state is
// committed and the proof channel confirmation is raised.
func (o *Oracle) Transition(ctx context.Context, journal TransitionJournal, proof []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.validateJournalShape(journal); err != nil {
		o.Metrics.IncrementRejectedTransitions(1)
		return err
	}

	current, err := o.CurrentConsensusState(ctx)
	if err != nil {
		return err
	}
	if !journal.PreState.Equal(current) {
		o.Metrics.IncrementRejectedTransitions(1)
		log.WithFields(log.Fields{
			"currentFinalizedEpoch":   current.Finalized.Epoch,
			"submittedFinalizedEpoch": journal.PreState.Finalized.Epoch,
		}).Warn("Rejecting a transition with a stale pre-state.")
		return ErrInvalidPreState
	}

	epochStart := o.cfg.Schedule.EpochStartTime(journal.PreState.Finalized.Epoch)
	now := o.now()
	if now > epochStart && now-epochStart > o.permissibleTimespan {
		o.Metrics.IncrementRejectedTransitions(1)
		loghelper.LogSlot(journal.FinalizedSlot).WithFields(log.Fields{
			"epochStart":          epochStart,
			"now":                 now,
			"permissibleTimespan": o.permissibleTimespan,
		}).Warn("Rejecting a transition outside the staleness bound.")
		return ErrStalenessExceeded
	}

	digest := journal.Digest()
	if err := o.verifier.Verify(proof, o.transitionImageID, digest); err != nil {
		// The verifiers own error is the failure, we neither interpret nor retry it.
		return err
	}

	if err := o.applyTransition(ctx, journal); err != nil {
		return err
	}
	o.Metrics.IncrementTransitionsApplied(1)
	return nil
}

// Commit the post-state and raise the proof channel confirmation.
func (o *Oracle) applyTransition(ctx context.Context, journal TransitionJournal) error {
	if err := o.store.SetConsensusState(ctx, journal.PostState); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"finalizedEpoch": journal.PostState.Finalized.Epoch,
		"finalizedSlot":  journal.FinalizedSlot,
		"finalizedRoot":  journal.PostState.Finalized.Root.Hex(),
		"justifiedEpoch": journal.PostState.CurrentJustified.Epoch,
	}).Info("Applied a consensus transition")
	return o.confirm(ctx, journal.FinalizedSlot, journal.PostState.Finalized.Root, ProofChannel)
}

// The structural checks every journal must pass, proven or privileged.
func (o *Oracle) validateJournalShape(journal TransitionJournal) error {
	if !journal.PostState.Valid() {
		return ErrInvalidPostState
	}
	if o.cfg.Schedule.EpochAtSlot(journal.FinalizedSlot) != journal.PostState.Finalized.Epoch {
		return ErrFinalizedSlotMismatch
	}
	return nil
}

// Admin exposes the privileged mutations of the oracle through a narrow API.
// It is handed out once at construction.
type Admin struct {
	o *Oracle
}

// ManualTransition applies a journal without proof verification and without the
// pre-state equality check. It is an escape hatch for bootstrap and recovery,
// not for steady state operation.
func (a *Admin) ManualTransition(ctx context.Context, journal TransitionJournal) error {
	a.o.mu.Lock()
	defer a.o.mu.Unlock()

	if err := a.o.validateJournalShape(journal); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"finalizedSlot": journal.FinalizedSlot,
	}).Warn("Applying a manual transition without proof verification.")
	if err := a.o.applyTransition(ctx, journal); err != nil {
		return err
	}
	a.o.Metrics.IncrementManualTransitions(1)
	return nil
}

// UpdateTransitionImageID replaces the proof image identifier transitions are
// verified against. A no-op update is rejected so it cannot be logged as a change.
func (a *Admin) UpdateTransitionImageID(imageID [32]byte) error {
	a.o.mu.Lock()
	defer a.o.mu.Unlock()

	if imageID == a.o.transitionImageID {
		return ErrNoOpUpdate
	}
	a.o.transitionImageID = imageID
	log.Info("Updated the transition proof image identifier.")
	return nil
}

// UpdatePermissibleTimespan replaces the staleness bound, in seconds.
func (a *Admin) UpdatePermissibleTimespan(seconds uint64) error {
	a.o.mu.Lock()
	defer a.o.mu.Unlock()

	if seconds == a.o.permissibleTimespan {
		return ErrNoOpUpdate
	}
	a.o.permissibleTimespan = seconds
	log.WithFields(log.Fields{"permissibleTimespan": seconds}).Info("Updated the permissible timespan.")
	return nil
}

// SetClock pins the oracles clock. Only used by tests.
func (a *Admin) SetClock(now func() uint64) {
	a.o.now = now
}
