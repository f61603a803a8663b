// beacon-consensus-oracle
// Copyright © 2022 Cerc

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
package oracle

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	ErrStateNotInitialized = errors.New("the consensus state register has not been initialized")
	ErrInvalidInitialState = errors.New("the initial consensus state does not respect finalized <= justified")
)

// A ProofVerifier checks an opaque proof against a claim hash and a proof image
// identifier. It is a black box, any error it produces is propagated untouched.
type ProofVerifier interface {
	Verify(proof []byte, imageID [32]byte, claim [32]byte) error
}

// Config holds the constant, per chain parameters the oracle is constructed with.
type Config struct {
	Schedule            ChainSchedule  // Timing parameters of the tracked chain.
	InitialState        ConsensusState // Bootstrap consensus state, used when the store holds none.
	TransitionImageID   [32]byte       // Proof image identifier for transition proofs.
	PermissibleTimespan uint64         // Maximum seconds a pre-state's finalized epoch may lag behind now.
	TrustedChainID      uint16         // Chain id of the single trusted root emitter.
	TrustedEmitter      [32]byte       // Identity of the single trusted root emitter.
}

// The Oracle tracks the finalized state of the remote chains consensus process
// and answers "is this block root trustworthy at confirmation level L" queries.
// Two independent channels feed it: proof verified state transitions and cross
// chain attested observations.
type Oracle struct {
	cfg       Config
	store     Store
	source    RootSource
	verifier  ProofVerifier
	transport TransportVerifier

	// mu serializes state transitions and admin mutations so the optimistic
	// pre-state equality check cannot race the apply.
	mu                  sync.Mutex
	transitionImageID   [32]byte
	permissibleTimespan uint64

	Metrics *Metrics

	// now is swappable so tests can pin the clock.
	now func() uint64
}

// CreateOracle wires the oracle together and initializes the consensus register
// if the store does not carry one yet. The returned Admin exposes the privileged
// mutations and must be kept out of untrusted hands.
func CreateOracle(ctx context.Context, cfg Config, store Store, source RootSource, verifier ProofVerifier, transport TransportVerifier) (*Oracle, *Admin, error) {
	log.Info("Creating the consensus Oracle")
	if !cfg.InitialState.Valid() {
		return nil, nil, ErrInvalidInitialState
	}

	o := &Oracle{
		cfg:                 cfg,
		store:               store,
		source:              source,
		verifier:            verifier,
		transport:           transport,
		transitionImageID:   cfg.TransitionImageID,
		permissibleTimespan: cfg.PermissibleTimespan,
		Metrics:             &Metrics{},
		now: func() uint64 {
			return uint64(time.Now().Unix())
		},
	}

	_, ok, err := store.ConsensusState(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		log.WithFields(log.Fields{
			"finalizedEpoch": cfg.InitialState.Finalized.Epoch,
			"justifiedEpoch": cfg.InitialState.CurrentJustified.Epoch,
		}).Info("Bootstrapping the consensus state register")
		if err := store.SetConsensusState(ctx, cfg.InitialState); err != nil {
			return nil, nil, err
		}
	}
	return o, &Admin{o: o}, nil
}

// Schedule provides the chain schedule the oracle was constructed with.
func (o *Oracle) Schedule() ChainSchedule {
	return o.cfg.Schedule
}

// CurrentConsensusState provides the oracles current view of the tracked chain.
func (o *Oracle) CurrentConsensusState(ctx context.Context) (ConsensusState, error) {
	state, ok, err := o.store.ConsensusState(ctx)
	if err != nil {
		return ConsensusState{}, err
	}
	if !ok {
		return ConsensusState{}, ErrStateNotInitialized
	}
	return state, nil
}

// BlockRoot provides the canonical root recorded for the slot. The root is only
// valid when every channel bit in the requested level has confirmed it. A slot
// with no canonical root is never valid, regardless of level.
func (o *Oracle) BlockRoot(ctx context.Context, slot uint64, level ConfirmationMask) (Root, bool, error) {
	canonical, ok, err := o.store.CanonicalRoot(ctx, slot)
	if err != nil {
		return Root{}, false, err
	}
	if !ok {
		return Root{}, false, nil
	}
	mask, err := o.store.Attestation(ctx, slot, canonical)
	if err != nil {
		return Root{}, false, err
	}
	return canonical, mask.Meets(level), nil
}

// ResolveRootAtSlot maps the slot onto a historical block root using the
// configured root source and the current wall clock.
func (o *Oracle) ResolveRootAtSlot(ctx context.Context, slot uint64) (Root, error) {
	return ResolveRootAtSlot(ctx, o.source, o.cfg.Schedule, slot, o.now())
}

// Raise a confirmation for (slot, root) on the given channel.
func (o *Oracle) confirm(ctx context.Context, slot uint64, root Root, channel ConfirmationChannel) error {
	mask, err := o.store.Confirm(ctx, slot, root, channel)
	if err != nil {
		loghelper.LogSlotError(slot, err).Error("Unable to record the confirmation")
		return err
	}
	loghelper.LogSlotRoot(slot, root.Hex()).WithFields(log.Fields{
		"channel": channel.String(),
		"mask":    mask,
	}).Info("Recorded a confirmation")

	switch channel {
	case ProofChannel:
		o.Metrics.IncrementProofConfirmations(1)
	case AttestedChannel:
		o.Metrics.IncrementAttestedConfirmations(1)
	}
	return nil
}
