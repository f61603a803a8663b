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

// This file contains the loops which turn streamed JSON events into oracle and
// transceiver calls.

package tracker

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/feed"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
)

// This function will perform the necessary steps to handle each incoming
// transition journal. A rejected journal is logged and dropped, it never stops
// the loop.
func (tr *Tracker) handleTransitions(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-tr.TransitionFeed.ProcessCh:
			journal, proof, err := ParseTransitionMessage(msg)
			if err != nil {
				tr.Oracle.Metrics.IncrementRejectedTransitions(1)
				loghelper.LogError(err).Error("Unable to parse the transition message.")
				continue
			}
			if err := tr.Oracle.Transition(ctx, journal, proof); err != nil {
				loghelper.LogSlotError(journal.FinalizedSlot, err).Error("Unable to apply the state transition.")
			}
		}
	}
}

// This function will perform the necessary steps to handle each incoming
// attested root observation.
func (tr *Tracker) handleAttestedRoots(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-tr.AttestedFeed.ProcessCh:
			raw, err := decodeHexField(msg.Attestation)
			if err != nil {
				tr.Oracle.Metrics.IncrementRejectedAttestations(1)
				loghelper.LogError(err).Error("Unable to parse the attested message.")
				continue
			}
			if err := tr.Oracle.ReceiveAttestedRoot(ctx, raw); err != nil {
				loghelper.LogError(err).Error("Unable to apply the attested root observation.")
			}
		}
	}
}

// This function will perform the necessary steps to handle each incoming
// message inclusion journal.
func (tr *Tracker) handleInclusions(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-tr.InclusionFeed.ProcessCh:
			journal, proof, err := ParseInclusionMessage(msg)
			if err != nil {
				tr.Transceiver.Metrics.IncrementRejectedMessages(1)
				loghelper.LogError(err).Error("Unable to parse the inclusion message.")
				continue
			}
			if err := tr.Transceiver.ReceiveMessage(ctx, journal, proof); err != nil {
				log.WithFields(log.Fields{
					"err":  err,
					"slot": journal.Commitment.Slot(),
				}).Error("Unable to deliver the message.")
			}
		}
	}
}

// Turn a streamed transition message into a journal the oracle understands.
func ParseTransitionMessage(msg *feed.TransitionMessage) (oracle.TransitionJournal, []byte, error) {
	preState, err := parseStateMsg(msg.PreState)
	if err != nil {
		return oracle.TransitionJournal{}, nil, err
	}
	postState, err := parseStateMsg(msg.PostState)
	if err != nil {
		return oracle.TransitionJournal{}, nil, err
	}
	finalizedSlot, err := strconv.ParseUint(msg.FinalizedSlot, 10, 64)
	if err != nil {
		return oracle.TransitionJournal{}, nil, err
	}
	proof, err := decodeHexField(msg.Proof)
	if err != nil {
		return oracle.TransitionJournal{}, nil, err
	}
	return oracle.TransitionJournal{
		PreState:      preState,
		PostState:     postState,
		FinalizedSlot: finalizedSlot,
	}, proof, nil
}

// Turn a streamed inclusion message into a journal the transceiver understands.
func ParseInclusionMessage(msg *feed.InclusionMessage) (transceiver.MessageJournal, []byte, error) {
	commitmentID, err := oracle.RootFromHex(msg.CommitmentID)
	if err != nil {
		return transceiver.MessageJournal{}, nil, err
	}
	digest, err := oracle.RootFromHex(msg.Digest)
	if err != nil {
		return transceiver.MessageJournal{}, nil, err
	}
	envelope, err := decodeHexField(msg.Envelope)
	if err != nil {
		return transceiver.MessageJournal{}, nil, err
	}
	emitter, err := oracle.RootFromHex(msg.Emitter)
	if err != nil {
		return transceiver.MessageJournal{}, nil, err
	}
	proof, err := decodeHexField(msg.Proof)
	if err != nil {
		return transceiver.MessageJournal{}, nil, err
	}
	return transceiver.MessageJournal{
		Commitment: oracle.Commitment{
			ID:     [32]byte(commitmentID),
			Digest: digest,
		},
		EncodedEnvelope: envelope,
		EmitterAddress:  transceiver.UniversalAddress(emitter),
	}, proof, nil
}

func parseStateMsg(msg feed.StateMsg) (oracle.ConsensusState, error) {
	currentJustified, err := parseCheckpointMsg(msg.CurrentJustified)
	if err != nil {
		return oracle.ConsensusState{}, err
	}
	finalized, err := parseCheckpointMsg(msg.Finalized)
	if err != nil {
		return oracle.ConsensusState{}, err
	}
	return oracle.ConsensusState{
		CurrentJustified: currentJustified,
		Finalized:        finalized,
	}, nil
}

func parseCheckpointMsg(msg feed.CheckpointMsg) (oracle.Checkpoint, error) {
	epoch, err := strconv.ParseUint(msg.Epoch, 10, 64)
	if err != nil {
		return oracle.Checkpoint{}, err
	}
	root, err := oracle.RootFromHex(msg.Root)
	if err != nil {
		return oracle.Checkpoint{}, err
	}
	return oracle.Checkpoint{
		Epoch: epoch,
		Root:  root,
	}, nil
}

func decodeHexField(in string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(in, "0x"))
}
