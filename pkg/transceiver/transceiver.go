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
package transceiver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
)

var (
	ErrInvalidEmitter    = errors.New("the journals emitter does not match the registered source emitter")
	ErrInvalidCommitment = errors.New("the journals commitment is not trusted at the two of two level")
)

// An UnsupportedSourceChainError is returned when no authorized source is
// registered for the chain id a message declares.
type UnsupportedSourceChainError struct {
	ChainID uint16
}

func (e UnsupportedSourceChainError) Error() string {
	return fmt.Sprintf("no authorized source is registered for chain id %d", e.ChainID)
}

// An AuthorizedSource is a registered trusted remote emitter. Absence of an
// entry for a chain id means that chain is unsupported.
type AuthorizedSource struct {
	EmitterAddress UniversalAddress           // The only contract allowed to emit messages on that chain.
	Validator      oracle.CommitmentValidator // Validates commitments referencing that chains roots.
	ProofImageID   [32]byte                   // Proof image identifier for that chains inclusion proofs.
}

// A Sink is the downstream message processing application. It carries its own
// replay protection, the transceiver does not duplicate it.
type Sink interface {
	Deliver(ctx context.Context, sourceChainID uint16, senderID UniversalAddress, recipientChainID uint16, payload []byte) error
}

// A Transport publishes a message over the generic cross chain transport. The
// fee handling is the transports concern, it fails if the attached fee is
// insufficient.
type Transport interface {
	Publish(ctx context.Context, recipientChainID uint16, payload []byte, finality uint8) (uint64, error)
}

// The Transceiver gates delivery of cross chain messages on proof that a
// message was actually emitted and included in a finalized block of an
// authorized source chain.
type Transceiver struct {
	localChainID uint16

	// mu guards the registry. Writes are privileged and last writer wins.
	mu      sync.RWMutex
	sources map[uint16]AuthorizedSource

	verifier  oracle.ProofVerifier
	transport Transport
	sink      Sink

	Metrics *Metrics
}

// CreateTransceiver wires the transceiver together. The returned RegistryAdmin
// exposes the privileged source registration and must be kept out of untrusted
// hands.
func CreateTransceiver(localChainID uint16, verifier oracle.ProofVerifier, transport Transport, sink Sink) (*Transceiver, *RegistryAdmin) {
	log.Info("Creating the message Transceiver")
	t := &Transceiver{
		localChainID: localChainID,
		sources:      make(map[uint16]AuthorizedSource),
		verifier:     verifier,
		transport:    transport,
		sink:         sink,
		Metrics:      &Metrics{},
	}
	return t, &RegistryAdmin{t: t}
}

// AuthorizedSource provides the registered source for a chain id, if any.
func (t *Transceiver) AuthorizedSource(chainID uint16) (AuthorizedSource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	source, ok := t.sources[chainID]
	return source, ok
}

// ReceiveMessage validates a proof carrying claim of message inclusion and, if
// every check passes, forwards the inner payload to the downstream sink.
//
// The order of checks is: decode the envelope, look up the declared source
// chain, match the emitter identity, validate the commitment at the two of two
// level, verify the inclusion proof. The two of two level is the transceivers
// own security bar, it never accepts a single channel.
func (t *Transceiver) ReceiveMessage(ctx context.Context, journal MessageJournal, proof []byte) error {
	envelope, err := DecodeEnvelope(journal.EncodedEnvelope)
	if err != nil {
		t.Metrics.IncrementRejectedMessages(1)
		loghelper.LogError(err).Error("Unable to decode the journals envelope.")
		return err
	}

	source, ok := t.AuthorizedSource(envelope.SourceChainID)
	if !ok {
		t.Metrics.IncrementRejectedMessages(1)
		loghelper.LogSourceChain(envelope.SourceChainID).Warn("Rejecting a message from an unsupported source chain.")
		return UnsupportedSourceChainError{ChainID: envelope.SourceChainID}
	}

	if journal.EmitterAddress != source.EmitterAddress {
		t.Metrics.IncrementRejectedMessages(1)
		loghelper.LogSourceChain(envelope.SourceChainID).Warn("Rejecting a message from an unauthorized emitter.")
		return ErrInvalidEmitter
	}

	trusted, err := source.Validator.ValidateCommitment(ctx, journal.Commitment, oracle.LevelTwoOfTwo)
	if err != nil {
		t.Metrics.IncrementRejectedMessages(1)
		return err
	}
	if !trusted {
		t.Metrics.IncrementRejectedMessages(1)
		loghelper.LogSourceChain(envelope.SourceChainID).WithFields(log.Fields{
			"slot": journal.Commitment.Slot(),
		}).Warn("Rejecting a message whose commitment is not trusted at the two of two level.")
		return ErrInvalidCommitment
	}

	if err := t.verifier.Verify(proof, source.ProofImageID, journal.Digest()); err != nil {
		// The verifiers own error is the failure, we neither interpret nor retry it.
		t.Metrics.IncrementRejectedMessages(1)
		return err
	}

	loghelper.LogSourceChain(envelope.SourceChainID).WithFields(log.Fields{
		"sender":    envelope.SenderID,
		"recipient": envelope.RecipientID,
	}).Info("Delivering a verified message to the sink.")
	if err := t.sink.Deliver(ctx, envelope.SourceChainID, envelope.SenderID, t.localChainID, envelope.Payload); err != nil {
		return err
	}
	t.Metrics.IncrementMessagesDelivered(1)
	return nil
}

// SendMessage deterministically re-encodes an outbound payload with the local
// chain id embedded and publishes it for external relayers to observe and later
// prove. This path performs no verification.
func (t *Transceiver) SendMessage(ctx context.Context, recipientChainID uint16, senderID UniversalAddress, recipientID UniversalAddress, payload []byte, finality uint8) (uint64, error) {
	envelope := Envelope{
		SenderID:      senderID,
		RecipientID:   recipientID,
		Payload:       payload,
		SourceChainID: t.localChainID,
	}
	encoded, err := envelope.Encode()
	if err != nil {
		return 0, err
	}

	messageID, err := t.transport.Publish(ctx, recipientChainID, encoded, finality)
	if err != nil {
		loghelper.LogError(err).Error("Unable to publish an outbound message.")
		return 0, err
	}
	log.WithFields(log.Fields{
		"recipientChain": recipientChainID,
		"messageId":      messageID,
		"payloadBytes":   len(payload),
	}).Info("Published an outbound message")
	t.Metrics.IncrementMessagesSent(1)
	return messageID, nil
}

// RegistryAdmin exposes the privileged registry mutation through a narrow API.
type RegistryAdmin struct {
	t *Transceiver
}

// SetAuthorizedSource registers or fully overwrites the authorized source for a
// chain id. There is no merge, the last writer wins.
func (a *RegistryAdmin) SetAuthorizedSource(chainID uint16, source AuthorizedSource) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	a.t.sources[chainID] = source
	loghelper.LogSourceChain(chainID).Info("Registered an authorized source.")
}
