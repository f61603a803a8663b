// Test doubles for the opaque external primitives the oracle and transceiver
// are constructed with. They let the suites exercise the core logic without a
// real proof system, transport or consensus client.

package testhelpers

import (
	"context"
	"errors"
	"sync"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
)

var (
	ErrInvalidProof = errors.New("invalid proof")
)

// MapRootSource is an in memory root source keyed by timestamp.
type MapRootSource struct {
	Roots map[uint64]oracle.Root
}

var _ oracle.RootSource = &MapRootSource{}

func (rs *MapRootSource) ProbeRoot(ctx context.Context, timestamp uint64) (oracle.Root, bool, error) {
	root, ok := rs.Roots[timestamp]
	return root, ok, nil
}

// StaticProofVerifier accepts only the (imageID, claim) pairs it was configured
// with, everything else fails with ErrInvalidProof.
type StaticProofVerifier struct {
	Accepted map[[32]byte][32]byte // imageID -> claim
}

var _ oracle.ProofVerifier = &StaticProofVerifier{}

// Accept registers an (imageID, claim) pair as valid.
func (v *StaticProofVerifier) Accept(imageID [32]byte, claim [32]byte) {
	if v.Accepted == nil {
		v.Accepted = make(map[[32]byte][32]byte)
	}
	v.Accepted[imageID] = claim
}

func (v *StaticProofVerifier) Verify(proof []byte, imageID [32]byte, claim [32]byte) error {
	if expected, ok := v.Accepted[imageID]; ok && expected == claim {
		return nil
	}
	return ErrInvalidProof
}

// AcceptAllVerifier treats every proof as valid.
type AcceptAllVerifier struct{}

var _ oracle.ProofVerifier = AcceptAllVerifier{}

func (AcceptAllVerifier) Verify(proof []byte, imageID [32]byte, claim [32]byte) error {
	return nil
}

// StubTransportVerifier replays the envelope and verdict it was configured with.
type StubTransportVerifier struct {
	Envelope oracle.AttestedEnvelope
	Valid    bool
	Reason   string
}

var _ oracle.TransportVerifier = &StubTransportVerifier{}

func (v *StubTransportVerifier) VerifyAttested(raw []byte) (oracle.AttestedEnvelope, bool, string) {
	return v.Envelope, v.Valid, v.Reason
}

// A single recorded sink delivery.
type Delivery struct {
	SourceChainID    uint16
	SenderID         transceiver.UniversalAddress
	RecipientChainID uint16
	Payload          []byte
}

// RecordingSink records every delivery it receives.
type RecordingSink struct {
	mu         sync.Mutex
	Deliveries []Delivery
}

var _ transceiver.Sink = &RecordingSink{}

func (s *RecordingSink) Deliver(ctx context.Context, sourceChainID uint16, senderID transceiver.UniversalAddress, recipientChainID uint16, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deliveries = append(s.Deliveries, Delivery{
		SourceChainID:    sourceChainID,
		SenderID:         senderID,
		RecipientChainID: recipientChainID,
		Payload:          payload,
	})
	return nil
}

// A single recorded published message.
type Published struct {
	RecipientChainID uint16
	Payload          []byte
	Finality         uint8
}

// RecordingTransport records every published message and hands out increasing
// message ids.
type RecordingTransport struct {
	mu        sync.Mutex
	Messages  []Published
	nextMsgID uint64
}

var _ transceiver.Transport = &RecordingTransport{}

func (t *RecordingTransport) Publish(ctx context.Context, recipientChainID uint16, payload []byte, finality uint8) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextMsgID++
	t.Messages = append(t.Messages, Published{
		RecipientChainID: recipientChainID,
		Payload:          payload,
		Finality:         finality,
	})
	return t.nextMsgID, nil
}
