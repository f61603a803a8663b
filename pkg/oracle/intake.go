// This file holds the cross channel attestation intake, the second of the two
// confirmation producers. It accepts externally attested messages from the
// trusted transport and raises the attested channel confirmation for the
// embedded (slot, root) pair.

package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	ErrUnauthorizedOrigin = errors.New("the attested message did not originate from the trusted emitter")

	AttestationPayloadLengthError = "The attested payload must be exactly 40 bytes, slot followed by root."
)

// An AttestedEnvelope is the parsed form of a message the cross chain transport
// has already authenticated.
type AttestedEnvelope struct {
	EmitterChainID uint16   // The chain the message was emitted on.
	EmitterAddress [32]byte // The identity of the emitting contract, left padded.
	Payload        []byte   // The opaque payload, here a (slot, root) observation.
}

// A TransportVerifier authenticates a raw message against the cross chain
// transports signature scheme. It is a black box, the reason string is only
// meaningful when valid is false.
type TransportVerifier interface {
	VerifyAttested(raw []byte) (AttestedEnvelope, bool, string)
}

// ReceiveAttestedRoot verifies an attested message, checks it against the single
// configured trusted emitter and raises the attested channel confirmation for
// the (slot, root) pair in its payload.
func (o *Oracle) ReceiveAttestedRoot(ctx context.Context, raw []byte) error {
	envelope, valid, reason := o.transport.VerifyAttested(raw)
	if !valid {
		o.Metrics.IncrementRejectedAttestations(1)
		loghelper.LogReason(reason).Error("The transport rejected an attested message.")
		return errors.New(reason)
	}

	if envelope.EmitterChainID != o.cfg.TrustedChainID || envelope.EmitterAddress != o.cfg.TrustedEmitter {
		o.Metrics.IncrementRejectedAttestations(1)
		loghelper.LogSourceChain(envelope.EmitterChainID).Warn("Rejecting an attested message from an untrusted origin.")
		return ErrUnauthorizedOrigin
	}

	slot, root, err := decodeRootObservation(envelope.Payload)
	if err != nil {
		o.Metrics.IncrementRejectedAttestations(1)
		return err
	}
	return o.confirm(ctx, slot, root, AttestedChannel)
}

// The payload of a root observation is a u64 be slot followed by the 32 byte root.
func decodeRootObservation(payload []byte) (uint64, Root, error) {
	var root Root
	if len(payload) != 8+len(root) {
		return 0, root, fmt.Errorf("%s, length provided: %d", AttestationPayloadLengthError, len(payload))
	}
	slot := binary.BigEndian.Uint64(payload[:8])
	copy(root[:], payload[8:])
	return slot, root, nil
}

// EncodeRootObservation is the inverse of the intakes payload decoding. The
// emitter side uses it when publishing a (slot, root) observation.
func EncodeRootObservation(slot uint64, root Root) []byte {
	payload := make([]byte, 8+len(root))
	binary.BigEndian.PutUint64(payload[:8], slot)
	copy(payload[8:], root[:])
	return payload
}
