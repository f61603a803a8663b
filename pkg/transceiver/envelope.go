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
	"encoding/binary"
	"errors"
	"fmt"
)

// The fixed layout of an encoded envelope, big endian throughout:
//
//	sender id        32 bytes
//	recipient id     32 bytes
//	payload length    2 bytes
//	payload           n bytes
//	source chain id   2 bytes (trailing metadata)
const (
	envelopeHeaderLength  = 32 + 32 + 2
	envelopeTrailerLength = 2
	maxEnvelopePayload    = 0xffff
)

var (
	ErrShortEnvelope   = errors.New("the encoded envelope is shorter than its fixed header and trailer")
	ErrEnvelopeLength  = errors.New("the encoded envelopes payload length does not match its declared length")
	ErrPayloadTooLarge = fmt.Errorf("the envelope payload cannot exceed %d bytes", maxEnvelopePayload)
)

// An Envelope is the transport level wrapper around an application payload.
// The source chain id rides as trailing metadata so a recipient can route the
// message before touching the payload.
type Envelope struct {
	SenderID      UniversalAddress // The sending application on the source chain.
	RecipientID   UniversalAddress // The receiving application on this chain.
	Payload       []byte           // The opaque inner payload for the sink.
	SourceChainID uint16           // The chain the envelope was emitted on.
}

// Encode provides the deterministic binary form of the envelope.
func (e Envelope) Encode() ([]byte, error) {
	if len(e.Payload) > maxEnvelopePayload {
		return nil, ErrPayloadTooLarge
	}
	encoded := make([]byte, 0, envelopeHeaderLength+len(e.Payload)+envelopeTrailerLength)
	encoded = append(encoded, e.SenderID[:]...)
	encoded = append(encoded, e.RecipientID[:]...)
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(e.Payload)))
	encoded = append(encoded, length[:]...)
	encoded = append(encoded, e.Payload...)
	var chain [2]byte
	binary.BigEndian.PutUint16(chain[:], e.SourceChainID)
	encoded = append(encoded, chain[:]...)
	return encoded, nil
}

// DecodeEnvelope parses an encoded envelope. A malformed envelope fails fast,
// before any authorization or proof checks run.
func DecodeEnvelope(encoded []byte) (Envelope, error) {
	var envelope Envelope
	if len(encoded) < envelopeHeaderLength+envelopeTrailerLength {
		return envelope, ErrShortEnvelope
	}
	copy(envelope.SenderID[:], encoded[:32])
	copy(envelope.RecipientID[:], encoded[32:64])
	declared := int(binary.BigEndian.Uint16(encoded[64:66]))
	if len(encoded) != envelopeHeaderLength+declared+envelopeTrailerLength {
		return envelope, ErrEnvelopeLength
	}
	envelope.Payload = make([]byte, declared)
	copy(envelope.Payload, encoded[66:66+declared])
	envelope.SourceChainID = binary.BigEndian.Uint16(encoded[66+declared:])
	return envelope, nil
}
