package transceiver

import (
	"crypto/sha256"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
)

// A MessageJournal is the public claim a message inclusion proof is computed
// over: the commitment locking the proof to a historical root, the encoded
// envelope whose emission the proof attests and the emitting contract.
type MessageJournal struct {
	Commitment      oracle.Commitment // Locks the proof to a specific block root.
	EncodedEnvelope []byte            // The encoded envelope the proof commits to.
	EmitterAddress  UniversalAddress  // The contract that emitted the message event.
}

// Digest provides the claim hash the inclusion proof is verified against.
func (j MessageJournal) Digest() [32]byte {
	buf := make([]byte, 0, 32+32+32+len(j.EncodedEnvelope))
	buf = append(buf, j.Commitment.ID[:]...)
	buf = append(buf, j.Commitment.Digest[:]...)
	buf = append(buf, j.EmitterAddress[:]...)
	buf = append(buf, j.EncodedEnvelope...)
	return sha256.Sum256(buf)
}
