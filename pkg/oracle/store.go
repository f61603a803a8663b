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
)

// A ConfirmationChannel is one of the independent trust sources whose agreement
// raises confidence in a claimed root. The enumeration is closed, each channel
// owns exactly one bit of the confirmation mask.
type ConfirmationChannel uint8

const (
	// ProofChannel is raised when a zero knowledge proven state transition
	// finalizes a checkpoint containing the root.
	ProofChannel ConfirmationChannel = iota
	// AttestedChannel is raised when the cross chain transport delivers an
	// attested (slot, root) observation.
	AttestedChannel
)

func (c ConfirmationChannel) Mask() ConfirmationMask {
	return ConfirmationMask(1) << c
}

func (c ConfirmationChannel) String() string {
	switch c {
	case ProofChannel:
		return "proof-verified"
	case AttestedChannel:
		return "cross-chain-attested"
	default:
		return "unknown"
	}
}

// A ConfirmationMask aggregates the channels that have confirmed a (slot, root)
// pair. Bits are set with OR and never cleared.
type ConfirmationMask uint64

const (
	LevelProofOnly    ConfirmationMask = 0b01
	LevelAttestedOnly ConfirmationMask = 0b10
	// LevelTwoOfTwo requires both independent channels to agree.
	LevelTwoOfTwo ConfirmationMask = 0b11
)

// Meets reports whether every bit of the requested level is set in the mask.
// This is an AND equals mask check, a mere non zero overlap is not sufficient.
func (m ConfirmationMask) Meets(level ConfirmationMask) bool {
	return m&level == level
}

// Store is the ledger backing the attestation state and the consensus register.
// All writes are atomic, per call. The confirmation merge is an OR so it is
// commutative and idempotent, confirmations for the same key can arrive in any
// order.
type Store interface {
	// Confirm sets the channels bit for (slot, root) and records root as the
	// canonical root for slot if no canonical root exists yet. Returns the
	// updated mask.
	Confirm(ctx context.Context, slot uint64, root Root, channel ConfirmationChannel) (ConfirmationMask, error)
	// Attestation provides the confirmation mask recorded for (slot, root).
	Attestation(ctx context.Context, slot uint64, root Root) (ConfirmationMask, error)
	// CanonicalRoot provides the first root confirmed for the slot, if any.
	CanonicalRoot(ctx context.Context, slot uint64) (Root, bool, error)
	// ConsensusState provides the current consensus register, if one was set.
	ConsensusState(ctx context.Context) (ConsensusState, bool, error)
	// SetConsensusState replaces the consensus register.
	SetConsensusState(ctx context.Context, state ConsensusState) error
}
