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
	"encoding/hex"
	"fmt"
	"strings"
)

// A Root is the 32 byte hash of a beacon block.
type Root [32]byte

var (
	InvalidRootLengthError = "The provided root does not contain 32 bytes."
)

// Turn a hex string, with or without the 0x prefix, into a Root.
func RootFromHex(hexRoot string) (Root, error) {
	var root Root
	raw, err := hex.DecodeString(strings.TrimPrefix(hexRoot, "0x"))
	if err != nil {
		return root, err
	}
	if len(raw) != len(root) {
		return root, fmt.Errorf("%s, length provided: %d", InvalidRootLengthError, len(raw))
	}
	copy(root[:], raw)
	return root, nil
}

// Provides the 0x prefixed hex string of the root.
func (r Root) Hex() string {
	return "0x" + hex.EncodeToString(r[:])
}

func (r Root) IsZero() bool {
	return r == Root{}
}

// A Checkpoint is an (epoch, root) pair capturing the chains view of state at that epoch boundary.
// It is immutable once constructed.
type Checkpoint struct {
	Epoch uint64 // The epoch this checkpoint was taken at.
	Root  Root   // The block root at the start of the epoch.
}

func (c Checkpoint) Equal(other Checkpoint) bool {
	return c.Epoch == other.Epoch && c.Root == other.Root
}

// The oracles view of the tracked chains consensus process. The finalized
// checkpoint can never be ahead of the justified one.
type ConsensusState struct {
	CurrentJustified Checkpoint // The current justified checkpoint.
	Finalized        Checkpoint // The finalized checkpoint, the stronger guarantee.
}

// Both checkpoints must match exactly for two states to be equal.
func (s ConsensusState) Equal(other ConsensusState) bool {
	return s.CurrentJustified.Equal(other.CurrentJustified) && s.Finalized.Equal(other.Finalized)
}

// Valid indicates whether the state respects finalized.epoch <= justified.epoch.
func (s ConsensusState) Valid() bool {
	return s.Finalized.Epoch <= s.CurrentJustified.Epoch
}
