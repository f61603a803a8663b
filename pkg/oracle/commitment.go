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
	"encoding/binary"
	"errors"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

// CommitmentVersionBeacon is the only commitment version this oracle validates.
// It references a slot of the tracked consensus chain.
const CommitmentVersionBeacon uint16 = 2

var (
	ErrUnsupportedCommitmentVersion = errors.New("only version 2 commitments are supported")
)

// A Commitment is an opaque, versioned reference binding a proof to a specific
// historical root. The identifier packs the version into its top two bytes and
// the referenced slot into its low eight bytes.
type Commitment struct {
	ID     [32]byte // The encoded identifier.
	Digest Root     // The root the prover claims for the referenced slot.
}

// Version provides the version tag packed into the identifiers top two bytes.
func (c Commitment) Version() uint16 {
	return binary.BigEndian.Uint16(c.ID[:2])
}

// Slot provides the referenced slot packed into the identifiers low eight bytes.
func (c Commitment) Slot() uint64 {
	return binary.BigEndian.Uint64(c.ID[24:])
}

// EncodeCommitmentID packs a version tag and a slot into a commitment identifier.
func EncodeCommitmentID(version uint16, slot uint64) [32]byte {
	var id [32]byte
	binary.BigEndian.PutUint16(id[:2], version)
	binary.BigEndian.PutUint64(id[24:], slot)
	return id
}

// A CommitmentValidator decides whether a commitment references a root the
// attestation state trusts at the requested confirmation level.
type CommitmentValidator interface {
	ValidateCommitment(ctx context.Context, c Commitment, level ConfirmationMask) (bool, error)
}

var _ CommitmentValidator = &Oracle{}

// ValidateCommitment decodes the commitment, checks the referenced slot against
// the attestation state at the requested level and finally checks the claimed
// digest against the canonical root. The digest equality is a separate step
// because the canonical root may differ from what a stale or malicious prover
// claims.
func (o *Oracle) ValidateCommitment(ctx context.Context, c Commitment, level ConfirmationMask) (bool, error) {
	if c.Version() != CommitmentVersionBeacon {
		loghelper.LogSlot(c.Slot()).WithField("version", c.Version()).Warn("Rejecting a commitment with an unsupported version.")
		return false, ErrUnsupportedCommitmentVersion
	}

	canonical, valid, err := o.BlockRoot(ctx, c.Slot(), level)
	if err != nil {
		return false, err
	}
	return valid && canonical == c.Digest, nil
}
