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

// This file holds the Postgres backed attestation store. The bitmask merge is
// performed inside the database with an OR so concurrent confirmations for the
// same key stay commutative and idempotent, and each Confirm call commits or
// rolls back as a single transaction.

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
)

var (
	UpsertAttestationStmt = `INSERT INTO oracle.attestations (key, slot, root, bitmask)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE SET bitmask = oracle.attestations.bitmask | EXCLUDED.bitmask
RETURNING bitmask`
	InsertCanonicalRootStmt = `INSERT INTO oracle.canonical_roots (slot, root)
VALUES ($1, $2)
ON CONFLICT (slot) DO NOTHING`
	QueryAttestationStmt    = `SELECT bitmask FROM oracle.attestations WHERE key = $1`
	QueryCanonicalRootStmt  = `SELECT root FROM oracle.canonical_roots WHERE slot = $1`
	QueryConsensusStateStmt = `SELECT justified_epoch, justified_root, finalized_epoch, finalized_root
FROM oracle.consensus_state WHERE id = 1`
	UpsertConsensusStateStmt = `INSERT INTO oracle.consensus_state (id, justified_epoch, justified_root, finalized_epoch, finalized_root)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET justified_epoch = EXCLUDED.justified_epoch, justified_root = EXCLUDED.justified_root,
finalized_epoch = EXCLUDED.finalized_epoch, finalized_root = EXCLUDED.finalized_root`
	UpsertAuthorizedSourceStmt = `INSERT INTO oracle.authorized_sources (chain_id, emitter, proof_image_id)
VALUES ($1, $2, $3)
ON CONFLICT (chain_id) DO UPDATE SET emitter = EXCLUDED.emitter, proof_image_id = EXCLUDED.proof_image_id`
	QueryAuthorizedSourcesStmt = `SELECT chain_id, emitter, proof_image_id FROM oracle.authorized_sources`
)

// OracleStore is the Postgres implementation of oracle.Store.
type OracleStore struct {
	Db sql.Database
}

var _ oracle.Store = &OracleStore{}

// A Function to create the OracleStore.
func NewOracleStore(db sql.Database) *OracleStore {
	return &OracleStore{Db: db}
}

// Confirm satisfies oracle.Store. The attestation upsert and the canonical root
// insert commit together or not at all.
func (st *OracleStore) Confirm(ctx context.Context, slot uint64, root oracle.Root, channel oracle.ConfirmationChannel) (oracle.ConfirmationMask, error) {
	key, err := oracle.AttestationKey(slot, root)
	if err != nil {
		return 0, err
	}

	tx, err := st.Db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		rollbackErr := tx.Rollback(ctx)
		if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			loghelper.LogError(rollbackErr).Error(sql.RollbackFailedMsg)
		}
	}()

	var mask int64
	row := tx.QueryRow(ctx, UpsertAttestationStmt, key, int64(slot), root.Hex(), int64(channel.Mask()))
	if err := row.Scan(&mask); err != nil {
		loghelper.LogSlotError(slot, err).Error("Unable to upsert the attestation")
		return 0, err
	}

	// First writer for a slot wins, the DO NOTHING keeps a later root from
	// overwriting the canonical entry.
	if _, err := tx.Exec(ctx, InsertCanonicalRootStmt, int64(slot), root.Hex()); err != nil {
		loghelper.LogSlotError(slot, err).Error("Unable to record the canonical root")
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return oracle.ConfirmationMask(mask), nil
}

// Attestation satisfies oracle.Store. An unknown key has an empty mask.
func (st *OracleStore) Attestation(ctx context.Context, slot uint64, root oracle.Root) (oracle.ConfirmationMask, error) {
	key, err := oracle.AttestationKey(slot, root)
	if err != nil {
		return 0, err
	}

	var mask int64
	err = st.Db.QueryRow(ctx, QueryAttestationStmt, key).Scan(&mask)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return oracle.ConfirmationMask(mask), nil
}

// CanonicalRoot satisfies oracle.Store.
func (st *OracleStore) CanonicalRoot(ctx context.Context, slot uint64) (oracle.Root, bool, error) {
	var hexRoot string
	err := st.Db.QueryRow(ctx, QueryCanonicalRootStmt, int64(slot)).Scan(&hexRoot)
	if errors.Is(err, pgx.ErrNoRows) {
		return oracle.Root{}, false, nil
	}
	if err != nil {
		return oracle.Root{}, false, err
	}
	root, err := oracle.RootFromHex(hexRoot)
	if err != nil {
		return oracle.Root{}, false, err
	}
	return root, true, nil
}

// ConsensusState satisfies oracle.Store.
func (st *OracleStore) ConsensusState(ctx context.Context) (oracle.ConsensusState, bool, error) {
	var (
		justifiedEpoch int64
		justifiedRoot  string
		finalizedEpoch int64
		finalizedRoot  string
	)
	err := st.Db.QueryRow(ctx, QueryConsensusStateStmt).Scan(&justifiedEpoch, &justifiedRoot, &finalizedEpoch, &finalizedRoot)
	if errors.Is(err, pgx.ErrNoRows) {
		return oracle.ConsensusState{}, false, nil
	}
	if err != nil {
		return oracle.ConsensusState{}, false, err
	}

	jr, err := oracle.RootFromHex(justifiedRoot)
	if err != nil {
		return oracle.ConsensusState{}, false, err
	}
	fr, err := oracle.RootFromHex(finalizedRoot)
	if err != nil {
		return oracle.ConsensusState{}, false, err
	}
	return oracle.ConsensusState{
		CurrentJustified: oracle.Checkpoint{Epoch: uint64(justifiedEpoch), Root: jr},
		Finalized:        oracle.Checkpoint{Epoch: uint64(finalizedEpoch), Root: fr},
	}, true, nil
}

// SetConsensusState satisfies oracle.Store.
func (st *OracleStore) SetConsensusState(ctx context.Context, state oracle.ConsensusState) error {
	_, err := st.Db.Exec(ctx, UpsertConsensusStateStmt,
		int64(state.CurrentJustified.Epoch), state.CurrentJustified.Root.Hex(),
		int64(state.Finalized.Epoch), state.Finalized.Root.Hex())
	return err
}

// A row of the oracle.authorized_sources table.
type StoredAuthorizedSource struct {
	ChainID      int64  `db:"chain_id"`
	Emitter      string `db:"emitter"`
	ProofImageID string `db:"proof_image_id"`
}

// SaveAuthorizedSource persists a registered source so the registry survives a
// restart. A full overwrite, matching the registries last writer wins policy.
func (st *OracleStore) SaveAuthorizedSource(ctx context.Context, chainID uint16, emitter string, proofImageID string) error {
	_, err := st.Db.Exec(ctx, UpsertAuthorizedSourceStmt, int64(chainID), emitter, proofImageID)
	return err
}

// AuthorizedSources provides every persisted source, used to hydrate the
// registry at boot.
func (st *OracleStore) AuthorizedSources(ctx context.Context) ([]StoredAuthorizedSource, error) {
	var sources []StoredAuthorizedSource
	if err := st.Db.Select(ctx, &sources, QueryAuthorizedSourcesStmt); err != nil {
		return nil, err
	}
	return sources, nil
}
