package postgres

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql"
)

// The tables backing the oracle, keyed as described by the store.
var schemaStmts = []string{
	`CREATE SCHEMA IF NOT EXISTS oracle`,
	`CREATE TABLE IF NOT EXISTS oracle.attestations (
		key     TEXT PRIMARY KEY,
		slot    BIGINT NOT NULL,
		root    VARCHAR(66) NOT NULL,
		bitmask BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS oracle.canonical_roots (
		slot BIGINT PRIMARY KEY,
		root VARCHAR(66) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS oracle.consensus_state (
		id              SMALLINT PRIMARY KEY CHECK (id = 1),
		justified_epoch BIGINT NOT NULL,
		justified_root  VARCHAR(66) NOT NULL,
		finalized_epoch BIGINT NOT NULL,
		finalized_root  VARCHAR(66) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS oracle.authorized_sources (
		chain_id       INT PRIMARY KEY,
		emitter        VARCHAR(66) NOT NULL,
		proof_image_id VARCHAR(66) NOT NULL
	)`,
}

// ApplySchema creates the oracle tables if they do not exist yet.
func ApplySchema(ctx context.Context, db sql.Database) error {
	for _, stmt := range schemaStmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Debug("The oracle schema is in place.")
	return nil
}
