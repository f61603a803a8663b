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
package boot

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql/postgres"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/xchain"
)

var (
	maxRetry      = 5  // Max times to try to connect to the DB or the sidecars at boot.
	retryInterval = 30 // The time to wait between each try.

	DB sql.Database = &postgres.DB{}
)

// DbSettings holds the postgres connection parameters.
type DbSettings struct {
	Hostname   string
	Port       int
	Name       string
	Username   string
	Password   string
	DriverName string
}

// EndpointSettings points at one of the external collaborators.
type EndpointSettings struct {
	ConnectionProtocol string
	Address            string
	Port               int
}

// Settings carries everything the application needs to come up.
type Settings struct {
	Db         DbSettings
	RootSource EndpointSettings // The historical block root service of the tracked chain.
	Verifier   EndpointSettings // The proof verification sidecar.
	Transport  EndpointSettings // The guardian transport node.
	Sink       EndpointSettings // The downstream message processing application.

	GenesisTime    uint64
	SecondsPerSlot uint64
	SlotsPerEpoch  uint64
	RetentionSlots uint64

	InitialJustifiedEpoch uint64
	InitialJustifiedRoot  string
	InitialFinalizedEpoch uint64
	InitialFinalizedRoot  string

	TransitionImageID   string
	PermissibleTimespan uint64
	TrustedChainID      uint16
	TrustedEmitter      string

	LocalChainID uint16
}

// Application bundles the booted components so callers can pick what they need.
type Application struct {
	Db            sql.Database
	Store         *postgres.OracleStore
	Oracle        *oracle.Oracle
	OracleAdmin   *oracle.Admin
	Transceiver   *transceiver.Transceiver
	RegistryAdmin *transceiver.RegistryAdmin
}

// This function will perform some boot operations. If any steps fail, the application will fail to start.
// Keep in mind that the DB connection can be lost later in the lifecycle of the application or
// the sidecars might become unreachable.
//
// 1. Make sure the proof verification sidecar is up.
//
// 2. Connect to the database and apply the schema.
//
// 3. Create the oracle and bootstrap its consensus register if needed.
//
// 4. Create the transceiver and hydrate its source registry from the DB.
func BootApplication(ctx context.Context, settings Settings) (*Application, error) {
	log.Info("Booting the Application")

	log.Debug("Creating the proof verifier client")
	verifier := xchain.CreateProofVerifier(settings.Verifier.ConnectionProtocol, settings.Verifier.Address, settings.Verifier.Port)

	log.Debug("Checking the proof verification sidecar")
	if err := verifier.CheckHealth(ctx); err != nil {
		return nil, err
	}

	log.Debug("Setting up DB connection")
	var err error
	DB, err = postgres.SetupPostgresDb(settings.Db.Hostname, settings.Db.Port, settings.Db.Name, settings.Db.Username, settings.Db.Password, settings.Db.DriverName)
	if err != nil {
		return nil, err
	}

	log.Debug("Applying the oracle schema")
	if err := postgres.ApplySchema(ctx, DB); err != nil {
		return nil, err
	}
	store := postgres.NewOracleStore(DB)

	cfg, err := oracleConfig(settings)
	if err != nil {
		return nil, err
	}
	source := oracle.CreateHTTPRootSource(settings.RootSource.ConnectionProtocol, settings.RootSource.Address, settings.RootSource.Port)
	transportVerifier := xchain.CreateTransportVerifier(settings.Transport.ConnectionProtocol, settings.Transport.Address, settings.Transport.Port)

	o, admin, err := oracle.CreateOracle(ctx, cfg, store, source, verifier, transportVerifier)
	if err != nil {
		return nil, err
	}

	publisher := xchain.CreatePublisher(settings.Transport.ConnectionProtocol, settings.Transport.Address, settings.Transport.Port)
	sink := xchain.CreateSink(settings.Sink.ConnectionProtocol, settings.Sink.Address, settings.Sink.Port)
	t, registryAdmin := transceiver.CreateTransceiver(settings.LocalChainID, verifier, publisher, sink)

	if err := hydrateRegistry(ctx, store, o, registryAdmin); err != nil {
		return nil, err
	}

	return &Application{
		Db:            DB,
		Store:         store,
		Oracle:        o,
		OracleAdmin:   admin,
		Transceiver:   t,
		RegistryAdmin: registryAdmin,
	}, nil
}

// Add retry logic to ensure that we give the DB and the sidecars time to start.
func BootApplicationWithRetry(ctx context.Context, settings Settings) (*Application, error) {
	var (
		app *Application
		err error
	)
	for i := 0; i < maxRetry; i++ {
		app, err = BootApplication(ctx, settings)
		if err != nil {
			log.WithFields(log.Fields{
				"retryNumber": i,
				"err":         err,
			}).Warn("Unable to boot application. Going to try again")
			time.Sleep(time.Duration(retryInterval) * time.Second)
			continue
		}
		break
	}
	return app, err
}

// Turn the flat settings into the oracles config.
func oracleConfig(settings Settings) (oracle.Config, error) {
	justifiedRoot, err := oracle.RootFromHex(settings.InitialJustifiedRoot)
	if err != nil {
		return oracle.Config{}, err
	}
	finalizedRoot, err := oracle.RootFromHex(settings.InitialFinalizedRoot)
	if err != nil {
		return oracle.Config{}, err
	}
	imageID, err := decode32(settings.TransitionImageID)
	if err != nil {
		return oracle.Config{}, err
	}
	trustedEmitter, err := decode32(settings.TrustedEmitter)
	if err != nil {
		return oracle.Config{}, err
	}
	return oracle.Config{
		Schedule: oracle.ChainSchedule{
			GenesisTime:    settings.GenesisTime,
			SecondsPerSlot: settings.SecondsPerSlot,
			SlotsPerEpoch:  settings.SlotsPerEpoch,
			RetentionSlots: settings.RetentionSlots,
		},
		InitialState: oracle.ConsensusState{
			CurrentJustified: oracle.Checkpoint{Epoch: settings.InitialJustifiedEpoch, Root: justifiedRoot},
			Finalized:        oracle.Checkpoint{Epoch: settings.InitialFinalizedEpoch, Root: finalizedRoot},
		},
		TransitionImageID:   imageID,
		PermissibleTimespan: settings.PermissibleTimespan,
		TrustedChainID:      settings.TrustedChainID,
		TrustedEmitter:      trustedEmitter,
	}, nil
}

// Register every persisted authorized source with the transceiver. The oracle
// itself validates the commitments for all of them.
func hydrateRegistry(ctx context.Context, store *postgres.OracleStore, o *oracle.Oracle, admin *transceiver.RegistryAdmin) error {
	sources, err := store.AuthorizedSources(ctx)
	if err != nil {
		return err
	}
	for _, stored := range sources {
		emitter, err := decode32(stored.Emitter)
		if err != nil {
			return err
		}
		imageID, err := decode32(stored.ProofImageID)
		if err != nil {
			return err
		}
		admin.SetAuthorizedSource(uint16(stored.ChainID), transceiver.AuthorizedSource{
			EmitterAddress: transceiver.UniversalAddress(emitter),
			Validator:      o,
			ProofImageID:   imageID,
		})
	}
	log.WithFields(log.Fields{"sources": len(sources)}).Info("Hydrated the authorized source registry")
	return nil
}

// Decode a hex string into a fixed 32 byte array.
func decode32(in string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(in, "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
