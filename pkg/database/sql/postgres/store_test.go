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
package postgres_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/database/sql/postgres"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
)

var (
	storedRootA, _ = oracle.RootFromHex("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	storedRootB, _ = oracle.RootFromHex("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

var _ = Describe("Store", Label("integration"), func() {

	var (
		ctx   context.Context
		db    *postgres.DB
		store *postgres.OracleStore
		err   error
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err = postgres.NewPostgresDB(postgres.DefaultConfig)
		Expect(err).To(BeNil())
		err = postgres.ApplySchema(ctx, db)
		Expect(err).To(BeNil())
		_, err = db.Exec(ctx, `TRUNCATE oracle.attestations, oracle.canonical_roots, oracle.consensus_state, oracle.authorized_sources`)
		Expect(err).To(BeNil())
		store = postgres.NewOracleStore(db)
	})

	AfterEach(func() {
		db.Close()
	})

	Describe("Confirming a root", func() {
		Context("When both channels confirm the same pair", func() {
			It("Should merge the bits regardless of order.", func() {
				mask, err := store.Confirm(ctx, 5000, storedRootA, oracle.AttestedChannel)
				Expect(err).To(BeNil())
				Expect(mask).To(Equal(oracle.LevelAttestedOnly))

				mask, err = store.Confirm(ctx, 5000, storedRootA, oracle.ProofChannel)
				Expect(err).To(BeNil())
				Expect(mask).To(Equal(oracle.LevelTwoOfTwo))
			})
		})
		Context("When the same channel confirms twice", func() {
			It("Should keep the mask unchanged.", func() {
				_, err := store.Confirm(ctx, 5000, storedRootA, oracle.ProofChannel)
				Expect(err).To(BeNil())
				mask, err := store.Confirm(ctx, 5000, storedRootA, oracle.ProofChannel)
				Expect(err).To(BeNil())
				Expect(mask).To(Equal(oracle.LevelProofOnly))
			})
		})
		Context("When a second root is confirmed for the same slot", func() {
			It("Should keep the first canonical root.", func() {
				_, err := store.Confirm(ctx, 6000, storedRootA, oracle.ProofChannel)
				Expect(err).To(BeNil())
				_, err = store.Confirm(ctx, 6000, storedRootB, oracle.AttestedChannel)
				Expect(err).To(BeNil())

				canonical, found, err := store.CanonicalRoot(ctx, 6000)
				Expect(err).To(BeNil())
				Expect(found).To(BeTrue())
				Expect(canonical).To(Equal(storedRootA))

				// The loser still keeps its own attestation mask.
				mask, err := store.Attestation(ctx, 6000, storedRootB)
				Expect(err).To(BeNil())
				Expect(mask).To(Equal(oracle.LevelAttestedOnly))
			})
		})
	})

	Describe("Reading the attestation state", func() {
		Context("When the pair was never confirmed", func() {
			It("Should provide an empty mask.", func() {
				mask, err := store.Attestation(ctx, 7000, storedRootA)
				Expect(err).To(BeNil())
				Expect(mask).To(Equal(oracle.ConfirmationMask(0)))
			})
		})
		Context("When no root was confirmed for the slot", func() {
			It("Should report no canonical root.", func() {
				_, found, err := store.CanonicalRoot(ctx, 7000)
				Expect(err).To(BeNil())
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("The consensus register", func() {
		Context("When it was never initialized", func() {
			It("Should report that no state exists.", func() {
				_, found, err := store.ConsensusState(ctx)
				Expect(err).To(BeNil())
				Expect(found).To(BeFalse())
			})
		})
		Context("When a state is written and read back", func() {
			It("Should round trip.", func() {
				state := oracle.ConsensusState{
					CurrentJustified: oracle.Checkpoint{Epoch: 3, Root: storedRootA},
					Finalized:        oracle.Checkpoint{Epoch: 2, Root: storedRootB},
				}
				err := store.SetConsensusState(ctx, state)
				Expect(err).To(BeNil())

				read, found, err := store.ConsensusState(ctx)
				Expect(err).To(BeNil())
				Expect(found).To(BeTrue())
				Expect(read).To(Equal(state))
			})
		})
		Context("When the state is replaced", func() {
			It("Should keep only the latest.", func() {
				first := oracle.ConsensusState{
					CurrentJustified: oracle.Checkpoint{Epoch: 3, Root: storedRootA},
					Finalized:        oracle.Checkpoint{Epoch: 2, Root: storedRootB},
				}
				second := oracle.ConsensusState{
					CurrentJustified: oracle.Checkpoint{Epoch: 4, Root: storedRootB},
					Finalized:        oracle.Checkpoint{Epoch: 3, Root: storedRootA},
				}
				Expect(store.SetConsensusState(ctx, first)).To(BeNil())
				Expect(store.SetConsensusState(ctx, second)).To(BeNil())

				read, found, err := store.ConsensusState(ctx)
				Expect(err).To(BeNil())
				Expect(found).To(BeTrue())
				Expect(read).To(Equal(second))
			})
		})
	})

	Describe("The authorized source registry", func() {
		Context("When sources are persisted", func() {
			It("Should provide them all at boot.", func() {
				err := store.SaveAuthorizedSource(ctx, 42, storedRootA.Hex(), storedRootB.Hex())
				Expect(err).To(BeNil())
				err = store.SaveAuthorizedSource(ctx, 7, storedRootB.Hex(), storedRootA.Hex())
				Expect(err).To(BeNil())

				sources, err := store.AuthorizedSources(ctx)
				Expect(err).To(BeNil())
				Expect(sources).To(HaveLen(2))
			})
		})
		Context("When a chain is registered twice", func() {
			It("Should keep the last writer.", func() {
				Expect(store.SaveAuthorizedSource(ctx, 42, storedRootA.Hex(), storedRootA.Hex())).To(BeNil())
				Expect(store.SaveAuthorizedSource(ctx, 42, storedRootB.Hex(), storedRootB.Hex())).To(BeNil())

				sources, err := store.AuthorizedSources(ctx)
				Expect(err).To(BeNil())
				Expect(sources).To(HaveLen(1))
				Expect(sources[0].Emitter).To(Equal(storedRootB.Hex()))
				Expect(sources[0].ProofImageID).To(Equal(storedRootB.Hex()))
			})
		})
	})
})
