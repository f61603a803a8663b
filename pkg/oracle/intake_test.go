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
package oracle_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/testhelpers"
)

// Build an oracle whose transport replays the given envelope.
func createIntakeOracle(ctx context.Context, transport *testhelpers.StubTransportVerifier, initial oracle.ConsensusState) (*oracle.Oracle, *oracle.MemoryStore) {
	store := oracle.NewMemoryStore()
	o, _, err := oracle.CreateOracle(ctx, oracle.Config{
		Schedule:            testSchedule,
		InitialState:        initial,
		TransitionImageID:   testImageID,
		PermissibleTimespan: 86400,
		TrustedChainID:      7,
		TrustedEmitter:      testEmitter,
	}, store, &testhelpers.MapRootSource{}, testhelpers.AcceptAllVerifier{}, transport)
	Expect(err).ToNot(HaveOccurred())
	return o, store
}

var _ = Describe("Intake", func() {

	var (
		ctx     context.Context
		initial oracle.ConsensusState
		root    oracle.Root
	)

	BeforeEach(func() {
		ctx = context.Background()
		initial = oracle.ConsensusState{
			CurrentJustified: oracle.Checkpoint{Epoch: 2, Root: mustRoot("0x00000000000000000000000000000000000000000000000000000000000000a2")},
			Finalized:        oracle.Checkpoint{Epoch: 1, Root: mustRoot("0x00000000000000000000000000000000000000000000000000000000000000a1")},
		}
		root = mustRoot("0x00000000000000000000000000000000000000000000000000000000000000dd")
	})

	Describe("Receiving an attested root", func() {
		Context("When the message originates from the trusted emitter", func() {
			It("Should raise the attested channel for the embedded pair", func() {
				transport := &testhelpers.StubTransportVerifier{
					Envelope: oracle.AttestedEnvelope{
						EmitterChainID: 7,
						EmitterAddress: testEmitter,
						Payload:        oracle.EncodeRootObservation(5000, root),
					},
					Valid: true,
				}
				o, store := createIntakeOracle(ctx, transport, initial)

				Expect(o.ReceiveAttestedRoot(ctx, []byte("raw"))).To(Succeed())

				mask, err := store.Attestation(ctx, 5000, root)
				Expect(err).ToNot(HaveOccurred())
				Expect(mask.Meets(oracle.LevelAttestedOnly)).To(BeTrue())
			})
		})
		Context("When the transport rejects the signatures", func() {
			It("Should fail with the transports reason", func() {
				transport := &testhelpers.StubTransportVerifier{
					Valid:  false,
					Reason: "quorum not reached",
				}
				o, _ := createIntakeOracle(ctx, transport, initial)

				err := o.ReceiveAttestedRoot(ctx, []byte("raw"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(Equal("quorum not reached"))
			})
		})
		Context("When the emitter chain is wrong", func() {
			It("Should reject the message", func() {
				transport := &testhelpers.StubTransportVerifier{
					Envelope: oracle.AttestedEnvelope{
						EmitterChainID: 8,
						EmitterAddress: testEmitter,
						Payload:        oracle.EncodeRootObservation(5000, root),
					},
					Valid: true,
				}
				o, store := createIntakeOracle(ctx, transport, initial)

				Expect(o.ReceiveAttestedRoot(ctx, []byte("raw"))).To(MatchError(oracle.ErrUnauthorizedOrigin))

				mask, err := store.Attestation(ctx, 5000, root)
				Expect(err).ToNot(HaveOccurred())
				Expect(mask).To(Equal(oracle.ConfirmationMask(0)))
			})
		})
		Context("When the emitter address is wrong", func() {
			It("Should reject the message", func() {
				transport := &testhelpers.StubTransportVerifier{
					Envelope: oracle.AttestedEnvelope{
						EmitterChainID: 7,
						EmitterAddress: [32]byte{0xff},
						Payload:        oracle.EncodeRootObservation(5000, root),
					},
					Valid: true,
				}
				o, _ := createIntakeOracle(ctx, transport, initial)

				Expect(o.ReceiveAttestedRoot(ctx, []byte("raw"))).To(MatchError(oracle.ErrUnauthorizedOrigin))
			})
		})
		Context("When the payload has the wrong length", func() {
			It("Should reject the observation", func() {
				transport := &testhelpers.StubTransportVerifier{
					Envelope: oracle.AttestedEnvelope{
						EmitterChainID: 7,
						EmitterAddress: testEmitter,
						Payload:        []byte{0x01, 0x02, 0x03},
					},
					Valid: true,
				}
				o, _ := createIntakeOracle(ctx, transport, initial)

				err := o.ReceiveAttestedRoot(ctx, []byte("raw"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring(oracle.AttestationPayloadLengthError))
			})
		})
	})

	Describe("The dual confirmation lifecycle", func() {
		Context("When a transition and an attestation confirm the same pair", func() {
			It("Should make the root valid at the two of two level", func() {
				transport := &testhelpers.StubTransportVerifier{
					Envelope: oracle.AttestedEnvelope{
						EmitterChainID: 7,
						EmitterAddress: testEmitter,
						Payload:        oracle.EncodeRootObservation(5000, root),
					},
					Valid: true,
				}
				o, store := createIntakeOracle(ctx, transport, initial)

				Expect(o.ReceiveAttestedRoot(ctx, []byte("raw"))).To(Succeed())
				_, err := store.Confirm(ctx, 5000, root, oracle.ProofChannel)
				Expect(err).ToNot(HaveOccurred())

				got, valid, err := o.BlockRoot(ctx, 5000, oracle.LevelTwoOfTwo)
				Expect(err).ToNot(HaveOccurred())
				Expect(valid).To(BeTrue())
				Expect(got).To(Equal(root))
			})
		})
	})
})
