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
package tracker_test

import (
	"encoding/hex"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/feed"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/tracker"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
)

var (
	justifiedRoot = "0x1111111111111111111111111111111111111111111111111111111111111111"
	finalizedRoot = "0x2222222222222222222222222222222222222222222222222222222222222222"
	messageDigest = "0x3333333333333333333333333333333333333333333333333333333333333333"
)

func createTransitionMessage() *feed.TransitionMessage {
	return &feed.TransitionMessage{
		PreState: feed.StateMsg{
			CurrentJustified: feed.CheckpointMsg{Epoch: "2", Root: justifiedRoot},
			Finalized:        feed.CheckpointMsg{Epoch: "1", Root: finalizedRoot},
		},
		PostState: feed.StateMsg{
			CurrentJustified: feed.CheckpointMsg{Epoch: "3", Root: finalizedRoot},
			Finalized:        feed.CheckpointMsg{Epoch: "2", Root: justifiedRoot},
		},
		FinalizedSlot: "64",
		Proof:         "0xdeadbeef",
	}
}

func createInclusionMessage() *feed.InclusionMessage {
	envelope, err := transceiver.Envelope{
		SenderID:      transceiver.UniversalFromEth([20]byte{0xaa}),
		RecipientID:   transceiver.UniversalFromEth([20]byte{0xbb}),
		Payload:       []byte{0x01, 0x02},
		SourceChainID: 42,
	}.Encode()
	Expect(err).ToNot(HaveOccurred())
	commitmentID := oracle.EncodeCommitmentID(oracle.CommitmentVersionBeacon, 7000)
	emitter := transceiver.UniversalFromEth([20]byte{0xee})
	return &feed.InclusionMessage{
		CommitmentID: "0x" + hex.EncodeToString(commitmentID[:]),
		Digest:       messageDigest,
		Envelope:     "0x" + hex.EncodeToString(envelope),
		Emitter:      "0x" + hex.EncodeToString(emitter[:]),
		Proof:        "0xfeedface",
	}
}

var _ = Describe("Processevents", func() {
	Describe("Parsing a transition message", func() {
		Context("When the message is well formed", func() {
			It("Should provide the journal and the raw proof.", func() {
				journal, proof, err := tracker.ParseTransitionMessage(createTransitionMessage())
				Expect(err).ToNot(HaveOccurred())
				Expect(journal.FinalizedSlot).To(Equal(uint64(64)))
				Expect(journal.PreState.CurrentJustified.Epoch).To(Equal(uint64(2)))
				Expect(journal.PreState.Finalized.Epoch).To(Equal(uint64(1)))
				Expect(journal.PostState.CurrentJustified.Epoch).To(Equal(uint64(3)))
				Expect(journal.PreState.CurrentJustified.Root.Hex()).To(Equal(justifiedRoot))
				Expect(proof).To(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
			})
		})
		Context("When the finalized slot is not a number", func() {
			It("Should provide an error.", func() {
				msg := createTransitionMessage()
				msg.FinalizedSlot = "sixty-four"
				_, _, err := tracker.ParseTransitionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
		Context("When a checkpoint root is malformed", func() {
			It("Should provide an error.", func() {
				msg := createTransitionMessage()
				msg.PostState.Finalized.Root = "0x1234"
				_, _, err := tracker.ParseTransitionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
		Context("When the proof is not hex", func() {
			It("Should provide an error.", func() {
				msg := createTransitionMessage()
				msg.Proof = "0xzz"
				_, _, err := tracker.ParseTransitionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
	})
	Describe("Parsing an inclusion message", func() {
		Context("When the message is well formed", func() {
			It("Should provide the journal and the raw proof.", func() {
				journal, proof, err := tracker.ParseInclusionMessage(createInclusionMessage())
				Expect(err).ToNot(HaveOccurred())
				Expect(journal.Commitment.Version()).To(Equal(oracle.CommitmentVersionBeacon))
				Expect(journal.Commitment.Slot()).To(Equal(uint64(7000)))
				Expect(journal.Commitment.Digest.Hex()).To(Equal(messageDigest))
				Expect(journal.EmitterAddress).To(Equal(transceiver.UniversalFromEth([20]byte{0xee})))
				Expect(proof).To(Equal([]byte{0xfe, 0xed, 0xfa, 0xce}))

				envelope, err := transceiver.DecodeEnvelope(journal.EncodedEnvelope)
				Expect(err).ToNot(HaveOccurred())
				Expect(envelope.SourceChainID).To(Equal(uint16(42)))
			})
		})
		Context("When the commitment identifier is truncated", func() {
			It("Should provide an error.", func() {
				msg := createInclusionMessage()
				msg.CommitmentID = "0x0002"
				_, _, err := tracker.ParseInclusionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
		Context("When the emitter is malformed", func() {
			It("Should provide an error.", func() {
				msg := createInclusionMessage()
				msg.Emitter = "0xee"
				_, _, err := tracker.ParseInclusionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
		Context("When the envelope is not hex", func() {
			It("Should provide an error.", func() {
				msg := createInclusionMessage()
				msg.Envelope = "not-hex"
				_, _, err := tracker.ParseInclusionMessage(msg)
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
