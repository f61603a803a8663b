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

var _ = Describe("Schedule", func() {

	var (
		ctx      context.Context
		schedule oracle.ChainSchedule
	)

	BeforeEach(func() {
		ctx = context.Background()
		schedule = oracle.ChainSchedule{
			GenesisTime:    0,
			SecondsPerSlot: 12,
			SlotsPerEpoch:  32,
			RetentionSlots: 8191,
		}
	})

	Describe("Mapping wall clock time onto slots", func() {
		Context("With a non zero genesis", func() {
			It("Should offset every slot by the genesis time", func() {
				withGenesis := schedule
				withGenesis.GenesisTime = 1606824023
				Expect(withGenesis.SlotStartTime(0)).To(Equal(uint64(1606824023)))
				Expect(withGenesis.SlotStartTime(10)).To(Equal(uint64(1606824023 + 120)))
			})
		})
		Context("For epochs", func() {
			It("Should place an epoch at its first slots start time", func() {
				Expect(schedule.EpochStartTime(2)).To(Equal(schedule.SlotStartTime(64)))
			})
			It("Should place every slot of an epoch in that epoch", func() {
				Expect(schedule.EpochAtSlot(0)).To(Equal(uint64(0)))
				Expect(schedule.EpochAtSlot(31)).To(Equal(uint64(0)))
				Expect(schedule.EpochAtSlot(32)).To(Equal(uint64(1)))
			})
		})
	})

	Describe("Resolving the root for a slot", func() {
		Context("When the slot produced a block", func() {
			It("Should find it at the next slots timestamp", func() {
				root, err := oracle.RootFromHex("0x00000000000000000000000000000000000000000000000000000000000000aa")
				Expect(err).ToNot(HaveOccurred())
				source := &testhelpers.MapRootSource{Roots: map[uint64]oracle.Root{
					schedule.SlotStartTime(1001): root,
				}}

				found, err := oracle.ResolveRootAtSlot(ctx, source, schedule, 1000, 100000)
				Expect(err).ToNot(HaveOccurred())
				Expect(found).To(Equal(root))
			})
		})
		Context("When the slot was skipped", func() {
			It("Should walk forward to the next produced root", func() {
				root, err := oracle.RootFromHex("0x00000000000000000000000000000000000000000000000000000000000000bb")
				Expect(err).ToNot(HaveOccurred())
				// Slots 1001 and 1002 were skipped, 1003 produced a block.
				source := &testhelpers.MapRootSource{Roots: map[uint64]oracle.Root{
					schedule.SlotStartTime(1003): root,
				}}

				found, err := oracle.ResolveRootAtSlot(ctx, source, schedule, 1000, 100000)
				Expect(err).ToNot(HaveOccurred())
				Expect(found).To(Equal(root))
			})
			It("Should give up once the walk reaches now", func() {
				source := &testhelpers.MapRootSource{Roots: map[uint64]oracle.Root{}}

				_, err := oracle.ResolveRootAtSlot(ctx, source, schedule, 1000, 100000)
				Expect(err).To(MatchError(oracle.ErrNoRootAvailable))
			})
		})
		Context("When the slot left the retention window", func() {
			It("Should fail without probing", func() {
				source := &testhelpers.MapRootSource{Roots: map[uint64]oracle.Root{}}

				// The oldest timestamp still answerable is now minus 8191 slots.
				_, err := oracle.ResolveRootAtSlot(ctx, source, schedule, 1000, 200000)
				Expect(err).To(MatchError(oracle.ErrOutOfRetentionWindow))
			})
			It("Should still serve the slot right at the boundary", func() {
				now := uint64(200000)
				window := schedule.RetentionSlots * schedule.SecondsPerSlot
				boundarySlot := (now - window) / schedule.SecondsPerSlot

				root, err := oracle.RootFromHex("0x00000000000000000000000000000000000000000000000000000000000000cc")
				Expect(err).ToNot(HaveOccurred())
				source := &testhelpers.MapRootSource{Roots: map[uint64]oracle.Root{
					schedule.SlotStartTime(boundarySlot + 1): root,
				}}

				found, err := oracle.ResolveRootAtSlot(ctx, source, schedule, boundarySlot, now)
				Expect(err).ToNot(HaveOccurred())
				Expect(found).To(Equal(root))

				_, err = oracle.ResolveRootAtSlot(ctx, source, schedule, boundarySlot-1, now)
				Expect(err).To(MatchError(oracle.ErrOutOfRetentionWindow))
			})
		})
	})
})
