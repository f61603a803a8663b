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
//go:build !race
// +build !race

package shutdown_test

import (
	"context"
	"os"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/r3labs/sse"
	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/internal/boot"
	"github.com/cerc-io/beacon-consensus-oracle/internal/shutdown"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/gracefulshutdown"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/tracker"
)

var (
	testSettings = boot.Settings{
		Db: boot.DbSettings{
			Hostname:   "localhost",
			Port:       8076,
			Name:       "oracle_testing",
			Username:   "vdbm",
			Password:   "password",
			DriverName: "PGX",
		},
		RootSource: boot.EndpointSettings{ConnectionProtocol: "http", Address: "localhost", Port: 5052},
		Verifier:   boot.EndpointSettings{ConnectionProtocol: "http", Address: "localhost", Port: 9548},
		Transport:  boot.EndpointSettings{ConnectionProtocol: "http", Address: "localhost", Port: 9549},
		Sink:       boot.EndpointSettings{ConnectionProtocol: "http", Address: "localhost", Port: 9550},

		GenesisTime:    0,
		SecondsPerSlot: 12,
		SlotsPerEpoch:  32,
		RetentionSlots: 8191,

		InitialJustifiedEpoch: 2,
		InitialJustifiedRoot:  "0x1111111111111111111111111111111111111111111111111111111111111111",
		InitialFinalizedEpoch: 1,
		InitialFinalizedRoot:  "0x2222222222222222222222222222222222222222222222222222222222222222",

		TransitionImageID:   "0x0101010101010101010101010101010101010101010101010101010101010101",
		PermissibleTimespan: 86400,
		TrustedChainID:      7,
		TrustedEmitter:      "0x0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e",

		LocalChainID: 1,
	}
	relayAddress                         = "localhost"
	relayPort                            = 9551
	maxWaitSecondsShutdown time.Duration = time.Duration(1) * time.Second
	app                    *boot.Application
	tr                     *tracker.Tracker
	err                    error
	ctx                    context.Context
	notifierCh             chan os.Signal
)

var _ = Describe("Shutdown", func() {
	BeforeEach(func() {
		ctx = context.Background()
		app, err = boot.BootApplicationWithRetry(ctx, testSettings)
		Expect(err).To(BeNil())
		tr = tracker.CreateTracker(app.Oracle, app.Transceiver, "http", relayAddress, relayPort)
		notifierCh = make(chan os.Signal, 1)
	})

	Describe("Run Shutdown Function for the event tracker,", Label("integration"), func() {
		Context("When Channels are empty,", func() {
			It("Should Shutdown Successfully.", func() {
				go func() {
					log.Debug("Starting shutdown chan")
					err = shutdown.ShutdownServices(ctx, notifierCh, maxWaitSecondsShutdown, app.Db, tr)
					log.Debug("We have completed the shutdown...")
					Expect(err).ToNot(HaveOccurred())
				}()
			})
		})
		Context("When the Channels are not empty,", func() {
			It("Should try to clear them and shutdown gracefully.", func() {
				shutdownCh := make(chan bool)
				go func() {
					log.Debug("Starting shutdown chan")
					err = shutdown.ShutdownServices(ctx, notifierCh, maxWaitSecondsShutdown, app.Db, tr)
					log.Debug("We have completed the shutdown...")
					Expect(err).ToNot(HaveOccurred())
					shutdownCh <- true
				}()

				messageAddCh := make(chan bool)
				go func() {
					log.Debug("Adding messages to Channels")
					tr.TransitionFeed.MessagesCh <- &sse.Event{}
					tr.AttestedFeed.MessagesCh <- &sse.Event{}
					tr.InclusionFeed.MessagesCh <- &sse.Event{}
					log.Debug("Message adding complete")
					messageAddCh <- true
				}()

				go func() {
					<-messageAddCh
					log.Debug("Calling SIGTERM")
					notifierCh <- syscall.SIGTERM
					log.Debug("Reading messages from channel")
					<-tr.TransitionFeed.MessagesCh
					<-tr.AttestedFeed.MessagesCh
					<-tr.InclusionFeed.MessagesCh
				}()
				<-shutdownCh

			})
			It("Should try to clear them, if it can't, shutdown within a given time frame.", func() {
				shutdownCh := make(chan bool)
				go func() {
					log.Debug("Starting shutdown chan")
					err = shutdown.ShutdownServices(ctx, notifierCh, maxWaitSecondsShutdown, app.Db, tr)
					log.Debug("We have completed the shutdown...")
					Expect(err).To(MatchError(gracefulshutdown.TimeoutErr(maxWaitSecondsShutdown.String())))
					shutdownCh <- true
				}()

				go func() {
					log.Debug("Adding messages to Channels")
					tr.TransitionFeed.MessagesCh <- &sse.Event{}
					tr.AttestedFeed.MessagesCh <- &sse.Event{}
					tr.InclusionFeed.MessagesCh <- &sse.Event{}
					log.Debug("Message adding complete")
					log.Debug("Calling SIGTERM")
					notifierCh <- syscall.SIGTERM
				}()

				<-shutdownCh
			})
		})
	})
})
