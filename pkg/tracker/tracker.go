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

// This package wires the streamed consensus events into the oracle and the
// transceiver.

package tracker

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/feed"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
)

var (
	TransitionTopicEndpoint = "/oracle/v1/events?topics=transition"        // Endpoint used to subscribe to proven state transitions
	AttestedTopicEndpoint   = "/oracle/v1/events?topics=attested_root"     // Endpoint used to subscribe to attested root observations
	InclusionTopicEndpoint  = "/oracle/v1/events?topics=message_inclusion" // Endpoint used to subscribe to message inclusion journals
)

// A struct that ties the event subscriptions to the components that consume them.
type Tracker struct {
	Oracle      *oracle.Oracle           // The consensus oracle driven by the transition and attested feeds.
	Transceiver *transceiver.Transceiver // The message transceiver driven by the inclusion feed.

	TransitionFeed *feed.Feed[feed.TransitionMessage]
	AttestedFeed   *feed.Feed[feed.AttestedMessage]
	InclusionFeed  *feed.Feed[feed.InclusionMessage]
}

// A Function to create the Tracker.
func CreateTracker(o *oracle.Oracle, t *transceiver.Transceiver, connectionProtocol string, relayAddress string, relayPort int) *Tracker {
	log.Info("Creating the event tracker")
	return &Tracker{
		Oracle:         o,
		Transceiver:    t,
		TransitionFeed: feed.CreateFeed[feed.TransitionMessage](connectionProtocol, relayAddress, relayPort, TransitionTopicEndpoint),
		AttestedFeed:   feed.CreateFeed[feed.AttestedMessage](connectionProtocol, relayAddress, relayPort, AttestedTopicEndpoint),
		InclusionFeed:  feed.CreateFeed[feed.InclusionMessage](connectionProtocol, relayAddress, relayPort, InclusionTopicEndpoint),
	}
}

// This function will track the consensus oracle feeds. It subscribes to the
// transition and attested topics and applies each event as it arrives. It
// only returns when the context is cancelled or a feed loop fails.
func (tr *Tracker) TrackOracle(ctx context.Context) error {
	log.Info("We are tracking the transition and attested root topics.")
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tr.TransitionFeed.Capture(gCtx, tr.Oracle.Metrics.IncrementRejectedTransitions)
		return nil
	})
	g.Go(func() error {
		tr.AttestedFeed.Capture(gCtx, tr.Oracle.Metrics.IncrementRejectedAttestations)
		return nil
	})
	g.Go(func() error {
		return tr.handleTransitions(gCtx)
	})
	g.Go(func() error {
		return tr.handleAttestedRoots(gCtx)
	})
	return g.Wait()
}

// This function will track the inclusion journal feed and drive the transceiver
// with it. It only returns when the context is cancelled or the feed loop fails.
func (tr *Tracker) TrackRelay(ctx context.Context) error {
	log.Info("We are tracking the message inclusion topic.")
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tr.InclusionFeed.Capture(gCtx, tr.Transceiver.Metrics.IncrementRejectedMessages)
		return nil
	})
	g.Go(func() error {
		return tr.handleInclusions(gCtx)
	})
	return g.Wait()
}

// Stop the tracker. This closes the subscriptions and drains the channels so no
// event is dropped mid processing.
func (tr *Tracker) StopTracking() error {
	log.Info("We are stopping the event tracker.")
	chOracle := make(chan bool)
	chRelay := make(chan bool)
	go tr.TransitionFeed.Finish(chOracle)
	go tr.AttestedFeed.Finish(chOracle)
	go tr.InclusionFeed.Finish(chRelay)
	<-chOracle
	<-chOracle
	<-chRelay
	return nil
}
