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

// This package handles all event subscriptions that utilize SSE.

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/r3labs/sse"
	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	shutdownWaitInterval = time.Duration(200) * time.Millisecond
)

// This interface captures what the events can be for processed event streams.
type ProcessedEvents interface {
	TransitionMessage | AttestedMessage | InclusionMessage
}

// The JSON representation of a checkpoint inside a streamed journal.
type CheckpointMsg struct {
	Epoch string `json:"epoch"`
	Root  string `json:"root"`
}

// The JSON representation of a consensus state inside a streamed journal.
type StateMsg struct {
	CurrentJustified CheckpointMsg `json:"current_justified"`
	Finalized        CheckpointMsg `json:"finalized"`
}

// This struct captures the JSON representation of the transition topic.
type TransitionMessage struct {
	PreState      StateMsg `json:"pre_state"`
	PostState     StateMsg `json:"post_state"`
	FinalizedSlot string   `json:"finalized_slot"`
	Proof         string   `json:"proof"`
}

// This struct captures the JSON representation of the attested_root topic.
type AttestedMessage struct {
	Attestation string `json:"attestation"` // The raw attested message, hex encoded.
}

// This struct captures the JSON representation of the message_inclusion topic.
type InclusionMessage struct {
	CommitmentID string `json:"commitment_id"`
	Digest       string `json:"digest"`
	Envelope     string `json:"envelope"`
	Emitter      string `json:"emitter"`
	Proof        string `json:"proof"`
}

// An object to capture any errors when turning an SSE message to JSON.
type SseError struct {
	Err error
	Msg []byte
}

// A struct to keep track of a subscribed event topic.
type Feed[P ProcessedEvents] struct {
	Endpoint   string          // The url for the subscription. Primarily used for logging
	MessagesCh chan *sse.Event // Contains all the messages from the SSE Channel
	ErrorCh    chan *SseError  // Contains any errors while SSE streaming occurred
	ProcessCh  chan *P         // Used to capture processed data in its proper struct.
	SseClient  *sse.Client     // sse.Client object that is used to interact with the SSE stream
}

// Create all the channels to handle a SSE event topic.
func CreateFeed[P ProcessedEvents](connectionProtocol string, address string, port int, endpoint string) *Feed[P] {
	url := fmt.Sprintf("%s://%s:%d%s", connectionProtocol, address, port, endpoint)
	return &Feed[P]{
		Endpoint:   url,
		MessagesCh: make(chan *sse.Event, 1),
		ErrorCh:    make(chan *SseError),
		ProcessCh:  make(chan *P),
		SseClient: func(url string) *sse.Client {
			loghelper.LogEndpoint(url).Info("Creating SSE client")
			return sse.NewClient(url)
		}(url),
	}
}

// This function will capture all the SSE events for a given Feed object.
// When new messages come in, it will ensure that they are decoded into JSON.
// If any errors occur, it logs the error information.
func (f *Feed[P]) Capture(ctx context.Context, errMetricInc func(uint64)) {
	for {
		err := f.SseClient.SubscribeChanRaw(f.MessagesCh)
		if err != nil {
			loghelper.LogEndpoint(f.Endpoint).WithFields(log.Fields{
				"err": err}).Error("We are unable to subscribe to the SSE endpoint")
			time.Sleep(3 * time.Second)
			continue
		}
		loghelper.LogEndpoint(f.Endpoint).Info("Successfully subscribed to the event stream.")
		break
	}

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-f.MessagesCh:
			// Message can be nil if its a keep-alive message
			if message == nil || len(message.Data) == 0 {
				continue
			}
			log.WithFields(log.Fields{"msg": string(message.Data)}).Debug("We are going to send the following message to be processed.")
			go processMsg(message.Data, f.ProcessCh, f.ErrorCh)
		case sseErr := <-f.ErrorCh:
			loghelper.LogEndpoint(f.Endpoint).WithFields(log.Fields{
				"err": sseErr.Err,
				"msg": string(sseErr.Msg),
			}).Error("Unable to handle event.")
			errMetricInc(1)
		}
	}
}

// This function closes the SSE subscription, but waits until the MessagesCh is empty
func (f *Feed[P]) Finish(finish chan<- bool) {
	loghelper.LogEndpoint(f.Endpoint).Info("Received a close event.")
	f.SseClient.Unsubscribe(f.MessagesCh)
	for len(f.MessagesCh) != 0 || len(f.ProcessCh) != 0 {
		time.Sleep(shutdownWaitInterval)
	}
	loghelper.LogEndpoint(f.Endpoint).Info("Done processing all messages, ready for shutdown")
	finish <- true
}

// Turn the data object into a Struct.
func processMsg[P ProcessedEvents](msg []byte, processCh chan<- *P, errorCh chan<- *SseError) {
	var msgMarshaled P
	err := json.Unmarshal(msg, &msgMarshaled)
	if err != nil {
		loghelper.LogError(err).Error("Unable to parse message")
		errorCh <- &SseError{
			Err: err,
			Msg: msg,
		}
		return
	}
	processCh <- &msgMarshaled
}
