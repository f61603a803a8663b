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

package xchain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/transceiver"
)

// The endpoint on the downstream application that receives delivered payloads.
var DeliverEndpoint = "/app/v1/deliver"

// The request body for delivering a validated payload.
type deliverRequest struct {
	SourceChainID uint16 `json:"source_chain_id"`
	SenderID      string `json:"sender_id"`
	LocalChainID  uint16 `json:"local_chain_id"`
	Payload       string `json:"payload"`
}

// A client that hands fully validated payloads to the downstream application.
type Sink struct {
	endpoint string
	client   *http.Client
}

// A function to create the sink client.
func CreateSink(connectionProtocol string, address string, port int) *Sink {
	return &Sink{
		endpoint: fmt.Sprintf("%s://%s:%d%s", connectionProtocol, address, port, DeliverEndpoint),
		client:   &http.Client{},
	}
}

// Deliver posts the payload to the downstream application.
func (s *Sink) Deliver(ctx context.Context, sourceChainID uint16, senderID transceiver.UniversalAddress, localChainID uint16, payload []byte) error {
	body, err := json.Marshal(deliverRequest{
		SourceChainID: sourceChainID,
		SenderID:      "0x" + hex.EncodeToString(senderID[:]),
		LocalChainID:  localChainID,
		Payload:       "0x" + hex.EncodeToString(payload),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		loghelper.LogEndpoint(s.endpoint).WithFields(log.Fields{"err": err}).Error("Unable to reach the downstream application")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("downstream application returned a %d status code", resp.StatusCode)
	}
	return nil
}
