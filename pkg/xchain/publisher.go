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
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

// The endpoint on the guardian transport that accepts outbound envelopes.
var PublishEndpoint = "/transport/v1/publish"

// The request body for publishing an envelope.
type publishRequest struct {
	RecipientChainID uint16 `json:"recipient_chain_id"`
	Payload          string `json:"payload"`
	Finality         uint8  `json:"finality"`
}

// The response body for publishing an envelope.
type publishResponse struct {
	MessageID uint64 `json:"message_id"`
}

// A client that hands outbound envelopes to the guardian transport for attestation.
type Publisher struct {
	endpoint string
	client   *http.Client
}

// A function to create the publisher client.
func CreatePublisher(connectionProtocol string, address string, port int) *Publisher {
	return &Publisher{
		endpoint: fmt.Sprintf("%s://%s:%d%s", connectionProtocol, address, port, PublishEndpoint),
		client:   &http.Client{},
	}
}

// Publish submits an encoded envelope and returns the transport assigned message ID.
func (p *Publisher) Publish(ctx context.Context, recipientChainID uint16, payload []byte, finality uint8) (uint64, error) {
	body, err := json.Marshal(publishRequest{
		RecipientChainID: recipientChainID,
		Payload:          "0x" + hex.EncodeToString(payload),
		Finality:         finality,
	})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		loghelper.LogEndpoint(p.endpoint).WithFields(log.Fields{"err": err}).Error("Unable to reach the guardian transport")
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("guardian transport returned a %d status code", resp.StatusCode)
	}
	var pr publishResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return 0, err
	}
	return pr.MessageID, nil
}
