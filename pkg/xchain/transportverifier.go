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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
	"github.com/cerc-io/beacon-consensus-oracle/pkg/oracle"
)

// The endpoint on the guardian transport that checks attested message signatures.
var VerifyAttestedEndpoint = "/transport/v1/verify"

// The request body sent to the guardian transport.
type attestedRequest struct {
	Message string `json:"message"`
}

// The response body returned by the guardian transport.
type attestedResponse struct {
	Valid          bool   `json:"valid"`
	Reason         string `json:"reason"`
	EmitterChainID uint16 `json:"emitter_chain_id"`
	EmitterAddress string `json:"emitter_address"`
	Payload        string `json:"payload"`
}

// A client that delegates attested message verification to the guardian transport.
type TransportVerifier struct {
	endpoint string
	client   *http.Client
}

// A function to create the transport verifier client.
func CreateTransportVerifier(connectionProtocol string, address string, port int) *TransportVerifier {
	return &TransportVerifier{
		endpoint: fmt.Sprintf("%s://%s:%d%s", connectionProtocol, address, port, VerifyAttestedEndpoint),
		client:   &http.Client{},
	}
}

// VerifyAttested asks the guardian transport to check the signatures on a raw
// attested message. On success it returns the verified envelope.
func (tv *TransportVerifier) VerifyAttested(raw []byte) (oracle.AttestedEnvelope, bool, string) {
	body, err := json.Marshal(attestedRequest{Message: "0x" + hex.EncodeToString(raw)})
	if err != nil {
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	resp, err := tv.client.Post(tv.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		loghelper.LogEndpoint(tv.endpoint).WithFields(log.Fields{"err": err}).Error("Unable to reach the guardian transport")
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	defer resp.Body.Close()
	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return oracle.AttestedEnvelope{}, false, fmt.Sprintf("guardian transport returned a %d status code", resp.StatusCode)
	}
	var ar attestedResponse
	if err := json.Unmarshal(rawBody, &ar); err != nil {
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	if !ar.Valid {
		return oracle.AttestedEnvelope{}, false, ar.Reason
	}
	emitter, err := decodeHex32(ar.EmitterAddress)
	if err != nil {
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	payload, err := hex.DecodeString(strings.TrimPrefix(ar.Payload, "0x"))
	if err != nil {
		return oracle.AttestedEnvelope{}, false, err.Error()
	}
	return oracle.AttestedEnvelope{
		EmitterChainID: ar.EmitterChainID,
		EmitterAddress: emitter,
		Payload:        payload,
	}, true, ""
}

// Decode a hex string into a fixed 32 byte array.
func decodeHex32(in string) ([32]byte, error) {
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
