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

// This package provides clients for the external collaborators of the oracle:
// the proof verification sidecar, the guardian transport, and the delivery sink.

package xchain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

// The endpoint on the verification sidecar that checks a receipt against an image ID and claim.
var VerifyProofEndpoint = "/verifier/v1/verify"

var (
	ProofRejectedMsg = "the verification sidecar rejected the proof"
	ErrProofRejected = errors.New(ProofRejectedMsg)
)

// The request body sent to the verification sidecar.
type verifyRequest struct {
	Proof   string `json:"proof"`
	ImageID string `json:"image_id"`
	Claim   string `json:"claim"`
}

// The response body returned by the verification sidecar.
type verifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// A client that delegates proof verification to an external sidecar service.
type ProofVerifier struct {
	endpoint string
	client   *http.Client
}

// A function to create the proof verifier client.
func CreateProofVerifier(connectionProtocol string, address string, port int) *ProofVerifier {
	return &ProofVerifier{
		endpoint: fmt.Sprintf("%s://%s:%d%s", connectionProtocol, address, port, VerifyProofEndpoint),
		client:   &http.Client{},
	}
}

// Verify sends the proof to the sidecar and returns an error unless it vouches
// for the proof under the given image ID and claim.
func (pv *ProofVerifier) Verify(proof []byte, imageID [32]byte, claim [32]byte) error {
	body, err := json.Marshal(verifyRequest{
		Proof:   "0x" + hex.EncodeToString(proof),
		ImageID: "0x" + hex.EncodeToString(imageID[:]),
		Claim:   "0x" + hex.EncodeToString(claim[:]),
	})
	if err != nil {
		return err
	}
	resp, err := pv.client.Post(pv.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		loghelper.LogEndpoint(pv.endpoint).WithFields(log.Fields{"err": err}).Error("Unable to reach the verification sidecar")
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		loghelper.LogEndpoint(pv.endpoint).WithFields(log.Fields{
			"returnedStatus": resp.StatusCode,
		}).Error("The verification sidecar returned an unexpected status")
		return fmt.Errorf("verification sidecar returned a %d status code", resp.StatusCode)
	}
	var vr verifyResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return err
	}
	if !vr.Valid {
		loghelper.LogReason(vr.Reason).Warn(ProofRejectedMsg)
		return ErrProofRejected
	}
	return nil
}

// A small helper which ensures the sidecar is reachable before we boot.
func (pv *ProofVerifier) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pv.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := pv.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
