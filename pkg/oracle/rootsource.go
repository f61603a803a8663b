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
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/cerc-io/beacon-consensus-oracle/pkg/loghelper"
)

var (
	RootSourceQueryEndpoint = "/oracle/v1/parent_root" // Endpoint used to probe the root source at a timestamp.
)

// The JSON response of the root source.
type rootResponse struct {
	Data rootData `json:"data"`
}

type rootData struct {
	Root string `json:"root"`
}

// An HTTPRootSource probes a root source, such as a consensus client sidecar
// exposing its short retention parent root buffer, over HTTP.
type HTTPRootSource struct {
	Endpoint string // The base endpoint of the root source, primarily used for logging.
	client   *http.Client
}

var _ RootSource = &HTTPRootSource{}

// A Function to create the HTTPRootSource.
func CreateHTTPRootSource(connectionProtocol string, address string, port int) *HTTPRootSource {
	endpoint := fmt.Sprintf("%s://%s:%d", connectionProtocol, address, port)
	loghelper.LogEndpoint(endpoint).Info("Creating the HTTP root source")
	return &HTTPRootSource{
		Endpoint: endpoint,
		client:   &http.Client{},
	}
}

// ProbeRoot satisfies RootSource. A 404 is a miss, representing a skipped slot,
// not an error.
func (rs *HTTPRootSource) ProbeRoot(ctx context.Context, timestamp uint64) (Root, bool, error) {
	url := fmt.Sprintf("%s%s?timestamp=%d", rs.Endpoint, RootSourceQueryEndpoint, timestamp)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Root{}, false, err
	}

	resp, err := rs.client.Do(req)
	if err != nil {
		loghelper.LogEndpoint(url).Error("Unable to probe the root source")
		return Root{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Root{}, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		loghelper.LogEndpoint(url).WithFields(log.Fields{"returnCode": resp.StatusCode}).Error("Error when probing the root source")
		return Root{}, false, fmt.Errorf("Probing the root source returned a non 2xx status code, code provided: %d", resp.StatusCode)
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return Root{}, false, err
	}

	var parsed rootResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		loghelper.LogEndpoint(url).WithFields(log.Fields{
			"rawMessage": string(body),
			"err":        err,
		}).Error("Unable to unmarshal the root response")
		return Root{}, false, err
	}

	root, err := RootFromHex(parsed.Data.Root)
	if err != nil {
		return Root{}, false, err
	}
	return root, true, nil
}
