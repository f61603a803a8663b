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
	"sync/atomic"
)

// A structure utilized for keeping track of various metrics. Currently, mostly used in testing.
type Metrics struct {
	TransitionsApplied    uint64 // Number of proof verified transitions we successfully applied.
	ManualTransitions     uint64 // Number of privileged manual transitions applied.
	ProofConfirmations    uint64 // Number of confirmations raised on the proof channel.
	AttestedConfirmations uint64 // Number of confirmations raised on the attested channel.
	RejectedTransitions   uint64 // Number of transitions rejected before the proof was even checked.
	RejectedAttestations  uint64 // Number of attested messages rejected at intake.
}

// Wrapper function to increment applied transitions. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementTransitionsApplied(inc uint64) {
	atomic.AddUint64(&m.TransitionsApplied, inc)
}

// Wrapper function to increment manual transitions. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementManualTransitions(inc uint64) {
	atomic.AddUint64(&m.ManualTransitions, inc)
}

// Wrapper function to increment proof channel confirmations. If we want to use mutexes later we can easily
// update all occurrences here.
func (m *Metrics) IncrementProofConfirmations(inc uint64) {
	atomic.AddUint64(&m.ProofConfirmations, inc)
}

// Wrapper function to increment attested channel confirmations. If we want to use mutexes later we can easily
// update all occurrences here.
func (m *Metrics) IncrementAttestedConfirmations(inc uint64) {
	atomic.AddUint64(&m.AttestedConfirmations, inc)
}

// Wrapper function to increment rejected transitions. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementRejectedTransitions(inc uint64) {
	atomic.AddUint64(&m.RejectedTransitions, inc)
}

// Wrapper function to increment rejected attestations. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementRejectedAttestations(inc uint64) {
	atomic.AddUint64(&m.RejectedAttestations, inc)
}
