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
package loghelper

import (
	log "github.com/sirupsen/logrus"
)

// A simple helper function that will help wrap slot related messages.
func LogSlot(slot uint64) *log.Entry {
	return log.WithFields(log.Fields{
		"slot": slot,
	})
}

// A simple helper function that will help wrap slot and root related messages.
func LogSlotRoot(slot uint64, root string) *log.Entry {
	return log.WithFields(log.Fields{
		"slot": slot,
		"root": root,
	})
}

// A simple helper function that will help wrap slot related error messages.
func LogSlotError(slot uint64, err error) *log.Entry {
	return log.WithFields(log.Fields{
		"slot": slot,
		"err":  err,
	})
}
