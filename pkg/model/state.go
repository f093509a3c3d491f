// Copyright 2026 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package model

import "time"

// Names of events exchanged with listeners.
const (
	// Inbound request to change the state of a pin
	EventPinToggle = "pin_toggle"
	// Outbound notification of a changed logical pin state
	EventPinStateUpdate = "pin_state_update"
	// Outbound notification of a failed toggle
	EventError = "error"
	// Outbound full snapshot, sent to new listeners
	EventPinStates = "pin_states"
)

// StateUpdate is broadcast after a pin has been toggled.
// State is always the logical state, never the electrical one.
type StateUpdate struct {
	Name      string `json:"name"`
	State     bool   `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Snapshot is a point in time view of all logical pin states.
type Snapshot struct {
	Timestamp string          `json:"timestamp"`
	States    map[string]bool `json:"states"`
}

// FormatTimestamp formats the given time as ISO-8601 in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
