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

import (
	"strings"

	"github.com/pkg/errors"
)

// PinConfig holds the configuration of a single controllable line.
type PinConfig struct {
	// Unique name of the pin (e.g. "D13", "LED3_R")
	Name string `json:"name" yaml:"name"`
	// If set, the line is ON when it is electrically LOW.
	ActiveLow bool `json:"active_low" yaml:"active_low"`
	// Hardware line identifier used by the bridge.
	// Its meaning depends on the type of bridge (BCM number, periph pin name).
	// When empty, bridges that need it fall back to the pin name.
	Line string `json:"line,omitempty" yaml:"line,omitempty"`
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (p PinConfig) Validate() error {
	if p.Name == "" {
		return errors.Wrap(ValidationError, "Name is empty")
	}
	if strings.TrimSpace(p.Name) != p.Name {
		return errors.Wrapf(ValidationError, "Name '%s' has leading or trailing whitespace", p.Name)
	}
	return nil
}

// HardwareLine returns the line identifier to use for the bridge.
func (p PinConfig) HardwareLine() string {
	if p.Line != "" {
		return p.Line
	}
	return p.Name
}

// DefaultPins returns the built-in pin table of the board.
// The digital and analog header pins are active-high,
// the on-board RGB leds are active-low.
func DefaultPins() []PinConfig {
	var pins []PinConfig
	// JDIGITAL
	for _, name := range []string{"D21", "D20", "D13", "D12", "D11", "D10", "D9", "D8",
		"D7", "D6", "D5", "D4", "D3", "D2", "D1", "D0"} {
		pins = append(pins, PinConfig{Name: name})
	}
	// JANALOG
	for _, name := range []string{"A0", "A1", "A2", "A3", "A4", "A5"} {
		pins = append(pins, PinConfig{Name: name})
	}
	// Status leds
	for _, name := range []string{"LED3_R", "LED3_G", "LED3_B", "LED4_R", "LED4_G", "LED4_B"} {
		pins = append(pins, PinConfig{Name: name, ActiveLow: true})
	}
	return pins
}
