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
	"github.com/pkg/errors"
)

// Registry is the immutable table of known pins.
// It is built once at startup and only offers read access.
type Registry struct {
	pins  map[string]PinConfig
	names []string
}

// NewRegistry creates a registry from the given pin table.
// The order of the table is kept for Names.
func NewRegistry(pins []PinConfig) (*Registry, error) {
	if len(pins) == 0 {
		return nil, errors.Wrap(ValidationError, "No pins configured")
	}
	r := &Registry{
		pins:  make(map[string]PinConfig, len(pins)),
		names: make([]string, 0, len(pins)),
	}
	for _, p := range pins {
		if err := p.Validate(); err != nil {
			return nil, maskAny(err)
		}
		if _, found := r.pins[p.Name]; found {
			return nil, errors.Wrapf(ValidationError, "Duplicate pin '%s'", p.Name)
		}
		r.pins[p.Name] = p
		r.names = append(r.names, p.Name)
	}
	return r, nil
}

// DefaultRegistry returns a registry for the built-in pin table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultPins())
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the configuration of the pin with given name.
// Return false if not found.
func (r *Registry) Lookup(name string) (PinConfig, bool) {
	p, found := r.pins[name]
	return p, found
}

// IsKnown returns true if a pin with given name is registered.
func (r *Registry) IsKnown(name string) bool {
	_, found := r.pins[name]
	return found
}

// Names returns the names of all pins in table order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Pins returns the configuration of all pins in table order.
func (r *Registry) Pins() []PinConfig {
	result := make([]PinConfig, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.pins[name])
	}
	return result
}

// HardwareSignal translates a logical state of the pin with given name
// into the electrical level to drive.
// Unknown pins are not inverted.
func (r *Registry) HardwareSignal(name string, logical bool) bool {
	if p, found := r.pins[name]; found && p.ActiveLow {
		return !logical
	}
	return logical
}
