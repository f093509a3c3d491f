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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Configuration holds the pin table of the bridge, as loaded from file.
type Configuration struct {
	// List of pins controlled by the bridge
	Pins []PinConfig `json:"pins" yaml:"pins"`
}

// DefaultConfiguration returns the configuration of the built-in board.
func DefaultConfiguration() Configuration {
	return Configuration{Pins: DefaultPins()}
}

// LoadConfiguration reads a YAML configuration from the given path.
// An empty path results in the default configuration.
func LoadConfiguration(path string) (Configuration, error) {
	if path == "" {
		return DefaultConfiguration(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, errors.Wrapf(err, "Failed to read configuration '%s'", path)
	}
	return ParseConfiguration(data)
}

// ParseConfiguration decodes and validates a YAML configuration.
func ParseConfiguration(data []byte) (Configuration, error) {
	var c Configuration
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Configuration{}, errors.Wrapf(ValidationError, "Invalid configuration: %s", err)
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, maskAny(err)
	}
	return c, nil
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (c Configuration) Validate() error {
	_, err := NewRegistry(c.Pins)
	return err
}

// Registry builds the pin registry of this configuration.
func (c Configuration) Registry() (*Registry, error) {
	return NewRegistry(c.Pins)
}
