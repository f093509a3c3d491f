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

package bridge

import (
	"context"
	"strconv"
	"sync"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinBridge/pkg/model"
)

type piBridge struct {
	log     zerolog.Logger
	mutex   sync.Mutex
	lines   map[string]int
	outputs map[string]gpio.OutputPin
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's.
// The line of every pin must be its BCM GPIO number.
// Polarity is handled by the caller, so lines are opened active-high.
func NewRaspberryPiBridge(log zerolog.Logger, pins []model.PinConfig) (API, error) {
	lines, err := parseBCMLines(pins)
	if err != nil {
		return nil, maskAny(err)
	}
	return &piBridge{
		log:     log.With().Str("component", "rpi-bridge").Logger(),
		lines:   lines,
		outputs: make(map[string]gpio.OutputPin),
	}, nil
}

// parseBCMLines maps every pin name to its GPIO number.
func parseBCMLines(pins []model.PinConfig) (map[string]int, error) {
	lines := make(map[string]int, len(pins))
	for _, p := range pins {
		nr, err := strconv.Atoi(p.HardwareLine())
		if err != nil || nr < 0 {
			return nil, errors.Wrapf(model.ValidationError, "Pin '%s' has no valid GPIO number '%s'", p.Name, p.HardwareLine())
		}
		lines[p.Name] = nr
	}
	return lines, nil
}

// SetPinByName drives the GPIO line of the pin with given name.
// The line is opened as output on first use.
func (p *piBridge) SetPinByName(ctx context.Context, name string, signal bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	actuationsTotal.WithLabelValues(string(TypeRaspberryPi)).Inc()
	if err := ctx.Err(); err != nil {
		return maskAny(err)
	}
	nr, found := p.lines[name]
	if !found {
		actuationErrorsTotal.WithLabelValues(string(TypeRaspberryPi)).Inc()
		return errors.Errorf("No GPIO line for pin '%s'", name)
	}
	if out, found := p.outputs[name]; found {
		if err := out.Write(signal); err != nil {
			actuationErrorsTotal.WithLabelValues(string(TypeRaspberryPi)).Inc()
			return errors.Wrapf(err, "Write[%s] failed", name)
		}
		return nil
	}
	activeLow := false
	out, err := gpio.Output(nr, activeLow, signal)
	if err != nil {
		actuationErrorsTotal.WithLabelValues(string(TypeRaspberryPi)).Inc()
		return errors.Wrapf(err, "Output[%s] failed", name)
	}
	p.log.Debug().Str("pin", name).Int("gpio", nr).Msg("Opened GPIO output")
	p.outputs[name] = out
	return nil
}

func (p *piBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.outputs = make(map[string]gpio.OutputPin)
	return nil
}
