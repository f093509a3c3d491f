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
	"sync"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/binkynet/PinBridge/pkg/model"
)

type periphBridge struct {
	log   zerolog.Logger
	mutex sync.Mutex
	lines map[string]gpio.PinIO
}

// NewPeriphBridge implements the bridge using the periph.io host drivers.
// The line of every pin is a periph pin name (e.g. "GPIO17" or "P1_11").
func NewPeriphBridge(log zerolog.Logger, pins []model.PinConfig) (API, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "Failed to initialize periph host")
	}
	return newPeriphBridge(log, pins, gpioreg.ByName)
}

// newPeriphBridge resolves all lines using the given lookup.
func newPeriphBridge(log zerolog.Logger, pins []model.PinConfig, byName func(string) gpio.PinIO) (API, error) {
	lines := make(map[string]gpio.PinIO, len(pins))
	for _, p := range pins {
		line := byName(p.HardwareLine())
		if line == nil {
			return nil, errors.Wrapf(model.ValidationError, "Pin '%s' refers to unknown line '%s'", p.Name, p.HardwareLine())
		}
		lines[p.Name] = line
	}
	return &periphBridge{
		log:   log.With().Str("component", "periph-bridge").Logger(),
		lines: lines,
	}, nil
}

// SetPinByName drives the line of the pin with given name.
func (p *periphBridge) SetPinByName(ctx context.Context, name string, signal bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	actuationsTotal.WithLabelValues(string(TypePeriph)).Inc()
	if err := ctx.Err(); err != nil {
		return maskAny(err)
	}
	line, found := p.lines[name]
	if !found {
		actuationErrorsTotal.WithLabelValues(string(TypePeriph)).Inc()
		return errors.Errorf("No line for pin '%s'", name)
	}
	if err := line.Out(gpio.Level(signal)); err != nil {
		actuationErrorsTotal.WithLabelValues(string(TypePeriph)).Inc()
		return errors.Wrapf(err, "Out[%s] failed", name)
	}
	return nil
}

// Close halts all lines.
func (p *periphBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var ae aerr.AggregateError
	for name, line := range p.lines {
		if err := line.Halt(); err != nil {
			ae.Add(errors.Wrapf(err, "Halt[%s] failed", name))
		}
	}
	return ae.AsError()
}
