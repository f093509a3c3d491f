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

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Call is a single recorded actuation of the virtual bridge.
type Call struct {
	Name   string
	Signal bool
}

// VirtualBridge implements the bridge without hardware.
// It remembers the last level of every line and records all calls.
type VirtualBridge struct {
	log     zerolog.Logger
	mutex   sync.Mutex
	signals map[string]bool
	calls   []Call
	failure error
}

// NewVirtualBridge implements the bridge for a system without hardware.
func NewVirtualBridge(log zerolog.Logger) *VirtualBridge {
	return &VirtualBridge{
		log:     log.With().Str("component", "virtual-bridge").Logger(),
		signals: make(map[string]bool),
	}
}

// SetPinByName records the given level for the pin with given name.
func (p *VirtualBridge) SetPinByName(ctx context.Context, name string, signal bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.calls = append(p.calls, Call{Name: name, Signal: signal})
	actuationsTotal.WithLabelValues(string(TypeVirtual)).Inc()
	if err := p.failure; err != nil {
		actuationErrorsTotal.WithLabelValues(string(TypeVirtual)).Inc()
		return errors.Wrapf(err, "Failed to set '%s'", name)
	}
	if err := ctx.Err(); err != nil {
		return maskAny(err)
	}
	p.signals[name] = signal
	p.log.Debug().Str("pin", name).Bool("signal", signal).Msg("Set pin")
	return nil
}

// Signal returns the last level set for the pin with given name.
func (p *VirtualBridge) Signal(name string) (bool, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	v, found := p.signals[name]
	return v, found
}

// Calls returns all recorded calls in order.
func (p *VirtualBridge) Calls() []Call {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]Call(nil), p.calls...)
}

// SetFailure makes all subsequent calls fail with the given error.
// Pass nil to recover.
func (p *VirtualBridge) SetFailure(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failure = err
}

func (p *VirtualBridge) Close() error {
	return nil
}
