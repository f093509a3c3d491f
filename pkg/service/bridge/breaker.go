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
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker around a bridge.
type BreakerConfig struct {
	// Number of consecutive failures after which the breaker opens
	MaxFailures uint32
	// Time the breaker stays open before it lets a trial call through
	Timeout time.Duration
	// Called when the breaker changes between healthy (closed, half-open) and open
	OnHealthChange func(healthy bool)
}

// Breaker is a bridge that fails fast when the wrapped bridge
// keeps failing.
type Breaker struct {
	log zerolog.Logger
	api API
	cb  *gobreaker.CircuitBreaker[struct{}]
}

var (
	_ API = &Breaker{}
)

// NewBreaker wraps the given bridge in a circuit breaker.
func NewBreaker(log zerolog.Logger, api API, cfg BreakerConfig) *Breaker {
	log = log.With().Str("component", "bridge-breaker").Logger()
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	b := &Breaker{
		log: log,
		api: api,
	}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "bridge",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller that gives up says nothing about the hardware
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Bridge circuit breaker changed state")
			breakerStateGauge.Set(float64(to))
			if cfg.OnHealthChange != nil && (from == gobreaker.StateOpen || to == gobreaker.StateOpen) {
				cfg.OnHealthChange(to != gobreaker.StateOpen)
			}
		},
	})
	return b
}

// SetPinByName passes the call to the wrapped bridge,
// unless the breaker is open.
func (b *Breaker) SetPinByName(ctx context.Context, name string, signal bool) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.api.SetPinByName(ctx, name, signal)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		breakerRejectedTotal.Inc()
		return errors.Wrapf(err, "Bridge unavailable, not setting '%s'", name)
	}
	return err
}

// Healthy returns false when the breaker is open.
func (b *Breaker) Healthy() bool {
	return b.cb.State() != gobreaker.StateOpen
}

// State returns the name of the breaker state.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) Close() error {
	return b.api.Close()
}
