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

package relay

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/mqtt"
	"github.com/binkynet/PinBridge/pkg/service/events"
	"github.com/binkynet/PinBridge/pkg/service/util"
)

// Toggler processes toggle events.
type Toggler interface {
	HandleToggle(ctx context.Context, raw interface{}) (model.StateUpdate, error)
}

// EventSource provides a stream of broadcast events.
type EventSource interface {
	Listen(ctx context.Context, bufferSize int) <-chan events.Event
}

// Relay exposes the pins on MQTT.
// Toggle requests are accepted on `<prefix>/toggle`, state updates are
// published on `<prefix>/<pin>/state` and errors on `<prefix>/error`.
type Relay interface {
	// Run the relay until the given context is canceled.
	Run(ctx context.Context) error
}

type Config struct {
	TopicPrefix string
}

type Dependencies struct {
	Logger      zerolog.Logger
	MQTTService mqtt.Service
	Toggler     Toggler
	Events      EventSource
}

type relay struct {
	Config
	Dependencies
}

const (
	eventBufferSize = 64
)

// NewRelay creates a new MQTT relay.
func NewRelay(conf Config, deps Dependencies) Relay {
	deps.Logger = deps.Logger.With().Str("component", "relay").Logger()
	return &relay{
		Config:       conf,
		Dependencies: deps,
	}
}

// ToggleTopic returns the topic on which toggle requests are accepted.
func (r *relay) ToggleTopic() string {
	return mqtt.JoinTopic(r.TopicPrefix, "toggle")
}

// Run the relay until the given context is canceled.
func (r *relay) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subscribed := false
		return util.UntilCanceled(ctx, r.Logger, "subscribe to toggle topic", func() error {
			if subscribed {
				<-ctx.Done()
				return nil
			}
			if err := r.MQTTService.Subscribe(ctx, r.ToggleTopic(), mqtt.QosDefault, func(topic string, payload []byte) {
				r.onToggle(ctx, payload)
			}); err != nil {
				return err
			}
			subscribed = true
			r.Logger.Info().Str("topic", r.ToggleTopic()).Msg("Accepting toggles")
			return nil
		})
	})
	g.Go(func() error {
		for {
			r.publishEvents(ctx)
			if ctx.Err() != nil {
				return nil
			}
			r.Logger.Warn().Msg("Relay fell behind on events, listening again")
		}
	})
	return g.Wait()
}

// onToggle processes a toggle request received from MQTT.
func (r *relay) onToggle(ctx context.Context, payload []byte) {
	relayTogglesTotal.Inc()
	if _, err := r.Toggler.HandleToggle(ctx, payload); err != nil {
		// Error has already been broadcast
		r.Logger.Debug().Err(err).Msg("Toggle from MQTT failed")
	}
}

// publishEvents forwards broadcast events to MQTT until the context is canceled
// or the hub drops this listener.
func (r *relay) publishEvents(ctx context.Context) {
	var filter events.StaleFilter
	for e := range r.Events.Listen(ctx, eventBufferSize) {
		if !filter.Accept(e) {
			continue
		}
		var topic string
		var msg interface{}
		switch e.Kind {
		case model.EventPinStateUpdate:
			update, ok := e.Payload.(model.StateUpdate)
			if !ok {
				continue
			}
			topic = mqtt.JoinTopic(r.TopicPrefix, update.Name, "state")
			msg = mqtt.FormatBool(update.State)
		case model.EventError:
			topic = mqtt.JoinTopic(r.TopicPrefix, "error")
			msg = e.Payload
		default:
			continue
		}
		if err := r.MQTTService.Publish(ctx, msg, topic, mqtt.QosDefault); err != nil {
			relayPublishErrorsTotal.Inc()
			r.Logger.Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
		}
	}
}
