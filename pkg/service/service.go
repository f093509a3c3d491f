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

package service

import (
	"context"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/bridge"
	"github.com/binkynet/PinBridge/pkg/service/payload"
	"github.com/binkynet/PinBridge/pkg/service/state"
	"github.com/binkynet/PinBridge/pkg/tracing"
)

// Service keeps the logical state of all pins in sync with the hardware.
type Service interface {
	// Run the service until the given context is cancelled.
	Run(ctx context.Context) error
	// HandleToggle processes a single pin toggle event.
	// On success the new state of the pin is returned and broadcast,
	// on failure an error event is broadcast and the error is returned.
	HandleToggle(ctx context.Context, raw interface{}) (model.StateUpdate, error)
	// Snapshot returns the logical state of all pins.
	Snapshot() model.Snapshot
	// Pins returns the configuration of all registered pins.
	Pins() []model.PinConfig
	// StartedAt returns the time the service was created.
	StartedAt() time.Time
}

// Broadcaster delivers events to all listeners.
type Broadcaster interface {
	Publish(kind string, payload interface{})
}

type Config struct {
	// Upper bound for a single hardware call (0 means no bound)
	ActuationTimeout time.Duration
	// If set, all lines are driven to their OFF level when the service starts
	SyncOnStart bool
}

type Dependencies struct {
	Logger      zerolog.Logger
	Registry    *model.Registry
	Bridge      bridge.API
	Broadcaster Broadcaster
	// Clock used for timestamps. Defaults to time.Now
	Clock func() time.Time
}

type service struct {
	Config
	Dependencies

	store     *state.Store
	locks     map[string]*semaphore.Weighted
	startedAt time.Time
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	if deps.Registry == nil {
		return nil, errors.Wrap(model.ValidationError, "Registry is missing")
	}
	if deps.Bridge == nil {
		return nil, errors.Wrap(model.ValidationError, "Bridge is missing")
	}
	if deps.Broadcaster == nil {
		return nil, errors.Wrap(model.ValidationError, "Broadcaster is missing")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	names := deps.Registry.Names()
	s := &service{
		Config:       conf,
		Dependencies: deps,
		store:        state.NewStore(names),
		locks:        make(map[string]*semaphore.Weighted, len(names)),
		startedAt:    deps.Clock(),
	}
	for _, name := range names {
		s.locks[name] = semaphore.NewWeighted(1)
		pinStateGauge.WithLabelValues(name).Set(0)
	}
	return s, nil
}

// Run the service until the given context is cancelled.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	defer s.Bridge.Close()

	if s.SyncOnStart {
		if err := s.syncHardware(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to bring all lines in sync")
		} else {
			log.Info().Msg("All lines in sync")
		}
	}

	<-ctx.Done()
	return nil
}

// syncHardware drives every line to the level of its current logical state.
func (s *service) syncHardware(ctx context.Context) error {
	var ae aerr.AggregateError
	for _, name := range s.Registry.Names() {
		sem := s.locks[name]
		if err := sem.Acquire(ctx, 1); err != nil {
			return maskAny(err)
		}
		signal := s.Registry.HardwareSignal(name, s.store.Get(name))
		ae.Add(s.actuate(ctx, name, signal))
		sem.Release(1)
	}
	return ae.AsError()
}

// StartedAt returns the time the service was created.
func (s *service) StartedAt() time.Time {
	return s.startedAt
}

// Pins returns the configuration of all registered pins.
func (s *service) Pins() []model.PinConfig {
	return s.Registry.Pins()
}

// Snapshot returns the logical state of all pins.
func (s *service) Snapshot() model.Snapshot {
	snapshotsTotal.Inc()
	return model.Snapshot{
		Timestamp: model.FormatTimestamp(s.Clock()),
		States:    s.store.SnapshotAll(),
	}
}

// HandleToggle processes a single pin toggle event.
func (s *service) HandleToggle(ctx context.Context, raw interface{}) (model.StateUpdate, error) {
	id := ulid.Make().String()
	ctx, span := tracing.StartSpan(ctx, "HandleToggle", attribute.String("toggle-id", id))
	defer span.End()
	log := s.Logger.With().Str("toggle-id", id).Logger()

	start := time.Now()
	update, err := s.handleToggle(ctx, log, span, raw)
	toggleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := model.ErrorKind(err)
		toggleErrorsTotal.WithLabelValues(kind).Inc()
		tracing.RecordError(span, err)
		log.Warn().Err(err).Str("kind", kind).Msg("Pin toggle failed")
		s.Broadcaster.Publish(model.EventError, "Pin toggle error: "+model.Describe(err))
		return model.StateUpdate{}, err
	}
	return update, nil
}

func (s *service) handleToggle(ctx context.Context, log zerolog.Logger, span trace.Span, raw interface{}) (model.StateUpdate, error) {
	data, err := payload.Parse(raw)
	if err != nil {
		return model.StateUpdate{}, maskAny(err)
	}
	tracing.Step(span, "parsed")

	rawName := data["name"]
	name, ok := rawName.(string)
	if !ok || !s.Registry.IsKnown(name) {
		return model.StateUpdate{}, errors.Wrapf(model.UnknownPinError, "Unknown Pin '%v'", rawName)
	}
	span.SetAttributes(attribute.String("pin", name))
	tracing.Step(span, "validated")

	logical, err := payload.Normalize(data["state"])
	if err != nil {
		return model.StateUpdate{}, maskAny(err)
	}
	tracing.Step(span, "normalized", attribute.Bool("logical", logical))

	// Store, actuate & broadcast must not interleave with another toggle of this pin
	sem := s.locks[name]
	if err := sem.Acquire(ctx, 1); err != nil {
		return model.StateUpdate{}, errors.Wrapf(err, "Failed to lock pin '%s'", name)
	}
	defer sem.Release(1)

	s.store.Set(name, logical)
	pinStateGauge.WithLabelValues(name).Set(boolToFloat(logical))
	tracing.Step(span, "stored")

	signal := s.Registry.HardwareSignal(name, logical)
	tracing.Step(span, "translated", attribute.Bool("signal", signal))

	if err := s.actuate(ctx, name, signal); err != nil {
		// The store keeps the new logical state
		return model.StateUpdate{}, maskAny(err)
	}
	tracing.Step(span, "actuated")
	log.Info().
		Str("pin", name).
		Msgf("%s -> logical=%s hw=%t", name, onOff(logical), signal)

	update := model.StateUpdate{
		Name:      name,
		State:     logical,
		Timestamp: model.FormatTimestamp(s.Clock()),
	}
	s.Broadcaster.Publish(model.EventPinStateUpdate, update)
	togglesTotal.WithLabelValues(name).Inc()
	tracing.Step(span, "broadcast")
	return update, nil
}

// actuate drives the line of the pin with given name, bounded
// by the configured timeout.
func (s *service) actuate(ctx context.Context, name string, signal bool) error {
	if s.ActuationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ActuationTimeout)
		defer cancel()
	}
	if err := s.Bridge.SetPinByName(ctx, name, signal); err != nil {
		return errors.Wrapf(model.ActuationError, "Failed to set pin '%s' to %t: %s", name, signal, err)
	}
	return nil
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

var (
	maskAny = errors.WithStack
)
