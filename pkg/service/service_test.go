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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/bridge"
)

type published struct {
	Kind    string
	Payload interface{}
}

type recorder struct {
	mutex  sync.Mutex
	events []published
}

func (r *recorder) Publish(kind string, payload interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, published{Kind: kind, Payload: payload})
}

func (r *recorder) Events() []published {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]published(nil), r.events...)
}

var testTime = time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, conf Config) (Service, *bridge.VirtualBridge, *recorder) {
	b := bridge.NewVirtualBridge(zerolog.Nop())
	r := &recorder{}
	s, err := NewService(conf, Dependencies{
		Logger:      zerolog.Nop(),
		Registry:    model.DefaultRegistry(),
		Bridge:      b,
		Broadcaster: r,
		Clock:       func() time.Time { return testTime },
	})
	require.NoError(t, err)
	return s, b, r
}

func TestInitialSnapshot(t *testing.T) {
	s, _, _ := newTestService(t, Config{})
	snap := s.Snapshot()
	assert.Equal(t, "2025-03-01T12:30:00Z", snap.Timestamp)
	assert.Len(t, snap.States, 28)
	for name, v := range snap.States {
		assert.False(t, v, name)
	}
}

func TestToggleActiveLow(t *testing.T) {
	s, b, r := newTestService(t, Config{})
	update, err := s.HandleToggle(context.Background(), map[string]interface{}{"name": "LED3_R", "state": "on"})
	require.NoError(t, err)
	assert.Equal(t, model.StateUpdate{Name: "LED3_R", State: true, Timestamp: "2025-03-01T12:30:00Z"}, update)

	assert.True(t, s.Snapshot().States["LED3_R"])
	assert.Equal(t, []bridge.Call{{Name: "LED3_R", Signal: false}}, b.Calls())
	assert.Equal(t, []published{{Kind: model.EventPinStateUpdate, Payload: update}}, r.Events())
}

func TestToggleActiveHigh(t *testing.T) {
	s, b, r := newTestService(t, Config{})
	_, err := s.HandleToggle(context.Background(), `{"name":"D13","state":1}`)
	require.NoError(t, err)
	_, err = s.HandleToggle(context.Background(), []byte(`[{"name":"D13","state":"OFF"}]`))
	require.NoError(t, err)

	assert.False(t, s.Snapshot().States["D13"])
	assert.Equal(t, []bridge.Call{{Name: "D13", Signal: true}, {Name: "D13", Signal: false}}, b.Calls())
	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, true, events[0].Payload.(model.StateUpdate).State)
	assert.Equal(t, false, events[1].Payload.(model.StateUpdate).State)
}

func TestToggleFailures(t *testing.T) {
	tests := []struct {
		Name    string
		Input   interface{}
		IsError func(error) bool
		Message string
	}{
		{"unknown-pin", map[string]interface{}{"name": "Z99", "state": "on"}, model.IsUnknownPin, "Pin toggle error: Unknown Pin 'Z99'"},
		{"missing-name", map[string]interface{}{"state": "on"}, model.IsUnknownPin, "Pin toggle error: Unknown Pin '<nil>'"},
		{"non-string-name", map[string]interface{}{"name": 13, "state": "on"}, model.IsUnknownPin, "Pin toggle error: Unknown Pin '13'"},
		{"invalid-state", map[string]interface{}{"name": "D13", "state": "maybe"}, model.IsInvalidState, `Pin toggle error: Invalid state value: "maybe"`},
		{"parse", "garbage", model.IsParseError, "Pin toggle error: Unsupported string payload: garbage..."},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			s, b, r := newTestService(t, Config{})
			before := s.Snapshot().States
			_, err := s.HandleToggle(context.Background(), test.Input)
			require.Error(t, err)
			assert.True(t, test.IsError(err))

			assert.Equal(t, before, s.Snapshot().States)
			assert.Empty(t, b.Calls())
			assert.Equal(t, []published{{Kind: model.EventError, Payload: test.Message}}, r.Events())
		})
	}
}

func TestToggleActuationFailure(t *testing.T) {
	s, b, r := newTestService(t, Config{})
	b.SetFailure(errors.New("unreachable"))
	_, err := s.HandleToggle(context.Background(), map[string]interface{}{"name": "D5", "state": true})
	require.Error(t, err)
	assert.True(t, model.IsActuation(err))

	// Store keeps the optimistic value
	assert.True(t, s.Snapshot().States["D5"])
	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventError, events[0].Kind)
	assert.Contains(t, events[0].Payload, "Pin toggle error: Failed to set pin 'D5' to true")
	assert.Contains(t, events[0].Payload, "unreachable")
}

type slowBridge struct {
	bridge.API
}

func (b slowBridge) SetPinByName(ctx context.Context, name string, signal bool) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestToggleActuationTimeout(t *testing.T) {
	r := &recorder{}
	s, err := NewService(Config{ActuationTimeout: time.Millisecond * 20}, Dependencies{
		Logger:      zerolog.Nop(),
		Registry:    model.DefaultRegistry(),
		Bridge:      slowBridge{},
		Broadcaster: r,
	})
	require.NoError(t, err)
	_, err = s.HandleToggle(context.Background(), map[string]interface{}{"name": "D5", "state": true})
	assert.True(t, model.IsActuation(err))
}

func TestConcurrentTogglesSamePin(t *testing.T) {
	s, b, r := newTestService(t, Config{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := "off"
			if i%2 == 0 {
				state = "on"
			}
			_, err := s.HandleToggle(context.Background(), fmt.Sprintf(`{"name":"LED4_G","state":"%s"}`, state))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	calls := b.Calls()
	require.Len(t, calls, 50)
	last := calls[len(calls)-1]
	// Last actuation matches the stored logical value (active-low)
	assert.Equal(t, !last.Signal, s.Snapshot().States["LED4_G"])

	// Broadcasts are issued in actuation order
	events := r.Events()
	require.Len(t, events, 50)
	for i, e := range events {
		assert.Equal(t, !calls[i].Signal, e.Payload.(model.StateUpdate).State)
	}
}

func TestConcurrentTogglesDifferentPins(t *testing.T) {
	s, _, _ := newTestService(t, Config{})
	names := model.DefaultRegistry().Names()
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.HandleToggle(context.Background(), map[string]interface{}{"name": name, "state": 1})
			assert.NoError(t, err)
			_ = s.Snapshot()
		}(name)
	}
	wg.Wait()
	for _, name := range names {
		assert.True(t, s.Snapshot().States[name], name)
	}
}

func TestSyncOnStart(t *testing.T) {
	s, b, _ := newTestService(t, Config{SyncOnStart: true})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()
	assert.Eventually(t, func() bool { return len(b.Calls()) == 28 }, time.Second, time.Millisecond*5)
	cancel()
	require.NoError(t, <-done)

	v, _ := b.Signal("LED3_R")
	assert.True(t, v)
	v, _ = b.Signal("D13")
	assert.False(t, v)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(Config{}, Dependencies{})
	assert.True(t, model.IsValidation(err))
}
