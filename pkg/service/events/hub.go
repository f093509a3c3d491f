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

package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-pubsub"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinBridge/pkg/model"
)

// Event is a single notification delivered to all listeners.
type Event struct {
	// Sequence number, increasing with every published event
	Seq uint64
	// Kind of event (e.g. pin_state_update, error)
	Kind string
	// Payload of the event
	Payload interface{}
}

// Hub fans out published events to all registered listeners.
// Delivery is asynchronous, listeners may observe events out of order
// and can use Seq to detect that.
type Hub struct {
	log       zerolog.Logger
	ps        *pubsub.PubSub
	seq       uint64
	mutex     sync.Mutex
	lastID    int
	listeners map[int]func(Event)
}

// NewHub creates a new event hub.
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		log:       log.With().Str("component", "events").Logger(),
		ps:        pubsub.New(),
		listeners: make(map[int]func(Event)),
	}
	h.ps.Sub(h.deliver)
	return h
}

// Publish an event of given kind to all listeners.
func (h *Hub) Publish(kind string, payload interface{}) {
	e := Event{
		Seq:     atomic.AddUint64(&h.seq, 1),
		Kind:    kind,
		Payload: payload,
	}
	eventsPublishedTotal.WithLabelValues(kind).Inc()
	h.log.Debug().
		Uint64("seq", e.Seq).
		Str("kind", kind).
		Msg("Publishing event")
	h.ps.Pub(e)
}

// Subscribe registers a callback that is invoked for every published event.
// Call the returned function to unsubscribe.
func (h *Hub) Subscribe(cb func(Event)) context.CancelFunc {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.lastID++
	id := h.lastID
	h.listeners[id] = cb
	listenersGauge.Set(float64(len(h.listeners)))
	return func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()
		delete(h.listeners, id)
		listenersGauge.Set(float64(len(h.listeners)))
	}
}

// Listen returns a channel that receives all events published
// until the given context is canceled.
// A listener that falls more than bufferSize events behind is dropped:
// its channel is closed, so it can Listen again and resynchronize
// from a fresh snapshot.
func (h *Hub) Listen(ctx context.Context, bufferSize int) <-chan Event {
	ch := make(chan Event, bufferSize)
	var closed bool
	var mutex sync.Mutex
	var cancel context.CancelFunc
	// Hold the lock until cancel is set, the callback may run before Subscribe returns.
	mutex.Lock()
	cancel = h.Subscribe(func(e Event) {
		mutex.Lock()
		defer mutex.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			eventsDroppedTotal.WithLabelValues(e.Kind).Inc()
			listenersOverflowTotal.Inc()
			h.log.Warn().
				Uint64("seq", e.Seq).
				Int("buffer-size", bufferSize).
				Msg("Listener fell behind, closing it")
			closed = true
			close(ch)
			cancel()
		}
	})
	mutex.Unlock()
	go func() {
		<-ctx.Done()
		cancel()
		mutex.Lock()
		defer mutex.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}()
	return ch
}

// deliver is the single subscriber of the underlying pubsub.
func (h *Hub) deliver(e Event) {
	h.mutex.Lock()
	listeners := make([]func(Event), 0, len(h.listeners))
	for _, cb := range h.listeners {
		listeners = append(listeners, cb)
	}
	h.mutex.Unlock()
	for _, cb := range listeners {
		cb(e)
	}
}

// StaleFilter drops pin state updates that are older than an update
// already seen for the same pin.
// It is not safe for concurrent use.
type StaleFilter struct {
	last map[string]uint64
}

// Accept returns true if the given event must be passed on.
func (f *StaleFilter) Accept(e Event) bool {
	update, ok := e.Payload.(model.StateUpdate)
	if !ok || e.Kind != model.EventPinStateUpdate {
		return true
	}
	if f.last == nil {
		f.last = make(map[string]uint64)
	}
	if e.Seq < f.last[update.Name] {
		return false
	}
	f.last[update.Name] = e.Seq
	return true
}
