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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service"
	"github.com/binkynet/PinBridge/pkg/service/bridge"
	"github.com/binkynet/PinBridge/pkg/service/events"
)

type fixedBridgeStatus struct{}

func (fixedBridgeStatus) Healthy() bool { return false }
func (fixedBridgeStatus) State() string { return "open" }

func newTestServer(t *testing.T, withStatus bool) (*httptest.Server, *bridge.VirtualBridge) {
	log := zerolog.Nop()
	hub := events.NewHub(log)
	b := bridge.NewVirtualBridge(log)
	svc, err := service.NewService(service.Config{}, service.Dependencies{
		Logger:      log,
		Registry:    model.DefaultRegistry(),
		Bridge:      b,
		Broadcaster: hub,
	})
	require.NoError(t, err)
	deps := Dependencies{
		Logger:  log,
		Service: svc,
		Events:  hub,
	}
	if withStatus {
		deps.BridgeStatus = fixedBridgeStatus{}
	}
	s, err := New(Config{}, deps)
	require.NoError(t, err)
	ts := httptest.NewServer(s.NewHTTPHandler())
	t.Cleanup(ts.Close)
	return ts, b
}

func getJSON(t *testing.T, url string, result interface{}) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(result))
}

func TestNewRequiresService(t *testing.T) {
	_, err := New(Config{}, Dependencies{Logger: zerolog.Nop()})
	assert.True(t, model.IsValidation(err))
}

func TestIndex(t *testing.T) {
	ts, _ := newTestServer(t, false)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestGetStatesAndPins(t *testing.T) {
	ts, _ := newTestServer(t, false)

	var snap model.Snapshot
	getJSON(t, ts.URL+"/states", &snap)
	assert.Len(t, snap.States, 28)
	assert.NotEmpty(t, snap.Timestamp)

	var pins []PinInfo
	getJSON(t, ts.URL+"/api/pins", &pins)
	require.Len(t, pins, 28)
	assert.Contains(t, pins, PinInfo{Name: "LED3_R", ActiveLow: true})
	assert.Contains(t, pins, PinInfo{Name: "D13", ActiveLow: false})
}

func TestPostToggle(t *testing.T) {
	tests := []struct {
		Name    string
		Body    string
		Failure error
		Status  int
		Kind    string
		Message string
	}{
		{"ok", `{"name":"D13","state":"on"}`, nil, http.StatusOK, "", ""},
		{"literal", `{'name': 'LED3_R', 'state': True}`, nil, http.StatusOK, "", ""},
		{"parse", `not a payload`, nil, http.StatusBadRequest, "parse", ""},
		{"unknown-pin", `{"name":"Z99","state":"on"}`, nil, http.StatusNotFound, "unknown_pin", "Pin toggle error: Unknown Pin 'Z99'"},
		{"invalid-state", `{"name":"D13","state":"maybe"}`, nil, http.StatusBadRequest, "invalid_state", `Pin toggle error: Invalid state value: "maybe"`},
		{"actuation", `{"name":"D13","state":"on"}`, errors.New("bus down"), http.StatusBadGateway, "actuation", ""},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			ts, b := newTestServer(t, false)
			b.SetFailure(test.Failure)
			resp, err := http.Post(ts.URL+"/api/toggle", "application/json", strings.NewReader(test.Body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, test.Status, resp.StatusCode)
			if test.Status == http.StatusOK {
				var update model.StateUpdate
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&update))
				assert.True(t, update.State)

				var snap model.Snapshot
				getJSON(t, ts.URL+"/states", &snap)
				assert.True(t, snap.States[update.Name])
				return
			}
			var result ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, test.Kind, result.Kind)
			assert.True(t, strings.HasPrefix(result.Error, "Pin toggle error: "), result.Error)
			if test.Message != "" {
				assert.Equal(t, test.Message, result.Error)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	ts, _ := newTestServer(t, false)
	var status Status
	getJSON(t, ts.URL+"/api/status", &status)
	assert.Equal(t, 28, status.Pins)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.BridgeState)
	assert.NotEmpty(t, status.StartedAt)

	ts, _ = newTestServer(t, true)
	getJSON(t, ts.URL+"/api/status", &status)
	assert.False(t, status.Healthy)
	assert.Equal(t, "open", status.BridgeState)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, false)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(errors.Wrap(model.ParseError, "x")))
	assert.Equal(t, http.StatusBadRequest, statusForError(errors.Wrap(model.InvalidStateError, "x")))
	assert.Equal(t, http.StatusNotFound, statusForError(errors.Wrap(model.UnknownPinError, "x")))
	assert.Equal(t, http.StatusBadGateway, statusForError(errors.Wrap(model.ActuationError, "x")))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("other")))
}

// readFrame reads frames until one of the given kind arrives.
func readFrame(t *testing.T, conn *websocket.Conn, kind string) map[string]interface{} {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var frame struct {
			Event string                 `json:"event"`
			Data  map[string]interface{} `json:"data"`
		}
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Event == kind {
			return frame.Data
		}
	}
}

func TestWebSocketToggle(t *testing.T) {
	ts, b := newTestServer(t, false)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	welcome := readFrame(t, conn, model.EventPinStates)
	states, ok := welcome["states"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, states, 28)

	require.NoError(t, conn.WriteJSON(Frame{
		Event: model.EventPinToggle,
		Data:  map[string]interface{}{"name": "LED4_G", "state": 1},
	}))
	update := readFrame(t, conn, model.EventPinStateUpdate)
	assert.Equal(t, "LED4_G", update["name"])
	assert.Equal(t, true, update["state"])

	signal, found := b.Signal("LED4_G")
	assert.True(t, found)
	assert.False(t, signal)
}

func TestWebSocketError(t *testing.T) {
	ts, _ := newTestServer(t, false)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn, model.EventPinStates)

	require.NoError(t, conn.WriteJSON(Frame{
		Event: model.EventPinToggle,
		Data:  `{"name": "Z99", "state": "on"}`,
	}))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Event == model.EventError {
			assert.Equal(t, "Pin toggle error: Unknown Pin 'Z99'", frame.Data)
			return
		}
	}
}

func TestWebSocketMalformedFrame(t *testing.T) {
	ts, b := newTestServer(t, false)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readFrame(t, conn, model.EventPinStates)

	expectError := func(prefix string) {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var frame Frame
			require.NoError(t, conn.ReadJSON(&frame))
			if frame.Event == model.EventError {
				msg, ok := frame.Data.(string)
				require.True(t, ok)
				assert.True(t, strings.HasPrefix(msg, prefix), msg)
				return
			}
		}
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	expectError("Invalid frame: ")

	require.NoError(t, conn.WriteJSON(Frame{Event: "pin_explode", Data: nil}))
	expectError("Unknown event 'pin_explode'")

	// Connection stays usable
	require.NoError(t, conn.WriteJSON(Frame{
		Event: model.EventPinToggle,
		Data:  map[string]interface{}{"name": "D2", "state": "on"},
	}))
	update := readFrame(t, conn, model.EventPinStateUpdate)
	assert.Equal(t, "D2", update["name"])
	assert.Equal(t, []bridge.Call{{Name: "D2", Signal: true}}, b.Calls())
}

func TestDecodeFrame(t *testing.T) {
	frame, err := decodeFrame([]byte(`{"event":"pin_toggle","data":{"name":"D1","state":2.5}}`))
	require.NoError(t, err)
	assert.Equal(t, model.EventPinToggle, frame.Event)
	data := frame.Data.(map[string]interface{})
	assert.Equal(t, json.Number("2.5"), data["state"])

	_, err = decodeFrame([]byte(`{not json`))
	assert.Error(t, err)
}
