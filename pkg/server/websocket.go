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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/events"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsPingInterval   = (wsPongTimeout * 9) / 10
	wsEventQueueSize = 64
	wsMaxFrameSize   = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from the same host, but clients on the local
	// network may use another host name.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is a single message exchanged over a websocket.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// handleWebSocket upgrades the connection and serves a single client.
func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written an error response
		s.Logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return nil
	}
	websocketClientsGauge.Inc()
	defer websocketClientsGauge.Dec()

	log := s.Logger.With().Str("remote", c.Request().RemoteAddr).Logger()
	log.Debug().Msg("Websocket client connected")
	defer log.Debug().Msg("Websocket client disconnected")

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	// Subscribe before taking the snapshot, so no update can fall in between.
	ch := s.Events.Listen(ctx, wsEventQueueSize)

	// Replies go to this client only
	replies := make(chan Frame, wsEventQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, conn, ch, replies)
		// Unblock the reader
		cancel()
		conn.Close()
	}()
	s.readLoop(ctx, conn, replies)
	cancel()
	<-done
	return nil
}

// writeLoop sends the welcome snapshot followed by all events and replies
// until the context is canceled or a write fails.
// When the event channel is closed (listener fell behind) the connection
// is closed, the client reconnects and receives a fresh snapshot.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, ch <-chan events.Event, replies <-chan Frame) {
	if err := writeFrame(conn, Frame{Event: model.EventPinStates, Data: s.Service.Snapshot()}); err != nil {
		return
	}
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	var filter events.StaleFilter
	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(wsWriteTimeout)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case e, ok := <-ch:
			if !ok {
				s.Logger.Warn().Msg("Websocket client fell behind, closing connection")
				deadline := time.Now().Add(wsWriteTimeout)
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"), deadline)
				return
			}
			if !filter.Accept(e) {
				continue
			}
			if err := writeFrame(conn, Frame{Event: e.Kind, Data: e.Payload}); err != nil {
				s.Logger.Debug().Err(err).Msg("Failed to write websocket frame")
				return
			}
		case frame := <-replies:
			if err := writeFrame(conn, frame); err != nil {
				s.Logger.Debug().Err(err).Msg("Failed to write websocket frame")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop handles inbound frames until the connection fails.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, replies chan<- Frame) {
	conn.SetReadLimit(wsMaxFrameSize)
	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Debug().Err(err).Msg("Websocket read failed")
			}
			return
		}
		frame, err := decodeFrame(msg)
		if err != nil {
			s.Logger.Debug().Err(err).Msg("Malformed websocket frame")
			reply(ctx, replies, "Invalid frame: "+errors.Cause(err).Error())
			continue
		}
		websocketFramesTotal.WithLabelValues(frame.Event).Inc()
		switch frame.Event {
		case model.EventPinToggle:
			// Failures are broadcast as error events by the service.
			s.Service.HandleToggle(ctx, frame.Data)
		default:
			s.Logger.Debug().Str("event", frame.Event).Msg("Unknown websocket event")
			reply(ctx, replies, "Unknown event '"+frame.Event+"'")
		}
	}
}

// reply queues an error frame for the client of this connection.
func reply(ctx context.Context, replies chan<- Frame, message string) {
	select {
	case replies <- Frame{Event: model.EventError, Data: message}:
	case <-ctx.Done():
	}
}

// decodeFrame decodes a frame, keeping numbers as json.Number.
func decodeFrame(msg []byte) (Frame, error) {
	var frame Frame
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	if err := dec.Decode(&frame); err != nil {
		return Frame{}, maskAny(err)
	}
	return frame, nil
}

func writeFrame(conn *websocket.Conn, frame Frame) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return maskAny(conn.WriteJSON(frame))
}
