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

package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/events"
)

// Service is the part of the pin service used by the UI.
type Service interface {
	HandleToggle(ctx context.Context, raw interface{}) (model.StateUpdate, error)
	Snapshot() model.Snapshot
	Pins() []model.PinConfig
	StartedAt() time.Time
}

// EventSource provides a stream of broadcast events.
type EventSource interface {
	Listen(ctx context.Context, bufferSize int) <-chan events.Event
}

// UI serves the operator console over SSH.
type UI struct {
	log     zerolog.Logger
	service Service
	events  EventSource
}

const (
	sessionEventBufferSize = 64
)

// New creates a new UI.
func New(log zerolog.Logger, service Service, events EventSource) *UI {
	return &UI{
		log:     log.With().Str("component", "ui").Logger(),
		service: service,
		events:  events,
	}
}

// Handler creates the model for a new SSH session.
// The session receives events until it is closed.
func (u *UI) Handler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := s.Pty()
	u.log.Info().
		Str("user", s.User()).
		Str("remote", s.RemoteAddr().String()).
		Msg("New console session")
	listen := func() <-chan events.Event {
		ctx := s.Context()
		if ctx.Err() != nil {
			return nil
		}
		return u.events.Listen(ctx, sessionEventBufferSize)
	}
	root := NewRoot(u.service, listen, pty.Term, pty.Window.Width, pty.Window.Height)
	return root, []tea.ProgramOption{tea.WithAltScreen()}
}
