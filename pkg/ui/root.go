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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/events"
)

const (
	maxEventLines = 200
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Root is the model of a single console session.
type Root struct {
	service Service
	listen  func() <-chan events.Event
	events  <-chan events.Event
	filter  *events.StaleFilter
	keys    keyMap

	term    string
	width   int
	height  int
	loadAvg string

	pins      []model.PinConfig
	states    map[string]bool
	cursor    int
	lastError string

	eventLog struct {
		active   bool
		lines    []string
		viewPort viewport.Model
	}
}

var _ tea.Model = Root{}

// NewRoot creates the model of a console session.
// listen is called to (re)start the stream of events, it returns nil
// when the session is over.
func NewRoot(service Service, listen func() <-chan events.Event, term string, width, height int) Root {
	r := Root{
		service: service,
		listen:  listen,
		events:  listen(),
		filter:  &events.StaleFilter{},
		keys:    defaultKeyMap(),
		term:    term,
		width:   width,
		height:  height,
		pins:    service.Pins(),
	}
	r.states = service.Snapshot().States
	return r
}

// Init is the first function that will be called. It returns an optional
// initial command.
func (r Root) Init() tea.Cmd {
	return tea.Batch(waitForEvent(r.events), doReloadCPULoadAvg())
}

// Update is called when a message is received.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case loadAvgMsg:
		r.loadAvg = string(msg)
		return r, doReloadCPULoadAvg()
	case eventMsg:
		r = r.applyEvent(events.Event(msg))
		return r, waitForEvent(r.events)
	case streamClosedMsg:
		// Dropped by the hub, start over from a snapshot
		r.events = r.listen()
		if r.events == nil {
			return r, nil
		}
		r.filter = &events.StaleFilter{}
		r = r.logLine("Event stream interrupted, resynchronized")
		return r, tea.Batch(doSnapshot(r.service), waitForEvent(r.events))
	case snapshotMsg:
		r.states = msg.States
	case toggleResultMsg:
		// Failures arrive as error events
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
		if r.eventLog.active {
			r.eventLog.viewPort.Width = msg.Width
			r.eventLog.viewPort.Height = r.bodyHeight()
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, r.keys.Quit):
			return r, tea.Quit
		case key.Matches(msg, r.keys.Close):
			r.eventLog.active = false
		case key.Matches(msg, r.keys.Events):
			r = r.openEventLog()
		case r.eventLog.active:
			// Keys go to the viewport
		case key.Matches(msg, r.keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, r.keys.Down):
			if r.cursor < len(r.pins)-1 {
				r.cursor++
			}
		case key.Matches(msg, r.keys.Toggle):
			if name, ok := r.selected(); ok {
				cmds = append(cmds, doToggle(r.service, name, !r.states[name]))
			}
		case key.Matches(msg, r.keys.On):
			if name, ok := r.selected(); ok {
				cmds = append(cmds, doToggle(r.service, name, true))
			}
		case key.Matches(msg, r.keys.Off):
			if name, ok := r.selected(); ok {
				cmds = append(cmds, doToggle(r.service, name, false))
			}
		case key.Matches(msg, r.keys.Refresh):
			cmds = append(cmds, doSnapshot(r.service))
		}
	}

	// Handle keyboard and mouse events in the viewport
	if r.eventLog.active {
		var cmd tea.Cmd
		r.eventLog.viewPort, cmd = r.eventLog.viewPort.Update(msg)
		cmds = append(cmds, cmd)
	}

	return r, tea.Batch(cmds...)
}

// View renders the program's UI.
func (r Root) View() string {
	s := r.headerView()
	if r.eventLog.active {
		return s + r.eventLog.viewPort.View()
	}
	var rows []string
	for i, p := range r.pins {
		state := offStyle.Render("OFF")
		if r.states[p.Name] {
			state = onStyle.Render("ON ")
		}
		polarity := ""
		if p.ActiveLow {
			polarity = "active-low"
		}
		row := fmt.Sprintf(" %-8s %s  %s", p.Name, state, polarity)
		if i == r.cursor {
			row = cursorStyle.Render(row)
		}
		rows = append(rows, row)
	}
	s += strings.Join(r.visibleRows(rows), "\n") + "\n"
	if r.lastError != "" {
		s += errorStyle.Render(r.lastError) + "\n"
	}
	s += helpStyle.Render(r.keys.help()) + "\n"
	return s
}

func (r Root) headerView() string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("PinBridge"),
		fmt.Sprintf("  started %s  ", humanize.Time(r.service.StartedAt())),
		r.loadAvg,
	) + "\n"
}

// bodyHeight returns the number of lines available below the header.
func (r Root) bodyHeight() int {
	h := r.height - lipgloss.Height(r.headerView())
	if h < 1 {
		return 1
	}
	return h
}

// visibleRows limits the rows to the window, keeping the cursor visible.
func (r Root) visibleRows(rows []string) []string {
	// Header, error & help lines
	limit := r.height - 4
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	start := 0
	if r.cursor >= limit {
		start = r.cursor - limit + 1
	}
	return rows[start : start+limit]
}

func (r Root) selected() (string, bool) {
	if r.cursor < 0 || r.cursor >= len(r.pins) {
		return "", false
	}
	return r.pins[r.cursor].Name, true
}

// applyEvent updates the model with a broadcast event.
func (r Root) applyEvent(e events.Event) Root {
	if !r.filter.Accept(e) {
		return r
	}
	switch e.Kind {
	case model.EventPinStateUpdate:
		if update, ok := e.Payload.(model.StateUpdate); ok {
			states := make(map[string]bool, len(r.states))
			for k, v := range r.states {
				states[k] = v
			}
			states[update.Name] = update.State
			r.states = states
			r.lastError = ""
			r = r.logLine(fmt.Sprintf("%s %s -> %s", update.Timestamp, update.Name, onOff(update.State)))
		}
	case model.EventError:
		r.lastError = fmt.Sprint(e.Payload)
		r = r.logLine(r.lastError)
	}
	return r
}

func (r Root) logLine(line string) Root {
	lines := append(append([]string(nil), r.eventLog.lines...), line)
	if len(lines) > maxEventLines {
		lines = lines[len(lines)-maxEventLines:]
	}
	r.eventLog.lines = lines
	if r.eventLog.active {
		r.eventLog.viewPort.SetContent(strings.Join(lines, "\n"))
		r.eventLog.viewPort.GotoBottom()
	}
	return r
}

func (r Root) openEventLog() Root {
	r.eventLog.viewPort = viewport.New(r.width, r.bodyHeight())
	r.eventLog.viewPort.YPosition = lipgloss.Height(r.headerView())
	r.eventLog.viewPort.SetContent(strings.Join(r.eventLog.lines, "\n"))
	r.eventLog.viewPort.GotoBottom()
	r.eventLog.active = true
	return r
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

type eventMsg events.Event

type streamClosedMsg struct{}

type snapshotMsg model.Snapshot

type toggleResultMsg struct {
	err error
}

// waitForEvent waits for the next broadcast event.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(e)
	}
}

func doToggle(service Service, name string, state bool) tea.Cmd {
	return func() tea.Msg {
		_, err := service.HandleToggle(context.Background(), map[string]interface{}{
			"name":  name,
			"state": state,
		})
		return toggleResultMsg{err: err}
	}
}

func doSnapshot(service Service) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(service.Snapshot())
	}
}

type loadAvgMsg string

func doReloadCPULoadAvg() tea.Cmd {
	return tea.Tick(time.Second*2, func(t time.Time) tea.Msg {
		content, err := os.ReadFile("/proc/loadavg")
		if err != nil {
			return loadAvgMsg("")
		}
		return loadAvgMsg(strings.TrimSpace(string(content)))
	})
}
