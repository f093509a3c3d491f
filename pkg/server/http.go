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
	"embed"
	"io"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/binkynet/PinBridge/pkg/model"
)

//go:embed static
var staticFiles embed.FS

// maximum size of a toggle request body
const maxToggleBodySize = 64 * 1024

// PinInfo is the public description of a pin.
type PinInfo struct {
	Name      string `json:"name"`
	ActiveLow bool   `json:"active_low"`
}

// Status is the response of the status endpoint.
type Status struct {
	StartedAt   string `json:"started_at"`
	Uptime      string `json:"uptime"`
	Pins        int    `json:"pins"`
	BridgeState string `json:"bridge_state,omitempty"`
	Healthy     bool   `json:"healthy"`
}

// ErrorResponse is returned for a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewHTTPHandler creates the HTTP router of the server.
func (s *Server) NewHTTPHandler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.requestMetrics)

	e.GET("/", s.handleIndex)
	e.GET("/states", s.handleGetStates)
	e.GET("/api/pins", s.handleGetPins)
	e.POST("/api/toggle", s.handleToggle)
	e.GET("/api/status", s.handleGetStatus)
	e.GET("/ws", s.handleWebSocket)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/debug/pprof/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	e.GET("/debug/pprof/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	e.GET("/debug/pprof/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	e.GET("/debug/pprof/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))
	e.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	return e
}

// requestMetrics records the duration of every request.
func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		httpRequestDuration.
			WithLabelValues(c.Path(), c.Request().Method, strconv.Itoa(c.Response().Status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	content, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		return maskAny(err)
	}
	return c.HTMLBlob(http.StatusOK, content)
}

// handleGetStates returns the logical state of all pins.
func (s *Server) handleGetStates(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(http.StatusOK, s.Service.Snapshot())
}

func (s *Server) handleGetPins(c echo.Context) error {
	pins := s.Service.Pins()
	result := make([]PinInfo, 0, len(pins))
	for _, p := range pins {
		result = append(result, PinInfo{Name: p.Name, ActiveLow: p.ActiveLow})
	}
	return c.JSON(http.StatusOK, result)
}

// handleToggle processes a toggle request and returns its result.
// The body may hold any of the supported payload encodings.
func (s *Server) handleToggle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxToggleBodySize))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "other"})
	}
	update, err := s.Service.HandleToggle(c.Request().Context(), body)
	if err != nil {
		return c.JSON(statusForError(err), ErrorResponse{
			Error: "Pin toggle error: " + model.Describe(err),
			Kind:  model.ErrorKind(err),
		})
	}
	return c.JSON(http.StatusOK, update)
}

func (s *Server) handleGetStatus(c echo.Context) error {
	startedAt := s.Service.StartedAt()
	status := Status{
		StartedAt: model.FormatTimestamp(startedAt),
		Uptime:    humanize.RelTime(startedAt, time.Now(), "", ""),
		Pins:      len(s.Service.Pins()),
		Healthy:   true,
	}
	if bs := s.BridgeStatus; bs != nil {
		status.BridgeState = bs.State()
		status.Healthy = bs.Healthy()
	}
	return c.JSON(http.StatusOK, status)
}

// statusForError returns the HTTP status code for a failed toggle.
func statusForError(err error) int {
	switch {
	case model.IsParseError(err), model.IsInvalidState(err):
		return http.StatusBadRequest
	case model.IsUnknownPin(err):
		return http.StatusNotFound
	case model.IsActuation(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
