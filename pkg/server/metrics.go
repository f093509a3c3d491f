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
	"github.com/pkg/errors"

	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "server"
)

var (
	// Duration of HTTP requests per route
	httpRequestDuration = metrics.MustRegisterHistogramVec(subSystem,
		"http_request_duration_seconds",
		"Duration of HTTP requests per route",
		"route", "method", "code")
	// Current number of websocket clients
	websocketClientsGauge = metrics.MustRegisterGauge(subSystem,
		"websocket_clients",
		"Current number of websocket clients")
	// Total number of frames received from websocket clients per event
	websocketFramesTotal = metrics.MustRegisterCounterVec(subSystem,
		"websocket_frames_total",
		"Total number of frames received from websocket clients per event",
		"event")

	maskAny = errors.WithStack
)
