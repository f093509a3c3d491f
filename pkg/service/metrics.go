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
	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "service"
)

var (
	// Total number of successful toggles per pin
	togglesTotal = metrics.MustRegisterCounterVec(subSystem,
		"toggles_total",
		"Total number of successful toggles per pin",
		"pin")
	// Total number of failed toggles per kind of error
	toggleErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"toggle_errors_total",
		"Total number of failed toggles per kind of error",
		"kind")
	// Duration of toggle handling
	toggleDuration = metrics.MustRegisterHistogram(subSystem,
		"toggle_duration_seconds",
		"Duration of toggle handling")
	// Logical state per pin (1=ON)
	pinStateGauge = metrics.MustRegisterGaugeVec(subSystem,
		"pin_state",
		"Logical state per pin (1=ON)",
		"pin")
	// Total number of snapshot queries
	snapshotsTotal = metrics.MustRegisterCounter(subSystem,
		"snapshots_total",
		"Total number of snapshot queries")
)
