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
	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "events"
)

var (
	// Total number of published events per kind
	eventsPublishedTotal = metrics.MustRegisterCounterVec(subSystem,
		"published_total",
		"Total number of published events per kind",
		"kind")
	// Total number of events dropped for slow listeners per kind
	eventsDroppedTotal = metrics.MustRegisterCounterVec(subSystem,
		"dropped_total",
		"Total number of events dropped for slow listeners per kind",
		"kind")
	// Total number of listeners closed because they fell behind
	listenersOverflowTotal = metrics.MustRegisterCounter(subSystem,
		"listener_overflows_total",
		"Total number of listeners closed because they fell behind")
	// Current number of listeners
	listenersGauge = metrics.MustRegisterGauge(subSystem,
		"listeners",
		"Current number of listeners")
)
