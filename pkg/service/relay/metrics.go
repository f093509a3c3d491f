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

package relay

import (
	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "relay"
)

var (
	// Total number of toggle requests received from MQTT
	relayTogglesTotal = metrics.MustRegisterCounter(subSystem,
		"toggles_total",
		"Total number of toggle requests received from MQTT")
	// Total number of events that could not be published
	relayPublishErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"publish_errors_total",
		"Total number of events that could not be published")
)
