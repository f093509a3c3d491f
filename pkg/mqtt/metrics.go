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

package mqtt

import (
	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "mqtt"
)

var (
	// 1 when connected to the broker, 0 otherwise
	mqttConnectedGauge = metrics.MustRegisterGauge(subSystem,
		"connected",
		"1 when connected to the MQTT broker")
	// Total number of published messages
	mqttPublishTotal = metrics.MustRegisterCounter(subSystem,
		"publish_total",
		"Total number of published messages")
	// Total number of failed publications
	mqttPublishErrorsTotal = metrics.MustRegisterCounter(subSystem,
		"publish_errors_total",
		"Total number of failed publications")
	// Total number of received messages
	mqttReceivedTotal = metrics.MustRegisterCounter(subSystem,
		"received_total",
		"Total number of received messages")
)
