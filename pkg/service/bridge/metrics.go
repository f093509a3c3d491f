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

package bridge

import (
	"github.com/pkg/errors"

	"github.com/binkynet/PinBridge/pkg/metrics"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of SetPinByName calls per bridge type
	actuationsTotal = metrics.MustRegisterCounterVec(subSystem,
		"actuations_total",
		"Total number of SetPinByName calls per bridge type",
		"type")
	// Total number of failed SetPinByName calls per bridge type
	actuationErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"actuation_errors_total",
		"Total number of failed SetPinByName calls per bridge type",
		"type")
	// State of the circuit breaker (0=closed, 1=half-open, 2=open)
	breakerStateGauge = metrics.MustRegisterGauge(subSystem,
		"breaker_state",
		"State of the circuit breaker (0=closed, 1=half-open, 2=open)")
	// Total number of calls rejected by the circuit breaker
	breakerRejectedTotal = metrics.MustRegisterCounter(subSystem,
		"breaker_rejected_total",
		"Total number of calls rejected by the circuit breaker")

	maskAny = errors.WithStack
)
