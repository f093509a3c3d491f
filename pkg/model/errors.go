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

package model

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ValidationError is the cause of all configuration validation failures.
	ValidationError = errors.New("validation failed")
	IsValidation    = isErrorFunc(ValidationError)
	// ParseError is the cause of a payload that cannot be decoded into a mapping.
	ParseError   = errors.New("parse error")
	IsParseError = isErrorFunc(ParseError)
	// UnknownPinError is the cause of a toggle for a name that is not registered.
	UnknownPinError = errors.New("unknown pin")
	IsUnknownPin    = isErrorFunc(UnknownPinError)
	// InvalidStateError is the cause of a state value that is not a recognized on/off encoding.
	InvalidStateError = errors.New("invalid state")
	IsInvalidState    = isErrorFunc(InvalidStateError)
	// ActuationError is the cause of a failed (or unreachable) hardware call.
	ActuationError = errors.New("actuation failed")
	IsActuation    = isErrorFunc(ActuationError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

// ErrorKind returns a short name for the kind of the given error.
// Used as metric label and to select HTTP status codes.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsParseError(err):
		return "parse"
	case IsUnknownPin(err):
		return "unknown_pin"
	case IsInvalidState(err):
		return "invalid_state"
	case IsActuation(err):
		return "actuation"
	case IsValidation(err):
		return "validation"
	default:
		return "other"
	}
}

// Describe returns the message of the given error without the
// trailing description of its cause.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if cause := errors.Cause(err); cause != nil && cause != err {
		msg = strings.TrimSuffix(msg, ": "+cause.Error())
	}
	return msg
}
