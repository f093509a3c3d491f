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

package payload

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/binkynet/PinBridge/pkg/model"
)

var (
	maskAny = errors.WithStack
)

// Normalize converts a loosely typed state value into a logical boolean.
// Numbers are truncated toward zero, any non-zero result is ON.
// Strings are matched case insensitive against on/true/1 and off/false/0.
func Normalize(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return normalizeString(v, value)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i != 0, nil
		}
		f, err := v.Float64()
		if err != nil {
			return false, invalidState(value)
		}
		return normalizeFloat(f, value)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float(), value)
	case reflect.String:
		return normalizeString(rv.String(), value)
	}
	return false, invalidState(value)
}

func normalizeString(s string, value interface{}) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, invalidState(value)
}

func normalizeFloat(f float64, value interface{}) (bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false, invalidState(value)
	}
	return math.Trunc(f) != 0, nil
}

func invalidState(value interface{}) error {
	return errors.Wrapf(model.InvalidStateError, "Invalid state value: %#v", value)
}
