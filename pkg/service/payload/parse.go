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
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/binkynet/PinBridge/pkg/model"
)

const (
	// Maximum number of characters of offending input quoted in a parse error.
	maxExcerptLength = 80
)

type inputKind int

const (
	kindMapping inputKind = iota
	kindSequence
	kindText
)

// input is a raw payload classified into one of the supported shapes.
type input struct {
	kind    inputKind
	mapping map[string]interface{}
	items   []interface{}
	text    string
}

// Parse converts a raw inbound payload into a mapping.
// Accepted are mappings with string keys, a single element sequence
// wrapping an accepted payload, UTF-8 bytes and strings holding
// either JSON or a literal expression of a mapping.
func Parse(raw interface{}) (map[string]interface{}, error) {
	in, err := classify(raw)
	if err != nil {
		return nil, maskAny(err)
	}
	if in.kind == kindSequence {
		if len(in.items) != 1 {
			return nil, errors.Wrapf(model.ParseError, "Unsupported payload type: sequence of %d elements", len(in.items))
		}
		if in, err = classify(in.items[0]); err != nil {
			return nil, maskAny(err)
		}
	}
	switch in.kind {
	case kindMapping:
		return in.mapping, nil
	case kindText:
		return parseText(in.text)
	default:
		return nil, errors.Wrap(model.ParseError, "Unsupported payload type: sequence")
	}
}

// classify the given raw payload.
func classify(raw interface{}) (input, error) {
	switch v := raw.(type) {
	case map[string]interface{}:
		return input{kind: kindMapping, mapping: v}, nil
	case map[interface{}]interface{}:
		return input{kind: kindMapping, mapping: stringKeys(v)}, nil
	case []interface{}:
		return input{kind: kindSequence, items: v}, nil
	case string:
		return input{kind: kindText, text: v}, nil
	case []byte:
		return textFromBytes(v)
	case json.RawMessage:
		return textFromBytes(v)
	case nil:
		return input{}, errors.Wrap(model.ParseError, "Unsupported payload type: nil")
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return input{kind: kindMapping, mapping: m}, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Slice {
			return textFromBytes(rv.Bytes())
		}
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return input{kind: kindSequence, items: items}, nil
	case reflect.String:
		return input{kind: kindText, text: rv.String()}, nil
	}
	return input{}, errors.Wrapf(model.ParseError, "Unsupported payload type: %T", raw)
}

func textFromBytes(data []byte) (input, error) {
	if !utf8.Valid(data) {
		return input{}, errors.Wrap(model.ParseError, "Unsupported payload type: bytes are not valid UTF-8")
	}
	return input{kind: kindText, text: string(data)}, nil
}

// parseText decodes the given text as JSON, falling back to a literal expression.
func parseText(text string) (map[string]interface{}, error) {
	s := strings.TrimSpace(text)
	if v, ok := decodeJSON(s); ok {
		if m, ok := asMapping(v); ok {
			return m, nil
		}
	} else if v, ok := decodeLiteral(s); ok {
		if m, ok := asMapping(v); ok {
			return m, nil
		}
	}
	return nil, errors.Wrapf(model.ParseError, "Unsupported string payload: %s...", excerpt(s))
}

func decodeJSON(s string) (interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}

// decodeLiteral decodes a literal expression of a mapping, a list or a tuple.
// Single quoted strings and True/False are accepted.
func decodeLiteral(s string) (interface{}, bool) {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		inner = strings.TrimSuffix(inner, ",")
		s = "[" + inner + "]"
	}
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var v interface{}
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

// asMapping returns the given decoded value as mapping.
// A single element sequence holding a mapping is unwrapped.
func asMapping(v interface{}) (map[string]interface{}, bool) {
	if items, ok := v.([]interface{}); ok && len(items) == 1 {
		v = items[0]
	}
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		return stringKeys(m), true
	}
	return nil, false
}

func stringKeys(m map[interface{}]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[fmt.Sprint(k)] = v
	}
	return result
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= maxExcerptLength {
		return s
	}
	return string([]rune(s)[:maxExcerptLength])
}
