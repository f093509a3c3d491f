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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinBridge/pkg/model"
)

func TestParseMapping(t *testing.T) {
	m := map[string]interface{}{"name": "D1", "state": "on"}
	result, err := Parse(m)
	require.NoError(t, err)
	assert.Equal(t, m, result)
}

func TestParseEquivalentShapes(t *testing.T) {
	expected := map[string]interface{}{"name": "D1", "state": "on"}
	tests := []struct {
		Name  string
		Input interface{}
	}{
		{"json-text", `{"name":"D1","state":"on"}`},
		{"json-text-whitespace", "  \n{\"name\": \"D1\", \"state\": \"on\"}\t"},
		{"json-bytes", []byte(`{"name":"D1","state":"on"}`)},
		{"raw-message", json.RawMessage(`{"name":"D1","state":"on"}`)},
		{"wrapped-mapping", []interface{}{map[string]interface{}{"name": "D1", "state": "on"}}},
		{"wrapped-text", []interface{}{`{"name":"D1","state":"on"}`}},
		{"wrapped-in-text", `[{"name":"D1","state":"on"}]`},
		{"typed-map", map[string]string{"name": "D1", "state": "on"}},
		{"typed-slice", []map[string]interface{}{{"name": "D1", "state": "on"}}},
		{"literal", `{'name': 'D1', 'state': 'on'}`},
		{"literal-list", `[{'name': 'D1', 'state': 'on'}]`},
		{"literal-tuple", `({'name': 'D1', 'state': 'on'},)`},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			result, err := Parse(test.Input)
			require.NoError(t, err)
			assert.Equal(t, expected, result)
		})
	}
}

func TestParseLiteralBooleans(t *testing.T) {
	result, err := Parse(`{'name': 'LED3_R', 'state': True}`)
	require.NoError(t, err)
	assert.Equal(t, "LED3_R", result["name"])
	assert.Equal(t, true, result["state"])
}

func TestParseJSONNumbers(t *testing.T) {
	result, err := Parse(`{"name":"D2","state":1}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), result["state"])
	on, err := Normalize(result["state"])
	require.NoError(t, err)
	assert.True(t, on)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		Name  string
		Input interface{}
	}{
		{"nil", nil},
		{"int", 42},
		{"empty-text", ""},
		{"garbage", "not a payload"},
		{"json-number", "17"},
		{"json-list", `[1, 2]`},
		{"two-elements", []interface{}{map[string]interface{}{}, map[string]interface{}{}}},
		{"empty-sequence", []interface{}{}},
		{"nested-sequence", []interface{}{[]interface{}{map[string]interface{}{}}}},
		{"invalid-utf8", []byte{'{', 0xff, 0xfe, '}'}},
		{"yaml-block", "name: D1\nstate: on"},
		{"int-key-map", map[int]interface{}{1: "x"}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := Parse(test.Input)
			require.Error(t, err)
			assert.True(t, model.IsParseError(err))
		})
	}
}

func TestParseErrorExcerpt(t *testing.T) {
	long := strings.Repeat("x", 200)
	_, err := Parse(long)
	require.Error(t, err)
	msg := model.Describe(err)
	assert.Equal(t, "Unsupported string payload: "+strings.Repeat("x", 80)+"...", msg)

	_, err = Parse("  short  ")
	assert.Equal(t, "Unsupported string payload: short...", model.Describe(err))
}
