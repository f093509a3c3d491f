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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	b, err := EncodePayload("ON")
	require.NoError(t, err)
	assert.Equal(t, "ON", string(b))

	b, err = EncodePayload([]byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	b, err = EncodePayload(map[string]interface{}{"name": "D13", "state": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"D13","state":true}`, string(b))

	_, err = EncodePayload(func() {})
	assert.Error(t, err)
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "ON", FormatBool(true))
	assert.Equal(t, "OFF", FormatBool(false))
}

func TestJoinTopic(t *testing.T) {
	assert.Equal(t, "pinbridge/D13/command", JoinTopic("pinbridge/", "/D13", "command"))
	assert.Equal(t, "a/b", JoinTopic("", "a", "", "b/"))
}

func TestNewServiceRequiresBroker(t *testing.T) {
	_, err := NewService(zerolog.Nop(), Config{})
	assert.Error(t, err)
}
