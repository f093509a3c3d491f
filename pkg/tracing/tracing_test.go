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

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetupUnsupported(t *testing.T) {
	_, err := Setup("zipkin")
	assert.Error(t, err)
}

func TestSetupStdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := setup(ExporterStdout, &buf)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "toggle", attribute.String("pin", "D13"))
	Step(span, "parsed")
	RecordError(span, errors.New("boom"))
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"toggle"`)
	assert.Contains(t, buf.String(), "parsed")

	shutdown, err = Setup(ExporterNone)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
