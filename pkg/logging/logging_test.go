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

package logging

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binkynet/PinBridge/pkg/mqtt"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("failed")
}

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter(&a, failingWriter{}, &b)
	n, err := w.Write([]byte("hello"))
	assert.Error(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())
}

type fakeMQTT struct {
	mutex    sync.Mutex
	messages []interface{}
	topics   []string
}

func (f *fakeMQTT) Publish(ctx context.Context, msg interface{}, topic string, qos mqtt.QoS) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.messages = append(f.messages, msg)
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakeMQTT) Subscribe(ctx context.Context, topic string, qos mqtt.QoS, cb mqtt.MessageHandler) error {
	return nil
}

func (f *fakeMQTT) Close() error { return nil }

func TestMQTTWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := &fakeMQTT{}
	w := NewMQTTWriter(ctx)

	// Disabled writer drops lines
	w.Write([]byte("dropped\n"))

	w.SetDestination("pinbridge/logs", svc)
	w.Enable(true)
	buf := []byte("line 1\n")
	_, err := w.Write(buf)
	require.NoError(t, err)
	// Caller may reuse its buffer
	copy(buf, "xxxxxx\n")

	assert.Eventually(t, func() bool {
		svc.mutex.Lock()
		defer svc.mutex.Unlock()
		return len(svc.messages) == 1
	}, time.Second*3, time.Millisecond*10)
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	assert.Equal(t, logMsg{Message: "line 1"}, svc.messages[0])
	assert.Equal(t, "pinbridge/logs", svc.topics[0])
}
