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
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/binkynet/PinBridge/pkg/mqtt"
)

// MQTTWriter is a log output that forwards log lines to an MQTT topic.
type MQTTWriter interface {
	io.Writer
	// Enable or disable forwarding
	Enable(enable bool)
	// SetDestination configures where to send log lines to.
	SetDestination(topic string, mqttService mqtt.Service)
}

type mqttLogger struct {
	mutex       sync.Mutex
	queue       chan []byte
	topic       string
	mqttService mqtt.Service
	enable      bool
}

const (
	mqttQueueSize      = 512
	mqttPublishTimeout = time.Second
)

// NewMQTTWriter creates a new MQTT output for logs.
// The MQTT sender is closed when the given context is canceled.
func NewMQTTWriter(ctx context.Context) MQTTWriter {
	l := &mqttLogger{
		queue: make(chan []byte, mqttQueueSize),
	}
	go l.run(ctx)
	return l
}

// Write queues the given log line.
// When the queue is full, the oldest line is dropped.
func (l *mqttLogger) Write(p []byte) (int, error) {
	if len(p) == 0 || !l.isEnabled() {
		return len(p), nil
	}
	msg := append([]byte(nil), p...)
	for attempt := 0; attempt < 10; attempt++ {
		select {
		case l.queue <- msg:
			return len(p), nil
		default:
			// Queue full; Take 1 out and try again
			select {
			case <-l.queue:
			default:
			}
		}
	}
	return len(p), nil
}

func (l *mqttLogger) isEnabled() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.enable
}

func (l *mqttLogger) Enable(enable bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.enable = enable
}

func (l *mqttLogger) SetDestination(topic string, mqttService mqtt.Service) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.topic = topic
	l.mqttService = mqttService
}

type logMsg struct {
	Message string `json:"message"`
}

func (l *mqttLogger) run(ctx context.Context) {
	for {
		l.mutex.Lock()
		mqttService := l.mqttService
		topic := l.topic
		enabled := l.enable
		l.mutex.Unlock()

		if enabled && topic != "" && mqttService != nil {
			select {
			case msg := <-l.queue:
				publishCtx, cancel := context.WithTimeout(ctx, mqttPublishTimeout)
				// Errors are ignored, logging them would feed back into this writer
				mqttService.Publish(publishCtx, logMsg{Message: strings.TrimSpace(string(msg))}, topic, mqtt.QosAtMostOnce)
				cancel()
			case <-ctx.Done():
				return
			}
		} else {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}
