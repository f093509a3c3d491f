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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/mqtt"
)

type mqttBridge struct {
	log         zerolog.Logger
	mqttService mqtt.Service
	topicPrefix string
	lines       map[string]string
}

const (
	mqttPublishTimeout = time.Second
)

// NewMQTTBridge implements the bridge for a remote micro controller
// that listens for commands on MQTT.
// The level of a pin is published as ON/OFF on
// `<topicPrefix>/<line>/command`.
func NewMQTTBridge(log zerolog.Logger, mqttService mqtt.Service, topicPrefix string, pins []model.PinConfig) (API, error) {
	if mqttService == nil {
		return nil, errors.New("mqttService is nil")
	}
	lines := make(map[string]string, len(pins))
	for _, p := range pins {
		lines[p.Name] = p.HardwareLine()
	}
	return &mqttBridge{
		log:         log.With().Str("component", "mqtt-bridge").Logger(),
		mqttService: mqttService,
		topicPrefix: topicPrefix,
		lines:       lines,
	}, nil
}

// CommandTopic returns the topic used to command the given line.
func CommandTopic(topicPrefix, line string) string {
	return mqtt.JoinTopic(topicPrefix, line, "command")
}

// SetPinByName publishes the level of the pin with given name.
func (b *mqttBridge) SetPinByName(ctx context.Context, name string, signal bool) error {
	actuationsTotal.WithLabelValues(string(TypeMQTT)).Inc()
	line, found := b.lines[name]
	if !found {
		actuationErrorsTotal.WithLabelValues(string(TypeMQTT)).Inc()
		return errors.Errorf("No line for pin '%s'", name)
	}
	topic := CommandTopic(b.topicPrefix, line)
	payload := mqtt.FormatBool(signal)
	ctx, cancel := context.WithTimeout(ctx, mqttPublishTimeout)
	defer cancel()
	if err := b.mqttService.Publish(ctx, payload, topic, mqtt.QosDefault); err != nil {
		actuationErrorsTotal.WithLabelValues(string(TypeMQTT)).Inc()
		b.log.Error().Err(err).
			Str("topic", topic).
			Str("payload", payload).
			Msg("Failed to deliver MQTT command in time")
		return maskAny(err)
	}
	return nil
}

func (b *mqttBridge) Close() error {
	return nil
}
