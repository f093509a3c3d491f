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
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// QoS is the quality of service level of a message.
type QoS byte

const (
	QosAtMostOnce  QoS = 0
	QosAtLeastOnce QoS = 1
	QosExactlyOnce QoS = 2
	QosDefault         = QosAtLeastOnce
)

// MessageHandler is called for every message received on a subscription.
type MessageHandler func(topic string, payload []byte)

// Service is a connection to an MQTT broker.
type Service interface {
	// Publish the given message on the given topic.
	// Strings and byte slices are sent as is, everything else is encoded as JSON.
	Publish(ctx context.Context, msg interface{}, topic string, qos QoS) error
	// Subscribe to the given topic.
	// The subscription is restored after a reconnect.
	Subscribe(ctx context.Context, topic string, qos QoS, cb MessageHandler) error
	// Close the connection
	Close() error
}

// Config of the MQTT connection
type Config struct {
	// Address of the broker (host:port)
	BrokerAddress string
	// Client ID used to connect
	ClientID string
}

type subscription struct {
	qos QoS
	cb  MessageHandler
}

type service struct {
	log           zerolog.Logger
	client        mqttapi.Client
	mutex         sync.Mutex
	subscriptions map[string]subscription
}

const (
	keepAlive      = 5 * time.Second
	connectTimeout = 5 * time.Second
)

// NewService creates a connection to the configured broker.
// Connecting is retried in the background, so the broker does not have
// to be available when this is called.
func NewService(log zerolog.Logger, cfg Config) (Service, error) {
	if cfg.BrokerAddress == "" {
		return nil, errors.New("BrokerAddress is empty")
	}
	s := &service{
		log:           log.With().Str("component", "mqtt").Logger(),
		subscriptions: make(map[string]subscription),
	}
	broker := cfg.BrokerAddress
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts := mqttapi.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(s.onConnect)
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		mqttConnectedGauge.Set(0)
		s.log.Warn().Err(err).Msg("Lost connection to MQTT broker")
	})
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	s.client = mqttapi.NewClient(opts)
	s.client.Connect()
	return s, nil
}

// onConnect restores all subscriptions.
func (s *service) onConnect(c mqttapi.Client) {
	mqttConnectedGauge.Set(1)
	s.log.Info().Msg("Connected to MQTT broker")
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for topic, sub := range s.subscriptions {
		c.Subscribe(topic, byte(sub.qos), wrapHandler(sub.cb))
	}
}

// Publish the given message on the given topic.
func (s *service) Publish(ctx context.Context, msg interface{}, topic string, qos QoS) error {
	payload, err := EncodePayload(msg)
	if err != nil {
		return maskAny(err)
	}
	token := s.client.Publish(topic, byte(qos), false, payload)
	if err := waitToken(ctx, token); err != nil {
		mqttPublishErrorsTotal.Inc()
		return errors.Wrapf(err, "Failed to publish to '%s'", topic)
	}
	mqttPublishTotal.Inc()
	return nil
}

// Subscribe to the given topic.
func (s *service) Subscribe(ctx context.Context, topic string, qos QoS, cb MessageHandler) error {
	s.mutex.Lock()
	s.subscriptions[topic] = subscription{qos: qos, cb: cb}
	s.mutex.Unlock()

	token := s.client.Subscribe(topic, byte(qos), wrapHandler(cb))
	if err := waitToken(ctx, token); err != nil {
		return errors.Wrapf(err, "Failed to subscribe to '%s'", topic)
	}
	return nil
}

// Close the connection
func (s *service) Close() error {
	s.client.Disconnect(250)
	mqttConnectedGauge.Set(0)
	return nil
}

func wrapHandler(cb MessageHandler) mqttapi.MessageHandler {
	return func(c mqttapi.Client, m mqttapi.Message) {
		mqttReceivedTotal.Inc()
		cb(m.Topic(), m.Payload())
	}
}

// waitToken waits until the given token is completed or the context is canceled.
func waitToken(ctx context.Context, token mqttapi.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EncodePayload converts a message into the bytes sent to the broker.
func EncodePayload(msg interface{}) ([]byte, error) {
	switch v := msg.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to encode payload")
	}
	return encoded, nil
}

// FormatBool formats a bool as ON/OFF.
func FormatBool(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

// JoinTopic joins topic levels with a single separator.
func JoinTopic(parts ...string) string {
	var trimmed []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, "/")
}

var (
	maskAny = errors.WithStack
)
