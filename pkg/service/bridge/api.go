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

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/mqtt"
)

// API of the bridge, the hardware that drives the physical lines
// of all registered pins.
// Signals passed to the bridge are electrical levels, polarity
// has already been applied.
type API interface {
	// Drive the line of the pin with given name to the given level.
	SetPinByName(ctx context.Context, name string, signal bool) error
	// Close all lines
	Close() error
}

// Type of bridge
type Type string

const (
	TypeVirtual     Type = "virtual"
	TypeRaspberryPi Type = "rpi"
	TypePeriph      Type = "periph"
	TypeMQTT        Type = "mqtt"
)

// Config of the bridge to create
type Config struct {
	Type Type
	// Pins to drive
	Pins []model.PinConfig
	// MQTT connection, only used for TypeMQTT
	MQTTService mqtt.Service
	// Topic prefix of command topics, only used for TypeMQTT
	TopicPrefix string
}

// New creates a bridge of the configured type.
func New(log zerolog.Logger, cfg Config) (API, error) {
	switch cfg.Type {
	case TypeVirtual, "":
		return NewVirtualBridge(log), nil
	case TypeRaspberryPi:
		return NewRaspberryPiBridge(log, cfg.Pins)
	case TypePeriph:
		return NewPeriphBridge(log, cfg.Pins)
	case TypeMQTT:
		return NewMQTTBridge(log, cfg.MQTTService, cfg.TopicPrefix, cfg.Pins)
	default:
		return nil, errors.Wrapf(model.ValidationError, "Unknown bridge type '%s'", cfg.Type)
	}
}
