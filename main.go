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

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"

	"github.com/binkynet/PinBridge/pkg/environment"
	"github.com/binkynet/PinBridge/pkg/logging"
	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/mqtt"
	"github.com/binkynet/PinBridge/pkg/server"
	"github.com/binkynet/PinBridge/pkg/service"
	"github.com/binkynet/PinBridge/pkg/service/bridge"
	"github.com/binkynet/PinBridge/pkg/service/events"
	"github.com/binkynet/PinBridge/pkg/service/relay"
	"github.com/binkynet/PinBridge/pkg/service/util"
	"github.com/binkynet/PinBridge/pkg/tracing"
	"github.com/binkynet/PinBridge/pkg/ui"
)

const (
	projectName            = "PinBridge"
	defaultHTTPPort        = 5000
	defaultGRPCPort        = 5001
	defaultSSHPort         = 5022
	defaultMQTTTopicPrefix = "pinbridge"
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var configPath string
	var serverConf server.Config
	var bridgeType string
	var mqttConf mqtt.Config
	var mqttTopicPrefix string
	var mqttLogTopic string
	var serviceConf service.Config
	var breakerConf bridge.BreakerConfig
	var traceExporter string
	var healthCheck bool

	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVarP(&configPath, "config", "c", "", "Path of YAML pin table (defaults to the built-in board table)")
	pflag.StringVar(&serverConf.Host, "host", "0.0.0.0", "Host address the servers will listen on")
	pflag.IntVar(&serverConf.HTTPPort, "http-port", defaultHTTPPort, "Port the HTTP server will listen on")
	pflag.IntVar(&serverConf.GRPCPort, "grpc-port", defaultGRPCPort, "Port the GRPC health server will listen on (0 disables)")
	pflag.IntVar(&serverConf.SSHPort, "ssh-port", defaultSSHPort, "Port the SSH console will listen on (0 disables)")
	pflag.StringVar(&serverConf.SSHHostKeyPath, "ssh-host-key", ".ssh/id_ed25519", "Path of the SSH host key")
	pflag.StringVarP(&bridgeType, "bridge", "b", "", "Type of bridge to use (virtual|rpi|periph|mqtt), detected when empty")
	pflag.StringVar(&mqttConf.BrokerAddress, "mqtt-broker", "", "Address (host:port) of the MQTT broker (empty disables MQTT)")
	pflag.StringVar(&mqttConf.ClientID, "mqtt-client-id", "pinbridge", "Client ID used on the MQTT broker")
	pflag.StringVar(&mqttTopicPrefix, "mqtt-topic-prefix", defaultMQTTTopicPrefix, "Prefix of all MQTT topics")
	pflag.StringVar(&mqttLogTopic, "mqtt-log-topic", "", "MQTT topic to forward log lines to (empty disables)")
	pflag.DurationVar(&serviceConf.ActuationTimeout, "actuation-timeout", 2*time.Second, "Upper bound of a single hardware call (0 disables)")
	pflag.BoolVar(&serviceConf.SyncOnStart, "sync-on-start", false, "Drive all lines to their OFF level on startup")
	pflag.Uint32Var(&breakerConf.MaxFailures, "breaker-failures", 5, "Number of consecutive hardware failures that open the circuit breaker")
	pflag.DurationVar(&breakerConf.Timeout, "breaker-timeout", 30*time.Second, "Time the circuit breaker stays open")
	pflag.StringVar(&traceExporter, "trace-exporter", tracing.ExporterNone, "Trace exporter to use (none|stdout)")
	pflag.BoolVar(&healthCheck, "health-check", false, "Query the health of a running instance and exit")
	pflag.Parse()

	if healthCheck {
		address := net.JoinHostPort("localhost", strconv.Itoa(serverConf.GRPCPort))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := util.CheckHealth(ctx, address); err != nil {
			Exitf("Unhealthy: %v\n", err)
		}
		fmt.Println("Healthy")
		return
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mqttLogWriter := logging.NewMQTTWriter(ctx)
	logWriter := logging.NewMultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, mqttLogWriter)
	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	}
	logger = logger.Level(level)

	if bridgeType == "" {
		bridgeType = environment.AutoDetectBridgeType(logger)
		logger.Info().Str("bridge", bridgeType).Msg("Detected bridge type")
	}

	conf := model.DefaultConfiguration()
	if configPath != "" {
		conf, err = model.LoadConfiguration(configPath)
		if err != nil {
			Exitf("Failed to load configuration: %v\n", err)
		}
	}
	registry, err := conf.Registry()
	if err != nil {
		Exitf("Invalid configuration: %v\n", err)
	}

	shutdownTracing, err := tracing.Setup(traceExporter)
	if err != nil {
		Exitf("Failed to initialize tracing: %v\n", err)
	}
	defer shutdownTracing(context.Background())

	// Connect to MQTT (optional)
	var mqttSvc mqtt.Service
	if mqttConf.BrokerAddress != "" {
		mqttSvc, err = mqtt.NewService(logger, mqttConf)
		if err != nil {
			Exitf("Failed to initialize MQTT: %v\n", err)
		}
		defer mqttSvc.Close()
		if mqttLogTopic != "" {
			mqttLogWriter.SetDestination(mqttLogTopic, mqttSvc)
			mqttLogWriter.Enable(true)
		}
	} else if bridge.Type(bridgeType) == bridge.TypeMQTT {
		Exitf("Bridge type '%s' requires --mqtt-broker\n", bridgeType)
	}

	// Prepare bridge
	br, err := bridge.New(logger, bridge.Config{
		Type:        bridge.Type(bridgeType),
		Pins:        registry.Pins(),
		MQTTService: mqttSvc,
		TopicPrefix: mqttTopicPrefix,
	})
	if err != nil {
		Exitf("Failed to initialize bridge: %v\n", err)
	}
	healthSrv := health.NewServer()
	server.SetHealthy(healthSrv, true)
	breakerConf.OnHealthChange = func(healthy bool) {
		server.SetHealthy(healthSrv, healthy)
	}
	breaker := bridge.NewBreaker(logger, br, breakerConf)

	hub := events.NewHub(logger)
	svc, err := service.NewService(serviceConf, service.Dependencies{
		Logger:      logger,
		Registry:    registry,
		Bridge:      breaker,
		Broadcaster: hub,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	srv, err := server.New(serverConf, server.Dependencies{
		Logger:       logger,
		Service:      svc,
		Events:       hub,
		UI:           ui.New(logger, svc, hub),
		BridgeStatus: breaker,
		Health:       healthSrv,
	})
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if mqttSvc != nil {
		r := relay.NewRelay(relay.Config{
			TopicPrefix: mqttTopicPrefix,
		}, relay.Dependencies{
			Logger:      logger,
			MQTTService: mqttSvc,
			Toggler:     svc,
			Events:      hub,
		})
		g.Go(func() error { return r.Run(ctx) })
	}
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %v\n", errors.Cause(err))
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
