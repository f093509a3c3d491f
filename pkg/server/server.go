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

package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/binkynet/PinBridge/pkg/model"
	"github.com/binkynet/PinBridge/pkg/service/events"
)

// Config for the servers.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	HTTPPort int
	// Port to listen on for SSH requests (0 disables SSH)
	SSHPort int
	// Port to listen on for GRPC requests (0 disables GRPC)
	GRPCPort int
	// Path of the SSH host key, created when it does not exist
	SSHHostKeyPath string
}

// Service is the pin service exposed by the servers.
type Service interface {
	HandleToggle(ctx context.Context, raw interface{}) (model.StateUpdate, error)
	Snapshot() model.Snapshot
	Pins() []model.PinConfig
	StartedAt() time.Time
}

// EventSource provides a stream of broadcast events.
type EventSource interface {
	Listen(ctx context.Context, bufferSize int) <-chan events.Event
}

// BridgeStatus reports the health of the hardware bridge.
type BridgeStatus interface {
	Healthy() bool
	State() string
}

type UI interface {
	// Handler creates the model for an incoming ssh.Session.
	Handler(s ssh.Session) (tea.Model, []tea.ProgramOption)
}

type Dependencies struct {
	Logger  zerolog.Logger
	Service Service
	Events  EventSource
	// Optional SSH console
	UI UI
	// Optional status of the bridge
	BridgeStatus BridgeStatus
	// Health service of the GRPC server
	Health *health.Server
}

// Server runs the HTTP, GRPC & SSH servers for the service.
type Server struct {
	Config
	Dependencies
}

// New configures a new Server.
func New(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Service == nil {
		return nil, errors.Wrap(model.ValidationError, "Service is missing")
	}
	if deps.Events == nil {
		return nil, errors.Wrap(model.ValidationError, "Events is missing")
	}
	if deps.Health == nil {
		deps.Health = health.NewServer()
	}
	deps.Logger = deps.Logger.With().Str("component", "server").Logger()
	return &Server{
		Config:       cfg,
		Dependencies: deps,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.Logger

	// Prepare HTTP listener
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return errors.Wrapf(err, "Failed to listen on address %s", httpAddr)
	}
	httpSrv := &http.Server{
		Handler: s.NewHTTPHandler(),
	}

	// Prepare GRPC server
	var grpcLis net.Listener
	var grpcSrv *grpc.Server
	grpcAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.GRPCPort))
	if s.GRPCPort > 0 {
		grpcLis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			httpLis.Close()
			return errors.Wrapf(err, "Failed to listen on address %s", grpcAddr)
		}
		grpcSrv = s.newGRPCServer()
	}

	// Prepare SSH server
	var sshServer *ssh.Server
	sshAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.SSHPort))
	if s.SSHPort > 0 && s.UI != nil {
		sshServer, err = wish.NewServer(
			wish.WithAddress(sshAddr),
			// Creates a keypair in the given path if it doesn't exist yet.
			wish.WithHostKeyPath(s.SSHHostKeyPath),
			wish.WithMiddleware(
				bubbletea.Middleware(s.UI.Handler),
				// The last item in the chain is the first to be called.
				activeterm.Middleware(),
				logging.Middleware(),
			),
		)
		if err != nil {
			httpLis.Close()
			if grpcLis != nil {
				grpcLis.Close()
			}
			return errors.Wrap(err, "Could not create SSH server")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	g.Go(func() error {
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "Failed to serve HTTP server")
		}
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
		return nil
	})
	if grpcSrv != nil {
		log.Debug().Str("address", grpcAddr).Msg("Serving GRPC")
		g.Go(func() error {
			if err := grpcSrv.Serve(grpcLis); err != nil {
				return errors.Wrap(err, "Failed to serve GRPC server")
			}
			log.Debug().Str("address", grpcAddr).Msg("Done Serving GRPC")
			return nil
		})
	}
	if sshServer != nil {
		log.Debug().Str("address", sshAddr).Msg("Serving SSH")
		g.Go(func() error {
			if err := sshServer.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				return errors.Wrap(err, "Failed to serve SSH server")
			}
			log.Debug().Str("address", sshAddr).Msg("Done Serving SSH")
			return nil
		})
	}
	g.Go(func() error {
		// Wait until context closed
		<-gctx.Done()

		log.Info().Msg("Closing servers")
		s.Health.Shutdown()
		httpSrv.Shutdown(context.Background())
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		if sshServer != nil {
			sshServer.Shutdown(context.Background())
		}
		return nil
	})
	return g.Wait()
}

// newGRPCServer creates the GRPC server with health & reflection services.
func (s *Server) newGRPCServer() *grpc.Server {
	grpcSrv := grpc.NewServer(
		grpc.StreamInterceptor(grpc_prometheus.StreamServerInterceptor),
		grpc.UnaryInterceptor(grpc_prometheus.UnaryServerInterceptor),
	)
	healthpb.RegisterHealthServer(grpcSrv, s.Health)
	// Register reflection service on gRPC server.
	reflection.Register(grpcSrv)
	grpc_prometheus.Register(grpcSrv)
	return grpcSrv
}

// SetHealthy updates the serving status reported by the health service.
func SetHealthy(h *health.Server, healthy bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus("", status)
}
