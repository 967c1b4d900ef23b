package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/nomad/api"
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/http"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/rpc"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	stateImpl "github.com/hashicorp-forge/pipeline-api/internal/controller/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/version"
)

type Server struct {
	baseLogger   *zap.Logger
	serverLogger *zap.Logger

	nomadClient *api.Client

	state state.State

	// features holds the feature flags set by configuration. Environment
	// variables take precedence over it.
	features *feature.Properties

	httpServer *http.Server
	rpcServer  *rpc.Server

	coordinator *coordinator.Coordinator
}

func NewServer(cfg *Config) (*Server, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	zapLogger, err := logger.NewZap(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	zapLogger.Info("starting server", zap.String("version", version.Get()))

	server := Server{
		baseLogger:   zapLogger,
		serverLogger: zapLogger.Named(logger.ComponentNameServer),
		features:     feature.NewProperties(cfg.FeatureProperties()),
	}

	// The Nomad client is only used by the nomad-vars state backend, but
	// building it does not contact the cluster.
	nomadClient, err := generateNomadClient(cfg.Nomad)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nomad client: %w", err)
	}
	server.nomadClient = nomadClient

	stateBackend, err := stateImpl.NewBackend(cfg.State, zapLogger, nomadClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create state backend: %w", err)
	}
	server.state = stateBackend

	flags := feature.Chain(feature.Env(), server.features)

	server.serverLogger.Info("feature flags loaded",
		zap.Bool("restartable_stages", feature.RestartableStagesEnabled(flags)))

	server.coordinator = coordinator.New(&coordinator.CoordinatorConfig{
		Logger:   zapLogger,
		State:    server.state,
		Flags:    flags,
		Queue:    cfg.Queue,
		Resolver: cfg.Resolver,
	})

	rpcServer, err := rpc.NewServer(&rpc.ServerReq{
		Logger:  zapLogger,
		RPCAddr: cfg.RPC.Addr,
		State:   server.state,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC server: %w", err)
	}
	server.rpcServer = rpcServer

	httpServer, err := http.NewServer(&http.ServerReq{
		Coordinator:        server.coordinator,
		Logger:             zapLogger,
		HTTPAddr:           cfg.HTTP.Addr,
		HTTPAccessLogLevel: cfg.HTTP.AccessLogLevel,
		State:              server.state,
	})
	if err != nil {
		rpcServer.Stop()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}
	server.httpServer = httpServer

	return &server, nil
}

func (s *Server) Start() error {
	if err := s.coordinator.Start(); err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	s.rpcServer.Start()
	s.httpServer.Start()
	return nil
}

// Stop stops accepting requests before draining the coordinator, so queued
// runs are written to state before the process exits.
func (s *Server) Stop() {
	s.httpServer.Stop()
	s.rpcServer.Stop()
	s.coordinator.Stop()
	_ = s.baseLogger.Sync()
}

func (s *Server) WaitForSignals() {

	signalCh := make(chan os.Signal, 3)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Wait to receive a signal. This blocks until we are notified.
	for {
		s.serverLogger.Debug("wait for signal handler started")

		sig := <-signalCh
		s.serverLogger.Info("received signal", zap.String("signal", sig.String()))

		// A SIGHUP is logged and ignored until configuration reloading is
		// supported. Everything else means exit.
		switch sig {
		case syscall.SIGHUP:
		default:
			s.Stop()
			return
		}
	}
}
