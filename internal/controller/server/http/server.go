package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdHTTP "net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
)

// WriteTimeout bounds the time taken to write a response, including the time
// a trigger or restart spends waiting for its run.
const WriteTimeout = 30 * time.Second

type ServerReq struct {
	Coordinator        *coordinator.Coordinator
	Logger             *zap.Logger
	HTTPAddr           string
	HTTPAccessLogLevel string
	State              state.State
}

type Server struct {
	logger *zap.Logger
	ln     net.Listener
	mux    *chi.Mux
	server *stdHTTP.Server
}

func NewServer(req *ServerReq) (*Server, error) {

	parsedURL, err := url.Parse(req.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTTP address: %w", err)
	}

	if err := ValidateAccessLogLevel(req.HTTPAccessLogLevel); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", parsedURL.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to setup HTTP listener: %w", err)
	}

	s := &Server{
		logger: req.Logger.Named(logger.ComponentNameHTTPServer).With(
			zap.String("bind_addr", ln.Addr().String()),
			zap.String("network", "tcp"),
		),
		ln:  ln,
		mux: newRouter(req),
	}

	// The write timeout must cover a run trigger, which waits for the
	// queued run to be resolved.
	s.server = &stdHTTP.Server{
		Addr:         req.HTTPAddr,
		Handler:      s.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  15 * time.Second,
	}

	s.logger.Info("successfully initialized HTTP server")

	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

func (s *Server) Start() {
	s.logger.Info("starting HTTP server")
	go s.serve()
}

func (s *Server) serve() {
	if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, stdHTTP.ErrServerClosed) {
		s.logger.Error("HTTP server stopped unexpectedly", zap.Error(err))
	}
}

func (s *Server) Stop() {
	s.logger.Info("stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("failed to gracefully stop HTTP server", zap.Error(err))
	} else {
		s.logger.Info("successfully stopped HTTP server")
	}
}
