package web

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/config"
	"github.com/t3track/t3agent/internal/logging"
)

type Server struct {
	handler *Handler
	server  *http.Server
	logger  logging.Logger
}

func NewServer(cfg *config.Config, handler *Handler, logger logging.Logger, customPort int) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	port := cfg.Web.Port
	if customPort > 0 {
		port = customPort
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Web.Host, strconv.Itoa(port)),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  httpServer,
		logger:  logger,
	}
}

// Start blocks serving the control API. It returns nil after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	return s.Serve(ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("control API listening", "addr", "http://"+ln.Addr().String())
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "control API stopped")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down control API")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
