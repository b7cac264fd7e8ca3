//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/radio-control/cellstate/internal/auth"
	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/config"
)

// Options wires a Server. Modem, Telemetry and Audit are optional; the
// routes that need a missing one answer 503.
type Options struct {
	Config    config.ServerConfig
	Tracker   TrackerPort
	Modem     ModemPort
	Telemetry TelemetryPort
	Audit     AuditPort
	Auth      *auth.Middleware
	Clock     clocksync.Clock
	Logger    *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg        config.ServerConfig
	tracker    TrackerPort
	modem      ModemPort
	telemetry  TelemetryPort
	audit      AuditPort
	auth       *auth.Middleware
	clock      clocksync.Clock
	limiter    *rate.Limiter
	logger     *slog.Logger
	startTime  time.Time
	httpServer *http.Server
}

// NewServer creates a server. A nil Auth middleware leaves every route open.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Auth == nil {
		opts.Auth = auth.NewMiddleware(nil, logger)
	}
	if opts.Clock == nil {
		opts.Clock = clocksync.NewSystemClock()
	}
	s := &Server{
		cfg:       opts.Config,
		tracker:   opts.Tracker,
		modem:     opts.Modem,
		telemetry: opts.Telemetry,
		audit:     opts.Audit,
		auth:      opts.Auth,
		clock:     opts.Clock,
		logger:    logger.With("component", "api"),
		startTime: time.Now(),
	}
	if opts.Config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimit), opts.Config.RateBurst)
	}
	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  opts.Config.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// Serve answers requests on l until Shutdown. After Shutdown it returns
// nil immediately.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("HTTP server listening", "addr", l.Addr().String(), "auth", !s.auth.Open())
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded
// by the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
