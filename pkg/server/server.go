package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/getmockd/schemagen/internal/storage"
	"github.com/getmockd/schemagen/pkg/logging"
	"github.com/getmockd/schemagen/pkg/ratelimit"
)

// Defaults applied by New.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultMaxCount        = 10000
	DefaultMaxLength       = 10000
	DefaultStreamRate      = 10.0
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr   string
	Store  storage.SchemaStore
	Logger *slog.Logger

	// JWTSecret enables HS256 bearer authentication when non-empty.
	JWTSecret string

	// RateLimit is the per-client request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int

	// MaxCount caps the count query parameter.
	MaxCount int

	// MaxLength caps generated string lengths and array sizes. Schemas whose
	// minLength or minItems exceed it are rejected.
	MaxLength int

	// StreamRate is the default records per second on stream endpoints.
	StreamRate float64

	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Server is the schemagen HTTP API.
type Server struct {
	cfg     Config
	store   storage.SchemaStore
	log     *slog.Logger
	metrics *metrics
	limiter *ratelimit.PerIPLimiter
	handler http.Handler

	closeOnce sync.Once
}

// New builds a Server. A nil Store is replaced with an in-memory one.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewInMemorySchemaStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.StreamRate <= 0 {
		cfg.StreamRate = DefaultStreamRate
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		cfg:     cfg,
		store:   cfg.Store,
		log:     cfg.Logger,
		metrics: newMetrics(prometheus.NewRegistry()),
	}
	if cfg.RateLimit > 0 {
		s.limiter = ratelimit.NewPerIPLimiter(ratelimit.PerIPConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = s.withMiddleware(mux)
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on Config.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	err := srv.Shutdown(shutdownCtx)
	<-errCh
	s.Close()
	return err
}

// Close stops background work. The store is owned by the caller.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
	})
}
