// Package server exposes the discovery pipeline and streaming proxy over
// HTTP and maps pipeline errors onto response statuses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spicezify/tunegate/internal/cache"
	"github.com/spicezify/tunegate/internal/discover"
	"github.com/spicezify/tunegate/internal/stream"
)

const serviceName = "tunegate"

// StatsSource lets the health endpoint report per-cache counters without
// knowing the cached value types.
type StatsSource interface {
	Stats() cache.Stats
}

// Config defines the inputs for the HTTP server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Server hosts the service's HTTP API.
type Server struct {
	httpServer      *http.Server
	orchestrator    *discover.Orchestrator
	proxy           *stream.Proxy
	cacheStats      map[string]StatsSource
	started         time.Time
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// New builds a configured Server.
func New(cfg Config, orchestrator *discover.Orchestrator, proxy *stream.Proxy, cacheStats map[string]StatsSource, logger *zap.Logger) (*Server, error) {
	if cfg.Addr == "" {
		return nil, errors.New("listen address is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		orchestrator:    orchestrator,
		proxy:           proxy,
		cacheStats:      cacheStats,
		started:         time.Now(),
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/youtube/search", s.handleSearch)
	mux.HandleFunc("GET /api/youtube/audio/{id}", s.handleAudio)
	mux.HandleFunc("GET /api/youtube/video/{id}", s.handleVideo)
	mux.HandleFunc("GET /api/youtube/related/{id}", s.handleRelated)
	mux.HandleFunc("GET /api/youtube/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.withCORS(s.withLogging(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the fully wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx ends, then shuts down gracefully. In-flight streams
// get the shutdown timeout to finish.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
