// Package server exposes the aggregated topology over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/fortimap/internal/poller"
	"github.com/HerbHall/fortimap/internal/snapshot"
	"github.com/HerbHall/fortimap/internal/version"
	"github.com/HerbHall/fortimap/pkg/catalog"
)

// Server is the FortiMap HTTP server.
type Server struct {
	httpServer *http.Server
	poller     *poller.Poller
	store      *snapshot.Store
	appearance *catalog.Appearance
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a new Server instance. store may be nil when snapshot
// history is disabled; the history routes then answer 503.
func New(addr string, p *poller.Poller, store *snapshot.Store, appearance *catalog.Appearance, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
			// No WriteTimeout: the watch endpoint holds long-lived
			// websocket connections.
		},
		poller:     p,
		store:      store,
		appearance: appearance,
		logger:     logger,
		mux:        mux,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/topology", s.handleTopology)
	s.mux.HandleFunc("GET /api/v1/topology/babylon", s.handleBabylon)
	s.mux.HandleFunc("GET /api/v1/topology/watch", s.handleWatch)
	s.mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /api/v1/snapshots", s.handleListSnapshots)
	s.mux.HandleFunc("GET /api/v1/snapshots/{id}", s.handleGetSnapshot)
	s.mux.HandleFunc("GET /api/v1/changes", s.handleChanges)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the route mux. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("X-FortiMap-Version", version.Short())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  "fortimap",
		"version":  version.Map(),
		"topology": s.poller.Current() != nil,
	})
}
