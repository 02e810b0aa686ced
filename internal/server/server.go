// Package server exposes the scheduler's observability surface over HTTP:
// run history, DAG structure, and a live event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/state"
	"github.com/stxkxs/strata/internal/telemetry"
)

// Server is the strata observability HTTP server.
type Server struct {
	cfg      *config.Config
	stateMgr *state.Manager
	eventBus *event.Bus
	broker   *Broker
	logger   *telemetry.Logger
}

// New creates a new server instance and registers its SSE broker as a
// hook on eventBus so lifecycle events broadcast to connected clients.
func New(cfg *config.Config, stateMgr *state.Manager, eventBus *event.Bus, logger *telemetry.Logger) *Server {
	broker := NewBroker(logger)
	eventBus.Register(broker)
	if stateMgr != nil {
		eventBus.Register(newLedgerHook(stateMgr))
	}

	return &Server{
		cfg:      cfg,
		stateMgr: stateMgr,
		eventBus: eventBus,
		broker:   broker,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := s.setupRoutes()

	srv := &http.Server{
		Addr:              addr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting strata API server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)

	mux.HandleFunc("GET /api/graph/{pipeline}", s.handleGetGraph)

	mux.HandleFunc("GET /api/events", s.handleSSEEvents)

	return mux
}

// corsMiddleware adds CORS headers for development mode.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
