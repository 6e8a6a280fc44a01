// Package server provides the HTTP API for nlweb.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/backend"
	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/orchestrator"
	"github.com/nlweb-ai/nlweb-go/internal/ratelimit"
)

// Server is the HTTP server for the nlweb API.
type Server struct {
	orch    *orchestrator.Service
	manager *backend.Manager
	limiter *ratelimit.Limiter
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	started time.Time
}

// NewServer creates a server with the given dependencies. limiter may be
// nil, in which case requests are admitted unconditionally.
func NewServer(
	orch *orchestrator.Service,
	manager *backend.Manager,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		orch:    orch,
		manager: manager,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
		started: time.Now(),
	}
}

// Router builds the chi router with all routes and middleware. The ask and
// websocket routes sit behind the rate-limit admission check; diagnostics
// do not.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Post("/api/v1/ask", s.handleAsk)
		r.Get("/api/v1/ask", s.handleAskGet)
		r.Get("/ws", s.handleWebSocket)
	})

	r.Get("/api/v1/sites", s.handleSites)
	r.Get("/api/v1/backends", s.handleBackends)
	r.Get("/api/v1/items", s.handleGetItem)
	r.Put("/api/v1/items", s.handlePutItems)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
