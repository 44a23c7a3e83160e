// Package server exposes the ledger operations over an HTTP + WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/veledger/internal/server/handler"
	"github.com/alanyoungcy/veledger/internal/server/middleware"
	"github.com/alanyoungcy/veledger/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables auth
	AdminKey    string // guards resolver swap and archive
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Positions *handler.PositionHandler
	Voting    *handler.VotingHandler
	Metadata  *handler.MetadataHandler
	Admin     *handler.AdminHandler
}

// Server is the HTTP + WebSocket API server for the ledger.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	api := http.NewServeMux()

	// Position lifecycle.
	api.HandleFunc("POST /api/positions", handlers.Positions.Lock)
	api.HandleFunc("GET /api/positions/{id}", handlers.Positions.GetSpecs)
	api.HandleFunc("DELETE /api/positions/{id}", handlers.Positions.Unlock)
	api.HandleFunc("PUT /api/positions/{id}/duration", handlers.Positions.Extend)

	// Governance read.
	api.HandleFunc("GET /api/voting-power", handlers.Voting.VotingPower)

	// Metadata.
	api.HandleFunc("GET /api/positions/{id}/uri", handlers.Metadata.TokenURI)
	api.HandleFunc("PUT /api/metadata/resolver",
		middleware.AdminOnly(cfg.AdminKey, handlers.Metadata.SetResolver))

	// Operations.
	api.HandleFunc("POST /api/admin/archive",
		middleware.AdminOnly(cfg.AdminKey, handlers.Admin.Archive))

	// Event stream.
	if wsHub != nil {
		api.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Health stays outside the auth chain so liveness probes never need a
	// key.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.Handle("/", middleware.Auth(cfg.APIKey)(api))

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening for HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
