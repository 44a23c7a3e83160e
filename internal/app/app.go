// Package app provides the top-level application lifecycle: it wires the
// dependency graph, restores persisted positions, and runs the API server
// until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/veledger/internal/config"
	"github.com/alanyoungcy/veledger/internal/server"
	"github.com/alanyoungcy/veledger/internal/server/handler"
	"github.com/alanyoungcy/veledger/internal/server/ws"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

// App is the root application object.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, restores state, and serves until the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if err := deps.Positions.Restore(ctx); err != nil {
		return fmt.Errorf("app: restore positions: %w", err)
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(),
		Positions: handler.NewPositionHandler(deps.Positions, a.logger),
		Voting:    handler.NewVotingHandler(deps.Positions, a.logger),
		Metadata:  handler.NewMetadataHandler(deps.Facade, a.logger),
		Admin:     handler.NewAdminHandler(deps.Archiver, a.logger),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		AdminKey:    a.cfg.Server.AdminKey,
	}, handlers, hub, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if hub != nil {
		g.Go(func() error {
			return ignoreCanceled(hub.Run(gctx))
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// ignoreCanceled treats context cancellation as a clean exit, wrapped or not.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
