// Package app wires configuration, the fetch pipeline, the run history and
// the viewer into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"mandi/internal/config"
	"mandi/internal/logger"
	"mandi/internal/pipeline"
	"mandi/internal/store/runstore"
	"mandi/internal/viewer"

	"golang.org/x/sync/errgroup"
)

// App owns the fetch scheduler and (optionally) the viewer HTTP server.
type App struct {
	cfg    *config.Config
	runner *pipeline.Runner
	runs   *runstore.Store
	cache  *viewer.Cache
	viewer *viewer.Server
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(cfg)
}

// Close releases stores and watchers.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.runs != nil {
		return a.runs.Close()
	}
	return nil
}

// RunOnce performs a single fetch run and returns its error, for cron-style
// invocations.
func (a *App) RunOnce(ctx context.Context) error {
	if a == nil || a.runner == nil {
		return fmt.Errorf("app not initialized")
	}
	_, err := a.runner.Run(ctx)
	return err
}

// Run starts the fetch scheduler and the viewer server (if enabled) and
// blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.viewer != nil {
		group.Go(func() error {
			logger.Infof("viewer listening on %s", a.cfg.Viewer.Addr)
			if err := a.viewer.Start(ctx); err != nil {
				return fmt.Errorf("viewer server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		return a.fetchLoop(ctx)
	})

	return group.Wait()
}

// fetchLoop runs one fetch immediately, then on every interval tick. A
// failed run keeps the previous dataset in place and does not stop the loop.
func (a *App) fetchLoop(ctx context.Context) error {
	interval := a.cfg.Fetch.Interval()
	logger.Infof("fetch scheduler started (every %s)", interval)

	if _, err := a.runner.Run(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("fetch scheduler stopping")
			return nil
		case <-ticker.C:
			if _, err := a.runner.Run(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
