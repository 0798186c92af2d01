package app

import (
	"fmt"

	"mandi/internal/config"
	"mandi/internal/gateway/datagov"
	"mandi/internal/gateway/notifier"
	"mandi/internal/logger"
	"mandi/internal/pipeline"
	"mandi/internal/store/csvstore"
	"mandi/internal/store/runstore"
	"mandi/internal/viewer"
)

// buildApp constructs the full object graph from configuration. Nothing is
// started here.
func buildApp(cfg *config.Config) (*App, error) {
	client, err := datagov.NewClient(cfg.API)
	if err != nil {
		return nil, fmt.Errorf("building api client failed: %w", err)
	}

	store, err := csvstore.New(cfg.Data.MasterPath())
	if err != nil {
		return nil, fmt.Errorf("building csv store failed: %w", err)
	}

	runs, err := runstore.New(cfg.Data.RunlogPath())
	if err != nil {
		return nil, fmt.Errorf("opening run history store failed: %w", err)
	}

	var notify notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		logger.Infof("telegram failure notifications enabled")
	}

	runner, err := pipeline.NewRunner(client, store, runs, notify)
	if err != nil {
		runs.Close()
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		runner: runner,
		runs:   runs,
	}

	if cfg.Viewer.Enabled {
		cache, err := viewer.NewCache(store, cfg.Viewer.CacheTTL())
		if err != nil {
			runs.Close()
			return nil, fmt.Errorf("building viewer cache failed: %w", err)
		}
		srv, err := viewer.NewServer(viewer.ServerConfig{
			Addr:  cfg.Viewer.Addr,
			Cache: cache,
			Runs:  runs,
		})
		if err != nil {
			cache.Close()
			runs.Close()
			return nil, fmt.Errorf("building viewer server failed: %w", err)
		}
		app.cache = cache
		app.viewer = srv
	}
	return app, nil
}
