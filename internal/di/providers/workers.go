package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/watcher"
)

// CatalogWatcherHandle wraps the dataset file watcher with shutdown capability.
// Watcher is nil when hot reload is disabled.
type CatalogWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideCatalogWatcher re-imports CATALOG_SEED_PATH when it changes.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogSvc := do.MustInvoke[*catalog.Service](i)

	if !cfg.Catalog.Watch || cfg.Catalog.SeedPath == "" {
		log.Info("Catalog hot reload disabled")
		return &CatalogWatcherHandle{}, nil
	}

	watchLog := log.Component("watcher")
	w, err := watcher.New(watchLog, watcher.Options{})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(cfg.Catalog.SeedPath); err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			watchLog.Error("Catalog watcher stopped", "error", err)
		}
	}()
	go catalogSvc.WatchFile(ctx, cfg.Catalog.SeedPath, w.Events())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				watchLog.Warn("Catalog watcher error", "error", err)
			}
		}
	}()

	log.Info("Catalog hot reload enabled", "path", cfg.Catalog.SeedPath)

	return &CatalogWatcherHandle{Watcher: w, cancel: cancel}, nil
}
