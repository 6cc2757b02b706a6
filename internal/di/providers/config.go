// Package providers contains dependency injection providers for the Shayari server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/datadir"
	"github.com/rizwanabrish101/shayari/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Shayari Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"favorites_backend", cfg.Favorites.Backend,
		"share_backend", cfg.Share.Backend,
	)

	return log, nil
}

// DataDirHandle holds the data directory lock for the server's lifetime.
type DataDirHandle struct {
	*datadir.Lock
	datadir.Paths
}

// Shutdown implements do.Shutdownable.
func (h *DataDirHandle) Shutdown() error {
	return h.Release()
}

// ProvideDataDir locks the data directory.
func ProvideDataDir(i do.Injector) (*DataDirHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	lock, err := datadir.Acquire(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Data directory locked", "lock", lock.Path())

	return &DataDirHandle{Lock: lock, Paths: datadir.Layout(cfg.Data.BasePath)}, nil
}
