// Package di provides dependency injection configuration for the Shayari server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/di/providers"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/share"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideDataDir)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideFavoriteStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Storage layer
	do.Provide(injector, providers.ProvideCompositor)
	do.Provide(injector, providers.ProvidePublisher)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideReconciler)
	do.Provide(injector, providers.ProvideShareService)

	// Workers
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services eagerly so that configuration and
// storage errors surface before the server starts accepting requests.
func Bootstrap(injector *do.RootScope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()

	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.DataDirHandle](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.FavoriteStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.CompositorHandle](injector)
	_ = do.MustInvoke[share.Publisher](injector)

	_ = do.MustInvoke[*catalog.Service](injector)
	_ = do.MustInvoke[*favorites.Reconciler](injector)
	_ = do.MustInvoke[*share.Service](injector)

	_ = do.MustInvoke[*providers.CatalogWatcherHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
