package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/media/backgrounds"
	"github.com/rizwanabrish101/shayari/internal/share"
)

// ProvideCatalogService provides the catalog service and seeds an empty
// catalog, from CATALOG_SEED_PATH when set or the embedded dataset.
func ProvideCatalogService(i do.Injector) (*catalog.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := catalog.NewService(storeHandle.Store, indexHandle.SearchIndex, sseHandle.Manager, log.Component("catalog"))

	ctx := context.Background()
	if cfg.Catalog.SeedPath != "" {
		rev, err := storeHandle.CatalogRevision(ctx)
		if err != nil {
			return nil, fmt.Errorf("read catalog revision: %w", err)
		}
		if rev == 0 {
			res, err := svc.ImportFile(ctx, cfg.Catalog.SeedPath)
			if err != nil {
				return nil, fmt.Errorf("seed catalog from %s: %w", cfg.Catalog.SeedPath, err)
			}
			log.Info("Catalog seeded from file", "path", cfg.Catalog.SeedPath, "verses", res.Verses)
			return svc, nil
		}
	}

	seeded, err := svc.SeedIfEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		log.Info("Catalog seeded from embedded dataset")
	}

	return svc, nil
}

// ProvideReconciler provides the favorites reconciler. The reconciler
// implements do.Shutdownable itself.
func ProvideReconciler(i do.Injector) (*favorites.Reconciler, error) {
	log := do.MustInvoke[*logger.Logger](i)
	favStore := do.MustInvoke[*FavoriteStoreHandle](i)
	catalogSvc := do.MustInvoke[*catalog.Service](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	r := favorites.New(favStore.FavoriteStore, catalogSvc, sseHandle.Manager, log.Component("favorites"))

	log.Info("Favorites reconciler started", "backend", favStore.Backend)

	return r, nil
}

// ProvideShareService provides the share service.
func ProvideShareService(i do.Injector) (*share.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogSvc := do.MustInvoke[*catalog.Service](i)
	renderer := do.MustInvoke[*CompositorHandle](i)
	publisher := do.MustInvoke[share.Publisher](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	shareLog := log.Component("share")
	fetcher := backgrounds.NewFetcher(nil, shareLog)

	return share.NewService(storeHandle.Store, catalogSvc, renderer.Compositor, publisher, fetcher, sseHandle.Manager, shareLog), nil
}
