package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/compositor"
	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/datadir"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/search"
	"github.com/rizwanabrish101/shayari/internal/share"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/store/postgres"
	"github.com/rizwanabrish101/shayari/internal/store/sqlite"
)

// favoriteStore is the persisted favorite backend opened by the CLI.
type favoriteStore interface {
	favorites.Store
	Close() error
}

type commandContext struct {
	dataFlag    *string
	envFileFlag *string
	verbose     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// app holds the services opened against the data directory.
type app struct {
	cfg        *config.Config
	log        *slog.Logger

	lock       *datadir.Lock
	store      *store.Store
	favStore   favoriteStore
	index      *search.SearchIndex
	catalog    *catalog.Service
	favorites  *favorites.Reconciler
	compositor *compositor.Compositor
	share      *share.Service
}

func newCommandContext(dataFlag, envFileFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		dataFlag:    dataFlag,
		envFileFlag: envFileFlag,
		verbose:     verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		overrides := map[string]string{}
		if c.dataFlag != nil {
			overrides["SHAYARI_DATA_PATH"] = strings.TrimSpace(*c.dataFlag)
		}
		envFile := ""
		if c.envFileFlag != nil {
			envFile = *c.envFileFlag
		}
		c.config, c.configErr = config.Load(envFile, overrides)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose != nil && *c.verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{
		Writer:  os.Stderr,
		Level:   level,
		NoColor: !shouldColorize(os.Stderr),
	}).Logger
}

// withApp locks the data directory, opens the catalog, favorites and search
// index, runs fn and releases everything. The catalog is seeded on first use.
func (c *commandContext) withApp(ctx context.Context, fn func(*app) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	lock, err := datadir.Acquire(cfg.Data.BasePath)
	if err != nil {
		if errors.Is(err, datadir.ErrLocked) {
			return fmt.Errorf("%w; stop the server or use --data", err)
		}
		return err
	}

	a := &app{cfg: cfg, log: c.logger(), lock: lock}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	if err := a.open(ctx); err != nil {
		return err
	}
	return fn(a)
}

func (a *app) open(ctx context.Context) error {
	paths := datadir.Layout(a.cfg.Data.BasePath)

	var err error
	if a.store, err = store.New(paths.Catalog, a.log); err != nil {
		return err
	}
	if a.favStore, err = openFavoriteStore(ctx, a.cfg, paths, a.log); err != nil {
		return err
	}
	if a.index, err = search.NewSearchIndex(search.Options{DataPath: paths.Search, Logger: a.log}); err != nil {
		return err
	}

	a.catalog = catalog.NewService(a.store, a.index, nil, a.log)
	if _, err := a.catalog.SeedIfEmpty(ctx); err != nil {
		return err
	}
	a.favorites = favorites.New(a.favStore, a.catalog, nil, a.log)
	return nil
}

// renderer loads the compositor fonts. Rendering never publishes, so the
// share service has no publisher.
func (a *app) renderer() (*share.Service, error) {
	if a.share != nil {
		return a.share, nil
	}
	var err error
	a.compositor, err = compositor.New(compositor.Options{
		BoldFontPath:    a.cfg.Compositor.BoldFontPath,
		RegularFontPath: a.cfg.Compositor.RegularFontPath,
	})
	if err != nil {
		return nil, err
	}
	a.share = share.NewService(a.store, a.catalog, a.compositor, nil, nil, nil, a.log)
	return a.share, nil
}

func openFavoriteStore(ctx context.Context, cfg *config.Config, paths datadir.Paths, log *slog.Logger) (favoriteStore, error) {
	if cfg.Favorites.Backend == config.BackendPostgres {
		pg, err := postgres.Open(ctx, cfg.Favorites.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	db, err := sqlite.Open(paths.Favorites, log)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// close releases everything opened, in reverse order.
func (a *app) close() error {
	var errs []error
	if a.favorites != nil {
		errs = append(errs, a.favorites.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.favStore != nil {
		errs = append(errs, a.favStore.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.lock.Release())
	return errors.Join(errs...)
}
