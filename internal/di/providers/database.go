package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/rizwanabrish101/shayari/internal/config"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/logger"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/store/postgres"
	"github.com/rizwanabrish101/shayari/internal/store/sqlite"
)

// connectTimeout bounds the initial PostgreSQL connect and migration run.
const connectTimeout = 30 * time.Second

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel  context.CancelFunc
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
		timeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// StoreHandle wraps the catalog store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	dir := do.MustInvoke[*DataDirHandle](i)

	db, err := store.New(dir.Catalog, log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Catalog database initialized", "path", dir.Catalog)

	return &StoreHandle{Store: db}, nil
}

// FavoriteStore is a persisted favorite store the server can ping and close.
type FavoriteStore interface {
	favorites.Store
	Ping(ctx context.Context) error
	Close() error
}

// FavoriteStoreHandle wraps the configured favorite backend.
type FavoriteStoreHandle struct {
	FavoriteStore
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *FavoriteStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideFavoriteStore opens SQLite in the data directory, or PostgreSQL when
// configured, applying migrations.
func ProvideFavoriteStore(i do.Injector) (*FavoriteStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	dir := do.MustInvoke[*DataDirHandle](i)

	switch cfg.Favorites.Backend {
	case config.BackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pg, err := postgres.Open(ctx, cfg.Favorites.PostgresDSN, log.Component("postgres"))
		if err != nil {
			return nil, fmt.Errorf("open postgres favorites: %w", err)
		}
		log.Info("Favorite store initialized", "backend", config.BackendPostgres)
		return &FavoriteStoreHandle{FavoriteStore: pg, Backend: config.BackendPostgres}, nil

	default:
		db, err := sqlite.Open(dir.Favorites, log.Component("sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite favorites: %w", err)
		}
		log.Info("Favorite store initialized", "backend", config.BackendSQLite, "path", dir.Favorites)
		return &FavoriteStoreHandle{FavoriteStore: db, Backend: config.BackendSQLite}, nil
	}
}
