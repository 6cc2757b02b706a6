package api

import (
	"context"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/search"
	"github.com/rizwanabrish101/shayari/internal/share"
)

// Pinger is implemented by the favorite stores for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups all business logic services used by the API server.
type Services struct {
	Catalog       *catalog.Service
	Favorites     *favorites.Reconciler
	FavoriteStore Pinger // Optional; reported by /health
	Share         *share.Service
	Search        *search.SearchIndex // Optional; nil disables /search
}
