package api

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/compositor"
	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/favorites"
	"github.com/rizwanabrish101/shayari/internal/media/images"
	"github.com/rizwanabrish101/shayari/internal/ratelimit"
	"github.com/rizwanabrish101/shayari/internal/search"
	"github.com/rizwanabrish101/shayari/internal/share"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/store/sqlite"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer builds a server over the embedded catalog with real
// Badger, SQLite and Bleve stores in a temp directory.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := store.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	favStore, err := sqlite.Open(filepath.Join(dir, "favorites.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = favStore.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dir, "search")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sseManager := sse.NewManager(logger)

	catalogSvc := catalog.NewService(st, index, sseManager, logger)
	_, err = catalogSvc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	reconciler := favorites.New(favStore, catalogSvc, sseManager, logger)
	t.Cleanup(func() { _ = reconciler.Close() })

	storage, err := images.NewStorage(dir)
	require.NoError(t, err)
	comp, err := compositor.New(compositor.Options{})
	require.NoError(t, err)
	shareSvc := share.NewService(st, catalogSvc, comp, share.NewLocalPublisher(storage, "/api/v1/shares"), nil, sseManager, logger)

	services := &Services{
		Catalog:       catalogSvc,
		Favorites:     reconciler,
		FavoriteStore: favStore,
		Share:         shareSvc,
		Search:        index,
	}

	s := NewServer(st, services, sseManager, logger, opts)
	return &testServer{Server: s, api: humatest.Wrap(t, s.API())}
}

// envelope mirrors both envelope shapes for decoding in tests.
type envelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	assert.Equal(t, EnvelopeVersion, env.Version)
	return env
}

func ids(vs []*domain.VerseWithPoet) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	for _, name := range []string{"catalog", "favorites", "search", "sse"} {
		assert.Equal(t, "healthy", env.Data.Components[name].Status, name)
	}
	assert.Equal(t, "no connected clients", env.Data.Components["sse"].Message)
	assert.Equal(t, "revision 1", env.Data.Components["catalog"].Message)
}

func TestHealthCheck_StaleSearchIndex(t *testing.T) {
	ts := setupTestServer(t, Options{})

	verses, err := ts.services.Catalog.ListVerses(context.Background(), catalog.VerseFilter{})
	require.NoError(t, err)
	require.NoError(t, ts.services.Search.Reindex(context.Background(), 7, verses, nil))

	env := decode[HealthResponse](t, ts.api.Get("/health"))
	assert.Equal(t, "degraded", env.Data.Status)
	search := env.Data.Components["search"]
	assert.Equal(t, "degraded", search.Status)
	assert.Equal(t, "indexed revision 7, catalog at 1", search.Message)
}

func TestPoets(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/poets")
	require.Equal(t, http.StatusOK, resp.Code)
	poets := decode[[]domain.Poet](t, resp)
	require.Len(t, poets.Data, 10)
	assert.Equal(t, "iqbal", poets.Data[0].ID)
	assert.Equal(t, "علامہ اقبال", poets.Data[0].UrduName)

	resp = ts.api.Get("/api/v1/poets/ghalib")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Mirza Ghalib", decode[domain.Poet](t, resp).Data.Name)

	resp = ts.api.Get("/api/v1/poets/nobody")
	require.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.NotEmpty(t, env.Message)
}

func TestPoetVerses(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/poets/iqbal/verses")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"1", "11"}, ids(decode[[]*domain.VerseWithPoet](t, resp).Data))

	resp = ts.api.Get("/api/v1/poets/nobody/verses")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCategories(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code)
	categories := decode[[]domain.Category](t, resp).Data
	require.Len(t, categories, 4)
	assert.Equal(t, "ghazal", categories[0].ID)

	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/categories/rubai").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/categories/haiku").Code)
}

func TestListVerses(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}},
		{"by poet", "?poet=ghalib", []string{"2", "12"}},
		{"by category", "?category=rubai", []string{"12"}},
		{"poet wins over category", "?poet=iqbal&category=rubai", []string{"1", "11"}},
		{"search by urdu poet name", "?search=" + url.QueryEscape("علامہ اقبال"), []string{"1", "11"}},
		{"unknown poet", "?poet=nobody", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/verses" + tt.query)
			require.Equal(t, http.StatusOK, resp.Code)
			assert.Equal(t, tt.want, ids(decode[[]*domain.VerseWithPoet](t, resp).Data))
		})
	}
}

func TestVerses_FeaturedAndGet(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/verses/featured")
	require.Equal(t, http.StatusOK, resp.Code)
	featured := decode[domain.VerseWithPoet](t, resp).Data
	assert.Equal(t, "1", featured.ID)
	require.NotNil(t, featured.Poet)
	assert.Equal(t, "iqbal", featured.Poet.ID)

	resp = ts.api.Get("/api/v1/verses/2")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ghalib", decode[domain.VerseWithPoet](t, resp).Data.PoetID)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/verses/999").Code)
}

func TestFavorites(t *testing.T) {
	ts := setupTestServer(t, Options{})

	list := func() []string {
		resp := ts.api.Get("/api/v1/favorites")
		require.Equal(t, http.StatusOK, resp.Code)
		return ids(decode[[]*domain.VerseWithPoet](t, resp).Data)
	}
	status := func(id string) bool {
		resp := ts.api.Get("/api/v1/favorites/" + id)
		require.Equal(t, http.StatusOK, resp.Code)
		env := decode[FavoriteStatusResponse](t, resp)
		assert.Equal(t, id, env.Data.VerseID)
		return env.Data.IsFavorite
	}

	assert.Empty(t, list())
	assert.False(t, status("2"))

	for _, id := range []string{"2", "1", "2"} {
		resp := ts.api.Post("/api/v1/favorites", map[string]any{"verse_id": id})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		assert.Equal(t, id, decode[domain.Favorite](t, resp).Data.VerseID)
	}

	// Re-adding "2" moved it behind "1".
	assert.Equal(t, []string{"1", "2"}, list())
	assert.True(t, status("2"))

	resp := ts.api.Delete("/api/v1/favorites/2")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = ts.api.Delete("/api/v1/favorites/2")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	assert.False(t, status("2"))
	assert.Equal(t, []string{"1"}, list())
}

func TestFavorites_Errors(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/favorites", map[string]any{"verse_id": "999"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post("/api/v1/favorites", map[string]any{"verse_id": ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
}

func TestPresets(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/presets")
	require.Equal(t, http.StatusOK, resp.Code)

	presets := decode[[]PresetResponse](t, resp).Data
	require.Len(t, presets, 12)
	assert.Equal(t, PresetResponse{
		Name:   "sunset",
		Label:  "غروب آفتاب",
		Kind:   "linear",
		Colors: []string{"#ff7e5f", "#feb47b", "#ff6b6b"},
	}, presets[0])
	assert.Equal(t, "radial", presets[11].Kind)
}

func TestCompose(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/compose", map[string]any{"verse_id": "1", "preset": "night"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	cfg, err := png.DecodeConfig(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, compositor.Size, cfg.Width)
	assert.Equal(t, compositor.Size, cfg.Height)
}

func TestCompose_Errors(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"nothing to render", map[string]any{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"blank text", map[string]any{"text": "  \n "}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown preset", map[string]any{"text": "ایک", "preset": "neon"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown verse", map[string]any{"verse_id": "999"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad base64", map[string]any{"text": "ایک", "image_base64": "%%%"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/compose", tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			env := decode[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestCompose_RateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, Options{ComposeLimiter: limiter})

	resp := ts.api.Post("/api/v1/compose", map[string]any{"text": "ایک"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/compose", map[string]any{"text": "ایک"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decode[any](t, resp).Code)

	// Share creation draws from the same bucket.
	resp = ts.api.Post("/api/v1/shares", map[string]any{"text": "ایک"})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// Reads are never limited.
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/presets").Code)
}

func TestShares(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/shares", map[string]any{"verse_id": "2", "preset": "ocean"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[domain.Share](t, resp).Data
	assert.True(t, strings.HasPrefix(created.ID, "shr"), created.ID)
	assert.Equal(t, "2", created.VerseID)
	assert.Equal(t, "ocean", created.Preset)
	assert.Equal(t, "/api/v1/shares/"+created.ID+"/image", created.URL)
	assert.NotEmpty(t, created.BlurHash)

	resp = ts.api.Get("/api/v1/shares/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.URL, decode[domain.Share](t, resp).Data.URL)

	resp = ts.api.Get(created.URL)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, created.Size, int64(resp.Body.Len()))
	etag := resp.Header().Get("ETag")
	require.NotEmpty(t, etag)

	resp = ts.api.Get(created.URL, "If-None-Match: "+etag)
	assert.Equal(t, http.StatusNotModified, resp.Code)
	assert.Zero(t, resp.Body.Len())

	resp = ts.api.Get("/api/v1/verses/2/shares")
	require.Equal(t, http.StatusOK, resp.Code)
	shares := decode[[]domain.Share](t, resp).Data
	require.Len(t, shares, 1)
	assert.Equal(t, created.ID, shares[0].ID)

	assert.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/shares/"+created.ID).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/shares/"+created.ID).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(created.URL).Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/search?q=iqbal&type=poet")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decode[search.SearchResult](t, resp).Data
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "poet:iqbal", result.Hits[0].ID)
	assert.Equal(t, search.DocTypePoet, result.Hits[0].Type)

	resp = ts.api.Get("/api/v1/search?q=zzzzqqqq")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[search.SearchResult](t, resp).Data.Hits)

	resp = ts.api.Get("/api/v1/search")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t, Options{CORSAllowedOrigins: []string{"https://shayari.example"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
	req.Header.Set("Origin", "https://shayari.example")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shayari.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
