package catalog

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
	"github.com/rizwanabrish101/shayari/internal/search"
	"github.com/rizwanabrish101/shayari/internal/sse"
	"github.com/rizwanabrish101/shayari/internal/store"
	"github.com/rizwanabrish101/shayari/internal/validation"
)

// VerseFilter narrows ListVerses. When several fields are set, SearchText
// wins over PoetID, which wins over CategoryID.
type VerseFilter struct {
	PoetID     string
	CategoryID string
	SearchText string
}

// Service is the read side of the content catalog plus dataset import.
type Service struct {
	store     *store.Store
	index     *search.SearchIndex
	emitter   store.EventEmitter
	logger    *slog.Logger
	validator *validation.Validator

	importMu sync.Mutex
}

// NewService creates a catalog service. index may be nil, in which case
// imports skip search reindexing.
func NewService(st *store.Store, index *search.SearchIndex, emitter store.EventEmitter, logger *slog.Logger) *Service {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:     st,
		index:     index,
		emitter:   emitter,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListPoets returns every poet in catalog order.
func (s *Service) ListPoets(ctx context.Context) ([]*domain.Poet, error) {
	poets, err := store.Collect(s.store.Poets.List(ctx))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list poets")
	}
	slices.SortFunc(poets, func(a, b *domain.Poet) int { return cmp.Compare(a.Position, b.Position) })
	return poets, nil
}

// GetPoet returns a poet by id.
func (s *Service) GetPoet(ctx context.Context, id string) (*domain.Poet, error) {
	p, err := s.store.Poets.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("poet %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get poet %q", id)
	}
	return p, nil
}

// ListCategories returns every category in catalog order.
func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := store.Collect(s.store.Categories.List(ctx))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list categories")
	}
	slices.SortFunc(categories, func(a, b *domain.Category) int { return cmp.Compare(a.Position, b.Position) })
	return categories, nil
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.store.Categories.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("category %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get category %q", id)
	}
	return c, nil
}

// ListVerses returns hydrated verses in catalog order, narrowed by filter.
// Verses whose poet or category does not resolve are skipped.
func (s *Service) ListVerses(ctx context.Context, filter VerseFilter) ([]*domain.VerseWithPoet, error) {
	var (
		verses []*domain.Verse
		err    error
	)
	switch {
	case filter.SearchText != "":
		verses, err = store.Collect(s.store.Verses.List(ctx))
	case filter.PoetID != "":
		verses, err = store.Collect(s.store.Verses.ListByIndex(ctx, "poet", filter.PoetID))
	case filter.CategoryID != "":
		verses, err = store.Collect(s.store.Verses.ListByIndex(ctx, "category", filter.CategoryID))
	default:
		verses, err = store.Collect(s.store.Verses.List(ctx))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list verses")
	}

	h, err := s.hydrator(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(verses, func(a, b *domain.Verse) int { return cmp.Compare(a.Position, b.Position) })

	match := matcher(filter.SearchText)
	out := make([]*domain.VerseWithPoet, 0, len(verses))
	for _, v := range verses {
		vp := h.hydrate(v)
		if vp == nil || !match(vp) {
			continue
		}
		out = append(out, vp)
	}
	return out, nil
}

// GetVerse returns a hydrated verse by id.
func (s *Service) GetVerse(ctx context.Context, id string) (*domain.VerseWithPoet, error) {
	v, err := s.store.Verses.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("verse %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get verse %q", id)
	}

	poet, err := s.store.Poets.Get(ctx, v.PoetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("verse %q has no poet or category", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get poet %q", v.PoetID)
	}
	category, err := s.store.Categories.Get(ctx, v.CategoryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.NotFoundf("verse %q has no poet or category", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "get category %q", v.CategoryID)
	}
	return &domain.VerseWithPoet{Verse: *v, Poet: poet, Category: category}, nil
}

// GetFeaturedVerse returns the first featured verse in catalog order.
func (s *Service) GetFeaturedVerse(ctx context.Context) (*domain.VerseWithPoet, error) {
	verses, err := s.ListVerses(ctx, VerseFilter{})
	if err != nil {
		return nil, err
	}
	for _, v := range verses {
		if v.IsFeatured {
			return v, nil
		}
	}
	return nil, errors.NotFound("no featured verse")
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	Revision   int `json:"revision"`
	Poets      int `json:"poets"`
	Categories int `json:"categories"`
	Verses     int `json:"verses"`
}

// Import validates ds and replaces the whole catalog with it, then rebuilds
// the search index and emits catalog.reloaded.
func (s *Service) Import(ctx context.Context, ds *Dataset) (*ImportResult, error) {
	if ds == nil {
		return nil, errors.Validation("dataset is required")
	}
	if err := ds.Validate(s.validator); err != nil {
		return nil, err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	poets, categories, verses := ds.Records()
	if err := s.store.ReplaceCatalog(ctx, poets, categories, verses); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "replace catalog")
	}

	rev, err := s.store.CatalogRevision(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "read catalog revision")
	}

	if err := s.reindex(ctx, rev); err != nil {
		// The catalog itself is committed; substring search still works.
		s.logger.Error("search reindex failed", "error", err)
	}

	result := &ImportResult{
		Revision:   rev,
		Poets:      len(poets),
		Categories: len(categories),
		Verses:     len(verses),
	}
	s.emitter.Emit(sse.NewCatalogReloadedEvent(uint64(rev), result.Poets, result.Categories, result.Verses))
	s.logger.Info("catalog imported",
		"revision", rev, "poets", result.Poets, "categories", result.Categories, "verses", result.Verses)

	return result, nil
}

// SeedIfEmpty imports the embedded default dataset when the catalog has
// never been imported. Otherwise it rebuilds the search index if it is
// behind the catalog.
func (s *Service) SeedIfEmpty(ctx context.Context) (bool, error) {
	rev, err := s.store.CatalogRevision(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "read catalog revision")
	}
	if rev > 0 {
		if err := s.syncIndex(ctx, rev); err != nil {
			s.logger.Error("search reindex failed", "error", err)
		}
		return false, nil
	}

	ds, err := Default()
	if err != nil {
		return false, err
	}
	if _, err := s.Import(ctx, ds); err != nil {
		return false, err
	}
	return true, nil
}

// ImportFile parses and imports a dataset file.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	ds, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, ds)
}

func (s *Service) syncIndex(ctx context.Context, rev int) error {
	if s.index == nil {
		return nil
	}
	indexed, err := s.index.Revision()
	if err == nil && indexed == rev {
		return nil
	}
	return s.reindex(ctx, rev)
}

func (s *Service) reindex(ctx context.Context, rev int) error {
	if s.index == nil {
		return nil
	}
	verses, err := s.ListVerses(ctx, VerseFilter{})
	if err != nil {
		return err
	}
	poets, err := s.ListPoets(ctx)
	if err != nil {
		return err
	}
	return s.index.Reindex(ctx, rev, verses, poets)
}

// Search runs a ranked query against the search index.
func (s *Service) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, errors.Unavailable("search index is not configured")
	}
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search")
	}
	return result, nil
}

type hydrator struct {
	poets      map[string]*domain.Poet
	categories map[string]*domain.Category
}

func (s *Service) hydrator(ctx context.Context) (*hydrator, error) {
	poets, err := store.Collect(s.store.Poets.List(ctx))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list poets")
	}
	categories, err := store.Collect(s.store.Categories.List(ctx))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list categories")
	}

	h := &hydrator{
		poets:      make(map[string]*domain.Poet, len(poets)),
		categories: make(map[string]*domain.Category, len(categories)),
	}
	for _, p := range poets {
		h.poets[p.ID] = p
	}
	for _, c := range categories {
		h.categories[c.ID] = c
	}
	return h, nil
}

func (h *hydrator) hydrate(v *domain.Verse) *domain.VerseWithPoet {
	p, ok := h.poets[v.PoetID]
	if !ok {
		return nil
	}
	c, ok := h.categories[v.CategoryID]
	if !ok {
		return nil
	}
	return &domain.VerseWithPoet{Verse: *v, Poet: p, Category: c}
}

// matcher returns the substring predicate for q. Latin-script fields match
// case-insensitively; the poet's native-script name matches exactly.
func matcher(q string) func(*domain.VerseWithPoet) bool {
	if q == "" {
		return func(*domain.VerseWithPoet) bool { return true }
	}
	exact := norm.NFC.String(q)
	folded := strings.ToLower(exact)
	has := func(field string) bool {
		return strings.Contains(strings.ToLower(norm.NFC.String(field)), folded)
	}
	return func(v *domain.VerseWithPoet) bool {
		return has(v.Text) ||
			has(v.Poet.Name) ||
			has(v.Transliteration) ||
			strings.Contains(norm.NFC.String(v.Poet.UrduName), exact)
	}
}
