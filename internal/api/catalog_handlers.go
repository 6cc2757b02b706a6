package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rizwanabrish101/shayari/internal/catalog"
	"github.com/rizwanabrish101/shayari/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPoets",
		Method:      http.MethodGet,
		Path:        "/api/v1/poets",
		Summary:     "List poets",
		Description: "Returns all poets in catalog order",
		Tags:        []string{"Catalog"},
	}, s.handleListPoets)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPoet",
		Method:      http.MethodGet,
		Path:        "/api/v1/poets/{id}",
		Summary:     "Get poet",
		Description: "Returns a poet by ID",
		Tags:        []string{"Catalog"},
	}, s.handleGetPoet)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPoetVerses",
		Method:      http.MethodGet,
		Path:        "/api/v1/poets/{id}/verses",
		Summary:     "List poet verses",
		Description: "Returns the verses written by a poet",
		Tags:        []string{"Catalog"},
	}, s.handleListPoetVerses)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns all categories in catalog order",
		Tags:        []string{"Catalog"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Description: "Returns a category by ID",
		Tags:        []string{"Catalog"},
	}, s.handleGetCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVerses",
		Method:      http.MethodGet,
		Path:        "/api/v1/verses",
		Summary:     "List verses",
		Description: "Returns verses, optionally filtered. When several filters are given, search wins over poet, and poet over category.",
		Tags:        []string{"Catalog"},
	}, s.handleListVerses)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFeaturedVerse",
		Method:      http.MethodGet,
		Path:        "/api/v1/verses/featured",
		Summary:     "Get featured verse",
		Description: "Returns the first featured verse in catalog order",
		Tags:        []string{"Catalog"},
	}, s.handleGetFeaturedVerse)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVerse",
		Method:      http.MethodGet,
		Path:        "/api/v1/verses/{id}",
		Summary:     "Get verse",
		Description: "Returns a verse with its poet and category",
		Tags:        []string{"Catalog"},
	}, s.handleGetVerse)
}

// === DTOs ===

// PoetsOutput wraps a poet list for Huma.
type PoetsOutput struct {
	Body []*domain.Poet
}

// PoetOutput wraps a poet for Huma.
type PoetOutput struct {
	Body *domain.Poet
}

// CategoriesOutput wraps a category list for Huma.
type CategoriesOutput struct {
	Body []*domain.Category
}

// CategoryOutput wraps a category for Huma.
type CategoryOutput struct {
	Body *domain.Category
}

// VersesOutput wraps a hydrated verse list for Huma.
type VersesOutput struct {
	Body []*domain.VerseWithPoet
}

// VerseOutput wraps a hydrated verse for Huma.
type VerseOutput struct {
	Body *domain.VerseWithPoet
}

// IDInput is a path parameter shared by lookups.
type IDInput struct {
	ID string `path:"id" doc:"Record ID"`
}

// ListVersesInput contains the verse filters.
type ListVersesInput struct {
	Search   string `query:"search" doc:"Substring over text, poet names and transliteration"`
	Poet     string `query:"poet" doc:"Poet ID"`
	Category string `query:"category" doc:"Category ID"`
}

// === Handlers ===

func (s *Server) handleListPoets(ctx context.Context, _ *struct{}) (*PoetsOutput, error) {
	poets, err := s.services.Catalog.ListPoets(ctx)
	if err != nil {
		return nil, err
	}
	return &PoetsOutput{Body: nonNil(poets)}, nil
}

func (s *Server) handleGetPoet(ctx context.Context, input *IDInput) (*PoetOutput, error) {
	poet, err := s.services.Catalog.GetPoet(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PoetOutput{Body: poet}, nil
}

func (s *Server) handleListPoetVerses(ctx context.Context, input *IDInput) (*VersesOutput, error) {
	// Unknown poets are a 404 rather than an empty list.
	if _, err := s.services.Catalog.GetPoet(ctx, input.ID); err != nil {
		return nil, err
	}
	verses, err := s.services.Catalog.ListVerses(ctx, catalog.VerseFilter{PoetID: input.ID})
	if err != nil {
		return nil, err
	}
	return &VersesOutput{Body: nonNil(verses)}, nil
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoriesOutput, error) {
	categories, err := s.services.Catalog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoriesOutput{Body: nonNil(categories)}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *IDInput) (*CategoryOutput, error) {
	category, err := s.services.Catalog.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: category}, nil
}

func (s *Server) handleListVerses(ctx context.Context, input *ListVersesInput) (*VersesOutput, error) {
	verses, err := s.services.Catalog.ListVerses(ctx, catalog.VerseFilter{
		PoetID:     input.Poet,
		CategoryID: input.Category,
		SearchText: input.Search,
	})
	if err != nil {
		return nil, err
	}
	return &VersesOutput{Body: nonNil(verses)}, nil
}

func (s *Server) handleGetFeaturedVerse(ctx context.Context, _ *struct{}) (*VerseOutput, error) {
	verse, err := s.services.Catalog.GetFeaturedVerse(ctx)
	if err != nil {
		return nil, err
	}
	return &VerseOutput{Body: verse}, nil
}

func (s *Server) handleGetVerse(ctx context.Context, input *IDInput) (*VerseOutput, error) {
	verse, err := s.services.Catalog.GetVerse(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &VerseOutput{Body: verse}, nil
}

// nonNil makes empty lists encode as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
