package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rizwanabrish101/shayari/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search",
		Description: "Ranked fuzzy search over verses and poets",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search query parameters.
type SearchInput struct {
	Query    string `query:"q" minLength:"1" maxLength:"200" required:"true" doc:"Search text"`
	Type     string `query:"type" enum:"verse,poet" doc:"Restrict to one document type"`
	Poet     string `query:"poet" doc:"Poet ID filter"`
	Category string `query:"category" doc:"Category ID filter"`
	Limit    int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
	Offset   int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.PoetID = input.Poet
	params.CategoryID = input.Category
	params.Offset = input.Offset
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Type != "" {
		params.Types = []search.DocType{search.DocType(input.Type)}
	}

	result, err := s.services.Catalog.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if result.Hits == nil {
		result.Hits = []search.SearchHit{}
	}
	return &SearchOutput{Body: result}, nil
}
