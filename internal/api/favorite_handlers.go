package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

func (s *Server) registerFavoriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorites",
		Description: "Returns favorite verses in the order they were added. Favorites whose verse is no longer in the catalog are omitted.",
		Tags:        []string{"Favorites"},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addFavorite",
		Method:        http.MethodPost,
		Path:          "/api/v1/favorites",
		Summary:       "Add favorite",
		Description:   "Marks a verse as favorite. Adding it again moves it to the end of the list.",
		Tags:          []string{"Favorites"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFavoriteStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites/{verse_id}",
		Summary:     "Favorite status",
		Description: "Reports whether a verse is a favorite",
		Tags:        []string{"Favorites"},
	}, s.handleGetFavoriteStatus)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeFavorite",
		Method:        http.MethodDelete,
		Path:          "/api/v1/favorites/{verse_id}",
		Summary:       "Remove favorite",
		Description:   "Removes a favorite. Removing a verse that is not a favorite succeeds.",
		Tags:          []string{"Favorites"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveFavorite)
}

// === DTOs ===

// AddFavoriteRequest is the request body for adding a favorite.
type AddFavoriteRequest struct {
	VerseID string `json:"verse_id" minLength:"1" doc:"Verse to favorite"`
}

// AddFavoriteInput wraps the add favorite request for Huma.
type AddFavoriteInput struct {
	Body AddFavoriteRequest
}

// FavoriteOutput wraps a favorite record for Huma.
type FavoriteOutput struct {
	Body *domain.Favorite
}

// VerseIDInput is the favorite path parameter.
type VerseIDInput struct {
	VerseID string `path:"verse_id" doc:"Verse ID"`
}

// FavoriteStatusResponse reports a single verse's favorite state.
type FavoriteStatusResponse struct {
	VerseID    string `json:"verse_id" doc:"Verse ID"`
	IsFavorite bool   `json:"is_favorite" doc:"Whether the verse is a favorite"`
}

// FavoriteStatusOutput wraps the status response for Huma.
type FavoriteStatusOutput struct {
	Body FavoriteStatusResponse
}

// === Handlers ===

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*VersesOutput, error) {
	verses, err := s.services.Favorites.ListFavorites(ctx)
	if err != nil {
		return nil, err
	}
	return &VersesOutput{Body: nonNil(verses)}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *AddFavoriteInput) (*FavoriteOutput, error) {
	// The reconciler accepts any id; over HTTP an unknown verse is a 404.
	if _, err := s.services.Catalog.GetVerse(ctx, input.Body.VerseID); err != nil {
		return nil, err
	}

	fav, err := s.services.Favorites.Add(ctx, input.Body.VerseID)
	if err != nil {
		return nil, err
	}
	return &FavoriteOutput{Body: fav}, nil
}

func (s *Server) handleGetFavoriteStatus(ctx context.Context, input *VerseIDInput) (*FavoriteStatusOutput, error) {
	ok, err := s.services.Favorites.IsFavorite(ctx, input.VerseID)
	if err != nil {
		return nil, err
	}
	return &FavoriteStatusOutput{Body: FavoriteStatusResponse{VerseID: input.VerseID, IsFavorite: ok}}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *VerseIDInput) (*struct{}, error) {
	if err := s.services.Favorites.Remove(ctx, input.VerseID); err != nil {
		return nil, err
	}
	return nil, nil
}
