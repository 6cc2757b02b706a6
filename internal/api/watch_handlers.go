package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/sse"
)

// registerWatchRoutes mounts the live favorite streams. They are plain chi
// routes next to /api/v1/events because huma operations cannot stream.
func (s *Server) registerWatchRoutes() {
	s.router.Get("/api/v1/favorites/watch", s.handleWatchFavorites)
	s.router.Get("/api/v1/favorites/{verse_id}/watch", s.handleWatchFavorite)
}

// handleWatchFavorite streams favorite.status events for one verse, starting
// with its current status.
func (s *Server) handleWatchFavorite(w http.ResponseWriter, r *http.Request) {
	verseID := chi.URLParam(r, "verse_id")
	sub, err := s.services.Favorites.WatchStatus(r.Context(), verseID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Close()

	sse.Stream(w, r, sse.EventFavoriteStatus, sub.C, func(v bool) any {
		return sse.FavoriteEventData{VerseID: verseID, IsFavorite: v}
	}, s.logger)
}

// handleWatchFavorites streams favorites.list events with the hydrated list
// whenever it changes.
func (s *Server) handleWatchFavorites(w http.ResponseWriter, r *http.Request) {
	sub, err := s.services.Favorites.WatchList(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Close()

	sse.Stream(w, r, sse.EventFavoritesList, sub.C, func(vs []*domain.VerseWithPoet) any {
		return nonNil(vs)
	}, s.logger)
}

// writeError writes err in the error envelope for routes outside huma.
func writeError(w http.ResponseWriter, err error) {
	apiErr := mapError(err)
	if apiErr == nil {
		apiErr = &APIError{status: http.StatusInternalServerError, Code: statusToCode(http.StatusInternalServerError), Message: "internal error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.status)
	_ = json.MarshalWrite(w, APIErrorEnvelope{
		Version: EnvelopeVersion,
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	})
}
