// Package sse implements Server-Sent Events for pushing favorite, catalog and
// share changes to connected UI surfaces.
package sse

import (
	"time"

	"github.com/rizwanabrish101/shayari/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventFavoriteAdded is sent after a favorite is committed.
	EventFavoriteAdded EventType = "favorite.added"
	// EventFavoriteRemoved is sent after a favorite is removed.
	EventFavoriteRemoved EventType = "favorite.removed"

	// EventFavoriteStatus carries the current status of one watched verse.
	// It is only sent on per-verse watch streams.
	EventFavoriteStatus EventType = "favorite.status"
	// EventFavoritesList carries the hydrated favorite list on the list
	// watch stream.
	EventFavoritesList EventType = "favorites.list"

	// EventCatalogReloaded is sent after a dataset import replaced the catalog.
	EventCatalogReloaded EventType = "catalog.reloaded"

	// EventShareCreated is sent after a composed image is published.
	EventShareCreated EventType = "share.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message on the stream. ID is assigned by the Manager when the
// event is broadcast; heartbeats carry no ID and are never replayed.
type Event struct {
	ID        uint64    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// FavoriteEventData is the payload for favorite events.
type FavoriteEventData struct {
	VerseID    string `json:"verse_id"`
	IsFavorite bool   `json:"is_favorite"`
}

// CatalogReloadedEventData is the payload for catalog.reloaded.
type CatalogReloadedEventData struct {
	Revision   uint64 `json:"revision"`
	Poets      int    `json:"poets"`
	Categories int    `json:"categories"`
	Verses     int    `json:"verses"`
}

// ShareEventData is the payload for share.created.
type ShareEventData struct {
	Share *domain.Share `json:"share"`
}

// HeartbeatEventData is the payload for heartbeats.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewFavoriteAddedEvent creates a favorite.added event.
func NewFavoriteAddedEvent(verseID string) Event {
	return Event{
		Type:      EventFavoriteAdded,
		Timestamp: time.Now(),
		Data:      FavoriteEventData{VerseID: verseID, IsFavorite: true},
	}
}

// NewFavoriteRemovedEvent creates a favorite.removed event.
func NewFavoriteRemovedEvent(verseID string) Event {
	return Event{
		Type:      EventFavoriteRemoved,
		Timestamp: time.Now(),
		Data:      FavoriteEventData{VerseID: verseID, IsFavorite: false},
	}
}

// NewCatalogReloadedEvent creates a catalog.reloaded event.
func NewCatalogReloadedEvent(revision uint64, poets, categories, verses int) Event {
	return Event{
		Type:      EventCatalogReloaded,
		Timestamp: time.Now(),
		Data: CatalogReloadedEventData{
			Revision:   revision,
			Poets:      poets,
			Categories: categories,
			Verses:     verses,
		},
	}
}

// NewShareCreatedEvent creates a share.created event.
func NewShareCreatedEvent(share *domain.Share) Event {
	return Event{
		Type:      EventShareCreated,
		Timestamp: time.Now(),
		Data:      ShareEventData{Share: share},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
