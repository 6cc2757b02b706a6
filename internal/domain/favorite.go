package domain

import "time"

// Favorite marks a verse as favorited by the local user. Its identity is the
// verse ID: there is at most one favorite per verse.
type Favorite struct {
	VerseID   string    `json:"verse_id"`
	CreatedAt time.Time `json:"created_at"`
}
