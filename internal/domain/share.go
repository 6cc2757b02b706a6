package domain

import "time"

// Share is a composed verse image published for sharing.
type Share struct {
	ID         string    `json:"id"`
	VerseID    string    `json:"verse_id,omitempty"` // Empty for free-text compositions
	Preset     string    `json:"preset,omitempty"`   // Empty when a custom background was used
	Backend    string    `json:"backend"`            // "local" or "s3"
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	BlurHash   string    `json:"blur_hash,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}
