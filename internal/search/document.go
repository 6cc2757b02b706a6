// Package search provides ranked full-text search over verses and poets
// using Bleve, complementing the catalog's exact substring filter with
// fuzzy and prefix matching.
package search

import "github.com/rizwanabrish101/shayari/internal/domain"

// DocType represents the type of document in the index.
type DocType string

// Document types for the search index.
const (
	DocTypeVerse DocType = "verse"
	DocTypePoet  DocType = "poet"
)

// SearchDocument is the unified document structure for the Bleve index.
// Poet and category names are denormalized into verse documents so a single
// query covers both.
type SearchDocument struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Verse: first line of the text. Poet: transliterated name.
	Name string `json:"name"`

	Text            string `json:"text,omitempty"`
	Transliteration string `json:"transliteration,omitempty"`
	Translation     string `json:"translation,omitempty"`

	PoetID       string `json:"poet_id,omitempty"`
	PoetName     string `json:"poet_name,omitempty"`
	PoetUrduName string `json:"poet_urdu_name,omitempty"`
	CategoryID   string `json:"category_id,omitempty"`
	Category     string `json:"category,omitempty"`

	Biography string `json:"biography,omitempty"`
	Position  int    `json:"position"`
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"type":     string(d.Type),
		"name":     d.Name,
		"position": d.Position,
	}

	optional := map[string]string{
		"text":            d.Text,
		"transliteration": d.Transliteration,
		"translation":     d.Translation,
		"poet_id":         d.PoetID,
		"poet_name":       d.PoetName,
		"poet_urdu_name":  d.PoetUrduName,
		"category_id":     d.CategoryID,
		"category":        d.Category,
		"biography":       d.Biography,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// VerseToSearchDocument converts a hydrated verse to a SearchDocument.
func VerseToSearchDocument(v *domain.VerseWithPoet) *SearchDocument {
	doc := &SearchDocument{
		ID:              v.ID,
		Type:            DocTypeVerse,
		Text:            v.Text,
		Transliteration: v.Transliteration,
		Translation:     v.Translation,
		PoetID:          v.PoetID,
		CategoryID:      v.CategoryID,
		Position:        v.Position,
	}
	if lines := v.Lines(); len(lines) > 0 {
		doc.Name = lines[0]
	}
	if v.Poet != nil {
		doc.PoetName = v.Poet.Name
		doc.PoetUrduName = v.Poet.UrduName
	}
	if v.Category != nil {
		doc.Category = v.Category.Name
	}
	return doc
}

// PoetToSearchDocument converts a poet to a SearchDocument.
func PoetToSearchDocument(p *domain.Poet) *SearchDocument {
	return &SearchDocument{
		ID:           "poet:" + p.ID,
		Type:         DocTypePoet,
		Name:         p.Name,
		PoetID:       p.ID,
		PoetName:     p.Name,
		PoetUrduName: p.UrduName,
		Biography:    p.Biography,
		Position:     p.Position,
	}
}
