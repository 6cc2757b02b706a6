package domain

import (
	"strconv"
	"strings"
)

// Verse is a shayari: a short poem or couplet. Text holds newline-delimited
// lines in the native script. Verses are immutable once loaded.
type Verse struct {
	ID              string `json:"id"`
	PoetID          string `json:"poet_id"`
	CategoryID      string `json:"category_id"`
	Text            string `json:"text"`
	Transliteration string `json:"transliteration,omitempty"`
	Translation     string `json:"translation,omitempty"`
	IsFeatured      bool   `json:"is_featured"`
	Position        int    `json:"position"`
}

// Lines returns the trimmed, non-blank lines of the verse text.
func (v *Verse) Lines() []string {
	return SplitLines(v.Text)
}

// VerseWithPoet is a verse hydrated with its poet and category.
type VerseWithPoet struct {
	Verse
	Poet     *Poet     `json:"poet"`
	Category *Category `json:"category"`
}

// SplitLines splits text on newlines, trims each line and drops blank ones.
func SplitLines(text string) []string {
	var lines []string
	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func itoa(n int) string { return strconv.Itoa(n) }
