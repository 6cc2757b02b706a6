// Package id generates the short identifiers used for shares and SSE
// clients. Share ids double as object keys, so the alphabet is limited to
// lowercase letters and digits.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	PrefixShare  = "shr"
	PrefixClient = "sse"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	length   = 16
)

// Generate returns prefix + "_" + a random suffix, e.g. "shr_4f0c9kq2m7xz1b8d".
func Generate(prefix string) (string, error) {
	suffix, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + "_" + suffix, nil
}

// Valid reports whether s could have been produced by Generate(prefix).
func Valid(prefix, s string) bool {
	suffix, ok := strings.CutPrefix(s, prefix+"_")
	if !ok || len(suffix) != length {
		return false
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
