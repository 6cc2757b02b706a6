package compositor

import (
	"bytes"
	"fmt"
	"os"
	"unicode"

	"github.com/go-fonts/dejavu/dejavusans"
	"github.com/go-fonts/dejavu/dejavusansbold"
	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
)

// Glyph sizes in pixels.
const (
	verseFontSize       = 36
	attributionFontSize = 24
	watermarkFontSize   = 18
)

// typeface is one parsed font file. The shaping face drives HarfBuzz
// shaping; the outline font supplies glyph contours and metrics.
type typeface struct {
	shaping *font.Face
	outline *sfnt.Font
}

// fallback is an ordered list of typefaces. Each directional run is shaped
// with the first typeface that has a glyph for every rune in it.
type fallback []*typeface

func parseTypeface(data []byte) (*typeface, error) {
	outline, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font tables: %w", err)
	}
	return &typeface{shaping: face, outline: outline}, nil
}

func readTypeface(path string) (*typeface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	tf, err := parseTypeface(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// loadFonts builds the verse (bold) and body (regular) fallback chains. A
// configured font goes first; the embedded DejaVu Sans faces, which carry
// the Arabic block, always follow it.
func loadFonts(opts Options) (bold, regular fallback, err error) {
	sansBold, err := parseTypeface(dejavusansbold.TTF)
	if err != nil {
		return nil, nil, err
	}
	sans, err := parseTypeface(dejavusans.TTF)
	if err != nil {
		return nil, nil, err
	}

	bold = fallback{sansBold, sans}
	regular = fallback{sans}
	if opts.BoldFontPath != "" {
		tf, err := readTypeface(opts.BoldFontPath)
		if err != nil {
			return nil, nil, err
		}
		bold = append(fallback{tf}, bold...)
	}
	if opts.RegularFontPath != "" {
		tf, err := readTypeface(opts.RegularFontPath)
		if err != nil {
			return nil, nil, err
		}
		regular = append(fallback{tf}, regular...)
	}
	return bold, regular, nil
}

// covers reports whether tf maps every non-space rune of text to a real
// glyph.
func (tf *typeface) covers(buf *sfnt.Buffer, text []rune) bool {
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.Is(unicode.Bidi_Control, r) {
			continue
		}
		gi, err := tf.outline.GlyphIndex(buf, r)
		if err != nil || gi == 0 {
			return false
		}
	}
	return true
}

// pick returns the first typeface covering text, or the last one in the
// chain when none does.
func (fb fallback) pick(buf *sfnt.Buffer, text []rune) *typeface {
	for _, tf := range fb {
		if tf.covers(buf, text) {
			return tf
		}
	}
	return fb[len(fb)-1]
}
