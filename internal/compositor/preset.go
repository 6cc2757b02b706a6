package compositor

import (
	"fmt"
	imgcolor "image/color"
	"slices"

	"github.com/rizwanabrish101/shayari/internal/color"
)

// GradientKind selects how a preset's stops are laid across the canvas.
type GradientKind string

const (
	// Linear runs diagonally from the top-left to the bottom-right corner.
	Linear GradientKind = "linear"
	// Radial runs from the canvas centre out to half the canvas size.
	Radial GradientKind = "radial"
)

// Preset is a named background gradient.
type Preset struct {
	Name  string
	Label string
	Kind  GradientKind
	Stops []imgcolor.RGBA
}

// DefaultPreset is used when a request names no background.
const DefaultPreset = "sunset"

func preset(name, label string, kind GradientKind, hexes ...string) Preset {
	stops := make([]imgcolor.RGBA, len(hexes))
	for i, h := range hexes {
		stops[i] = color.MustParseHex(h)
	}
	return Preset{Name: name, Label: label, Kind: kind, Stops: stops}
}

var presets = []Preset{
	preset("sunset", "غروب آفتاب", Linear, "#ff7e5f", "#feb47b", "#ff6b6b"),
	preset("mountain", "پہاڑ", Linear, "#667eea", "#764ba2", "#667eea"),
	preset("night", "رات", Linear, "#1a1a2e", "#16213e", "#0f3460"),
	preset("garden", "باغ", Linear, "#56ab2f", "#a8e6cf", "#56ab2f"),
	preset("vintage", "پرانا", Linear, "#ffeaa7", "#fab1a0", "#e17055"),
	preset("minimal", "سادہ", Linear, "#f8f9fa", "#e9ecef", "#f8f9fa"),
	preset("ocean", "سمندر", Linear, "#00c6ff", "#0072ff", "#74b9ff"),
	preset("desert", "صحرا", Linear, "#f7971e", "#ffd200", "#ffb347"),
	preset("forest", "جنگل", Linear, "#11998e", "#38ef7d", "#2d5a27"),
	preset("royal", "شاہی", Radial, "#667eea", "#764ba2", "#f093fb"),
	preset("romantic", "رومانی", Radial, "#ff9a9e", "#fecfef", "#fecfef"),
	preset("mystical", "پُراسرار", Radial, "#4b0082", "#8a2be2", "#da70d6"),
}

// Presets returns the built-in backgrounds in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		p.Stops = slices.Clone(p.Stops)
		out[i] = p
	}
	return out
}

// LookupPreset finds a preset by name. An empty name selects DefaultPreset.
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	for _, p := range presets {
		if p.Name == name {
			p.Stops = slices.Clone(p.Stops)
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
