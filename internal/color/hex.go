// Package color parses and blends the hex colors used by background presets.
package color

import (
	"fmt"
	imgcolor "image/color"
	"math"
	"strconv"
	"strings"
)

// ParseHex parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHex(s string) (imgcolor.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return imgcolor.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return imgcolor.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return imgcolor.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustParseHex is like ParseHex but panics on malformed input.
// Use it only for compile-time constants.
func MustParseHex(s string) imgcolor.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", ignoring alpha.
func Hex(c imgcolor.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp interpolates between a and b; t is clamped to [0, 1].
func Lerp(a, b imgcolor.RGBA, t float64) imgcolor.RGBA {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return imgcolor.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Ramp samples an evenly spaced multi-stop gradient at t in [0, 1]. Stop i
// sits at i/(len(stops)-1).
func Ramp(stops []imgcolor.RGBA, t float64) imgcolor.RGBA {
	switch len(stops) {
	case 0:
		return imgcolor.RGBA{}
	case 1:
		return stops[0]
	}

	t = min(max(t, 0), 1)
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	return Lerp(stops[i], stops[i+1], pos-float64(i))
}
