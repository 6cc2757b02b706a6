package compositor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	all := Presets()
	require.Len(t, all, 12)

	seen := map[string]bool{}
	var radial []string
	for _, p := range all {
		assert.False(t, seen[p.Name], "duplicate preset %s", p.Name)
		seen[p.Name] = true
		assert.NotEmpty(t, p.Label)
		assert.Len(t, p.Stops, 3)
		if p.Kind == Radial {
			radial = append(radial, p.Name)
		}
	}
	assert.Equal(t, []string{"royal", "romantic", "mystical"}, radial)
}

func TestPresetsReturnsCopies(t *testing.T) {
	all := Presets()
	all[0].Stops[0].R = 0

	p, err := LookupPreset(all[0].Name)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), p.Stops[0].R)
}

func TestLookupPreset(t *testing.T) {
	p, err := LookupPreset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPreset, p.Name)

	p, err = LookupPreset("night")
	require.NoError(t, err)
	assert.Equal(t, "رات", p.Label)

	_, err = LookupPreset("neon")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestFillGradient_LinearEndpoints(t *testing.T) {
	p, err := LookupPreset("night")
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fillGradient(img, p)

	assert.InDelta(t, int(p.Stops[0].B), int(img.RGBAAt(0, 0).B), 2)
	assert.InDelta(t, int(p.Stops[2].B), int(img.RGBAAt(99, 99).B), 2)
	// The anti-diagonal sits on the middle stop.
	assert.InDelta(t, int(p.Stops[1].B), int(img.RGBAAt(99, 0).B), 2)
}

func TestFillGradient_RadialCentre(t *testing.T) {
	p, err := LookupPreset("mystical")
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fillGradient(img, p)

	centre := img.RGBAAt(50, 50)
	assert.InDelta(t, int(p.Stops[0].R), int(centre.R), 3)
	// Corners lie beyond the radius and take the last stop.
	assert.Equal(t, p.Stops[2], img.RGBAAt(0, 0))
	assert.Equal(t, img.RGBAAt(0, 0), img.RGBAAt(99, 99))
}
