package color

import (
	imgcolor "image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff7e5f")
	require.NoError(t, err)
	assert.Equal(t, imgcolor.RGBA{R: 0xff, G: 0x7e, B: 0x5f, A: 0xff}, c)

	c, err = ParseHex("fff")
	require.NoError(t, err)
	assert.Equal(t, imgcolor.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	for _, bad := range []string{"", "#12", "#gggggg", "#1234567"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestHexRoundTrip(t *testing.T) {
	assert.Equal(t, "#4b0082", Hex(MustParseHex("#4B0082")))
}

func TestMustParseHexPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseHex("nope") })
}

func TestLerp(t *testing.T) {
	black := imgcolor.RGBA{A: 0xff}
	white := imgcolor.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	assert.Equal(t, black, Lerp(black, white, 0))
	assert.Equal(t, white, Lerp(black, white, 1))
	assert.Equal(t, white, Lerp(black, white, 7))
	assert.Equal(t, uint8(128), Lerp(black, white, 0.5).R)
}

func TestRamp(t *testing.T) {
	stops := []imgcolor.RGBA{
		MustParseHex("#000000"),
		MustParseHex("#ff0000"),
		MustParseHex("#ffffff"),
	}

	assert.Equal(t, stops[0], Ramp(stops, 0))
	assert.Equal(t, stops[1], Ramp(stops, 0.5))
	assert.Equal(t, stops[2], Ramp(stops, 1))
	assert.Equal(t, uint8(0xff), Ramp(stops, 0.75).R)
	assert.Equal(t, uint8(128), Ramp(stops, 0.75).G)

	assert.Equal(t, stops[0], Ramp(stops[:1], 0.9))
	assert.Equal(t, imgcolor.RGBA{}, Ramp(nil, 0.5))
}
