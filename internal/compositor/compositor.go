// Package compositor renders verse text onto a styled background to produce
// a square PNG for sharing.
//
// Output is a pure function of the request: the same text, attribution and
// background always produce byte-identical PNG data.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	imgcolor "image/color"
	"image/png"

	"github.com/rizwanabrish101/shayari/internal/errors"
)

var (
	// ErrEmptyText is returned when the text has no non-blank line.
	ErrEmptyText = errors.New("compositor: text is required")
	// ErrNoSurface is returned when fonts or the canvas cannot be set up.
	ErrNoSurface = errors.New("compositor: drawing surface unavailable")
	// ErrUnknownPreset is returned for a background name that is not a preset.
	ErrUnknownPreset = errors.New("compositor: unknown background preset")
	// ErrBadImage is returned for a custom background with no pixels.
	ErrBadImage = errors.New("compositor: custom image is empty")
)

// Options configures the fonts. A configured font is tried first for each
// run of text; the embedded DejaVu Sans faces back it up.
type Options struct {
	BoldFontPath    string
	RegularFontPath string
}

// Request describes one image. When Custom is set it replaces the preset.
type Request struct {
	Text        string
	Attribution string
	Preset      string
	Custom      image.Image
}

// Compositor renders verse images. It is safe for concurrent use.
type Compositor struct {
	bold    fallback
	regular fallback
	encoder png.Encoder
}

// New loads the fonts. A font that cannot be read or parsed is reported as
// ErrNoSurface.
func New(opts Options) (*Compositor, error) {
	bold, regular, err := loadFonts(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
	}
	return &Compositor{
		bold:    bold,
		regular: regular,
		encoder: png.Encoder{CompressionLevel: png.DefaultCompression},
	}, nil
}

// Compose draws the image described by req.
func (c *Compositor) Compose(req Request) (*image.RGBA, error) {
	lines := Layout(req.Text)
	if len(lines) == 0 {
		return nil, ErrEmptyText
	}

	canvas := image.NewRGBA(image.Rect(0, 0, Size, Size))
	if req.Custom != nil {
		if req.Custom.Bounds().Empty() {
			return nil, ErrBadImage
		}
		fillImage(canvas, req.Custom)
		darken(canvas, customOverlay)
	} else {
		p, err := LookupPreset(req.Preset)
		if err != nil {
			return nil, err
		}
		fillGradient(canvas, p)
		darken(canvas, presetOverlay)
	}

	var p pen
	verse := textStyle{
		faces: c.bold,
		size:  verseFontSize,
		fill:  white(1),
		shadow: &shadow{
			color: black(0.3),
			dx:    2,
			dy:    2,
			blur:  4,
		},
	}
	for _, l := range lines {
		if err := p.drawCentered(canvas, l.Text, l.CenterY, verse); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
		}
	}

	if req.Attribution != "" {
		err := p.drawCentered(canvas, "- "+req.Attribution, attributionY, textStyle{
			faces: c.regular,
			size:  attributionFontSize,
			fill:  white(0.9),
			shadow: &shadow{
				color: black(0.2),
				dx:    1,
				dy:    1,
				blur:  2,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
		}
	}

	mark := textStyle{faces: c.regular, size: watermarkFontSize, fill: white(0.6)}
	if err := p.drawCentered(canvas, Watermark, watermarkY, mark); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
	}

	return canvas, nil
}

// Render composes req and encodes it as PNG.
func (c *Compositor) Render(req Request) ([]byte, error) {
	img, err := c.Compose(req)
	if err != nil {
		return nil, err
	}
	return c.Encode(img)
}

// Encode writes img as PNG with the compositor's encoder settings.
func (c *Compositor) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func white(opacity float64) imgcolor.NRGBA {
	return imgcolor.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: alpha(opacity)}
}

func black(opacity float64) imgcolor.NRGBA {
	return imgcolor.NRGBA{A: alpha(opacity)}
}

func alpha(opacity float64) uint8 {
	return uint8(opacity*0xff + 0.5)
}
