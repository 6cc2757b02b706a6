package compositor

import (
	"image"
	imgcolor "image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/rizwanabrish101/shayari/internal/color"
)

// Overlay opacities applied over the background before text is drawn.
const (
	customOverlay = 0.4
	presetOverlay = 0.1
)

// fillGradient paints p across the whole of dst.
func fillGradient(dst *image.RGBA, p Preset) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2
	radius := min(w, h) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		py := float64(y-b.Min.Y) + 0.5
		for x := b.Min.X; x < b.Max.X; x++ {
			px := float64(x-b.Min.X) + 0.5

			var t float64
			switch p.Kind {
			case Radial:
				t = math.Hypot(px-cx, py-cy) / radius
			default:
				// Projection onto the (0,0)->(w,h) diagonal.
				t = (px*w + py*h) / (w*w + h*h)
			}
			dst.SetRGBA(x, y, color.Ramp(p.Stops, t))
		}
	}
}

// fillImage scales src to cover dst, cropping the overflow evenly from both
// sides of the longer axis.
func fillImage(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	db := dst.Bounds()

	sw, sh := sb.Dx(), sb.Dy()
	crop := sb
	if sw*db.Dy() > sh*db.Dx() {
		cw := sh * db.Dx() / db.Dy()
		x0 := sb.Min.X + (sw-cw)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cw, sb.Max.Y)
	} else if sw*db.Dy() < sh*db.Dx() {
		ch := sw * db.Dy() / db.Dx()
		y0 := sb.Min.Y + (sh-ch)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+ch)
	}

	draw.CatmullRom.Scale(dst, db, src, crop, draw.Src, nil)
}

// darken lays a black veil of the given opacity over dst.
func darken(dst *image.RGBA, opacity float64) {
	a := uint8(math.Round(opacity * 0xff))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(imgcolor.NRGBA{A: a}), image.Point{}, draw.Over)
}
