package compositor

import (
	"fmt"
	"image"
	imgcolor "image/color"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

var (
	urdu    = language.NewLanguage("ur")
	english = language.NewLanguage("en")
)

// shadow is a blurred, offset copy of the glyph mask drawn under the text.
type shadow struct {
	color  imgcolor.NRGBA
	dx, dy int
	blur   int
}

type textStyle struct {
	faces  fallback
	size   int
	fill   imgcolor.NRGBA
	shadow *shadow
}

// glyph is one shaped glyph. x and y are offsets of its origin from the
// line origin, with y pointing up.
type glyph struct {
	face *typeface
	id   sfnt.GlyphIndex
	x, y fixed.Int26_6
}

type shapedLine struct {
	glyphs  []glyph
	advance fixed.Int26_6
}

// pen shapes and rasterizes text. It is not safe for concurrent use, so
// each Compose call makes its own.
type pen struct {
	shaper shaping.HarfbuzzShaper
	buf    sfnt.Buffer
}

// shape turns s into positioned glyphs in visual order.
func (p *pen) shape(s string, faces fallback, size int) shapedLine {
	text := []rune(s)
	var line shapedLine
	for _, r := range bidiRuns(text) {
		tf := faces.pick(&p.buf, text[r.start:r.end])
		in := shaping.Input{
			Text:      text,
			RunStart:  r.start,
			RunEnd:    r.end,
			Direction: di.DirectionLTR,
			Face:      tf.shaping,
			Size:      fixed.I(size),
			Script:    language.Latin,
			Language:  english,
		}
		if r.dir == rtl {
			in.Direction = di.DirectionRTL
			in.Script = language.Arabic
			in.Language = urdu
		}

		out := p.shaper.Shape(in)
		for _, g := range out.Glyphs {
			line.glyphs = append(line.glyphs, glyph{
				face: tf,
				id:   sfnt.GlyphIndex(g.GlyphID),
				x:    line.advance + g.XOffset,
				y:    g.YOffset,
			})
			line.advance += g.XAdvance
		}
	}
	return line
}

// fill rasterizes line into mask with its origin at (x, y) in canvas
// coordinates.
func (p *pen) fill(mask *image.Alpha, line shapedLine, x, y fixed.Int26_6, size int) error {
	b := mask.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	ppem := fixed.I(size)
	for _, g := range line.glyphs {
		segs, err := g.face.outline.LoadGlyph(&p.buf, g.id, ppem, nil)
		if err != nil {
			return fmt.Errorf("load glyph %d: %w", g.id, err)
		}
		ox := float32(x+g.x-fixed.I(b.Min.X)) / 64
		oy := float32(y-g.y-fixed.I(b.Min.Y)) / 64
		pt := func(a fixed.Point26_6) (float32, float32) {
			return ox + float32(a.X)/64, oy + float32(a.Y)/64
		}

		open := false
		for _, seg := range segs {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if open {
					z.ClosePath()
				}
				z.MoveTo(pt(seg.Args[0]))
				open = true
			case sfnt.SegmentOpLineTo:
				z.LineTo(pt(seg.Args[0]))
			case sfnt.SegmentOpQuadTo:
				bx, by := pt(seg.Args[0])
				cx, cy := pt(seg.Args[1])
				z.QuadTo(bx, by, cx, cy)
			case sfnt.SegmentOpCubeTo:
				bx, by := pt(seg.Args[0])
				cx, cy := pt(seg.Args[1])
				dx, dy := pt(seg.Args[2])
				z.CubeTo(bx, by, cx, cy, dx, dy)
			}
		}
		if open {
			z.ClosePath()
		}
	}
	z.Draw(mask, b, image.Opaque, image.Point{})
	return nil
}

// drawCentered draws s centred horizontally on the canvas with its vertical
// middle at centerY.
func (p *pen) drawCentered(dst *image.RGBA, s string, centerY int, st textStyle) error {
	m, err := st.faces[0].outline.Metrics(&p.buf, fixed.I(st.size), xfont.HintingNone)
	if err != nil {
		return fmt.Errorf("font metrics: %w", err)
	}
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	baseline := centerY + (ascent-descent)/2

	pad := 0
	if st.shadow != nil {
		pad = 2 * st.shadow.blur
	}
	b := dst.Bounds()
	rect := image.Rect(b.Min.X, baseline-ascent-pad, b.Max.X, baseline+descent+pad)

	line := p.shape(s, st.faces, st.size)
	mask := image.NewAlpha(rect)
	originX := fixed.I(b.Min.X+b.Dx()/2) - line.advance/2
	if err := p.fill(mask, line, originX, fixed.I(baseline), st.size); err != nil {
		return err
	}

	if sh := st.shadow; sh != nil {
		blurred := boxBlur(mask, sh.blur/2)
		off := image.Pt(sh.dx, sh.dy)
		draw.DrawMask(dst, rect.Add(off), image.NewUniform(sh.color), image.Point{}, blurred, rect.Min, draw.Over)
	}
	draw.DrawMask(dst, rect, image.NewUniform(st.fill), image.Point{}, mask, rect.Min, draw.Over)
	return nil
}

// boxBlur approximates a gaussian blur with three box passes in each axis.
func boxBlur(src *image.Alpha, radius int) *image.Alpha {
	if radius < 1 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	cur := make([]int, w*h)
	for y := range h {
		for x := range w {
			cur[y*w+x] = int(src.Pix[y*src.Stride+x])
		}
	}
	tmp := make([]int, w*h)

	for range 3 {
		blurLine(cur, tmp, w, h, 1, w, radius)
		blurLine(tmp, cur, h, w, w, 1, radius)
	}

	out := image.NewAlpha(b)
	for y := range h {
		for x := range w {
			out.Pix[y*out.Stride+x] = uint8(cur[y*w+x])
		}
	}
	return out
}

// blurLine runs a sliding-window mean along n samples of each of lines
// lines. step is the distance between samples in a line and lineStep the
// distance between line starts. Samples past the edges count as zero.
func blurLine(src, dst []int, n, lines, step, lineStep, radius int) {
	window := 2*radius + 1
	for l := range lines {
		base := l * lineStep
		sum := 0
		for i := 0; i <= radius && i < n; i++ {
			sum += src[base+i*step]
		}
		for i := range n {
			dst[base+i*step] = sum / window
			if j := i + radius + 1; j < n {
				sum += src[base+j*step]
			}
			if j := i - radius; j >= 0 {
				sum -= src[base+j*step]
			}
		}
	}
}
