package compositor

import "github.com/rizwanabrish101/shayari/internal/domain"

// Canvas geometry.
const (
	Size         = 800
	LinePitch    = 60
	attributionY = Size - 100
	watermarkY   = Size - 40
)

// Watermark is drawn on every image.
const Watermark = "اردو شاعری"

// Line is one laid-out line of verse text. CenterY is the vertical centre of
// the line in canvas pixels.
type Line struct {
	Text    string
	CenterY int
}

// Layout splits text into non-blank lines and centres the block vertically.
// Line i is centred at startY + i*pitch + pitch/2, so the block is symmetric
// about the canvas centre for any line count.
func Layout(text string) []Line {
	texts := domain.SplitLines(text)
	startY := Size/2 - len(texts)*LinePitch/2

	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Text: t, CenterY: startY + i*LinePitch + LinePitch/2}
	}
	return lines
}
