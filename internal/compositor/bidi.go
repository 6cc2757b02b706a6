package compositor

import (
	"slices"

	"golang.org/x/text/unicode/bidi"
)

type direction int8

const (
	neutral direction = iota
	ltr
	rtl
)

func classify(r rune) direction {
	p, _ := bidi.LookupRune(r)
	switch p.Class() {
	case bidi.R, bidi.AL:
		return rtl
	case bidi.L, bidi.EN, bidi.AN:
		return ltr
	default:
		return neutral
	}
}

// run is a half-open range of runes sharing one direction.
type run struct {
	start, end int
	dir        direction
}

// bidiRuns splits a line into directional runs and returns them in the left
// to right order they are drawn in. A line with a right-to-left character is
// a right-to-left paragraph: its runs are reversed, while embedded
// left-to-right runs (Latin words, digits) keep their internal order. The
// glyphs inside a right-to-left run are put in visual order by the shaper.
func bidiRuns(text []rune) []run {
	if len(text) == 0 {
		return nil
	}
	dirs := make([]direction, len(text))
	hasRTL := false
	for i, r := range text {
		dirs[i] = classify(r)
		hasRTL = hasRTL || dirs[i] == rtl
	}
	if !hasRTL {
		return []run{{start: 0, end: len(text), dir: ltr}}
	}

	// Neutrals between two left-to-right characters join them; every other
	// neutral takes the paragraph direction.
	for i := range dirs {
		if dirs[i] != neutral {
			continue
		}
		prev, next := rtl, rtl
		for j := i - 1; j >= 0; j-- {
			if dirs[j] != neutral {
				prev = dirs[j]
				break
			}
		}
		for j := i + 1; j < len(dirs); j++ {
			if dirs[j] != neutral {
				next = dirs[j]
				break
			}
		}
		if prev == ltr && next == ltr {
			dirs[i] = ltr
		} else {
			dirs[i] = rtl
		}
	}

	var runs []run
	start := 0
	for i := 1; i <= len(text); i++ {
		if i == len(text) || dirs[i] != dirs[start] {
			runs = append(runs, run{start: start, end: i, dir: dirs[start]})
			start = i
		}
	}
	slices.Reverse(runs)
	return runs
}
