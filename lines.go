package pdfhtml

import (
	"math"
	"slices"
	"strings"
)

// Line is a display-time group of runs that share a vertical position.
type Line struct {
	// YKey is the rounded display-space top used for collision checks.
	YKey int
	// Top is the display-space top in points after collision adjustment.
	Top float64
	// Runs are ordered by X ascending, with sanitized text.
	Runs     []TextRun
	Text     string
	FontSize float64
	Color    RGB
	Bold     bool
}

// Left returns the X origin of the line's first run.
func (l Line) Left() float64 {
	if len(l.Runs) == 0 {
		return 0
	}
	return l.Runs[0].X
}

// AssembleLines groups runs into lines for a page of the given height.
//
// Runs are sanitized and empty ones dropped, as are runs with a non-finite
// X or Baseline. A run joins the first bucket whose anchor baseline lies
// within tolerance of its own; otherwise it opens a new bucket. Each bucket becomes one line whose runs are sorted by X and
// joined with single spaces, styled after its first run. Lines whose
// positions coincide are pushed down by offset until free, in order of first
// appearance, and the result is ordered top to bottom.
func AssembleLines(runs []TextRun, pageHeight, tolerance, offset float64) []Line {
	type bucket struct {
		anchor float64
		runs   []TextRun
	}
	var buckets []*bucket
	for _, r := range runs {
		r.Text = Sanitize(r.Text)
		if r.Text == "" || !isFinite(r.X) || !isFinite(r.Baseline) {
			continue
		}
		y := r.Baseline
		var dst *bucket
		for _, b := range buckets {
			if math.Abs(b.anchor-y) <= tolerance {
				dst = b
				break
			}
		}
		if dst == nil {
			dst = &bucket{anchor: y}
			buckets = append(buckets, dst)
		}
		dst.runs = append(dst.runs, r)
	}

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		slices.SortStableFunc(b.runs, func(x, y TextRun) int {
			switch {
			case x.X < y.X:
				return -1
			case x.X > y.X:
				return 1
			}
			return 0
		})
		texts := make([]string, len(b.runs))
		for i, r := range b.runs {
			texts[i] = r.Text
		}
		top := pageHeight - b.anchor
		first := b.runs[0]
		lines = append(lines, Line{
			YKey:     int(math.Round(top)),
			Top:      top,
			Runs:     b.runs,
			Text:     strings.Join(texts, " "),
			FontSize: first.FontSize,
			Color:    first.Color,
			Bold:     first.Bold,
		})
	}
	return ResolveCollisions(lines, offset)
}

// maxPushes caps how often a single line is moved.
const maxPushes = 1 << 16

// ResolveCollisions walks lines in input order and moves any line whose
// rounded top is already used down by offset until it is free. The returned
// slice is stably sorted by adjusted top.
//
// offset must be positive and finite; otherwise, and for lines whose top is
// not finite, lines keep their position. A line is pushed at most a bounded
// number of times, enough to clear every other line.
func ResolveCollisions(lines []Line, offset float64) []Line {
	out := slices.Clone(lines)
	used := make(map[int]bool, len(out))
	limit := len(out)
	if offset > 0 && offset < 1 {
		limit = int(math.Min(float64(len(out))*(math.Ceil(1/offset)+1), maxPushes))
	}
	movable := offset > 0 && isFinite(offset)
	for i := range out {
		l := &out[i]
		key := int(math.Round(l.Top))
		for n := 0; movable && isFinite(l.Top) && used[key] && n < limit; n++ {
			l.Top += offset
			key = int(math.Round(l.Top))
		}
		l.YKey = key
		used[key] = true
	}
	slices.SortStableFunc(out, func(a, b Line) int {
		switch {
		case a.Top < b.Top:
			return -1
		case a.Top > b.Top:
			return 1
		}
		return 0
	})
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
