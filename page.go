package pdfhtml

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// RGB is a fill colour.
type RGB struct {
	R, G, B uint8
}

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// TextRun is a contiguous span of text sharing one font, size and colour.
// X and Y are its origin in PDF space (bottom-left origin, points). Baseline
// is the y of the text line the run sits on and is what lines are grouped
// by; it differs from Y for raised or lowered text.
type TextRun struct {
	Text     string
	X, Y     float64
	Baseline float64
	FontSize float64
	Color    RGB
	Bold     bool
	Font     string
}

// Box is a rectangle in PDF space.
type Box struct {
	X0, Y0, X1, Y1 float64
}

// ImageObject is an embedded image as delivered by a backend. Samples hold
// 8-bit components, row-major, Channels per pixel.
type ImageObject struct {
	ID       string
	Width    int
	Height   int
	Channels int
	Samples  []byte

	// SoftMask is an optional one-channel alpha image.
	SoftMask   *ImageObject
	SoftMaskID string

	// Bounds is where the image is painted; nil when unknown.
	Bounds *Box
}

// Page is one extracted page. Width and Height are in points; every position
// on the page is relative to that box.
type Page struct {
	Index  int
	Width  float64
	Height float64
	Runs   []TextRun
	Images []ImageObject

	// Background is an optional full-page raster drawn beneath the overlay.
	Background *ImageObject
}

// validate reports page dimensions that are not positive and finite.
func (p *Page) validate() error {
	if !(p.Width > 0) || !(p.Height > 0) || math.IsInf(p.Width, 0) || math.IsInf(p.Height, 0) {
		return fmt.Errorf("%w: size %gx%g", ErrInvalidPage, p.Width, p.Height)
	}
	return nil
}

// PageSource supplies pages to a [Converter]. Implementations must be safe
// for concurrent calls to Page.
type PageSource interface {
	NumPages() int
	Page(ctx context.Context, index int) (*Page, error)
}

// Document is an in-memory [PageSource].
type Document struct {
	Pages []*Page
}

// NumPages implements [PageSource].
func (d *Document) NumPages() int { return len(d.Pages) }

// Page implements [PageSource].
func (d *Document) Page(_ context.Context, index int) (*Page, error) {
	if index < 0 || index >= len(d.Pages) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInvalidPage, index, len(d.Pages))
	}
	return d.Pages[index], nil
}

type selection struct {
	src     PageSource
	indices []int
}

// Select returns a source exposing only the given 0-based pages of src, in
// the given order.
func Select(src PageSource, indices []int) PageSource {
	return &selection{src: src, indices: indices}
}

func (s *selection) NumPages() int { return len(s.indices) }

func (s *selection) Page(ctx context.Context, index int) (*Page, error) {
	if index < 0 || index >= len(s.indices) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInvalidPage, index, len(s.indices))
	}
	p, err := s.src.Page(ctx, s.indices[index])
	if err != nil {
		return nil, err
	}
	out := *p
	out.Index = index
	return &out, nil
}

// ParsePageRange parses a 1-based selection such as "1,3-5" into sorted,
// de-duplicated 0-based indices below total.
func ParsePageRange(spec string, total int) ([]int, error) {
	seen := make(map[int]bool)
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			lo, hi = strings.TrimSpace(a), strings.TrimSpace(b)
		}
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("pdfhtml: invalid page %q", lo)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("pdfhtml: invalid page %q", hi)
		}
		if start < 1 || end > total || start > end {
			return nil, fmt.Errorf("pdfhtml: page range %d-%d outside 1-%d", start, end, total)
		}
		for p := start; p <= end; p++ {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p-1)
			}
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdfhtml: empty page range %q", spec)
	}
	slices.Sort(pages)
	return pages, nil
}
