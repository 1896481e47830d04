package backend

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
)

// PlainSource serves text-only pages through github.com/ledongthuc/pdf.
// Its runs carry position, size and font but no colour, and pages have no
// images.
type PlainSource struct {
	mu  sync.Mutex
	r   *lpdf.Reader
	log logrus.FieldLogger
}

// OpenPlain parses data with github.com/ledongthuc/pdf.
func OpenPlain(data []byte, opts ...Option) (*PlainSource, error) {
	return openPlain(data, resolveOptions(opts))
}

func openPlain(data []byte, o options) (s *PlainSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, decodeError(fmt.Errorf("%v", r))
		}
	}()
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, decodeError(err)
	}
	return &PlainSource{r: r, log: o.logger}, nil
}

// NumPages implements [pdfhtml.PageSource].
func (s *PlainSource) NumPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.NumPage()
}

// Page implements [pdfhtml.PageSource].
func (s *PlainSource) Page(ctx context.Context, i int) (p *pdfhtml.Page, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The reader shares parse state between pages.
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("reading page %d: %v", i+1, r)
		}
	}()

	if i < 0 || i >= s.r.NumPage() {
		return nil, fmt.Errorf("%w: index %d of %d", pdfhtml.ErrInvalidPage, i, s.r.NumPage())
	}
	page := s.r.Page(i + 1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: page %d has no dictionary", pdfhtml.ErrInvalidPage, i+1)
	}
	x0, y0, w, h, ok := mediaBox(page.V)
	if !ok {
		return nil, fmt.Errorf("%w: page %d has no media box", pdfhtml.ErrInvalidPage, i+1)
	}

	p = &pdfhtml.Page{Index: i, Width: w, Height: h}
	for _, r := range mergeGlyphs(page.Content().Text) {
		r.X -= x0
		r.Y -= y0
		r.Baseline = r.Y
		p.Runs = append(p.Runs, r)
	}
	s.log.WithFields(logrus.Fields{"page": i + 1, "runs": len(p.Runs)}).Debug("page read")
	return p, nil
}

// mediaBox walks the page and its ancestors for the first MediaBox.
func mediaBox(v lpdf.Value) (x0, y0, w, h float64, ok bool) {
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == lpdf.Array && mb.Len() >= 4 {
			ax, ay := mb.Index(0).Float64(), mb.Index(1).Float64()
			bx, by := mb.Index(2).Float64(), mb.Index(3).Float64()
			x0, y0 = math.Min(ax, bx), math.Min(ay, by)
			w, h = math.Abs(bx-ax), math.Abs(by-ay)
			return x0, y0, w, h, w > 0 && h > 0
		}
		v = v.Key("Parent")
	}
	return 0, 0, 0, 0, false
}

// mergeGlyphs joins the reader's per-glyph output into runs. A glyph
// continues the current run when it shares font, size and baseline and
// starts close to where the previous one ended; a wider gap on the same run
// becomes a space.
func mergeGlyphs(glyphs []lpdf.Text) []pdfhtml.TextRun {
	var (
		runs []pdfhtml.TextRun
		cur  *pdfhtml.TextRun
		b    strings.Builder
		end  float64
	)
	flush := func() {
		if cur != nil {
			cur.Text = b.String()
			runs = append(runs, *cur)
			cur = nil
		}
		b.Reset()
	}
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		size := g.FontSize
		if cur != nil && cur.Font == g.Font && cur.FontSize == size &&
			math.Abs(cur.Y-g.Y) < 0.5 && g.X >= end-size*0.5 && g.X-end < size*1.5 {
			if g.X-end > size*0.2 {
				b.WriteByte(' ')
			}
		} else {
			flush()
			cur = &pdfhtml.TextRun{
				X:        g.X,
				Y:        g.Y,
				FontSize: size,
				Font:     g.Font,
				Bold:     boldName(g.Font),
			}
		}
		b.WriteString(g.S)
		end = g.X + g.W
	}
	flush()
	return runs
}

func boldName(font string) bool {
	f := strings.ToLower(font)
	for _, m := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}
