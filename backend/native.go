package backend

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
	"github.com/porticus-lab/go-pdf-html/internal/pdf"
)

// NativeSource serves pages from the in-repo PDF reader.
type NativeSource struct {
	doc *pdf.Document
	log logrus.FieldLogger
}

// OpenNative parses data with the in-repo reader.
func OpenNative(data []byte, opts ...Option) (*NativeSource, error) {
	return openNative(data, resolveOptions(opts))
}

func openNative(data []byte, o options) (*NativeSource, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, decodeError(err)
	}
	return &NativeSource{doc: doc, log: o.logger}, nil
}

// NumPages implements [pdfhtml.PageSource].
func (s *NativeSource) NumPages() int { return s.doc.NumPages() }

// Version returns the PDF header version, e.g. "1.7".
func (s *NativeSource) Version() string { return s.doc.Version() }

// PageInfo returns a one-line size summary of page i.
func (s *NativeSource) PageInfo(i int) (string, error) {
	pg, err := s.doc.Page(i)
	if err != nil {
		return "", err
	}
	return pg.Info(), nil
}

// Page implements [pdfhtml.PageSource]. Images that cannot be decoded are
// left out of the page. When the first image painted covers the whole media
// box it becomes the page background rather than an overlay image.
func (s *NativeSource) Page(ctx context.Context, i int) (p *pdfhtml.Page, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("reading page %d: %v", i+1, r)
		}
	}()

	pg, err := s.doc.Page(i)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pdfhtml.ErrInvalidPage, err)
	}
	content, err := pg.Extract()
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", i+1, err)
	}

	p = &pdfhtml.Page{
		Index:  i,
		Width:  pg.MediaBox.Width(),
		Height: pg.MediaBox.Height(),
		Runs:   make([]pdfhtml.TextRun, 0, len(content.Spans)),
	}
	for _, sp := range content.Spans {
		p.Runs = append(p.Runs, pdfhtml.TextRun{
			Text:     sp.Text,
			X:        sp.X,
			Y:        sp.Y,
			Baseline: sp.Baseline,
			FontSize: sp.Size,
			Color:    pdfhtml.RGB{R: sp.Color[0], G: sp.Color[1], B: sp.Color[2]},
			Bold:     sp.Bold,
			Font:     sp.Font,
		})
	}

	decoded := make(map[pdf.Ref]*pdf.RawImage)
	for n, pl := range content.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, ok := decoded[pl.Ref]
		if !ok || pl.Ref == (pdf.Ref{}) {
			raw, err = pg.DecodeImage(pl)
			if err != nil {
				s.log.WithFields(logrus.Fields{"page": i + 1, "image": imageID(pl.Ref, pl.Name)}).
					WithError(err).Debug("image not decoded")
				continue
			}
			decoded[pl.Ref] = raw
		}
		box := pdfhtml.Box{X0: pl.Box.X0, Y0: pl.Box.Y0, X1: pl.Box.X1, Y1: pl.Box.Y1}
		obj := imageObject(imageID(pl.Ref, pl.Name), raw)
		obj.Bounds = &box
		if n == 0 && coversPage(box, p.Width, p.Height) {
			p.Background = &obj
			continue
		}
		p.Images = append(p.Images, obj)
	}
	return p, nil
}

// pageSlack is how far, in points, a page raster may fall short of the
// media box edges.
const pageSlack = 1.0

// coversPage reports whether b spans the whole page, as the raster of a
// scanned page does.
func coversPage(b pdfhtml.Box, w, h float64) bool {
	return b.X0 <= pageSlack && b.Y0 <= pageSlack && b.X1 >= w-pageSlack && b.Y1 >= h-pageSlack
}

func imageID(ref pdf.Ref, name string) string {
	if ref == (pdf.Ref{}) {
		return name
	}
	return fmt.Sprintf("obj-%d", ref.Num)
}

func imageObject(id string, raw *pdf.RawImage) pdfhtml.ImageObject {
	obj := pdfhtml.ImageObject{
		ID:       id,
		Width:    raw.Width,
		Height:   raw.Height,
		Channels: raw.Channels,
		Samples:  raw.Samples,
	}
	if raw.Mask != nil {
		maskID := id + "-mask"
		if raw.MaskRef != (pdf.Ref{}) {
			maskID = imageID(raw.MaskRef, "")
		}
		mask := imageObject(maskID, raw.Mask)
		obj.SoftMask = &mask
		obj.SoftMaskID = maskID
	}
	return obj
}
