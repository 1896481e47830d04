package pdfhtml

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// Renderer emits the markup fragment for one page.
type Renderer struct {
	Mapper    Mapper
	FontScale float64
}

// NewRenderer returns a renderer configured from cfg.
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{Mapper: Mapper{Mode: cfg.Positioning}, FontScale: cfg.FontScale}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// round2 keeps CSS values short without visible loss.
func round2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderPage renders p with its assembled lines and composited images: a
// sized .pdf-page block holding an optional background, the text layer and
// then the image layer.
func (r *Renderer) RenderPage(p *Page, lines []Line, images []*CompositedImage, background *CompositedImage) string {
	var b strings.Builder
	unit := r.Mapper.Unit()
	n := p.Index + 1

	fmt.Fprintf(&b, `<div class="pdf-page" id="page-%d" data-page="%d" style="%s">`, n, n, r.pageStyle(p))
	b.WriteByte('\n')

	if background != nil {
		fmt.Fprintf(&b, `<img class="page-image" src="%s" alt="Page %d">`, background.DataURI(), n)
		b.WriteByte('\n')
	}

	b.WriteString(`<div class="text-layer">`)
	b.WriteByte('\n')
	for _, l := range lines {
		left, top := r.Mapper.MapOrigin(l.Left(), p.Height-l.Top, p.Width, p.Height)
		style := fmt.Sprintf("left:%s%s;top:%s%s;font-size:%s;color:%s",
			round2(left), unit, round2(top), unit, r.fontSize(l.FontSize, p.Width), l.Color.Hex())
		if l.Bold {
			style += ";font-weight:bold"
		}
		fmt.Fprintf(&b, `<div class="pdf-text" style="%s">%s</div>`, style, l.Text)
		b.WriteByte('\n')
	}
	b.WriteString("</div>\n")

	if len(images) > 0 {
		b.WriteString(`<div class="image-layer">`)
		b.WriteByte('\n')
		for _, img := range images {
			left, top, w, h := r.Mapper.MapBox(img.Placement.Box, p.Width, p.Height)
			extra := ""
			if img.Placement.Estimated {
				extra = ` data-estimated="true"`
			}
			fmt.Fprintf(&b, `<img class="pdf-image" src="%s" alt="%s"%s style="left:%s%s;top:%s%s;width:%s%s;height:%s%s">`,
				img.DataURI(), html.EscapeString(img.ID), extra,
				round2(left), unit, round2(top), unit, round2(w), unit, round2(h), unit)
			b.WriteByte('\n')
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</div>\n")
	return b.String()
}

// fontSize scales size by FontScale. In percentage mode the result is in
// container query units of the page box, so text shrinks with the page.
func (r *Renderer) fontSize(size, pageWidth float64) string {
	v := size * r.FontScale
	if r.Mapper.Mode == Percentage {
		return round2(r.Mapper.MapLength(v, pageWidth)) + "cqw"
	}
	return round2(v) + "px"
}

func (r *Renderer) pageStyle(p *Page) string {
	if r.Mapper.Mode == Percentage {
		return fmt.Sprintf("width:100%%;max-width:%spx;aspect-ratio:%s/%s;container-type:inline-size",
			num(p.Width), num(p.Width), num(p.Height))
	}
	return fmt.Sprintf("width:%spx;height:%spx", num(p.Width), num(p.Height))
}

// ErrorFragment renders the visible placeholder for a page that failed.
func ErrorFragment(index int, err error) string {
	n := index + 1
	return fmt.Sprintf(`<div class="pdf-page pdf-page-error" id="page-%d" data-page="%d" role="alert">`+
		"\n<p>Page %d could not be rendered: %s</p>\n</div>\n", n, n, n, html.EscapeString(err.Error()))
}
