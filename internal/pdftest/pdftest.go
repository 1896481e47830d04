// Package pdftest builds small PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Builder assembles a PDF from literal object bodies and writes a classic
// cross-reference table.
type Builder struct {
	bodies [][]byte
}

// Reserve allocates an object number to be filled in later with Set.
func (b *Builder) Reserve() int {
	b.bodies = append(b.bodies, nil)
	return len(b.bodies)
}

// Set stores the body of object n.
func (b *Builder) Set(n int, body string) {
	b.bodies[n-1] = []byte(body)
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	n := b.Reserve()
	b.Set(n, body)
	return n
}

// AddStream appends a stream object. dict holds extra entries without the
// surrounding << >>; /Length is filled in.
func (b *Builder) AddStream(dict string, data []byte) int {
	n := b.Reserve()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	b.bodies[n-1] = buf.Bytes()
	return n
}

// Bytes serialises the file with root as the catalog.
func (b *Builder) Bytes(root int) []byte {
	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.bodies))
	for i, body := range b.bodies {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(body)
		out.WriteString("\nendobj\n")
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(b.bodies)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.bodies)+1, root, xref)
	return out.Bytes()
}

// Page describes one page for Document.
type Page struct {
	Width, Height float64
	Content       string
	// XObjects maps resource names to already added object numbers.
	XObjects map[string]int
}

// Document writes pages that share a Helvetica /F1 and a Helvetica-Bold /F2.
func Document(pages ...Page) []byte {
	return new(Builder).Pages(pages...)
}

// Pages is Document for a builder that already holds objects referenced by
// the pages, such as image XObjects.
func (b *Builder) Pages(pages ...Page) []byte {
	catalog := b.Reserve()
	tree := b.Reserve()
	regular := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	bold := b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(pages))
	for _, pg := range pages {
		if pg.Width == 0 {
			pg.Width, pg.Height = 612, 792
		}
		content := b.AddStream("", []byte(pg.Content))
		var xobj strings.Builder
		for name, n := range pg.XObjects {
			fmt.Fprintf(&xobj, " /%s %d 0 R", name, n)
		}
		n := b.Add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R "+
				"/Resources << /Font << /F1 %d 0 R /F2 %d 0 R >> /XObject <<%s >> >> >>",
			tree, pg.Width, pg.Height, content, regular, bold, xobj.String()))
		kids = append(kids, fmt.Sprintf("%d 0 R", n))
	}
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))
	return b.Bytes(catalog)
}

// Text returns a one-page document for each content stream.
func Text(contents ...string) []byte {
	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{Content: c}
	}
	return Document(pages...)
}
