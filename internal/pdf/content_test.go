package pdf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/porticus-lab/go-pdf-html/internal/pdftest"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func loadPage(t *testing.T, data []byte, index int) *Page {
	t.Helper()
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pg, err := doc.Page(index)
	if err != nil {
		t.Fatalf("Page(%d): %v", index, err)
	}
	return pg
}

func extract(t *testing.T, content string) *Content {
	t.Helper()
	c, err := loadPage(t, pdftest.Text(content), 0).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return c
}

func TestExtractSimpleText(t *testing.T) {
	c := extract(t, "BT /F1 12 Tf 100 700 Td (Hello, World!) Tj ET")
	if len(c.Spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(c.Spans))
	}
	sp := c.Spans[0]
	if sp.Text != "Hello, World!" {
		t.Errorf("text = %q", sp.Text)
	}
	if !near(sp.X, 100) || !near(sp.Y, 700) || !near(sp.Size, 12) {
		t.Errorf("origin/size = (%g,%g) %g, want (100,700) 12", sp.X, sp.Y, sp.Size)
	}
	if sp.Font != "Helvetica" || sp.Bold {
		t.Errorf("font = %q bold=%v", sp.Font, sp.Bold)
	}
	if sp.Width <= 0 {
		t.Errorf("expected a positive width estimate, got %g", sp.Width)
	}
}

func TestExtractTJOperator(t *testing.T) {
	c := extract(t, "BT /F1 14 Tf 50 750 Td [(Go) -250 (PDF)] TJ ET")
	if len(c.Spans) != 1 || c.Spans[0].Text != "Go PDF" {
		t.Fatalf("spans = %+v", c.Spans)
	}
}

func TestExtractLineOperators(t *testing.T) {
	c := extract(t, "BT /F1 10 Tf 14 TL 20 300 Td (one) Tj T* (two) Tj (three) ' ET")
	want := []struct {
		text string
		y    float64
	}{{"one", 300}, {"two", 286}, {"three", 272}}
	if len(c.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(c.Spans))
	}
	for i, w := range want {
		if c.Spans[i].Text != w.text || !near(c.Spans[i].Y, w.y) || !near(c.Spans[i].X, 20) {
			t.Errorf("span %d = %q at (%g,%g), want %q at (20,%g)", i, c.Spans[i].Text, c.Spans[i].X, c.Spans[i].Y, w.text, w.y)
		}
	}
}

func TestMultiplePages(t *testing.T) {
	data := pdftest.Text(
		"BT /F1 12 Tf 100 700 Td (Page one) Tj ET",
		"BT /F1 12 Tf 100 700 Td (Page two) Tj ET",
	)
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.NumPages())
	}
	for i, want := range []string{"Page one", "Page two"} {
		pg, _ := doc.Page(i)
		c, _ := pg.Extract()
		if len(c.Spans) != 1 || c.Spans[0].Text != want {
			t.Errorf("page %d: spans = %+v", i, c.Spans)
		}
	}
	if _, err := doc.Page(2); err == nil {
		t.Error("expected error for out-of-range page")
	}
}

func TestPageGeometry(t *testing.T) {
	pg := loadPage(t, pdftest.Document(pdftest.Page{Width: 600, Height: 800}), 0)
	if !near(pg.MediaBox.Width(), 600) || !near(pg.MediaBox.Height(), 800) {
		t.Errorf("media box = %+v", pg.MediaBox)
	}
	if pg.Info() != "600 x 800 pt" {
		t.Errorf("Info() = %q", pg.Info())
	}
}

func TestFillColors(t *testing.T) {
	tests := []struct {
		name string
		op   string
		want [3]uint8
	}{
		{"rgb", "1 0 0 rg", [3]uint8{255, 0, 0}},
		{"gray", "0.5 g", [3]uint8{128, 128, 128}},
		{"cmyk", "0 0 0 1 k", [3]uint8{0, 0, 0}},
		{"scn", "/DeviceRGB cs 0 0 1 scn", [3]uint8{0, 0, 255}},
		{"default", "", [3]uint8{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := extract(t, tt.op+" BT /F1 10 Tf 10 10 Td (x) Tj ET")
			if len(c.Spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(c.Spans))
			}
			if c.Spans[0].Color != tt.want {
				t.Errorf("color = %v, want %v", c.Spans[0].Color, tt.want)
			}
		})
	}
}

func TestGraphicsStateRestore(t *testing.T) {
	c := extract(t, "q 1 0 0 rg BT /F1 10 Tf 10 10 Td (red) Tj ET Q BT /F1 10 Tf 10 30 Td (black) Tj ET")
	if len(c.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(c.Spans))
	}
	if c.Spans[1].Color != [3]uint8{0, 0, 0} {
		t.Errorf("color after Q = %v", c.Spans[1].Color)
	}
}

func TestBoldFont(t *testing.T) {
	c := extract(t, "BT /F2 10 Tf 10 10 Td (strong) Tj ET")
	if len(c.Spans) != 1 || !c.Spans[0].Bold || c.Spans[0].Font != "Helvetica-Bold" {
		t.Fatalf("spans = %+v", c.Spans)
	}
}

func TestTransformScalesText(t *testing.T) {
	c := extract(t, "q 2 0 0 2 0 0 cm BT /F1 10 Tf 5 5 Td (big) Tj ET Q")
	sp := c.Spans[0]
	if !near(sp.X, 10) || !near(sp.Y, 10) || !near(sp.Size, 20) {
		t.Errorf("span = (%g,%g) size %g, want (10,10) size 20", sp.X, sp.Y, sp.Size)
	}
}

func TestTextMatrix(t *testing.T) {
	c := extract(t, "BT /F1 1 Tf 9 0 0 9 40 500 Tm (scaled) Tj ET")
	sp := c.Spans[0]
	if !near(sp.X, 40) || !near(sp.Y, 500) || !near(sp.Size, 9) {
		t.Errorf("span = (%g,%g) size %g", sp.X, sp.Y, sp.Size)
	}
}

func TestTextRiseKeepsBaseline(t *testing.T) {
	c := extract(t, "BT /F1 10 Tf 20 300 Td (base) Tj 4 Ts (sup) Tj ET")
	if len(c.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(c.Spans))
	}
	sup := c.Spans[1]
	if !near(sup.Y, 304) || !near(sup.Baseline, 300) {
		t.Errorf("raised span y=%g baseline=%g, want 304 and 300", sup.Y, sup.Baseline)
	}
	if base := c.Spans[0]; !near(base.Y, base.Baseline) {
		t.Errorf("unraised span y=%g baseline=%g", base.Y, base.Baseline)
	}
}

func TestParseRealSyntax(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3.5", 3.5, true},
		{"-.25", -0.25, true},
		{"+4.", 4, true},
		{"+Inf", 0, false},
		{"-Infinity", 0, false},
		{"1e308", 0, false},
		{"0x1p3", 0, false},
		{"1.2.3", 0, false},
		{"-", 0, false},
	}
	for _, tt := range tests {
		obj, err := NewParser([]byte(tt.in), 0).ParseObject()
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		got, ok := obj.Number()
		if ok != tt.ok || (ok && !near(got, tt.want)) {
			t.Errorf("%q = %v (number=%v), want %v (number=%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNonFinitePositionsDropped(t *testing.T) {
	c := extract(t, "BT /F1 12 Tf 1 0 0 1 5 +Inf Tm (a) Tj 1 0 0 1 50 +Inf Tm (b) Tj ET")
	for _, sp := range c.Spans {
		if !finite(sp.X, sp.Y, sp.Baseline) {
			t.Errorf("span %q has non-finite origin (%g,%g)", sp.Text, sp.X, sp.Y)
		}
	}

	big := "1" + string(bytes.Repeat([]byte("0"), 300))
	c = extract(t, "q 1 0 0 "+big+" 0 0 cm BT /F1 12 Tf 1 0 0 1 0 "+big+" Tm (far) Tj ET Q")
	if len(c.Spans) != 0 {
		t.Errorf("expected overflowing span to be dropped, got %+v", c.Spans)
	}
}

func TestWhitespaceOnlyShowIsDropped(t *testing.T) {
	c := extract(t, "BT /F1 10 Tf 10 10 Td (   ) Tj ET")
	if len(c.Spans) != 0 {
		t.Errorf("expected no spans, got %+v", c.Spans)
	}
}

func TestInlineImageSkipped(t *testing.T) {
	c := extract(t, "BI /W 2 /H 1 /CS /G /BPC 8 ID \x00\xff EI BT /F1 10 Tf 10 10 Td (after) Tj ET")
	if len(c.Spans) != 1 || c.Spans[0].Text != "after" {
		t.Fatalf("spans = %+v", c.Spans)
	}
}

func TestFormXObject(t *testing.T) {
	var b pdftest.Builder
	form := b.AddStream("/Type /XObject /Subtype /Form /BBox [0 0 100 100] /Matrix [1 0 0 1 50 60]",
		[]byte("BT /F1 10 Tf 0 0 Td (inside) Tj ET"))
	data := b.Pages(pdftest.Page{Content: "/Fm1 Do", XObjects: map[string]int{"Fm1": form}})

	c, _ := loadPage(t, data, 0).Extract()
	if len(c.Spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(c.Spans))
	}
	if sp := c.Spans[0]; sp.Text != "inside" || !near(sp.X, 50) || !near(sp.Y, 60) {
		t.Errorf("span = %+v", sp)
	}
}

func TestImagePlacementAndDecode(t *testing.T) {
	var b pdftest.Builder
	rgb := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}
	img := b.AddStream("/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceRGB /BitsPerComponent 8", rgb)
	data := b.Pages(pdftest.Page{Content: "q 100 0 0 50 10 20 cm /Im1 Do Q", XObjects: map[string]int{"Im1": img}})

	pg := loadPage(t, data, 0)
	c, _ := pg.Extract()
	if len(c.Images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(c.Images))
	}
	pl := c.Images[0]
	if pl.Box != (Rect{10, 20, 110, 70}) {
		t.Errorf("box = %+v", pl.Box)
	}
	if pl.Ref.Num != img || pl.Name != "Im1" {
		t.Errorf("ref = %+v name = %q", pl.Ref, pl.Name)
	}

	raw, err := pg.DecodeImage(pl)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if raw.Width != 2 || raw.Height != 2 || raw.Channels != 3 || !bytes.Equal(raw.Samples, rgb) {
		t.Errorf("decoded = %dx%d ch=%d %v", raw.Width, raw.Height, raw.Channels, raw.Samples)
	}
	if raw.Mask != nil {
		t.Error("unexpected soft mask")
	}
}

func TestImageSoftMask(t *testing.T) {
	var b pdftest.Builder
	alpha := []byte{0, 128, 255, 64}
	mask := b.AddStream("/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceGray /BitsPerComponent 8", alpha)
	img := b.AddStream("/Type /XObject /Subtype /Image /Width 2 /Height 2 /ColorSpace /DeviceGray /BitsPerComponent 8 /SMask "+strconv.Itoa(mask)+" 0 R",
		[]byte{10, 20, 30, 40})
	data := b.Pages(pdftest.Page{Content: "q 20 0 0 20 0 0 cm /Im1 Do Q", XObjects: map[string]int{"Im1": img}})

	pg := loadPage(t, data, 0)
	c, _ := pg.Extract()
	raw, err := pg.DecodeImage(c.Images[0])
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if raw.Mask == nil || !bytes.Equal(raw.Mask.Samples, alpha) {
		t.Fatalf("mask = %+v", raw.Mask)
	}
	if raw.MaskRef.Num != mask {
		t.Errorf("mask ref = %+v, want %d", raw.MaskRef, mask)
	}
}

func TestIndexedImage(t *testing.T) {
	var b pdftest.Builder
	img := b.AddStream("/Type /XObject /Subtype /Image /Width 2 /Height 1 /BitsPerComponent 8 /ColorSpace [/Indexed /DeviceRGB 1 <FF000000FF00>]",
		[]byte{0, 1})
	data := b.Pages(pdftest.Page{Content: "/Im1 Do", XObjects: map[string]int{"Im1": img}})

	pg := loadPage(t, data, 0)
	c, _ := pg.Extract()
	raw, err := pg.DecodeImage(c.Images[0])
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	want := []byte{255, 0, 0, 0, 255, 0}
	if raw.Channels != 3 || !bytes.Equal(raw.Samples, want) {
		t.Errorf("samples = %v ch=%d, want %v", raw.Samples, raw.Channels, want)
	}
}

func TestUnpackOneBitSamples(t *testing.T) {
	img, err := unpackSamples([]byte{0b10100000}, 8, 1, 1, 1, true)
	if err != nil {
		t.Fatalf("unpackSamples: %v", err)
	}
	want := []byte{255, 0, 255, 0, 0, 0, 0, 0}
	if !bytes.Equal(img.Samples, want) {
		t.Errorf("samples = %v, want %v", img.Samples, want)
	}
	if _, err := unpackSamples([]byte{1, 2}, 2, 2, 1, 8, true); err == nil {
		t.Error("expected error for short data")
	}
}

func TestLoadRejectsNonPDF(t *testing.T) {
	_, err := Load([]byte("definitely not a pdf"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestLoadRepairsBrokenXRef(t *testing.T) {
	data := pdftest.Text("BT /F1 12 Tf 72 72 Td (Recovered) Tj ET")
	i := bytes.LastIndex(data, []byte("startxref"))
	broken := append(append([]byte{}, data[:i]...), []byte("startxref\n999999\n%%EOF\n")...)

	c, err := loadPage(t, broken, 0).Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(c.Spans) != 1 || c.Spans[0].Text != "Recovered" {
		t.Errorf("spans = %+v", c.Spans)
	}
}

func TestVersion(t *testing.T) {
	doc, err := Load(pdftest.Text("BT ET"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Version() != "1.4" {
		t.Errorf("Version() = %q", doc.Version())
	}
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeStreamFlateWithPNGPredictor(t *testing.T) {
	rows := []byte{2, 1, 2, 3, 2, 1, 1, 1}
	dict := Dict{
		"Filter": {Kind: KindName, Name: "FlateDecode"},
		"DecodeParms": {Kind: KindDict, Dict: Dict{
			"Predictor": {Kind: KindInt, Int: 12},
			"Columns":   {Kind: KindInt, Int: 3},
		}},
	}
	out, codec, err := DecodeStream(dict, deflate(t, rows))
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if codec != "" {
		t.Errorf("codec = %q", codec)
	}
	if want := []byte{1, 2, 3, 2, 3, 4}; !bytes.Equal(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestDecodeStreamStopsAtImageCodec(t *testing.T) {
	dict := Dict{"Filter": {Kind: KindArray, Array: []*Object{
		{Kind: KindName, Name: "ASCIIHexDecode"},
		{Kind: KindName, Name: "DCTDecode"},
	}}}
	out, codec, err := DecodeStream(dict, []byte("FFD8>"))
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if codec != "DCTDecode" || !bytes.Equal(out, []byte{0xff, 0xd8}) {
		t.Errorf("got %v codec %q", out, codec)
	}
}

func TestDecodeStreamUnknownFilter(t *testing.T) {
	dict := Dict{"Filter": {Kind: KindName, Name: "BogusDecode"}}
	if _, _, err := DecodeStream(dict, []byte("x")); err == nil {
		t.Error("expected error for unknown filter")
	}
}
