package pdf

import (
	"strings"
	"unicode/utf16"
)

// Font decodes show-text operands for one font resource and supplies glyph
// advances for positioning.
type Font struct {
	Name string // BaseFont without the subset tag
	Bold bool

	composite bool
	codeBytes int
	simple    [256]rune
	toUnicode map[uint32]string
	widths    map[uint32]float64
	defWidth  float64
}

// glyph is one decoded character code.
type glyph struct {
	text    string
	advance float64 // in text space units (1/1000 em already applied)
	space   bool    // single-byte code 32, subject to word spacing
}

// Bold-looking BaseFont name fragments.
var boldMarkers = []string{"bold", "black", "heavy", "semibold", "demibold", "extrabold"}

const forceBoldFlag = 1 << 18

func (doc *Document) loadFont(obj *Object) *Font {
	f := &Font{codeBytes: 1, defWidth: 500, widths: make(map[uint32]float64)}
	d := doc.dict(obj)
	if d == nil {
		f.simple = baseEncoding("StandardEncoding")
		return f
	}

	base, _ := d.Name("BaseFont")
	if i := strings.IndexByte(base, '+'); i == 6 {
		base = base[i+1:]
	}
	f.Name = base
	lower := strings.ToLower(base)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			f.Bold = true
		}
	}

	subtype, _ := d.Name("Subtype")
	desc := doc.dict(d["FontDescriptor"])
	if subtype == "Type0" {
		f.composite = true
		f.codeBytes = 2
		if arr := doc.Resolve(d["DescendantFonts"]); arr.Kind == KindArray && len(arr.Array) > 0 {
			if cid := doc.dict(arr.Array[0]); cid != nil {
				desc = doc.dict(cid["FontDescriptor"])
				f.loadCIDWidths(doc, cid)
			}
		}
	} else {
		f.loadSimpleEncoding(doc, d, subtype)
		f.loadSimpleWidths(doc, d)
	}

	if desc != nil {
		if flags, ok := desc.Int("Flags"); ok && flags&forceBoldFlag != 0 {
			f.Bold = true
		}
		if w, ok := desc.Float("FontWeight"); ok && w >= 600 {
			f.Bold = true
		}
		if mw, ok := desc.Float("MissingWidth"); ok && mw > 0 && !f.composite {
			f.defWidth = mw
		}
	}

	if tu := doc.Resolve(d["ToUnicode"]); tu.Kind == KindStream {
		if data, _, err := DecodeStream(tu.Dict, tu.Stream); err == nil {
			f.parseCMap(data)
		}
	}
	return f
}

func (f *Font) loadSimpleEncoding(doc *Document, d Dict, subtype string) {
	name := "StandardEncoding"
	if subtype == "TrueType" {
		name = "WinAnsiEncoding"
	}
	enc := doc.Resolve(d["Encoding"])
	switch {
	case enc.Kind == KindName:
		name = enc.Name
	case enc.IsDictLike():
		if b, ok := enc.Dict.Name("BaseEncoding"); ok {
			name = b
		}
	}
	f.simple = baseEncoding(name)

	if !enc.IsDictLike() {
		return
	}
	code := 0
	for _, item := range doc.Resolve(enc.Dict["Differences"]).Array {
		switch item.Kind {
		case KindInt, KindReal:
			code = int(item.Float())
		case KindName:
			if r, ok := glyphRune(item.Name); ok && code >= 0 && code < 256 {
				f.simple[code] = r
			}
			code++
		}
	}
}

func (f *Font) loadSimpleWidths(doc *Document, d Dict) {
	first, _ := d.Int("FirstChar")
	for i, w := range doc.Resolve(d["Widths"]).Array {
		f.widths[uint32(first)+uint32(i)] = doc.Resolve(w).Float()
	}
}

// loadCIDWidths reads /DW and the /W array ("c [w...]" and "c1 c2 w" forms).
func (f *Font) loadCIDWidths(doc *Document, cid Dict) {
	f.defWidth = 1000
	if dw, ok := cid.Float("DW"); ok {
		f.defWidth = dw
	}
	w := doc.Resolve(cid["W"]).Array
	for i := 0; i < len(w); {
		start := uint32(doc.Resolve(w[i]).Float())
		if i+1 >= len(w) {
			return
		}
		next := doc.Resolve(w[i+1])
		if next.Kind == KindArray {
			for k, v := range next.Array {
				f.widths[start+uint32(k)] = doc.Resolve(v).Float()
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			return
		}
		end := uint32(next.Float())
		width := doc.Resolve(w[i+2]).Float()
		for c := start; c <= end && c-start < 65536; c++ {
			f.widths[c] = width
		}
		i += 3
	}
}

// parseCMap reads bfchar/bfrange and codespacerange sections of a ToUnicode
// CMap using the object lexer.
func (f *Font) parseCMap(data []byte) {
	f.toUnicode = make(map[uint32]string)
	p := NewParser(data, 0)
	var operands []*Object
	section := ""
	for !p.EOF() {
		obj, err := p.ParseObject()
		if err != nil {
			return
		}
		if obj.Kind != KindKeyword {
			operands = append(operands, obj)
			continue
		}
		switch obj.Keyword {
		case "begincodespacerange", "beginbfchar", "beginbfrange":
			section = obj.Keyword
		case "endcodespacerange":
			if len(operands) >= 2 && len(operands[0].Str) > 0 {
				f.codeBytes = len(operands[0].Str)
			}
			section = ""
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				f.toUnicode[codeOf(operands[i].Str)] = utf16BE(operands[i+1].Str)
			}
			section = ""
		case "endbfrange":
			f.addRanges(operands)
			section = ""
		}
		if section == "" || strings.HasPrefix(obj.Keyword, "begin") {
			operands = operands[:0]
		}
	}
}

func (f *Font) addRanges(ops []*Object) {
	for i := 0; i+2 < len(ops); i += 3 {
		lo, hi := codeOf(ops[i].Str), codeOf(ops[i+1].Str)
		if hi < lo || hi-lo > 0xffff {
			continue
		}
		dst := ops[i+2]
		if dst.Kind == KindArray {
			for k, item := range dst.Array {
				if lo+uint32(k) > hi {
					break
				}
				f.toUnicode[lo+uint32(k)] = utf16BE(item.Str)
			}
			continue
		}
		units := toUnits(dst.Str)
		if len(units) == 0 {
			continue
		}
		for c := lo; c <= hi; c++ {
			u := append([]uint16(nil), units...)
			u[len(u)-1] += uint16(c - lo)
			f.toUnicode[c] = string(utf16.Decode(u))
		}
	}
}

func codeOf(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

func toUnits(b []byte) []uint16 {
	if len(b) == 1 {
		return []uint16{uint16(b[0])}
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

func utf16BE(b []byte) string {
	return string(utf16.Decode(toUnits(b)))
}

// decode splits a show-text operand into glyphs.
func (f *Font) decode(s []byte) []glyph {
	step := f.codeBytes
	if step < 1 || step > 4 {
		step = 1
	}
	out := make([]glyph, 0, len(s)/step)
	for i := 0; i < len(s); i += step {
		end := min(i+step, len(s))
		code := codeOf(s[i:end])
		g := glyph{advance: f.width(code) / 1000}
		if t, ok := f.toUnicode[code]; ok {
			g.text = t
		} else if !f.composite && code < 256 {
			if r := f.simple[code]; r != 0 {
				g.text = string(r)
			}
		}
		g.space = step == 1 && code == 32
		out = append(out, g)
	}
	return out
}

func (f *Font) width(code uint32) float64 {
	if w, ok := f.widths[code]; ok && w > 0 {
		return w
	}
	return f.defWidth
}
