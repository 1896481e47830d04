package pdf

import (
	"math"
	"strings"
)

// maxFormDepth bounds nested form XObject recursion.
const maxFormDepth = 8

// Span is one show-text operation with its page-space origin. Coordinates are
// relative to the lower-left corner of the page's media box. Baseline is the
// y of the text line without any text rise, so superscripts share the
// baseline of the line they sit on.
type Span struct {
	Text     string
	X, Y     float64
	Baseline float64
	Width    float64
	Size     float64
	Font     string
	Bold     bool
	Color    [3]uint8
}

// Placement is an image XObject painted on the page.
type Placement struct {
	Name string
	Ref  Ref
	Box  Rect
	obj  *Object
	res  Dict
}

// Content is everything the interpreter collected from one page.
type Content struct {
	Spans  []Span
	Images []Placement
}

type gstate struct {
	ctm   Matrix
	fill  [3]uint8
	font  *Font
	size  float64
	charSp, wordSp float64
	scale   float64 // horizontal scaling, 1 = 100%
	leading float64
	rise    float64
}

type interp struct {
	doc   *Document
	out   *Content
	fonts map[*Object]*Font
	depth int

	gs    gstate
	stack []gstate
	tm    Matrix
	tlm   Matrix
}

// Extract interprets the page's content streams.
func (pg *Page) Extract() (*Content, error) {
	in := &interp{
		doc:   pg.doc,
		out:   &Content{},
		fonts: make(map[*Object]*Font),
		gs: gstate{
			ctm:   translate(-pg.MediaBox.X0, -pg.MediaBox.Y0),
			scale: 1,
		},
	}
	in.run(pg.Contents(), pg.Resources)
	return in.out, nil
}

func (in *interp) run(data []byte, res Dict) {
	p := NewParser(data, 0)
	var args []*Object
	for !p.EOF() {
		obj, err := p.ParseObject()
		if err != nil {
			return
		}
		if obj.Kind != KindKeyword {
			args = append(args, obj)
			continue
		}
		if obj.Keyword == "ID" {
			p.skipInlineImage()
		} else {
			in.op(obj.Keyword, args, res)
		}
		args = args[:0]
	}
}

func num(args []*Object, i int) float64 {
	if i < 0 || i >= len(args) {
		return 0
	}
	return args[i].Float()
}

func (in *interp) op(name string, args []*Object, res Dict) {
	gs := &in.gs
	switch name {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if m, ok := matrixFrom(args); ok {
			gs.ctm = m.Mul(gs.ctm)
		}

	case "g":
		gs.fill = grayRGB(num(args, 0))
	case "rg":
		gs.fill = [3]uint8{unit8(num(args, 0)), unit8(num(args, 1)), unit8(num(args, 2))}
	case "k":
		gs.fill = cmykRGB(num(args, 0), num(args, 1), num(args, 2), num(args, 3))
	case "sc", "scn":
		in.setFillComponents(args)

	case "BT":
		in.tm, in.tlm = Identity, Identity
	case "Tf":
		if len(args) >= 2 {
			gs.font = in.font(res, args[0].Name)
			gs.size = num(args, 1)
		}
	case "Tc":
		gs.charSp = num(args, 0)
	case "Tw":
		gs.wordSp = num(args, 0)
	case "Tz":
		gs.scale = num(args, 0) / 100
	case "TL":
		gs.leading = num(args, 0)
	case "Ts":
		gs.rise = num(args, 0)
	case "Td":
		in.moveLine(num(args, 0), num(args, 1))
	case "TD":
		gs.leading = -num(args, 1)
		in.moveLine(num(args, 0), num(args, 1))
	case "Tm":
		if m, ok := matrixFrom(args); ok {
			in.tm, in.tlm = m, m
		}
	case "T*":
		in.moveLine(0, -gs.leading)

	case "Tj":
		if len(args) > 0 {
			in.show([]*Object{args[len(args)-1]})
		}
	case "TJ":
		if len(args) > 0 && args[len(args)-1].Kind == KindArray {
			in.show(args[len(args)-1].Array)
		}
	case "'":
		in.moveLine(0, -gs.leading)
		if len(args) > 0 {
			in.show([]*Object{args[len(args)-1]})
		}
	case `"`:
		if len(args) >= 3 {
			gs.wordSp, gs.charSp = num(args, 0), num(args, 1)
			in.moveLine(0, -gs.leading)
			in.show([]*Object{args[2]})
		}

	case "Do":
		if len(args) > 0 && args[0].Kind == KindName {
			in.paintXObject(args[0].Name, res)
		}
	}
}

func (in *interp) moveLine(tx, ty float64) {
	in.tlm = translate(tx, ty).Mul(in.tlm)
	in.tm = in.tlm
}

// setFillComponents handles sc/scn by operand count, ignoring pattern names.
func (in *interp) setFillComponents(args []*Object) {
	var v []float64
	for _, a := range args {
		if f, ok := a.Number(); ok {
			v = append(v, f)
		}
	}
	switch len(v) {
	case 1:
		in.gs.fill = grayRGB(v[0])
	case 3:
		in.gs.fill = [3]uint8{unit8(v[0]), unit8(v[1]), unit8(v[2])}
	case 4:
		in.gs.fill = cmykRGB(v[0], v[1], v[2], v[3])
	}
}

func unit8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func grayRGB(v float64) [3]uint8 {
	g := unit8(v)
	return [3]uint8{g, g, g}
}

func cmykRGB(c, m, y, k float64) [3]uint8 {
	return [3]uint8{unit8((1 - c) * (1 - k)), unit8((1 - m) * (1 - k)), unit8((1 - y) * (1 - k))}
}

func (in *interp) font(res Dict, name string) *Font {
	fonts := in.doc.dict(res["Font"])
	obj := in.doc.Resolve(fonts[name])
	if f, ok := in.fonts[obj]; ok {
		return f
	}
	f := in.doc.loadFont(obj)
	in.fonts[obj] = f
	return f
}

// show emits one span for a Tj/TJ operand list and advances the text matrix.
func (in *interp) show(items []*Object) {
	gs := &in.gs
	f := gs.font
	if f == nil {
		f = in.doc.loadFont(nil)
		gs.font = f
	}

	trm := Matrix{gs.size * gs.scale, 0, 0, gs.size, 0, gs.rise}.Mul(in.tm).Mul(gs.ctm)
	x, y := trm.Apply(0, 0)
	_, base := Matrix{gs.size * gs.scale, 0, 0, gs.size, 0, 0}.Mul(in.tm).Mul(gs.ctm).Apply(0, 0)

	var sb strings.Builder
	start := in.tm
	for _, it := range items {
		switch it.Kind {
		case KindString:
			for _, g := range f.decode(it.Str) {
				sb.WriteString(g.text)
				tx := g.advance*gs.size + gs.charSp
				if g.space {
					tx += gs.wordSp
				}
				in.tm = translate(tx*gs.scale, 0).Mul(in.tm)
			}
		case KindInt, KindReal:
			adj := it.Float()
			// A large negative adjustment is a visual word gap.
			if adj < -200 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			in.tm = translate(-adj/1000*gs.size*gs.scale, 0).Mul(in.tm)
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return
	}
	ex, ey := in.tm.Mul(gs.ctm).Apply(0, 0)
	sx, sy := start.Mul(gs.ctm).Apply(0, 0)
	sp := Span{
		Text:     text,
		X:        x,
		Y:        y,
		Baseline: base,
		Width:    math.Hypot(ex-sx, ey-sy),
		Size:     math.Abs(gs.size) * in.tm.Mul(gs.ctm).yScale(),
		Font:     f.Name,
		Bold:     f.Bold,
		Color:    gs.fill,
	}
	// Overflowing matrices give positions no layout can use.
	if !finite(sp.X, sp.Y, sp.Baseline, sp.Size) {
		return
	}
	in.out.Spans = append(in.out.Spans, sp)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (in *interp) paintXObject(name string, res Dict) {
	xobjs := in.doc.dict(res["XObject"])
	raw := xobjs[name]
	obj := in.doc.Resolve(raw)
	if obj.Kind != KindStream {
		return
	}
	switch sub, _ := obj.Dict.Name("Subtype"); sub {
	case "Image":
		pl := Placement{Name: name, Box: in.gs.ctm.unitSquare(), obj: obj, res: res}
		if !finite(pl.Box.X0, pl.Box.Y0, pl.Box.X1, pl.Box.Y1) {
			return
		}
		if raw != nil && raw.Kind == KindRef {
			pl.Ref = raw.Ref
		}
		in.out.Images = append(in.out.Images, pl)
	case "Form":
		if in.depth >= maxFormDepth {
			return
		}
		data, _, err := DecodeStream(obj.Dict, obj.Stream)
		if err != nil {
			return
		}
		formRes := in.doc.dict(obj.Dict["Resources"])
		if formRes == nil {
			formRes = res
		}
		saved, savedStack, tm, tlm := in.gs, in.stack, in.tm, in.tlm
		if m, ok := matrixFrom(in.doc.Resolve(obj.Dict["Matrix"]).Array); ok {
			in.gs.ctm = m.Mul(in.gs.ctm)
		}
		in.stack = nil
		in.depth++
		in.run(data, formRes)
		in.depth--
		in.gs, in.stack, in.tm, in.tlm = saved, savedStack, tm, tlm
	}
}
