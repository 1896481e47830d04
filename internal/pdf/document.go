package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ErrMalformed is returned when a file cannot be read as a PDF at all.
var ErrMalformed = errors.New("malformed pdf")

// xrefEntry locates one indirect object.
type xrefEntry struct {
	offset int64
	inUse  bool
	// objects stored in an object stream (PDF 1.5+)
	inStream bool
	stream   int
	index    int
}

// Document is a parsed PDF file. It is safe for concurrent use.
type Document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer Dict
	pages   []*Page

	mu    sync.Mutex
	cache map[int]*Object
}

// Load parses a PDF from raw bytes. A damaged cross-reference section is
// rebuilt by scanning the file for object headers.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\r\n\t "), []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing %%PDF header", ErrMalformed)
	}
	doc := &Document{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]*Object),
	}
	if err := doc.readXRef(); err != nil || doc.trailer["Root"] == nil {
		doc.reconstruct()
	}
	if doc.trailer["Root"] == nil {
		return nil, fmt.Errorf("%w: no document catalog", ErrMalformed)
	}
	if err := doc.loadPages(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Version returns the header version string, e.g. "1.7".
func (doc *Document) Version() string {
	i := bytes.Index(doc.data, []byte("%PDF-"))
	if i < 0 {
		return ""
	}
	rest := doc.data[i+5 : min(len(doc.data), i+16)]
	end := bytes.IndexAny(rest, "\r\n %")
	if end >= 0 {
		rest = rest[:end]
	}
	return string(rest)
}

// NumPages returns the number of leaf pages.
func (doc *Document) NumPages() int { return len(doc.pages) }

// Page returns the page at 0-based index i.
func (doc *Document) Page(i int) (*Page, error) {
	if i < 0 || i >= len(doc.pages) {
		return nil, fmt.Errorf("page %d out of range [0,%d)", i, len(doc.pages))
	}
	return doc.pages[i], nil
}

func (doc *Document) readXRef() error {
	tail := doc.data[max(0, len(doc.data)-2048):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return errors.New("startxref not found")
	}
	p := NewParser(tail, i+len("startxref"))
	p.skipWhitespace()
	off, err := strconv.ParseInt(p.readToken(), 10, 64)
	if err != nil {
		return fmt.Errorf("startxref: %w", err)
	}
	seen := make(map[int64]bool)
	for off > 0 || len(seen) == 0 {
		if seen[off] {
			break
		}
		seen[off] = true
		next, err := doc.readXRefSection(off)
		if err != nil {
			return err
		}
		off = next
	}
	return nil
}

// readXRefSection reads a table or stream at off, returning /Prev (0 if none).
// Entries already present win, since later sections override earlier ones.
func (doc *Document) readXRefSection(off int64) (int64, error) {
	if off < 0 || off >= int64(len(doc.data)) {
		return 0, fmt.Errorf("xref offset %d out of bounds", off)
	}
	p := NewParser(doc.data, int(off))
	p.skipWhitespace()

	var section Dict
	if p.match("xref") {
		d, err := doc.readXRefTable(p)
		if err != nil {
			return 0, err
		}
		section = d
	} else {
		obj, err := doc.parseIndirectAt(int(off), 0)
		if err != nil {
			return 0, err
		}
		if obj.Kind != KindStream {
			return 0, errors.New("xref section is neither a table nor a stream")
		}
		if err := doc.readXRefStream(obj); err != nil {
			return 0, err
		}
		section = obj.Dict
	}

	if doc.trailer == nil {
		doc.trailer = section
	}
	// Hybrid files point at an additional xref stream from the table trailer.
	if stm, ok := section.Int("XRefStm"); ok {
		if obj, err := doc.parseIndirectAt(int(stm), 0); err == nil && obj.Kind == KindStream {
			_ = doc.readXRefStream(obj)
		}
	}
	prev, _ := section.Int("Prev")
	return prev, nil
}

func (doc *Document) readXRefTable(p *Parser) (Dict, error) {
	for !p.EOF() {
		if p.match("trailer") {
			obj, err := p.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			if obj.Kind != KindDict {
				return nil, errors.New("trailer is not a dictionary")
			}
			return obj.Dict, nil
		}
		first, err1 := strconv.Atoi(p.readToken())
		p.skipWhitespace()
		count, err2 := strconv.Atoi(p.readToken())
		if err1 != nil || err2 != nil {
			return nil, errors.New("bad xref subsection header")
		}
		for n := first; n < first+count; n++ {
			p.skipWhitespace()
			offTok := p.readToken()
			p.skipWhitespace()
			p.readToken()
			p.skipWhitespace()
			flag := p.readToken()
			if _, dup := doc.xref[n]; dup {
				continue
			}
			offset, _ := strconv.ParseInt(offTok, 10, 64)
			doc.xref[n] = xrefEntry{offset: offset, inUse: flag == "n"}
		}
	}
	return nil, errors.New("xref table without trailer")
}

func (doc *Document) readXRefStream(obj *Object) error {
	data, _, err := DecodeStream(obj.Dict, obj.Stream)
	if err != nil {
		return fmt.Errorf("xref stream: %w", err)
	}
	w, _ := obj.Dict.Array("W")
	if len(w) < 3 {
		return errors.New("xref stream without /W")
	}
	widths := [3]int{int(w[0].Float()), int(w[1].Float()), int(w[2].Float())}
	rowLen := widths[0] + widths[1] + widths[2]
	if rowLen <= 0 {
		return errors.New("xref stream has empty rows")
	}

	size, _ := obj.Dict.Int("Size")
	ranges := []int{0, int(size)}
	if idx, ok := obj.Dict.Array("Index"); ok && len(idx) >= 2 {
		ranges = ranges[:0]
		for _, v := range idx {
			ranges = append(ranges, int(v.Float()))
		}
	}

	pos := 0
	for r := 0; r+1 < len(ranges); r += 2 {
		for n := ranges[r]; n < ranges[r]+ranges[r+1]; n++ {
			if pos+rowLen > len(data) {
				return nil
			}
			f := [3]int{}
			at := pos
			for k, width := range widths {
				f[k] = beUint(data[at : at+width])
				at += width
			}
			pos += rowLen
			if widths[0] == 0 {
				f[0] = 1
			}
			if _, dup := doc.xref[n]; dup {
				continue
			}
			switch f[0] {
			case 0:
				doc.xref[n] = xrefEntry{}
			case 1:
				doc.xref[n] = xrefEntry{offset: int64(f[1]), inUse: true}
			case 2:
				doc.xref[n] = xrefEntry{inUse: true, inStream: true, stream: f[1], index: f[2]}
			}
		}
	}
	return nil
}

func beUint(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

var objHeader = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d+)\s+(\d+)\s+obj\b`)

// reconstruct rebuilds the xref by scanning for "N G obj" headers and picks
// the last trailer (or a /Catalog object) as the root.
func (doc *Document) reconstruct() {
	doc.xref = make(map[int]xrefEntry)
	doc.cache = make(map[int]*Object)
	for _, m := range objHeader.FindAllSubmatchIndex(doc.data, -1) {
		n, err := strconv.Atoi(string(doc.data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		doc.xref[n] = xrefEntry{offset: int64(m[2]), inUse: true}
	}
	if i := bytes.LastIndex(doc.data, []byte("trailer")); i >= 0 {
		p := NewParser(doc.data, i+len("trailer"))
		if obj, err := p.ParseObject(); err == nil && obj.Kind == KindDict && obj.Dict["Root"] != nil {
			doc.trailer = obj.Dict
			return
		}
	}
	for n := range doc.xref {
		obj := doc.Resolve(&Object{Kind: KindRef, Ref: Ref{Num: n}})
		if obj.IsDictLike() {
			if t, _ := obj.Dict.Name("Type"); t == "Catalog" {
				doc.trailer = Dict{"Root": {Kind: KindRef, Ref: Ref{Num: n}}}
				return
			}
		}
	}
}

// parseIndirectAt parses "N G obj <object>" at off. A stream whose /Length is
// an indirect reference is re-read once the length is known.
func (doc *Document) parseIndirectAt(off, depth int) (*Object, error) {
	p := NewParser(doc.data, off)
	p.skipWhitespace()
	p.readToken()
	p.skipWhitespace()
	p.readToken()
	p.skipWhitespace()
	if !p.match("obj") {
		return nil, fmt.Errorf("no object header at offset %d", off)
	}
	body := p.Pos()
	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	if obj.Kind == KindStream && obj.Dict["Length"] != nil && obj.Dict["Length"].Kind == KindRef {
		if n, ok := doc.lookup(obj.Dict["Length"].Ref.Num, depth+1).Number(); ok {
			obj.Dict["Length"] = &Object{Kind: KindInt, Int: int64(n)}
			p.SetPos(body)
			p.skipWhitespace()
			return p.ParseObject()
		}
	}
	return obj, nil
}

// Resolve follows indirect references. Unresolvable references become null.
func (doc *Document) Resolve(obj *Object) *Object {
	for depth := 0; obj != nil && obj.Kind == KindRef; depth++ {
		if depth > 32 {
			return nullObject
		}
		obj = doc.lookup(obj.Ref.Num, 0)
	}
	if obj == nil {
		return nullObject
	}
	return obj
}

func (doc *Document) lookup(num, depth int) *Object {
	doc.mu.Lock()
	obj, ok := doc.cache[num]
	doc.mu.Unlock()
	if ok {
		return obj
	}
	// Depth bounds self-referencing /Length and object stream chains.
	if depth > 8 {
		return nullObject
	}

	obj = nullObject
	if e, ok := doc.xref[num]; ok && e.inUse {
		var err error
		var got *Object
		if e.inStream {
			got, err = doc.fromObjectStream(num, e, depth)
		} else {
			got, err = doc.parseIndirectAt(int(e.offset), depth)
		}
		if err == nil && got != nil {
			obj = got
		}
	}

	doc.mu.Lock()
	doc.cache[num] = obj
	doc.mu.Unlock()
	return obj
}

func (doc *Document) fromObjectStream(num int, e xrefEntry, depth int) (*Object, error) {
	container := doc.lookup(e.stream, depth+1)
	if container.Kind != KindStream {
		return nil, fmt.Errorf("object stream %d missing", e.stream)
	}
	data, _, err := DecodeStream(container.Dict, container.Stream)
	if err != nil {
		return nil, err
	}
	count, _ := container.Dict.Int("N")
	first, _ := container.Dict.Int("First")

	p := NewParser(data, 0)
	for i := 0; i < int(count); i++ {
		p.skipWhitespace()
		id, err1 := strconv.Atoi(p.readToken())
		p.skipWhitespace()
		off, err2 := strconv.Atoi(p.readToken())
		if err1 != nil || err2 != nil {
			break
		}
		if id == num {
			p.SetPos(int(first) + off)
			return p.ParseObject()
		}
	}
	return nil, fmt.Errorf("object %d not in stream %d", num, e.stream)
}

// dict resolves obj and returns its dictionary, if any.
func (doc *Document) dict(obj *Object) Dict {
	obj = doc.Resolve(obj)
	if obj.IsDictLike() {
		return obj.Dict
	}
	return nil
}

// Page is one leaf of the page tree with its inherited attributes applied.
type Page struct {
	doc       *Document
	Index     int
	Dict      Dict
	Resources Dict
	MediaBox  Rect
	Rotate    int
}

// Rect is a rectangle in default user space.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

type inherited struct {
	resources Dict
	mediaBox  *Object
	cropBox   *Object
	rotate    *Object
}

func (doc *Document) loadPages() error {
	root := doc.dict(doc.trailer["Root"])
	if root == nil {
		return fmt.Errorf("%w: catalog is not a dictionary", ErrMalformed)
	}
	tree := doc.dict(root["Pages"])
	if tree == nil {
		return fmt.Errorf("%w: catalog has no page tree", ErrMalformed)
	}
	doc.walkPages(tree, inherited{}, make(map[*Object]bool), 0)
	return nil
}

func (doc *Document) walkPages(node Dict, inh inherited, seen map[*Object]bool, depth int) {
	if depth > 64 {
		return
	}
	if r := doc.dict(node["Resources"]); r != nil {
		inh.resources = r
	}
	if v, ok := node["MediaBox"]; ok {
		inh.mediaBox = v
	}
	if v, ok := node["CropBox"]; ok {
		inh.cropBox = v
	}
	if v, ok := node["Rotate"]; ok {
		inh.rotate = v
	}

	kids, isTree := node["Kids"]
	if t, _ := node.Name("Type"); t == "Page" || !isTree {
		doc.pages = append(doc.pages, doc.newPage(node, inh))
		return
	}
	arr := doc.Resolve(kids)
	for _, kid := range arr.Array {
		k := doc.Resolve(kid)
		if !k.IsDictLike() || seen[k] {
			continue
		}
		seen[k] = true
		doc.walkPages(k.Dict, inh, seen, depth+1)
	}
}

func (doc *Document) newPage(node Dict, inh inherited) *Page {
	pg := &Page{
		doc:       doc,
		Index:     len(doc.pages),
		Dict:      node,
		Resources: inh.resources,
		MediaBox:  Rect{0, 0, 612, 792},
	}
	if r, ok := doc.rect(inh.mediaBox); ok {
		pg.MediaBox = r
	}
	if r, ok := doc.rect(inh.cropBox); ok {
		pg.MediaBox = intersect(pg.MediaBox, r)
	}
	if rot, ok := doc.Resolve(inh.rotate).Number(); ok {
		pg.Rotate = ((int(rot)%360)+360)%360
	}
	return pg
}

func (doc *Document) rect(obj *Object) (Rect, bool) {
	if obj == nil {
		return Rect{}, false
	}
	arr := doc.Resolve(obj)
	if arr.Kind != KindArray || len(arr.Array) < 4 {
		return Rect{}, false
	}
	var v [4]float64
	for i := range v {
		v[i] = doc.Resolve(arr.Array[i]).Float()
	}
	r := Rect{min(v[0], v[2]), min(v[1], v[3]), max(v[0], v[2]), max(v[1], v[3])}
	if r.Width() <= 0 || r.Height() <= 0 {
		return Rect{}, false
	}
	return r, true
}

func intersect(a, b Rect) Rect {
	r := Rect{max(a.X0, b.X0), max(a.Y0, b.Y0), min(a.X1, b.X1), min(a.Y1, b.Y1)}
	if r.Width() <= 0 || r.Height() <= 0 {
		return a
	}
	return r
}

// Contents returns the page's decoded content streams joined by newlines.
func (pg *Page) Contents() []byte {
	obj := pg.doc.Resolve(pg.Dict["Contents"])
	parts := []*Object{obj}
	if obj.Kind == KindArray {
		parts = obj.Array
	}
	var out []byte
	for _, part := range parts {
		s := pg.doc.Resolve(part)
		if s.Kind != KindStream {
			continue
		}
		data, _, err := DecodeStream(s.Dict, s.Stream)
		if err != nil {
			continue
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out
}

// Info is the page summary printed by the info command.
func (pg *Page) Info() string {
	s := fmt.Sprintf("%.0f x %.0f pt", pg.MediaBox.Width(), pg.MediaBox.Height())
	if pg.Rotate != 0 {
		s += fmt.Sprintf(", rotated %d", pg.Rotate)
	}
	return strings.TrimSpace(s)
}
