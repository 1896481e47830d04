package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

const maxNesting = 100

// Parser is a recursive-descent PDF object parser. It reads file level
// objects as well as content stream and CMap tokens.
type Parser struct {
	data  []byte
	pos   int
	depth int
}

// NewParser creates a parser for data starting at pos.
func NewParser(data []byte, pos int) *Parser {
	return &Parser{data: data, pos: pos}
}

// Pos returns the current parse position.
func (p *Parser) Pos() int { return p.pos }

// SetPos moves the parse position.
func (p *Parser) SetPos(pos int) { p.pos = pos }

// EOF reports whether only whitespace and comments remain.
func (p *Parser) EOF() bool {
	p.skipWhitespace()
	return p.pos >= len(p.data)
}

// skipWhitespace skips whitespace and comments.
func (p *Parser) skipWhitespace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		case isWhitespace(c):
			p.pos++
		default:
			return
		}
	}
}

// match advances past s when the upcoming bytes equal it.
func (p *Parser) match(s string) bool {
	end := p.pos + len(s)
	if end > len(p.data) || string(p.data[p.pos:end]) != s {
		return false
	}
	p.pos = end
	return true
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// ParseObject parses one PDF object at the current position. Bare keywords
// other than null/true/false come back as KindKeyword objects.
func (p *Parser) ParseObject() (*Object, error) {
	if p.depth > maxNesting {
		return nil, fmt.Errorf("exceeded maximum nesting depth")
	}
	p.depth++
	defer func() { p.depth-- }()

	p.skipWhitespace()
	if p.pos >= len(p.data) {
		return nullObject, nil
	}

	c := p.data[p.pos]
	switch {
	case c == '(':
		return p.parseString(), nil
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString(), nil
	case c == '/':
		return p.parseName(), nil
	case c == '[':
		return p.parseArray()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumberOrRef(), nil
	case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
		// Stray delimiter; consume it so callers always make progress.
		p.pos++
		return nullObject, nil
	}

	word := p.readToken()
	if word == "" {
		p.pos++
		return nullObject, nil
	}
	switch word {
	case "null":
		return nullObject, nil
	case "true":
		return &Object{Kind: KindBool, Bool: true}, nil
	case "false":
		return &Object{Kind: KindBool}, nil
	}
	return &Object{Kind: KindKeyword, Keyword: word}, nil
}

// parseString parses a literal string (...).
func (p *Parser) parseString() *Object {
	p.pos++
	var buf bytes.Buffer
	depth := 1
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		switch c {
		case '\\':
			p.readEscape(&buf)
		case '(':
			depth++
			buf.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return &Object{Kind: KindString, Str: buf.Bytes()}
			}
			buf.WriteByte(c)
		default:
			buf.WriteByte(c)
		}
	}
	return &Object{Kind: KindString, Str: buf.Bytes()}
}

func (p *Parser) readEscape(buf *bytes.Buffer) {
	if p.pos >= len(p.data) {
		return
	}
	esc := p.data[p.pos]
	p.pos++
	switch esc {
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case '\r':
		if p.pos < len(p.data) && p.data[p.pos] == '\n' {
			p.pos++
		}
	case '\n':
	default:
		if esc < '0' || esc > '7' {
			buf.WriteByte(esc)
			return
		}
		oct := int(esc - '0')
		for i := 0; i < 2 && p.pos < len(p.data); i++ {
			d := p.data[p.pos]
			if d < '0' || d > '7' {
				break
			}
			oct = oct*8 + int(d-'0')
			p.pos++
		}
		buf.WriteByte(byte(oct))
	}
}

// parseHexString parses <...>. An odd trailing digit is padded with 0.
func (p *Parser) parseHexString() *Object {
	p.pos++
	var buf bytes.Buffer
	var hi byte
	half := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		if !half {
			hi = hexVal(c)
			half = true
			continue
		}
		buf.WriteByte(hi<<4 | hexVal(c))
		half = false
	}
	if half {
		buf.WriteByte(hi << 4)
	}
	return &Object{Kind: KindString, Str: buf.Bytes()}
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// parseName parses /Name, decoding #XX escapes.
func (p *Parser) parseName() *Object {
	p.pos++
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelim(c) {
			break
		}
		p.pos++
	}
	return &Object{Kind: KindName, Name: decodeNameEscapes(string(p.data[start:p.pos]))}
}

func decodeNameEscapes(s string) string {
	if !bytes.ContainsRune([]byte(s), '#') {
		return s
	}
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && i+2 < len(s) {
			buf.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
			i += 2
			continue
		}
		buf.WriteByte(s[i])
	}
	return buf.String()
}

func (p *Parser) parseArray() (*Object, error) {
	p.pos++
	arr := []*Object{}
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}
		if p.data[p.pos] == ']' {
			p.pos++
			break
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
	return &Object{Kind: KindArray, Array: arr}, nil
}

// parseDict parses <<...>> and a following stream body, if any.
func (p *Parser) parseDict() (*Object, error) {
	p.pos += 2
	d := make(Dict)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			break
		}
		if p.match(">>") {
			break
		}
		if p.data[p.pos] != '/' {
			p.pos++
			continue
		}
		key := p.parseName()
		val, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		d[key.Name] = val
	}

	save := p.pos
	p.skipWhitespace()
	if !p.match("stream") {
		p.pos = save
		return &Object{Kind: KindDict, Dict: d}, nil
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}

	start := p.pos
	length := -1
	if n, ok := d.Int("Length"); ok && d["Length"].Kind != KindRef {
		length = int(n)
	}
	var body []byte
	if length >= 0 && start+length <= len(p.data) {
		body = p.data[start : start+length]
		p.pos = start + length
	} else {
		end := bytes.Index(p.data[start:], []byte("endstream"))
		if end < 0 {
			end = len(p.data) - start
		}
		body = bytes.TrimRight(p.data[start:start+end], "\r\n")
		p.pos = start + end
	}
	p.skipWhitespace()
	p.match("endstream")

	return &Object{Kind: KindStream, Dict: d, Stream: body}, nil
}

// parseNumberOrRef parses a number or an indirect reference (N G R).
func (p *Parser) parseNumberOrRef() *Object {
	tok := p.readToken()
	n, errN := strconv.ParseInt(tok, 10, 64)
	if errN == nil {
		after := p.pos
		p.skipWhitespace()
		gen, errG := strconv.ParseInt(p.readToken(), 10, 64)
		if errG == nil {
			p.skipWhitespace()
			if p.pos < len(p.data) && p.data[p.pos] == 'R' &&
				(p.pos+1 >= len(p.data) || isWhitespace(p.data[p.pos+1]) || isDelim(p.data[p.pos+1])) {
				p.pos++
				return &Object{Kind: KindRef, Ref: Ref{Num: int(n), Gen: int(gen)}}
			}
		}
		p.pos = after
		return &Object{Kind: KindInt, Int: n}
	}
	if !isReal(tok) {
		return nullObject
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil && !math.IsInf(f, 0) {
		return &Object{Kind: KindReal, Real: f}
	}
	return nullObject
}

// isReal reports whether tok is a PDF real: an optional sign, digits and at
// most one period, with at least one digit. ParseFloat alone would also take
// exponents, hex floats, Inf and NaN.
func isReal(tok string) bool {
	if tok != "" && (tok[0] == '+' || tok[0] == '-') {
		tok = tok[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// readToken reads a run of regular characters.
func (p *Parser) readToken() string {
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelim(c) {
			break
		}
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// skipInlineImage moves past the binary data of an inline image. It must be
// called right after the ID operator.
func (p *Parser) skipInlineImage() {
	if p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}
	for p.pos+2 <= len(p.data) {
		i := bytes.Index(p.data[p.pos:], []byte("EI"))
		if i < 0 {
			p.pos = len(p.data)
			return
		}
		at := p.pos + i
		before := at == 0 || isWhitespace(p.data[at-1])
		after := at+2 >= len(p.data) || isWhitespace(p.data[at+2])
		p.pos = at + 2
		if before && after {
			return
		}
	}
}
