package pdf

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// baseEncoding returns the code-to-rune table for a named simple-font
// encoding. Unknown names fall back to StandardEncoding.
func baseEncoding(name string) [256]rune {
	var t [256]rune
	switch name {
	case "WinAnsiEncoding":
		fillFromCharmap(&t, charmap.Windows1252)
	case "MacRomanEncoding":
		fillFromCharmap(&t, charmap.Macintosh)
	case "PDFDocEncoding":
		for i := range t {
			t[i] = rune(i)
		}
		for i, r := range pdfDocHigh {
			t[0x80+i] = r
		}
	case "Identity", "Symbol":
		for i := range t {
			t[i] = rune(i)
		}
	default:
		for i := 0x20; i < 0x7f; i++ {
			t[i] = rune(i)
		}
		// StandardEncoding differs from ASCII for the quote glyphs.
		t['\''] = '’'
		t['`'] = '‘'
		for code, r := range standardHigh {
			t[code] = r
		}
	}
	return t
}

type byteDecoder interface {
	DecodeByte(b byte) rune
}

func fillFromCharmap(t *[256]rune, cm byteDecoder) {
	for i := range t {
		r := cm.DecodeByte(byte(i))
		if r == '�' {
			continue
		}
		t[i] = r
	}
}

// pdfDocHigh covers PDFDocEncoding codes 0x80-0x9F; 0xA0-0xFF match Latin-1.
var pdfDocHigh = []rune{
	'•', '†', '‡', '…', '—', '–', 'ƒ', '⁄',
	'‹', '›', '−', '‰', '„', '“', '”', '‘',
	'’', '‚', '™', 'ﬁ', 'ﬂ', 'Ł', 'Œ', 'Š',
	'Ÿ', 'Ž', 'ı', 'ł', 'œ', 'š', 'ž', 0,
}

// standardHigh lists the non-ASCII assignments of StandardEncoding.
var standardHigh = map[int]rune{
	0xa1: '¡', 0xa2: '¢', 0xa3: '£', 0xa4: '⁄', 0xa5: '¥', 0xa6: 'ƒ',
	0xa7: '§', 0xa8: '¤', 0xa9: '\'', 0xaa: '“', 0xab: '«', 0xac: '‹',
	0xad: '›', 0xae: 'ﬁ', 0xaf: 'ﬂ', 0xb1: '–', 0xb2: '†',
	0xb3: '‡', 0xb4: '·', 0xb6: '¶', 0xb7: '•', 0xb8: '‚',
	0xb9: '„', 0xba: '”', 0xbb: '»', 0xbc: '…', 0xbd: '‰',
	0xbf: '¿', 0xc1: '`', 0xc2: '´', 0xc3: 'ˆ', 0xc4: '˜', 0xc5: '¯',
	0xc6: '˘', 0xc7: '˙', 0xc8: '¨', 0xca: '˚', 0xcb: '¸',
	0xcd: '˝', 0xce: '˛', 0xcf: 'ˇ', 0xd0: '—', 0xe1: 'Æ',
	0xe3: 'ª', 0xe8: 'Ł', 0xe9: 'Ø', 0xea: 'Œ', 0xeb: 'º', 0xf1: 'æ',
	0xf5: 'ı', 0xf8: 'ł', 0xf9: 'ø', 0xfa: 'œ', 0xfb: 'ß',
}

// glyphRune maps an Adobe glyph name to a rune. Besides the named table it
// understands uniXXXX, uXXXX[XX] and single-character names.
func glyphRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if len(name) == 1 {
		return rune(name[0]), true
	}
	if hex, ok := strings.CutPrefix(name, "uni"); ok && len(hex) >= 4 {
		if v, err := strconv.ParseUint(hex[:4], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if hex, ok := strings.CutPrefix(name, "u"); ok && len(hex) >= 4 && len(hex) <= 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return rune(v), true
		}
	}
	// Subset fonts often use names like "a.sc" or "f_i".
	if base, _, ok := strings.Cut(name, "."); ok && base != "" {
		return glyphRune(base)
	}
	return 0, false
}

var digitNames = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

func init() {
	for i, n := range digitNames {
		glyphNames[n] = rune('0' + i)
	}
	// Latin-1 letters with diacritics follow a regular naming scheme.
	accents := map[string]string{
		"acute": "ÁÉÍÓÚÝáéíóúý", "grave": "ÀÈÌÒÙàèìòù", "circumflex": "ÂÊÎÔÛâêîôû",
		"dieresis": "ÄËÏÖÜäëïöüÿ", "tilde": "ÃÑÕãñõ", "ring": "Åå", "cedilla": "Çç",
		"caron": "ŠŽšž", "slash": "Øø",
	}
	for suffix, letters := range accents {
		for _, r := range letters {
			base := baseLetter(r)
			glyphNames[string(base)+suffix] = r
		}
	}
}

func baseLetter(r rune) rune {
	const from = "ÁÉÍÓÚÝáéíóúýÀÈÌÒÙàèìòùÂÊÎÔÛâêîôûÄËÏÖÜäëïöüÿÃÑÕãñõÅåÇçŠŽšžØø"
	const to = "AEIOUYaeiouyAEIOUaeiouAEIOUaeiouAEIOUaeiouyANOanoAaCcSZszOo"
	src, dst := []rune(from), []rune(to)
	for i, c := range src {
		if c == r {
			return dst[i]
		}
	}
	return r
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$',
	"percent": '%', "ampersand": '&', "quotesingle": '\'', "parenleft": '(',
	"parenright": ')', "asterisk": '*', "plus": '+', "comma": ',', "hyphen": '-',
	"period": '.', "slash": '/', "colon": ':', "semicolon": ';', "less": '<',
	"equal": '=', "greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^', "underscore": '_',
	"grave": '`', "braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',
	"AE": 'Æ', "ae": 'æ', "OE": 'Œ', "oe": 'œ', "germandbls": 'ß', "Eth": 'Ð',
	"eth": 'ð', "Thorn": 'Þ', "thorn": 'þ', "Lslash": 'Ł', "lslash": 'ł',
	"dotlessi": 'ı', "Ydieresis": 'Ÿ', "multiply": '×', "divide": '÷',
	"endash": '–', "emdash": '—', "quoteleft": '‘', "quoteright": '’',
	"quotesinglbase": '‚', "quotedblleft": '“', "quotedblright": '”',
	"quotedblbase": '„', "ellipsis": '…', "dagger": '†', "daggerdbl": '‡',
	"bullet": '•', "perthousand": '‰', "guilsinglleft": '‹', "guilsinglright": '›',
	"guillemotleft": '«', "guillemotright": '»', "trademark": '™', "fi": 'ﬁ',
	"fl": 'ﬂ', "florin": 'ƒ', "fraction": '⁄', "Euro": '€', "currency": '¤',
	"copyright": '©', "registered": '®', "degree": '°', "plusminus": '±', "mu": 'µ',
	"paragraph": '¶', "section": '§', "periodcentered": '·', "cedilla": '¸',
	"ordmasculine": 'º', "ordfeminine": 'ª', "nbspace": ' ', "sfthyphen": '­',
	"exclamdown": '¡', "questiondown": '¿', "cent": '¢', "sterling": '£', "yen": '¥',
	"brokenbar": '¦', "dieresis": '¨', "logicalnot": '¬', "macron": '¯', "acute": '´',
	"circumflex": 'ˆ', "tilde": '˜', "breve": '˘', "dotaccent": '˙', "ring": '˚',
	"hungarumlaut": '˝', "ogonek": '˛', "caron": 'ˇ', "minus": '−',
	"onehalf": '½', "onequarter": '¼', "threequarters": '¾',
	"onesuperior": '¹', "twosuperior": '²', "threesuperior": '³',
}
