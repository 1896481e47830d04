package pdfhtml

import (
	"regexp"
	"strings"
	"unicode"
)

// entityRef matches the character references Sanitize itself produces, so
// already escaped text passes through unchanged.
var entityRef = regexp.MustCompile(`^&(?:amp|lt|gt|quot|#[0-9]+|#x[0-9a-fA-F]+);`)

// Sanitize prepares extracted text for embedding in HTML: control characters
// are removed, whitespace runs collapse to one space, the result is trimmed,
// and & < > are escaped. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for i, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r), r == unicode.ReplacementChar, r == '\u00ad':
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			if entityRef.MatchString(s[i:]) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
