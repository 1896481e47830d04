package pdfhtml

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello", "Hello"},
		{"  Hello \t\n World  ", "Hello World"},
		{"a<b>c", "a&lt;b&gt;c"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
		{"&amp; &lt; &#169; &#xA9;", "&amp; &lt; &#169; &#xA9;"},
		{"&copy", "&amp;copy"},
		{"ctrl\x00\x07chars", "ctrlchars"},
		{"soft\u00adhyphen", "softhyphen"},
		{"bad\ufffdrune", "badrune"},
		{" ", ""},
		{"   ", ""},
		{"<script>", "&lt;script&gt;"},
		{"émigré", "émigré"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"a & b",
		"<<>>",
		"&&amp;",
		"  x  &lt; y ",
		"R&D &#38; more",
		"line\r\nbreak",
		"&#x;",
		"&",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
