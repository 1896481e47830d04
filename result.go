package pdfhtml

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
)

// Result holds a generated HTML document and helpers for common output
// forms such as raw bytes, a string, base64 and streaming readers.
//
// Its methods may be called any number of times; the data is never
// modified.
type Result struct {
	data   []byte
	pages  int
	failed []int
}

// Bytes returns the raw HTML.
func (r *Result) Bytes() []byte {
	return r.data
}

// String returns the HTML as a string.
func (r *Result) String() string {
	return string(r.data)
}

// Base64 returns the HTML encoded as standard base64 (RFC 4648), for
// embedding in JSON payloads.
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns an [*bytes.Reader] over the HTML.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the HTML to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the HTML to path, creating it if needed.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.data, perm)
}

// Len returns the size of the HTML in bytes.
func (r *Result) Len() int {
	return len(r.data)
}

// Pages returns the number of pages in the document.
func (r *Result) Pages() int {
	return r.pages
}

// FailedPages returns the 0-based indices of pages rendered as error
// placeholders.
func (r *Result) FailedPages() []int {
	return r.failed
}
