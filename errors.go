package pdfhtml

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [Snapshotter].
	ErrClosed = errors.New("pdfhtml: snapshotter is closed")

	// ErrDocumentDecode marks a source document that cannot be decoded at
	// all. A [PageSource] error wrapping it aborts the whole conversion.
	ErrDocumentDecode = errors.New("pdfhtml: document cannot be decoded")

	// ErrInvalidPage is returned for pages with non-positive dimensions or
	// indices outside the source.
	ErrInvalidPage = errors.New("pdfhtml: invalid page")

	// ErrImageSkipped is wrapped by image errors for images rejected by
	// validation rather than failing to encode.
	ErrImageSkipped = errors.New("pdfhtml: image skipped")
)

// PageError reports a page whose geometry or text could not be read. The
// converter renders a placeholder for it and continues.
type PageError struct {
	Index int
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("pdfhtml: page %d: %v", e.Index+1, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// ImageError reports one image that was skipped or could not be encoded.
type ImageError struct {
	ID  string
	Err error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("pdfhtml: image %s: %v", e.ID, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// ConfigError reports an out-of-range configuration value.
type ConfigError struct {
	Field string
	Value any
	Want  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pdfhtml: invalid config %s=%v: want %s", e.Field, e.Value, e.Want)
}
