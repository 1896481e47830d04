// Package backend opens PDF bytes as a [pdfhtml.PageSource].
//
// Two readers are available. [Native] interprets content streams with the
// in-repo reader and delivers text with colour, weight and position as well
// as image XObjects. [Plain] uses github.com/ledongthuc/pdf and delivers
// positioned text only.
package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
)

// Kind names a reader implementation.
type Kind string

const (
	Native Kind = "native"
	Plain  Kind = "plain"
)

// ParseKind maps a command-line name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Native, Plain:
		return k, nil
	case "":
		return Native, nil
	}
	return "", fmt.Errorf("backend: unknown backend %q (want native or plain)", s)
}

type options struct {
	logger    logrus.FieldLogger
	preflight bool
}

// Option configures [Open].
type Option func(*options)

// WithLogger sets the logger for reader diagnostics such as undecodable
// images.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPreflight validates the file structure with pdfcpu before opening it.
func WithPreflight() Option {
	return func(o *options) {
		o.preflight = true
	}
}

func resolveOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	return o
}

// Open reads data with the given reader. Errors for files that cannot be
// read at all wrap [pdfhtml.ErrDocumentDecode].
func Open(data []byte, kind Kind, opts ...Option) (pdfhtml.PageSource, error) {
	o := resolveOptions(opts)
	if o.preflight {
		if err := Preflight(data); err != nil {
			return nil, err
		}
	}
	switch kind {
	case Native, "":
		return openNative(data, o)
	case Plain:
		return openPlain(data, o)
	}
	return nil, fmt.Errorf("backend: unknown backend %q", kind)
}

// decodeError marks err as fatal for the whole document.
func decodeError(err error) error {
	return fmt.Errorf("%w: %v", pdfhtml.ErrDocumentDecode, err)
}
