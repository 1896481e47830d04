package pdfhtml

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/document.html.tmpl
var templateFS embed.FS

var shell = template.Must(template.ParseFS(templateFS, "templates/document.html.tmpl"))

// Converter renders a [PageSource] as one self-contained HTML document.
//
// A Converter holds only its immutable configuration and is safe for
// concurrent use.
type Converter struct {
	cfg        Config
	compositor *Compositor
	renderer   *Renderer
}

// NewConverter creates a Converter from [DefaultConfig] and opts. Options
// are validated here; an out-of-range value yields a *[ConfigError].
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Converter{
		cfg:        cfg,
		compositor: NewCompositor(cfg),
		renderer:   NewRenderer(cfg),
	}, nil
}

// Config returns the converter's configuration.
func (c *Converter) Config() Config { return c.cfg }

type shellData struct {
	Title     string
	Fragments []template.HTML
	Script    bool
}

// Convert renders every page of src and wraps the fragments, in page order,
// in the document shell.
//
// Pages are processed by up to Config.Workers goroutines. A page whose
// source fails, or whose geometry is invalid, becomes an error placeholder.
// An error wrapping [ErrDocumentDecode], or cancellation of ctx, aborts the
// conversion and no output is returned.
func (c *Converter) Convert(ctx context.Context, src PageSource) (*Result, error) {
	start := time.Now()
	n := src.NumPages()
	fragments := make([]template.HTML, n)
	failed := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			frag, ok, err := c.renderOne(gctx, src, i)
			if err != nil {
				return err
			}
			fragments[i] = template.HTML(frag)
			failed[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pdfhtml: conversion failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pdfhtml: conversion cancelled: %w", err)
	}

	var buf bytes.Buffer
	if err := shell.Execute(&buf, shellData{Title: c.cfg.Title, Fragments: fragments, Script: c.cfg.Script}); err != nil {
		return nil, fmt.Errorf("pdfhtml: rendering document: %w", err)
	}

	res := &Result{data: buf.Bytes(), pages: n}
	for i, f := range failed {
		if f {
			res.failed = append(res.failed, i)
		}
	}
	c.cfg.Logger.WithFields(logrus.Fields{
		"pages":   n,
		"failed":  len(res.failed),
		"bytes":   res.Len(),
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}).Info("document converted")
	return res, nil
}

// renderOne produces the fragment for page i. ok is false when a
// placeholder was rendered; err is set only for document-fatal failures.
func (c *Converter) renderOne(ctx context.Context, src PageSource, i int) (frag string, ok bool, err error) {
	log := c.cfg.Logger.WithField("page", i+1)
	defer func() {
		if r := recover(); r != nil {
			perr := &PageError{Index: i, Err: fmt.Errorf("panic: %v", r)}
			log.WithError(perr).Warn("page failed")
			frag, ok, err = ErrorFragment(i, perr), false, nil
		}
	}()

	p, err := src.Page(ctx, i)
	if err == nil && p == nil {
		err = fmt.Errorf("%w: source returned no page", ErrInvalidPage)
	}
	if err == nil {
		err = p.validate()
	}
	if err != nil {
		if errors.Is(err, ErrDocumentDecode) || ctx.Err() != nil {
			return "", false, err
		}
		perr := &PageError{Index: i, Err: err}
		log.WithError(perr).Warn("page failed")
		return ErrorFragment(i, perr), false, nil
	}

	page := *p
	page.Index = i
	return c.RenderPage(&page), true, nil
}

// RenderPage assembles lines and images for one validated page and renders
// its fragment. Images that fail are skipped.
func (c *Converter) RenderPage(p *Page) string {
	lines := AssembleLines(p.Runs, p.Height, c.cfg.YTolerance, c.cfg.YCollisionOffset)

	var images []*CompositedImage
	for _, obj := range p.Images {
		if img := c.composite(p, obj); img != nil {
			images = append(images, img)
		}
	}
	var bg *CompositedImage
	if p.Background != nil {
		bg = c.composite(p, *p.Background)
	}
	return c.renderer.RenderPage(p, lines, images, bg)
}

func (c *Converter) composite(p *Page, obj ImageObject) *CompositedImage {
	out := c.compositor.Composite(obj, p.Height)
	if out.Err != nil {
		c.cfg.Logger.WithFields(logrus.Fields{"page": p.Index + 1, "image": obj.ID}).
			WithError(out.Err).Debug("image skipped")
		return nil
	}
	return out.Image
}

// Convert renders src using a temporary [Converter] built from opts.
func Convert(ctx context.Context, src PageSource, opts ...Option) (*Result, error) {
	conv, err := NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	return conv.Convert(ctx, src)
}
