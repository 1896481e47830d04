package pdfhtml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Snapshotter renders converted documents in headless Chrome and captures
// them as PNG screenshots, which is how the overlay is checked visually
// against the source pages.
//
// A Snapshotter reuses one browser process across snapshots and is safe for
// concurrent use. Call [Snapshotter.Close] to release it.
type Snapshotter struct {
	cfg           snapshotConfig
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewSnapshotter starts a headless browser with the given options.
func NewSnapshotter(opts ...SnapshotOption) (*Snapshotter, error) {
	cfg := defaultSnapshotConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.chromePath == "" && cfg.autoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("no-first-run", true),
		chromedp.WindowSize(cfg.width, 800),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("pdfhtml: starting browser: %w", err)
	}

	return &Snapshotter{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases the browser process. Close is idempotent.
func (s *Snapshotter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.browserCancel()
	s.allocCancel()
	return nil
}

// Snapshot loads res in a new tab and returns a full-page PNG screenshot.
func (s *Snapshotter) Snapshot(ctx context.Context, res *Result) ([]byte, error) {
	var png []byte
	err := s.run(ctx, res, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		png, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return png, nil
}

// SelectableText loads res and returns the text a reader would get by
// selecting the whole text layer, one entry per page.
func (s *Snapshotter) SelectableText(ctx context.Context, res *Result) ([]string, error) {
	var texts []string
	err := s.run(ctx, res, chromedp.Evaluate(
		`Array.from(document.querySelectorAll('.pdf-page .text-layer')).map(l => l.innerText)`,
		&texts,
	))
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// run writes res to a temporary file, opens it and performs action.
func (s *Snapshotter) run(ctx context.Context, res *Result, action chromedp.Action) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	f, err := os.CreateTemp("", "pdfhtml-*.html")
	if err != nil {
		return fmt.Errorf("pdfhtml: creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := res.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("pdfhtml: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pdfhtml: closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("pdfhtml: resolving path: %w", err)
	}

	if s.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	defer tabCancel()
	// Tie the tab to the caller's deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		action,
	); err != nil {
		return fmt.Errorf("pdfhtml: snapshot failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pdfhtml: snapshot failed: %w", err)
	}
	return nil
}

func (s *Snapshotter) checkClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
