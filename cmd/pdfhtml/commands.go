package main

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
	"github.com/porticus-lab/go-pdf-html/backend"
	"github.com/porticus-lab/go-pdf-html/internal/server"
)

func backendFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "PDF reader: native or plain",
		Value:   string(backend.Native),
		EnvVars: []string{"PDFHTML_BACKEND"},
	}
}

func pagesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "pages",
		Aliases: []string{"p"},
		Usage:   `page range, e.g. "1", "1-5", "1,3,5" (default: all)`,
	}
}

// openSource reads the file named by the first argument and applies the
// page range flag. numbers holds the 1-based source page for each page of
// the returned source.
func openSource(c *cli.Context) (src pdfhtml.PageSource, numbers []int, err error) {
	if c.NArg() == 0 {
		return nil, nil, fmt.Errorf("no input file specified")
	}
	input := c.Args().First()
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, err
	}
	kind, err := backend.ParseKind(c.String("backend"))
	if err != nil {
		return nil, nil, err
	}
	opts := []backend.Option{backend.WithLogger(loggerFrom(c))}
	if c.Bool("preflight") {
		opts = append(opts, backend.WithPreflight())
	}
	src, err = backend.Open(data, kind, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", input, err)
	}
	indices := make([]int, src.NumPages())
	for i := range indices {
		indices[i] = i
	}
	if spec := c.String("pages"); spec != "" {
		if indices, err = pdfhtml.ParsePageRange(spec, src.NumPages()); err != nil {
			return nil, nil, fmt.Errorf("invalid page range %q: %w", spec, err)
		}
		src = pdfhtml.Select(src, indices)
	}
	numbers = make([]int, len(indices))
	for i, idx := range indices {
		numbers[i] = idx + 1
	}
	return src, numbers, nil
}

// converterConfig builds the conversion config: file first, then flags that
// were set explicitly.
func converterConfig(c *cli.Context) (pdfhtml.Config, error) {
	cfg := pdfhtml.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = pdfhtml.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("font-scale") {
		cfg.FontScale = c.Float64("font-scale")
	}
	if c.IsSet("positioning") {
		cfg.Positioning = pdfhtml.Positioning(c.String("positioning"))
	}
	if c.IsSet("title") {
		cfg.Title = c.String("title")
	}
	if c.Bool("no-script") {
		cfg.Script = false
	}
	cfg.Logger = loggerFrom(c)
	return cfg, nil
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a PDF file to HTML",
		ArgsUsage: "<file.pdf>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write HTML to `FILE` (default: stdout)"},
			backendFlag(),
			pagesFlag(),
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config `FILE`", EnvVars: []string{"PDFHTML_CONFIG"}},
			&cli.StringFlag{Name: "positioning", Usage: "pixel or percentage"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "pages converted concurrently"},
			&cli.Float64Flag{Name: "font-scale", Usage: "factor applied to font sizes (0.5-1.5)"},
			&cli.StringFlag{Name: "title", Usage: "document title"},
			&cli.BoolFlag{Name: "no-script", Usage: "omit the selection script"},
			&cli.BoolFlag{Name: "preflight", Usage: "validate the file structure with pdfcpu first"},
			&cli.StringFlag{Name: "snapshot", Usage: "also write a PNG screenshot of the result to `FILE`"},
			&cli.BoolFlag{Name: "no-sandbox", Usage: "disable the Chrome sandbox for --snapshot"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := converterConfig(c)
			if err != nil {
				return err
			}
			conv, err := pdfhtml.NewConverter(pdfhtml.WithConfig(cfg))
			if err != nil {
				return err
			}
			src, _, err := openSource(c)
			if err != nil {
				return err
			}
			res, err := conv.Convert(c.Context, src)
			if err != nil {
				return err
			}
			if failed := res.FailedPages(); len(failed) > 0 {
				loggerFrom(c).Warnf("%d of %d pages rendered as placeholders", len(failed), res.Pages())
			}

			if out := c.String("output"); out != "" {
				if err := res.WriteToFile(out, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
			} else if _, err := res.WriteTo(c.App.Writer); err != nil {
				return err
			}

			if path := c.String("snapshot"); path != "" {
				return snapshot(c, res, path)
			}
			return nil
		},
	}
}

func snapshot(c *cli.Context, res *pdfhtml.Result, path string) error {
	opts := []pdfhtml.SnapshotOption{pdfhtml.WithTimeout(time.Minute)}
	if c.Bool("no-sandbox") {
		opts = append(opts, pdfhtml.WithNoSandbox())
	}
	s, err := pdfhtml.NewSnapshotter(opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	png, err := s.Snapshot(c.Context, res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

type pageText struct {
	Page  int      `json:"page"`
	Lines []string `json:"lines"`
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "print the text lines of each page",
		ArgsUsage: "<file.pdf>",
		Flags: []cli.Flag{
			backendFlag(),
			pagesFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text, json or markdown", Value: "text"},
			&cli.BoolFlag{Name: "preflight", Usage: "validate the file structure with pdfcpu first"},
		},
		Action: func(c *cli.Context) error {
			src, numbers, err := openSource(c)
			if err != nil {
				return err
			}
			cfg := pdfhtml.DefaultConfig()
			var results []pageText
			for i := 0; i < src.NumPages(); i++ {
				p, err := src.Page(c.Context, i)
				if err != nil {
					loggerFrom(c).WithError(err).Warnf("page %d skipped", numbers[i])
					continue
				}
				pt := pageText{Page: numbers[i], Lines: []string{}}
				for _, l := range pdfhtml.AssembleLines(p.Runs, p.Height, cfg.YTolerance, cfg.YCollisionOffset) {
					pt.Lines = append(pt.Lines, html.UnescapeString(l.Text))
				}
				results = append(results, pt)
			}
			return writeText(c.App.Writer, c.String("format"), results)
		},
	}
}

func writeText(out io.Writer, format string, results []pageText) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	case "markdown":
		for _, r := range results {
			fmt.Fprintf(out, "## Page %d\n\n", r.Page)
			for _, l := range r.Lines {
				fmt.Fprintln(out, l)
			}
			fmt.Fprintln(out)
		}
	case "text", "":
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(out, "\f")
			}
			for _, l := range r.Lines {
				fmt.Fprintln(out, l)
			}
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "display the PDF version and page dimensions",
		ArgsUsage: "<file.pdf>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("no input file specified")
			}
			input := c.Args().First()
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			src, err := backend.OpenNative(data)
			if err != nil {
				return fmt.Errorf("opening %s: %w", input, err)
			}

			out := c.App.Writer
			fmt.Fprintf(out, "File:    %s\n", input)
			fmt.Fprintf(out, "Version: PDF-%s\n", src.Version())
			fmt.Fprintf(out, "Pages:   %d\n", src.NumPages())
			if src.NumPages() > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Page dimensions:")
				for i := 0; i < src.NumPages(); i++ {
					info, err := src.PageInfo(i)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  Page %d: %s\n", i+1, info)
				}
			}
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve POST /convert and GET /health over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address", Value: ":8080", EnvVars: []string{"PDFHTML_ADDR"}},
			&cli.StringFlag{Name: "port", Usage: "listen port, overrides --addr", EnvVars: []string{"PORT"}},
			backendFlag(),
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config `FILE`", EnvVars: []string{"PDFHTML_CONFIG"}},
			&cli.Int64Flag{Name: "max-body", Usage: "upload limit in bytes", Value: 64 << 20},
			&cli.DurationFlag{Name: "timeout", Usage: "per-request conversion timeout", Value: 2 * time.Minute},
			&cli.BoolFlag{Name: "preflight", Usage: "validate uploads with pdfcpu first"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := converterConfig(c)
			if err != nil {
				return err
			}
			conv, err := pdfhtml.NewConverter(pdfhtml.WithConfig(cfg))
			if err != nil {
				return err
			}
			kind, err := backend.ParseKind(c.String("backend"))
			if err != nil {
				return err
			}
			addr := c.String("addr")
			if port := c.String("port"); port != "" {
				addr = ":" + port
			}
			srv := server.New(server.Config{
				Addr:         addr,
				Backend:      kind,
				MaxBodyBytes: c.Int64("max-body"),
				Timeout:      c.Duration("timeout"),
				Preflight:    c.Bool("preflight"),
			}, conv, loggerFrom(c))
			return srv.ListenAndServe(c.Context)
		},
	}
}
