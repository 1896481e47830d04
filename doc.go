// Package pdfhtml turns PDF pages into HTML documents that look like the
// original pages while keeping their text selectable.
//
// Every page becomes a sized block holding an optional raster background, a
// layer of absolutely positioned text lines and a layer of embedded images.
// Text is grouped into lines, sanitized and placed at the PDF coordinates it
// came from, flipped to a top-left origin.
//
// # Converting
//
// Pages come from a [PageSource]. The backend package opens PDF bytes with a
// pure-Go reader:
//
//	src, err := backend.Open(data, backend.Native)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := pdfhtml.Convert(ctx, src)
//
// For repeated conversions create a [Converter]; it is safe for concurrent
// use:
//
//	c, err := pdfhtml.NewConverter(
//	    pdfhtml.WithWorkers(8),
//	    pdfhtml.WithPositioning(pdfhtml.Percentage),
//	)
//	res, err := c.Convert(ctx, src)
//
// Pages are processed concurrently and always emitted in page order. A page
// that cannot be read becomes a visible placeholder; an image that cannot be
// encoded is left out. Only a document that cannot be decoded at all, or a
// cancelled context, fails the conversion.
//
// A [Result] gives access to the generated HTML:
//
//	res.Bytes()                         // []byte
//	res.String()                        // string
//	res.Base64()                        // base64 string (RFC 4648)
//	res.Reader()                        // *bytes.Reader
//	res.WriteTo(w)                      // io.WriterTo
//	res.WriteToFile("out.html", 0o644)  // write to disk
//	res.FailedPages()                   // pages rendered as placeholders
//
// # Configuration
//
// [Config] holds every tunable. Start from [DefaultConfig], load one from
// YAML with [LoadConfig], or pass [Option]s to [NewConverter]. Invalid
// values are reported as a *[ConfigError] when the Converter is created.
//
// # Snapshots
//
// A [Snapshotter] loads a result in headless Chrome and captures it as PNG.
// Chrome or Chromium must be available, or use [WithAutoDownload]:
//
//	s, err := pdfhtml.NewSnapshotter(pdfhtml.WithAutoDownload())
//	defer s.Close()
//	png, err := s.Snapshot(ctx, res)
package pdfhtml
