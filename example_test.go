package pdfhtml_test

import (
	"context"
	"fmt"
	"log"
	"os"

	pdfhtml "github.com/porticus-lab/go-pdf-html"
	"github.com/porticus-lab/go-pdf-html/backend"
)

func Example() {
	doc := &pdfhtml.Document{Pages: []*pdfhtml.Page{{
		Width:  600,
		Height: 800,
		Runs: []pdfhtml.TextRun{
			{Text: "Hello", X: 50, Y: 750, Baseline: 750, FontSize: 12},
			{Text: "World", X: 90, Y: 750, Baseline: 750, FontSize: 12},
		},
	}}}

	res, err := pdfhtml.Convert(context.Background(), doc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Pages(), "page")
	// Output: 1 page
}

func Example_fromFile() {
	data, err := os.ReadFile("report.pdf")
	if err != nil {
		log.Fatal(err)
	}
	src, err := backend.Open(data, backend.Native)
	if err != nil {
		log.Fatal(err)
	}

	c, err := pdfhtml.NewConverter(
		pdfhtml.WithWorkers(8),
		pdfhtml.WithPositioning(pdfhtml.Percentage),
		pdfhtml.WithTitle("Report"),
	)
	if err != nil {
		log.Fatal(err)
	}
	res, err := c.Convert(context.Background(), src)
	if err != nil {
		log.Fatal(err)
	}
	if err := res.WriteToFile("report.html", 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generated HTML: %d bytes, %d placeholder pages\n", res.Len(), len(res.FailedPages()))
}

func ExampleParsePageRange() {
	pages, err := pdfhtml.ParsePageRange("4-5,1", 10)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(pages)
	// Output: [0 3 4]
}

func ExampleSanitize() {
	fmt.Println(pdfhtml.Sanitize("  Fish  &  Chips <fresh> "))
	// Output: Fish &amp; Chips &lt;fresh&gt;
}

func ExampleSnapshotter() {
	s, err := pdfhtml.NewSnapshotter(pdfhtml.WithNoSandbox())
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	doc := &pdfhtml.Document{Pages: []*pdfhtml.Page{{Width: 200, Height: 100}}}
	res, err := pdfhtml.Convert(context.Background(), doc)
	if err != nil {
		log.Fatal(err)
	}
	png, err := s.Snapshot(context.Background(), res)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Snapshot: %d bytes\n", len(png))
}
