package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/go-pdf-html/internal/pdftest"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	data := pdftest.Text(
		"BT /F1 12 Tf 72 720 Td (First & only) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Page two) Tj ET BT /F1 12 Tf 72 700 Td (second line) Tj ET",
		"BT /F1 12 Tf 72 720 Td (Page three) Tj ET",
	)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"pdfhtml", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	in := writeSample(t)
	out := filepath.Join(t.TempDir(), "out.html")

	_, err := run(t, "convert", "-o", out, "--positioning", "percentage", "--title", "Sample", "-p", "1,3", in)
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	assert.Equal(t, "Sample", doc.Find("title").Text())
	pages := doc.Find(".pdf-page")
	require.Equal(t, 2, pages.Length())
	assert.Equal(t, "First & only", pages.Eq(0).Find(".pdf-text").Text())
	assert.Equal(t, "Page three", pages.Eq(1).Find(".pdf-text").Text())
	assert.Contains(t, pages.Eq(0).AttrOr("style", ""), "aspect-ratio")
}

func TestConvertCommand_Stdout(t *testing.T) {
	stdout, err := run(t, "convert", "--backend", "native", "--no-script", writeSample(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "<!DOCTYPE html>"))
	assert.NotContains(t, stdout, "<script>")
}

func TestConvertCommand_ConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("font_scale: 1.0\n"), 0o644))

	stdout, err := run(t, "convert", "--config", cfg, writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "font-size:12.00px")

	_, err = run(t, "convert", "--config", cfg, "--font-scale", "3", writeSample(t))
	assert.ErrorContains(t, err, "font_scale")
}

func TestConvertCommand_Errors(t *testing.T) {
	_, err := run(t, "convert")
	assert.ErrorContains(t, err, "no input file")

	_, err = run(t, "convert", "-p", "9", writeSample(t))
	assert.ErrorContains(t, err, "invalid page range")

	_, err = run(t, "convert", "--backend", "poppler", writeSample(t))
	assert.ErrorContains(t, err, "unknown backend")

	notPDF := filepath.Join(t.TempDir(), "x.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("nope"), 0o644))
	_, err = run(t, "convert", notPDF)
	assert.ErrorContains(t, err, "cannot be decoded")
}

func TestExtractCommand(t *testing.T) {
	stdout, err := run(t, "extract", "-f", "json", "-p", "1-2", writeSample(t))
	require.NoError(t, err)

	var got []pageText
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].Page)
	assert.Equal(t, []string{"First & only"}, got[0].Lines)
	assert.Equal(t, []string{"Page two", "second line"}, got[1].Lines)

	stdout, err = run(t, "extract", "-f", "markdown", "-p", "3", writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "## Page 3\n\nPage three\n\n", stdout)

	_, err = run(t, "extract", "-f", "xml", writeSample(t))
	assert.ErrorContains(t, err, "unknown format")
}

func TestInfoCommand(t *testing.T) {
	stdout, err := run(t, "info", writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Version: PDF-1.4")
	assert.Contains(t, stdout, "Pages:   3")
	assert.Contains(t, stdout, "  Page 3: 612 x 792 pt")
}

func TestLogLevel(t *testing.T) {
	_, err := newLogger("verbose")
	assert.Error(t, err)
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", l.GetLevel().String())
}
