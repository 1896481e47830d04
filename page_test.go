package pdfhtml

import (
	"context"
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRGBHex(t *testing.T) {
	tests := []struct {
		c    RGB
		want string
	}{
		{RGB{}, "#000000"},
		{RGB{255, 255, 255}, "#ffffff"},
		{RGB{R: 0x12, G: 0xab, B: 0x0f}, "#12ab0f"},
	}
	for _, tt := range tests {
		if got := tt.c.Hex(); got != tt.want {
			t.Errorf("%+v.Hex() = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestPageValidate(t *testing.T) {
	tests := []struct {
		w, h float64
		ok   bool
	}{
		{612, 792, true},
		{0, 792, false},
		{612, -1, false},
		{math.NaN(), 792, false},
		{612, math.NaN(), false},
		{math.Inf(1), 792, false},
		{612, math.Inf(-1), false},
	}
	for _, tt := range tests {
		err := (&Page{Width: tt.w, Height: tt.h}).validate()
		if tt.ok && err != nil {
			t.Errorf("validate(%v x %v) = %v, want nil", tt.w, tt.h, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidPage) {
			t.Errorf("validate(%v x %v) = %v, want ErrInvalidPage", tt.w, tt.h, err)
		}
	}
}

func TestDocumentPage(t *testing.T) {
	doc := &Document{Pages: []*Page{{Width: 1, Height: 1}}}
	if doc.NumPages() != 1 {
		t.Fatalf("NumPages() = %d, want 1", doc.NumPages())
	}
	if _, err := doc.Page(context.Background(), 1); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("Page(1) error = %v, want ErrInvalidPage", err)
	}
}

func TestSelect(t *testing.T) {
	doc := &Document{Pages: []*Page{
		{Index: 0, Width: 100, Height: 100},
		{Index: 1, Width: 200, Height: 200},
		{Index: 2, Width: 300, Height: 300},
	}}
	src := Select(doc, []int{2, 0})
	if src.NumPages() != 2 {
		t.Fatalf("NumPages() = %d, want 2", src.NumPages())
	}
	p, err := src.Page(context.Background(), 0)
	if err != nil {
		t.Fatalf("Page(0): %v", err)
	}
	if p.Width != 300 || p.Index != 0 {
		t.Errorf("Page(0) = width %v index %d, want width 300 index 0", p.Width, p.Index)
	}
	if doc.Pages[2].Index != 2 {
		t.Error("Select modified the underlying page")
	}
	if _, err := src.Page(context.Background(), 2); !errors.Is(err, ErrInvalidPage) {
		t.Errorf("Page(2) error = %v, want ErrInvalidPage", err)
	}
}

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		spec    string
		total   int
		want    []int
		wantErr bool
	}{
		{"1", 5, []int{0}, false},
		{"1,3-5", 5, []int{0, 2, 3, 4}, false},
		{"3-4, 1", 5, []int{0, 2, 3}, false},
		{"2,2,1-2", 5, []int{0, 1}, false},
		{"0", 5, nil, true},
		{"4-6", 5, nil, true},
		{"3-1", 5, nil, true},
		{"a", 5, nil, true},
		{"", 5, nil, true},
	}
	for _, tt := range tests {
		got, err := ParsePageRange(tt.spec, tt.total)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePageRange(%q) = %v, want error", tt.spec, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePageRange(%q): %v", tt.spec, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParsePageRange(%q) = %v, want %v", tt.spec, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParsePageRange(%q) = %v, want %v", tt.spec, got, tt.want)
				break
			}
		}
	}
}
