package pdfhtml

import "testing"

func TestMapper_MapOrigin(t *testing.T) {
	tests := []struct {
		mode      Positioning
		x, y      float64
		left, top float64
	}{
		{Pixel, 0, 0, 0, 792},
		{Pixel, 50, 742, 50, 50},
		{Pixel, 612, 792, 612, 0},
		{Percentage, 0, 792, 0, 0},
		{Percentage, 306, 396, 50, 50},
		{Percentage, 612, 0, 100, 100},
	}
	for _, tt := range tests {
		m := Mapper{Mode: tt.mode}
		left, top := m.MapOrigin(tt.x, tt.y, 612, 792)
		if !almostEqual(left, tt.left, 1e-9) || !almostEqual(top, tt.top, 1e-9) {
			t.Errorf("%s MapOrigin(%v, %v) = (%v, %v), want (%v, %v)",
				tt.mode, tt.x, tt.y, left, top, tt.left, tt.top)
		}
	}
}

// A point at the top edge of the page maps to top 0 and one at the bottom
// edge to the full page height, for any page size.
func TestMapper_FlipIsInvolution(t *testing.T) {
	m := Mapper{Mode: Pixel}
	for _, h := range []float64{100, 792, 1191.5} {
		for _, y := range []float64{0, 1, h / 3, h} {
			_, top := m.MapOrigin(0, y, 10, h)
			_, back := m.MapOrigin(0, h-top, 10, h)
			if !almostEqual(back, top, 1e-9) || !almostEqual(top, h-y, 1e-9) {
				t.Errorf("h=%v y=%v: top=%v back=%v", h, y, top, back)
			}
		}
	}
}

func TestMapper_MapBox(t *testing.T) {
	box := Box{X0: 100, Y0: 600, X1: 300, Y1: 700}

	left, top, w, h := Mapper{Mode: Pixel}.MapBox(box, 612, 792)
	if left != 100 || top != 92 || w != 200 || h != 100 {
		t.Errorf("pixel MapBox = (%v, %v, %v, %v), want (100, 92, 200, 100)", left, top, w, h)
	}

	left, top, w, h = Mapper{Mode: Percentage}.MapBox(Box{X0: 0, Y0: 0, X1: 50, Y1: 100}, 100, 200)
	if left != 0 || top != 50 || w != 50 || h != 50 {
		t.Errorf("percentage MapBox = (%v, %v, %v, %v), want (0, 50, 50, 50)", left, top, w, h)
	}
}

func TestMapper_Unit(t *testing.T) {
	if u := (Mapper{Mode: Pixel}).Unit(); u != "px" {
		t.Errorf("pixel Unit() = %q", u)
	}
	if u := (Mapper{Mode: Percentage}).Unit(); u != "%" {
		t.Errorf("percentage Unit() = %q", u)
	}
}
