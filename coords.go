package pdfhtml

// Mapper converts PDF-space coordinates (bottom-left origin, points) into
// overlay coordinates (top-left origin) in pixels or page percentages.
// Callers must ensure page width and height are positive.
type Mapper struct {
	Mode Positioning
}

// MapOrigin maps an anchor point to CSS left/top.
func (m Mapper) MapOrigin(x, y, w, h float64) (left, top float64) {
	if m.Mode == Percentage {
		return x / w * 100, (h - y) / h * 100
	}
	return x, h - y
}

// MapBox maps a PDF-space box. Top comes from the box's upper edge Y1.
func (m Mapper) MapBox(b Box, w, h float64) (left, top, width, height float64) {
	left, top = m.MapOrigin(b.X0, b.Y1, w, h)
	return left, top, m.MapLength(b.X1-b.X0, w), m.MapLength(b.Y1-b.Y0, h)
}

// MapLength maps a length along an axis whose page extent is extent.
func (m Mapper) MapLength(v, extent float64) float64 {
	if m.Mode == Percentage {
		return v / extent * 100
	}
	return v
}

// Unit returns the CSS unit for mapped values.
func (m Mapper) Unit() string {
	if m.Mode == Percentage {
		return "%"
	}
	return "px"
}
