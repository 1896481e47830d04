package pdfhtml

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

// Image encodings produced by the compositor.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Placement is where a composited image goes on the page, in PDF space.
type Placement struct {
	Box Box
	// Estimated is set when the source had no bounds and the image was put
	// at the page's top-left corner at its native pixel size.
	Estimated bool
}

// CompositedImage is an encoded, embeddable image.
type CompositedImage struct {
	ID        string
	Format    string
	Data      []byte
	Width     int
	Height    int
	Placement Placement
}

// DataURI returns the image as a data: URI.
func (c *CompositedImage) DataURI() string {
	return "data:image/" + c.Format + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// ImageOutcome is the result for one image: either Image or Err is set.
type ImageOutcome struct {
	Image *CompositedImage
	Err   *ImageError
}

// Compositor turns raw image objects into embeddable images.
type Compositor struct {
	MinDimension    int
	MaxDimension    int
	DownsampleLimit int
	Quality         int
}

// NewCompositor returns a compositor configured from cfg.
func NewCompositor(cfg Config) *Compositor {
	return &Compositor{
		MinDimension:    cfg.MinImageDimension,
		MaxDimension:    cfg.MaxImageDimension,
		DownsampleLimit: cfg.DownsampleLimit,
		Quality:         cfg.ImageQuality,
	}
}

// Composite validates, masks, scales and encodes obj for a page of height
// pageHeight. It never panics on malformed input; failures come back in the
// outcome's Err.
func (c *Compositor) Composite(obj ImageObject, pageHeight float64) ImageOutcome {
	fail := func(err error) ImageOutcome {
		return ImageOutcome{Err: &ImageError{ID: obj.ID, Err: err}}
	}
	if obj.Width < c.MinDimension || obj.Height < c.MinDimension ||
		obj.Width > c.MaxDimension || obj.Height > c.MaxDimension {
		return fail(fmt.Errorf("%w: %dx%d outside [%d, %d]",
			ErrImageSkipped, obj.Width, obj.Height, c.MinDimension, c.MaxDimension))
	}

	img, err := toImage(obj)
	if err != nil {
		return fail(err)
	}
	masked := false
	if m := obj.SoftMask; m != nil {
		if m.Width < 1 || m.Height < 1 || m.Width > c.MaxDimension || m.Height > c.MaxDimension {
			return fail(fmt.Errorf("%w: soft mask %dx%d outside [1, %d]",
				ErrImageSkipped, m.Width, m.Height, c.MaxDimension))
		}
		if img, err = applyMask(img, *m); err != nil {
			return fail(err)
		}
		masked = true
	}
	img = c.downsample(img)

	var buf bytes.Buffer
	format := FormatPNG
	if obj.Channels >= 3 && !masked {
		format = FormatJPEG
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return fail(fmt.Errorf("encoding %s: %w", format, err))
	}

	b := img.Bounds()
	out := &CompositedImage{
		ID:     obj.ID,
		Format: format,
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if obj.Bounds != nil {
		out.Placement = Placement{Box: *obj.Bounds}
	} else {
		out.Placement = Placement{
			Box:       Box{X0: 0, Y0: pageHeight - float64(obj.Height), X1: float64(obj.Width), Y1: pageHeight},
			Estimated: true,
		}
	}
	return ImageOutcome{Image: out}
}

// toImage wraps samples in an image.Image: 1 gray, 2 gray+alpha, 3 RGB,
// 4 CMYK.
func toImage(obj ImageObject) (image.Image, error) {
	w, h, ch := obj.Width, obj.Height, obj.Channels
	if ch < 1 || ch > 4 {
		return nil, fmt.Errorf("unsupported channel count %d", ch)
	}
	if !holds(len(obj.Samples), w, h, ch) {
		return nil, fmt.Errorf("sample buffer of %d bytes too short for %dx%dx%d", len(obj.Samples), w, h, ch)
	}
	rect := image.Rect(0, 0, w, h)
	switch ch {
	case 1:
		return &image.Gray{Pix: obj.Samples[:w*h], Stride: w, Rect: rect}, nil
	case 4:
		return &image.CMYK{Pix: obj.Samples[:w*h*4], Stride: 4 * w, Rect: rect}, nil
	}
	img := image.NewNRGBA(rect)
	for i := 0; i < w*h; i++ {
		s := obj.Samples[i*ch : i*ch+ch]
		px := img.Pix[i*4 : i*4+4]
		if ch == 2 {
			px[0], px[1], px[2], px[3] = s[0], s[0], s[0], s[1]
		} else {
			px[0], px[1], px[2], px[3] = s[0], s[1], s[2], 0xff
		}
	}
	return img, nil
}

// applyMask copies img into an NRGBA image whose alpha comes from mask. A
// mask with different dimensions is sampled nearest-neighbour.
func applyMask(img image.Image, mask ImageObject) (image.Image, error) {
	mch := max(mask.Channels, 1)
	if !holds(len(mask.Samples), mask.Width, mask.Height, mch) {
		return nil, errors.New("soft mask is malformed")
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		my := y * mask.Height / b.Dy()
		for x := 0; x < b.Dx(); x++ {
			mx := x * mask.Width / b.Dx()
			idx := (my*mask.Width + mx) * mch
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			c.A = uint8(uint16(c.A) * uint16(mask.Samples[idx]) / 255)
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

// holds reports whether n bytes cover w*h*ch samples, without overflowing.
func holds(n, w, h, ch int) bool {
	if w <= 0 || h <= 0 || ch <= 0 || h > n || ch > n {
		return false
	}
	return w <= n/h/ch
}

// downsample scales img so its longer side equals the limit.
func (c *Compositor) downsample(img image.Image) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	longest := max(w, h)
	if c.DownsampleLimit <= 0 || longest <= c.DownsampleLimit {
		return img
	}
	f := float64(c.DownsampleLimit) / float64(longest)
	nw := max(1, int(math.Round(float64(w)*f)))
	nh := max(1, int(math.Round(float64(h)*f)))
	if w >= h {
		nw = c.DownsampleLimit
	} else {
		nh = c.DownsampleLimit
	}

	var dst draw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(image.Rect(0, 0, nw, nh))
	default:
		dst = image.NewNRGBA(image.Rect(0, 0, nw, nh))
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
