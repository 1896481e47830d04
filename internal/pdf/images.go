package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// ErrUnsupportedImage marks image encodings this reader cannot decode.
var ErrUnsupportedImage = errors.New("unsupported image encoding")

// RawImage is a decoded image XObject with 8-bit samples, row-major.
type RawImage struct {
	Width    int
	Height   int
	Channels int // 1 gray, 3 RGB, 4 CMYK
	Samples  []byte
	Mask     *RawImage // soft mask, one channel
	MaskRef  Ref
}

// DecodeImage decodes the image painted at pl.
func (pg *Page) DecodeImage(pl Placement) (*RawImage, error) {
	if pl.obj == nil {
		return nil, errors.New("placement has no image object")
	}
	img, err := pg.doc.decodeImage(pl.obj, 0)
	if err != nil {
		return nil, err
	}
	if sm := pl.obj.Dict["SMask"]; sm != nil {
		mask, err := pg.doc.decodeImage(pg.doc.Resolve(sm), 1)
		if err == nil && mask.Channels == 1 {
			img.Mask = mask
			if sm.Kind == KindRef {
				img.MaskRef = sm.Ref
			}
		}
	}
	return img, nil
}

func (doc *Document) decodeImage(obj *Object, depth int) (*RawImage, error) {
	if obj.Kind != KindStream {
		return nil, errors.New("image is not a stream")
	}
	d := obj.Dict
	w, _ := d.Int("Width")
	h, _ := d.Int("Height")
	if w <= 0 || h <= 0 || w > 1<<15 || h > 1<<15 {
		return nil, fmt.Errorf("image dimensions %dx%d out of range", w, h)
	}

	data, codec, err := DecodeStream(d, obj.Stream)
	if err != nil {
		return nil, err
	}
	switch codec {
	case "":
	case "DCTDecode":
		return decodeJPEG(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, codec)
	}

	bpc := int64(8)
	if v, ok := d.Int("BitsPerComponent"); ok {
		bpc = v
	}
	if m := doc.Resolve(d["ImageMask"]); m.Kind == KindBool && m.Bool {
		bpc = 1
		img, err := unpackSamples(data, int(w), int(h), 1, int(bpc), true)
		if err != nil {
			return nil, err
		}
		// Stencil masks paint where the sample is 0 unless /Decode is [1 0].
		if !decodeInverted(doc, d) {
			invert(img.Samples)
		}
		return img, nil
	}

	cs := doc.colorSpace(d["ColorSpace"], depth)
	img, err := unpackSamples(data, int(w), int(h), cs.components, int(bpc), cs.lookup == nil)
	if err != nil {
		return nil, err
	}
	if cs.lookup != nil {
		img = cs.expand(img)
	}
	if decodeInverted(doc, d) && img.Channels == 1 {
		invert(img.Samples)
	}
	return img, nil
}

func decodeInverted(doc *Document, d Dict) bool {
	arr := doc.Resolve(d["Decode"]).Array
	return len(arr) >= 2 && arr[0].Float() == 1 && arr[1].Float() == 0
}

func invert(b []byte) {
	for i := range b {
		b[i] = 255 - b[i]
	}
}

// colorSpace is the subset of colour space information needed to unpack
// samples. lookup is set for Indexed spaces.
type colorSpace struct {
	components int
	base       int
	lookup     []byte
}

func (doc *Document) colorSpace(obj *Object, depth int) colorSpace {
	obj = doc.Resolve(obj)
	if depth > 4 {
		return colorSpace{components: 3}
	}
	if obj.Kind == KindName {
		switch obj.Name {
		case "DeviceGray", "G", "CalGray":
			return colorSpace{components: 1}
		case "DeviceCMYK", "CMYK":
			return colorSpace{components: 4}
		}
		return colorSpace{components: 3}
	}
	if obj.Kind != KindArray || len(obj.Array) == 0 {
		return colorSpace{components: 3}
	}
	family := doc.Resolve(obj.Array[0]).Name
	switch family {
	case "ICCBased":
		if len(obj.Array) > 1 {
			if n, ok := doc.dict(obj.Array[1]).Int("N"); ok && (n == 1 || n == 3 || n == 4) {
				return colorSpace{components: int(n)}
			}
		}
	case "CalGray", "Separation":
		return colorSpace{components: 1}
	case "DeviceN":
		if len(obj.Array) > 1 {
			return colorSpace{components: max(1, len(doc.Resolve(obj.Array[1]).Array))}
		}
	case "Indexed", "I":
		if len(obj.Array) >= 4 {
			base := doc.colorSpace(obj.Array[1], depth+1)
			lut := doc.Resolve(obj.Array[3])
			table := lut.Str
			if lut.Kind == KindStream {
				table, _, _ = DecodeStream(lut.Dict, lut.Stream)
			}
			return colorSpace{components: 1, base: base.components, lookup: table}
		}
	}
	return colorSpace{components: 3}
}

// expand maps palette indices through the lookup table.
func (cs colorSpace) expand(img *RawImage) *RawImage {
	out := make([]byte, 0, len(img.Samples)*cs.base)
	for _, idx := range img.Samples {
		at := int(idx) * cs.base
		if at+cs.base > len(cs.lookup) {
			out = append(out, make([]byte, cs.base)...)
			continue
		}
		out = append(out, cs.lookup[at:at+cs.base]...)
	}
	return &RawImage{Width: img.Width, Height: img.Height, Channels: cs.base, Samples: out}
}

// unpackSamples widens 1/2/4/16-bit components to 8 bits. When scale is
// false the raw values are kept (palette indices).
func unpackSamples(data []byte, w, h, comps, bpc int, scale bool) (*RawImage, error) {
	n := w * h * comps
	img := &RawImage{Width: w, Height: h, Channels: comps}
	switch bpc {
	case 8:
		if len(data) < n {
			return nil, fmt.Errorf("image data short: %d < %d bytes", len(data), n)
		}
		img.Samples = data[:n]
		return img, nil
	case 16:
		if len(data) < 2*n {
			return nil, fmt.Errorf("image data short: %d < %d bytes", len(data), 2*n)
		}
		img.Samples = make([]byte, n)
		for i := range img.Samples {
			img.Samples[i] = data[2*i]
		}
		return img, nil
	case 1, 2, 4:
	default:
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	rowBytes := (w*comps*bpc + 7) / 8
	if len(data) < rowBytes*h {
		return nil, fmt.Errorf("image data short: %d < %d bytes", len(data), rowBytes*h)
	}
	maxVal := (1 << bpc) - 1
	img.Samples = make([]byte, 0, n)
	for y := 0; y < h; y++ {
		row := data[y*rowBytes : (y+1)*rowBytes]
		for i := 0; i < w*comps; i++ {
			bit := i * bpc
			v := int(row[bit/8]>>(8-bpc-bit%8)) & maxVal
			if scale {
				v = v * 255 / maxVal
			}
			img.Samples = append(img.Samples, byte(v))
		}
	}
	return img, nil
}

func decodeJPEG(data []byte) (*RawImage, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	b := src.Bounds()
	img := &RawImage{Width: b.Dx(), Height: b.Dy()}
	switch m := src.(type) {
	case *image.Gray:
		img.Channels = 1
		img.Samples = make([]byte, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.Samples = append(img.Samples, m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]...)
		}
	case *image.CMYK:
		img.Channels = 4
		img.Samples = make([]byte, 0, 4*b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			img.Samples = append(img.Samples, m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]...)
		}
	default:
		img.Channels = 3
		img.Samples = make([]byte, 0, 3*b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
				img.Samples = append(img.Samples, c.R, c.G, c.B)
			}
		}
	}
	return img, nil
}
