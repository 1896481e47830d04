package pdf

import (
	"bytes"
	"compress/lzw"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
)

// maxDecodedSize bounds the output of any single stream (256 MB).
const maxDecodedSize = 256 << 20

var errTooLarge = errors.New("decoded stream exceeds 256 MB")

// filterStep is one entry of a stream's filter chain.
type filterStep struct {
	name  string
	parms Dict
}

// Image encodings that are left for an image decoder rather than expanded here.
var imageCodecs = map[string]string{
	"DCTDecode":      "DCTDecode",
	"DCT":            "DCTDecode",
	"JPXDecode":      "JPXDecode",
	"JBIG2Decode":    "JBIG2Decode",
	"CCITTFaxDecode": "CCITTFaxDecode",
	"CCF":            "CCITTFaxDecode",
}

// DecodeStream applies the stream's filter chain to data. When the chain ends
// in an image codec (DCT, JPX, JBIG2, CCITT) decoding stops there and the
// codec's canonical name is returned alongside the still-encoded bytes.
func DecodeStream(dict Dict, data []byte) ([]byte, string, error) {
	out := data
	for _, step := range filterChain(dict) {
		if codec, ok := imageCodecs[step.name]; ok {
			return out, codec, nil
		}
		var err error
		out, err = runFilter(step, out)
		if err != nil {
			return nil, "", fmt.Errorf("filter %s: %w", step.name, err)
		}
	}
	return out, "", nil
}

func filterChain(dict Dict) []filterStep {
	f, ok := dict["Filter"]
	if !ok {
		f, ok = dict["F"]
	}
	if !ok {
		return nil
	}
	parms := dict["DecodeParms"]
	if parms == nil {
		parms = dict["DP"]
	}

	var chain []filterStep
	switch f.Kind {
	case KindName:
		step := filterStep{name: f.Name}
		if parms.IsDictLike() {
			step.parms = parms.Dict
		}
		chain = append(chain, step)
	case KindArray:
		for i, n := range f.Array {
			if n.Kind != KindName {
				continue
			}
			step := filterStep{name: n.Name}
			if parms != nil && parms.Kind == KindArray && i < len(parms.Array) && parms.Array[i].IsDictLike() {
				step.parms = parms.Array[i].Dict
			}
			chain = append(chain, step)
		}
	}
	return chain
}

func runFilter(step filterStep, data []byte) ([]byte, error) {
	switch step.name {
	case "FlateDecode", "Fl":
		raw, err := readLimited(func() (io.ReadCloser, error) {
			return zlib.NewReader(bytes.NewReader(data))
		})
		if err != nil {
			return nil, err
		}
		return unpredict(step.parms, raw), nil
	case "LZWDecode", "LZW":
		raw, err := readLimited(func() (io.ReadCloser, error) {
			return lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8), nil
		})
		if err != nil {
			return nil, err
		}
		return unpredict(step.parms, raw), nil
	case "ASCII85Decode", "A85":
		if end := bytes.Index(data, []byte("~>")); end >= 0 {
			data = data[:end]
		}
		return readLimited(func() (io.ReadCloser, error) {
			return io.NopCloser(ascii85.NewDecoder(bytes.NewReader(data))), nil
		})
	case "ASCIIHexDecode", "AHx":
		return decodeASCIIHex(data), nil
	case "RunLengthDecode", "RL":
		return decodeRunLength(data)
	case "Crypt":
		return data, nil
	}
	return nil, fmt.Errorf("unsupported filter")
}

func readLimited(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	out, err := io.ReadAll(io.LimitReader(rc, maxDecodedSize+1))
	if len(out) > maxDecodedSize {
		return nil, errTooLarge
	}
	// Truncated deflate streams are common; keep whatever was recovered.
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}

// predictorParams describes sample layout for predictor functions.
type predictorParams struct {
	predictor int64
	colors    int64
	bpc       int64
	columns   int64
}

func (pp predictorParams) bytesPerPixel() int {
	n := int((pp.colors*pp.bpc + 7) / 8)
	if n < 1 {
		return 1
	}
	return n
}

func (pp predictorParams) rowBytes() int {
	return int((pp.columns*pp.colors*pp.bpc + 7) / 8)
}

func unpredict(parms Dict, data []byte) []byte {
	if parms == nil {
		return data
	}
	pp := predictorParams{predictor: 1, colors: 1, bpc: 8, columns: 1}
	if v, ok := parms.Int("Predictor"); ok {
		pp.predictor = v
	}
	if v, ok := parms.Int("Colors"); ok && v > 0 {
		pp.colors = v
	}
	if v, ok := parms.Int("BitsPerComponent"); ok && v > 0 {
		pp.bpc = v
	}
	if v, ok := parms.Int("Columns"); ok && v > 0 {
		pp.columns = v
	}
	switch {
	case pp.predictor == 2:
		return undoTIFF(pp, data)
	case pp.predictor >= 10:
		return undoPNG(pp, data)
	}
	return data
}

// undoTIFF reverses horizontal differencing for 8-bit samples.
func undoTIFF(pp predictorParams, data []byte) []byte {
	row := pp.rowBytes()
	bpp := pp.bytesPerPixel()
	if row <= 0 || pp.bpc != 8 {
		return data
	}
	out := append([]byte(nil), data...)
	for start := 0; start < len(out); start += row {
		end := min(start+row, len(out))
		for i := start + bpp; i < end; i++ {
			out[i] += out[i-bpp]
		}
	}
	return out
}

// undoPNG reverses per-row PNG filters (None, Sub, Up, Average, Paeth).
func undoPNG(pp predictorParams, data []byte) []byte {
	row := pp.rowBytes()
	if row <= 0 {
		return data
	}
	bpp := pp.bytesPerPixel()
	stride := row + 1
	rows := len(data) / stride
	out := make([]byte, rows*row)
	prev := make([]byte, row)
	for r := 0; r < rows; r++ {
		kind := data[r*stride]
		src := data[r*stride+1 : (r+1)*stride]
		cur := out[r*row : (r+1)*row]
		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch kind {
			case 1:
				cur[i] = src[i] + left
			case 2:
				cur[i] = src[i] + up
			case 3:
				cur[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = src[i] + paeth(left, up, upLeft)
			default:
				cur[i] = src[i]
			}
		}
		prev = cur
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func decodeASCIIHex(data []byte) []byte {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		if half {
			out = append(out, hi<<4|hexVal(c))
		} else {
			hi = hexVal(c)
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out
}

// decodeRunLength expands PackBits data. 128 marks end of data.
func decodeRunLength(data []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := min(i+n+1, len(data))
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return out, nil
			}
			out = append(out, bytes.Repeat(data[i:i+1], 257-n)...)
			i++
		}
		if len(out) > maxDecodedSize {
			return nil, errTooLarge
		}
	}
	return out, nil
}
