package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/orion-udf/core/errs"
)

// Encode compresses img with the codec named by encType at the given
// level, validating the level against the same range SetEncoding enforces.
// It fails with errs.EncodeFailed if the underlying codec produces no
// bytes or returns an error.
func Encode(encType EncType, img image.Image, level int) ([]byte, error) {
	min, max, ok := validLevelRange(encType)
	if !ok {
		return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("unknown encoding type %v", encType), nil)
	}
	if level < min || level > max {
		return nil, errs.New(errs.FrameInvariantViolation, fmt.Sprintf("encode level %d out of range [%d,%d] for %v", level, min, max, encType), nil)
	}

	var buf bytes.Buffer
	switch encType {
	case EncJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: level}); err != nil {
			return nil, errs.New(errs.EncodeFailed, "jpeg encode", err)
		}
	case EncPNG:
		enc := &png.Encoder{CompressionLevel: png.CompressionLevel(level)}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, errs.New(errs.EncodeFailed, "png encode", err)
		}
	case EncNone:
		return nil, errs.New(errs.EncodeFailed, "cannot encode with EncNone", nil)
	default:
		return nil, errs.New(errs.EncodeFailed, fmt.Sprintf("unsupported encoding type %v", encType), nil)
	}
	if buf.Len() == 0 {
		return nil, errs.New(errs.EncodeFailed, fmt.Sprintf("%v codec produced zero bytes", encType), nil)
	}
	return buf.Bytes(), nil
}

// Decode decompresses data with the codec named by encType.
func Decode(encType EncType, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch encType {
	case EncJPEG:
		img, err := jpeg.Decode(r)
		if err != nil {
			return nil, errs.New(errs.DecodeFailed, "jpeg decode", err)
		}
		return img, nil
	case EncPNG:
		img, err := png.Decode(r)
		if err != nil {
			return nil, errs.New(errs.DecodeFailed, "png decode", err)
		}
		return img, nil
	default:
		return nil, errs.New(errs.DecodeFailed, fmt.Sprintf("unsupported encoding type %v", encType), nil)
	}
}

// rgbBytes flattens img into a row-major (H, W, 3) byte matrix, the color
// decoder output shape spec.md §4.2's decode algorithm calls for. Alpha, if
// the source format carried one, is dropped.
func rgbBytes(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return out
}
