// Package images - grayscale decoding and binarization for captcha bitmaps.
package images

import (
	"bytes"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrDecode indicates the input bytes are not a decodable image.
var ErrDecode = errors.New("decode image")

// Threshold is the grayscale intensity at which a pixel counts as background.
// Intensities below it are ink.
const Threshold = 156

// Ink and Background are the two levels every binarized pixel takes.
const (
	Ink        uint8 = 0
	Background uint8 = 255
)

// binarizeTable maps an 8-bit intensity to its binary level. Both levels are
// fixed points of the table, so binarization is idempotent.
var binarizeTable = func() (t [256]uint8) {
	for i := Threshold; i < 256; i++ {
		t[i] = Background
	}
	return
}()

// DecodeGray decodes encoded image bytes (PNG, JPEG, GIF or BMP) into an
// 8-bit grayscale image.
//
// Arguments:
//   - data: Raw bytes of the encoded image.
//
// Returns:
//   - *image.Gray: The decoded grayscale image.
//   - error: Wraps ErrDecode when the bytes are not a valid image.
func DecodeGray(data []byte) (*image.Gray, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray, nil
}

// Binarize thresholds a grayscale image into the two levels Ink and
// Background via the fixed lookup table.
//
// Arguments:
//   - img: The grayscale image to threshold.
//
// Returns:
//   - *image.Gray: A new image holding only Ink and Background pixels.
func Binarize(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		si := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		di := out.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[di+x] = binarizeTable[img.Pix[si+x]]
		}
	}
	return out
}

// BatchTensor lays a binarized image out as a (1, 1, height, width) float32
// tensor, ink as 0 and background as 1, the single-image single-channel
// batch a convolutional classifier consumes.
//
// Arguments:
//   - img: The binarized image.
//
// Returns:
//   - *tensor.Dense: The batch tensor.
func BatchTensor(img *image.Gray) *tensor.Dense {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()

	data := make([]float32, 0, h*w)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			data = append(data, float32(img.GrayAt(x, y).Y)/255)
		}
	}
	return tensor.New(tensor.WithShape(1, 1, h, w), tensor.WithBacking(data))
}
