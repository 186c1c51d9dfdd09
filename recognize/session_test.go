package recognize

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-captcha/inference"
)

// fakeSession is an in-memory inference.Session that records every Run call
// and replays canned outputs, cycling when it runs out.
type fakeSession struct {
	name    string
	outputs [][]inference.Output
	err     error

	calls  []map[string]*tensor.Dense
	next   int
	closed bool
}

func (f *fakeSession) InputName() string { return f.name }

func (f *fakeSession) Run(inputs map[string]*tensor.Dense) ([]inference.Output, error) {
	f.calls = append(f.calls, inputs)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.outputs) == 0 {
		return nil, nil
	}
	out := f.outputs[f.next%len(f.outputs)]
	f.next++
	return out, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

// floatSlot builds a single character slot output whose argmax lands on idx.
func floatSlot(size, idx int) inference.Output {
	scores := make([]float32, size)
	for i := range scores {
		scores[i] = -1
	}
	scores[idx] = 1
	return inference.Output{Shape: []int64{1, int64(size)}, Floats: scores}
}

// captchaPNG renders a white 60x20 captcha with three dark glyph bars and
// encodes it as PNG.
func captchaPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 60, 20))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	bars := [][4]int{{5, 10, 3, 17}, {20, 26, 2, 18}, {40, 45, 5, 15}}
	for _, bar := range bars {
		for y := bar[2]; y < bar[3]; y++ {
			for x := bar[0]; x < bar[1]; x++ {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "encoding the fixture PNG should succeed")
	return buf.Bytes()
}

// blankPNG encodes an all-white image with no glyphs.
func blankPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 60, 20))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "encoding the fixture PNG should succeed")
	return buf.Bytes()
}
