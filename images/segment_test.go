package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captchaImage builds a binarized 60x20 captcha with three glyph bars.
func captchaImage() *image.Gray {
	img := grayImage(60, 20, 255)
	drawBar(img, 5, 10, 3, 17)
	drawBar(img, 20, 26, 2, 18)
	drawBar(img, 40, 45, 5, 15)
	return Binarize(img)
}

func TestSplitColumnsFindsRunsInOrder(t *testing.T) {
	segments := SplitColumns(captchaImage())
	require.Len(t, segments, 3, "three ink runs should yield three segments")

	starts := []int{5, 20, 40}
	widths := []int{5, 6, 5}
	for i, seg := range segments {
		assert.Equal(t, starts[i], seg.Bounds().Min.X, "segment %d should start at its run's first ink column", i)
		assert.Equal(t, widths[i], seg.Bounds().Dx(), "segment %d should span its run's width", i)
		assert.Equal(t, 20, seg.Bounds().Dy(), "segments keep the full image height")
	}
}

func TestSplitColumnsDropsNarrowRuns(t *testing.T) {
	img := grayImage(30, 10, 255)
	drawBar(img, 4, 5, 0, 10)   // single noise column
	drawBar(img, 10, 14, 0, 10) // real glyph

	segments := SplitColumns(Binarize(img))
	require.Len(t, segments, 1, "runs narrower than the minimum width are noise")
	assert.Equal(t, 10, segments[0].Bounds().Min.X, "the surviving segment is the wide run")
}

func TestSplitColumnsBlankImage(t *testing.T) {
	segments := SplitColumns(Binarize(grayImage(40, 12, 255)))
	assert.Empty(t, segments, "an image without ink has no segments")
}

func TestTrimRows(t *testing.T) {
	img := grayImage(8, 20, 255)
	drawBar(img, 0, 8, 4, 13)

	trimmed := TrimRows(Binarize(img))
	assert.Equal(t, 4, trimmed.Bounds().Min.Y, "trim should start at the first ink row")
	assert.Equal(t, 13, trimmed.Bounds().Max.Y, "trim should stop after the last ink row")
	assert.Equal(t, 8, trimmed.Bounds().Dx(), "trim keeps the full width")
}

func TestTrimRowsBlankSegment(t *testing.T) {
	img := Binarize(grayImage(8, 8, 255))
	trimmed := TrimRows(img)
	assert.Equal(t, img.Bounds(), trimmed.Bounds(), "a blank segment is returned unchanged")
}

func TestNormalizeSegmentCentersSmallGlyph(t *testing.T) {
	img := grayImage(6, 8, 255)
	drawBar(img, 0, 6, 0, 8)

	norm := NormalizeSegment(Binarize(img))
	require.Equal(t, SegmentWidth, norm.Bounds().Dx(), "normalized width is fixed")
	require.Equal(t, SegmentHeight, norm.Bounds().Dy(), "normalized height is fixed")

	// Glyph occupies the centered 6x8 window, the rest is background.
	offX := (SegmentWidth - 6) / 2
	offY := (SegmentHeight - 8) / 2
	for y := 0; y < SegmentHeight; y++ {
		for x := 0; x < SegmentWidth; x++ {
			inside := x >= offX && x < offX+6 && y >= offY && y < offY+8
			if inside {
				assert.Equal(t, Ink, norm.GrayAt(x, y).Y, "glyph pixels stay ink at (%d,%d)", x, y)
			} else {
				assert.Equal(t, Background, norm.GrayAt(x, y).Y, "padding pixels are background at (%d,%d)", x, y)
			}
		}
	}
}

func TestNormalizeSegmentScalesDownOversizedGlyph(t *testing.T) {
	img := grayImage(40, 40, 255)
	drawBar(img, 0, 40, 0, 40)

	norm := NormalizeSegment(Binarize(img))
	require.Equal(t, SegmentWidth, norm.Bounds().Dx(), "oversized glyphs are fitted to the canvas width")
	require.Equal(t, SegmentHeight, norm.Bounds().Dy(), "oversized glyphs are fitted to the canvas height")

	sawInk := false
	for _, pix := range norm.Pix {
		require.Contains(t, []uint8{Ink, Background}, pix, "normalization must keep the image two-level")
		if pix == Ink {
			sawInk = true
		}
	}
	assert.True(t, sawInk, "scaling down must not erase the glyph")
}

func TestSegmentVector(t *testing.T) {
	img := grayImage(4, 4, 255)
	drawBar(img, 0, 2, 0, 1)

	vec := SegmentVector(Binarize(img))
	require.Len(t, vec, 16, "the vector flattens every pixel")
	assert.Equal(t, float32(0), vec[0], "ink pixels flatten to 0")
	assert.Equal(t, float32(0), vec[1], "ink pixels flatten to 0")
	assert.Equal(t, float32(255), vec[2], "background pixels flatten to 255")

	norm := NormalizeSegment(TrimRows(Binarize(img)))
	assert.Len(t, SegmentVector(norm), SegmentWidth*SegmentHeight,
		"normalized segments always flatten to the fixed feature length")
}
