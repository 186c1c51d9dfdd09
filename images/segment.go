// Package images - projection based character segmentation.
package images

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

const (
	// SegmentWidth and SegmentHeight are the canvas dimensions every
	// normalized segment is fitted onto. Their product is the feature
	// vector length, which must match what the segment classifier was
	// trained on.
	SegmentWidth  = 20
	SegmentHeight = 20

	// minSegmentWidth filters out ink runs too narrow to be a character.
	minSegmentWidth = 2
)

// SplitColumns splits a binarized captcha into per-character sub-images by
// scanning for maximal runs of columns that contain ink. The number of runs
// determines the captcha length.
//
// Arguments:
//   - img: The binarized image to split.
//
// Returns:
//   - []*image.Gray: One full-height sub-image per character, left to right.
//     Empty when the image holds no ink.
func SplitColumns(img *image.Gray) []*image.Gray {
	bounds := img.Bounds()

	var segments []*image.Gray
	start := -1
	for x := bounds.Min.X; x <= bounds.Max.X; x++ {
		ink := x < bounds.Max.X && columnHasInk(img, x)
		switch {
		case ink && start < 0:
			start = x
		case !ink && start >= 0:
			if x-start >= minSegmentWidth {
				r := image.Rect(start, bounds.Min.Y, x, bounds.Max.Y)
				segments = append(segments, img.SubImage(r).(*image.Gray))
			}
			start = -1
		}
	}
	return segments
}

// TrimRows crops a segment to the vertical extent of its ink. A segment with
// no ink is returned unchanged.
//
// Arguments:
//   - img: The segment to crop.
//
// Returns:
//   - *image.Gray: The cropped segment, sharing pixels with the input.
func TrimRows(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	top, bottom := -1, -1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if rowHasInk(img, y) {
			if top < 0 {
				top = y
			}
			bottom = y + 1
		}
	}
	if top < 0 {
		return img
	}
	r := image.Rect(bounds.Min.X, top, bounds.Max.X, bottom)
	return img.SubImage(r).(*image.Gray)
}

// NormalizeSegment centers a segment's glyph on a SegmentWidth x
// SegmentHeight background canvas. Oversized glyphs are scaled down with
// nearest neighbor resampling so the result stays two-level.
//
// Arguments:
//   - seg: The segment to normalize, typically trimmed first.
//
// Returns:
//   - *image.Gray: A SegmentWidth x SegmentHeight two-level image.
func NormalizeSegment(seg *image.Gray) *image.Gray {
	bounds := seg.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var glyph image.Image = seg
	if w > SegmentWidth || h > SegmentHeight {
		glyph = resize.Thumbnail(SegmentWidth, SegmentHeight, seg, resize.NearestNeighbor)
		gb := glyph.Bounds()
		w, h = gb.Dx(), gb.Dy()
	}

	out := image.NewGray(image.Rect(0, 0, SegmentWidth, SegmentHeight))
	for i := range out.Pix {
		out.Pix[i] = Background
	}

	offX := (SegmentWidth - w) / 2
	offY := (SegmentHeight - h) / 2
	draw.Draw(out, image.Rect(offX, offY, offX+w, offY+h), glyph, glyph.Bounds().Min, draw.Src)
	return out
}

// SegmentVector flattens a normalized segment into the row-major float32
// feature vector the segment classifier consumes. Pixels keep their 8-bit
// levels, 0 for ink and 255 for background.
//
// Arguments:
//   - seg: The normalized segment.
//
// Returns:
//   - []float32: The flattened feature vector.
func SegmentVector(seg *image.Gray) []float32 {
	bounds := seg.Bounds()
	vec := make([]float32, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			vec = append(vec, float32(seg.GrayAt(x, y).Y))
		}
	}
	return vec
}

func columnHasInk(img *image.Gray, x int) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if img.GrayAt(x, y).Y == Ink {
			return true
		}
	}
	return false
}

func rowHasInk(img *image.Gray, y int) bool {
	bounds := img.Bounds()
	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		if img.GrayAt(x, y).Y == Ink {
			return true
		}
	}
	return false
}
