// Package recognize - whole image convolutional pipeline.
package recognize

import (
	"strings"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-captcha/images"
	"github.com/nvr-ai/go-captcha/inference"
)

// DefaultWholeImageModelPath is where NewWholeImage looks for its model when
// no path is given.
const DefaultWholeImageModelPath = "nn_model.onnx"

// alphabetSize bounds the label indices that map to characters. The model
// may reserve indices past the alphabet for a blank class; those slots emit
// nothing.
const alphabetSize = 26

// WholeImage is the convolutional pipeline: the binarized captcha goes
// through the model in one (1, 1, height, width) batch and every output
// tensor is argmax-decoded into at most one character.
type WholeImage struct {
	session inference.Session
}

// NewWholeImage loads the convolutional classifier model and builds the
// pipeline around it.
//
// Arguments:
//   - modelPath: Path to the classifier model; empty selects
//     DefaultWholeImageModelPath.
//
// Returns:
//   - *WholeImage: The ready recognizer.
//   - error: inference.ErrModelLoad on a missing or incompatible model.
func NewWholeImage(modelPath string) (*WholeImage, error) {
	if modelPath == "" {
		modelPath = DefaultWholeImageModelPath
	}
	session, err := inference.OpenSession(modelPath)
	if err != nil {
		return nil, err
	}
	return NewWholeImageWithSession(session), nil
}

// NewWholeImageWithSession builds the pipeline on an already open session.
// The recognizer takes ownership of the session.
func NewWholeImageWithSession(session inference.Session) *WholeImage {
	return &WholeImage{session: session}
}

// Recognize implements Recognizer.
func (r *WholeImage) Recognize(img []byte) (string, error) {
	gray, err := images.DecodeGray(img)
	if err != nil {
		return "", err
	}
	input := images.BatchTensor(images.Binarize(gray))

	outputs, err := r.session.Run(map[string]*tensor.Dense{
		r.session.InputName(): input,
	})
	if err != nil {
		return "", err
	}
	return decodeSlots(outputs), nil
}

// Close releases the underlying session.
func (r *WholeImage) Close() error {
	return r.session.Close()
}

// decodeSlots maps each character slot output to at most one character by
// argmax over its score vector.
func decodeSlots(outputs []inference.Output) string {
	var sb strings.Builder
	for _, out := range outputs {
		idx := argmax(out.Floats)
		if idx >= 0 && idx < alphabetSize {
			sb.WriteByte('a' + byte(idx))
		}
	}
	return sb.String()
}

// argmax returns the index of the largest score, or -1 for an empty vector.
func argmax(scores []float32) int {
	idx := -1
	best := math32.Inf(-1)
	for i, score := range scores {
		if score > best {
			best = score
			idx = i
		}
	}
	return idx
}
