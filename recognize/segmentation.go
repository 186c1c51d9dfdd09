// Package recognize - projection split pipeline.
package recognize

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-captcha/images"
	"github.com/nvr-ai/go-captcha/inference"
)

// DefaultSegmentationModelPath is where NewSegmentation looks for its model
// when no path is given.
const DefaultSegmentationModelPath = "svm_model.onnx"

// Segmentation is the classical pipeline: projection-split the binarized
// captcha into per-character segments and classify each segment's flattened
// feature vector with a compact model. The captcha length follows from the
// number of ink runs the splitter finds.
type Segmentation struct {
	session inference.Session
}

// NewSegmentation loads the segment classifier model and builds the
// pipeline around it.
//
// Arguments:
//   - modelPath: Path to the classifier model; empty selects
//     DefaultSegmentationModelPath.
//
// Returns:
//   - *Segmentation: The ready recognizer.
//   - error: inference.ErrModelLoad on a missing or incompatible model.
func NewSegmentation(modelPath string) (*Segmentation, error) {
	if modelPath == "" {
		modelPath = DefaultSegmentationModelPath
	}
	session, err := inference.OpenSession(modelPath)
	if err != nil {
		return nil, err
	}
	return NewSegmentationWithSession(session), nil
}

// NewSegmentationWithSession builds the pipeline on an already open session.
// The recognizer takes ownership of the session.
func NewSegmentationWithSession(session inference.Session) *Segmentation {
	return &Segmentation{session: session}
}

// Recognize implements Recognizer. Each segment's feature vector is fed as
// a 1-D tensor under the model's first input name; the predicted label is
// the first element of the first output, appended in segment order.
func (r *Segmentation) Recognize(img []byte) (string, error) {
	gray, err := images.DecodeGray(img)
	if err != nil {
		return "", err
	}
	bin := images.Binarize(gray)

	var sb strings.Builder
	for _, seg := range images.SplitColumns(bin) {
		vec := images.SegmentVector(images.NormalizeSegment(images.TrimRows(seg)))
		input := tensor.New(tensor.WithShape(len(vec)), tensor.WithBacking(vec))

		outputs, err := r.session.Run(map[string]*tensor.Dense{
			r.session.InputName(): input,
		})
		if err != nil {
			return "", err
		}

		label, err := firstLabel(outputs)
		if err != nil {
			return "", err
		}
		sb.WriteString(label)
	}
	return sb.String(), nil
}

// Close releases the underlying session.
func (r *Segmentation) Close() error {
	return r.session.Close()
}

// firstLabel reads the classifier's prediction, the first element of its
// first output, in string form.
func firstLabel(outputs []inference.Output) (string, error) {
	if len(outputs) == 0 {
		return "", errors.Wrap(inference.ErrInference, "classifier returned no outputs")
	}
	out := outputs[0]
	switch {
	case len(out.Ints) > 0:
		return strconv.FormatInt(out.Ints[0], 10), nil
	case len(out.Floats) > 0:
		return strconv.Itoa(int(out.Floats[0])), nil
	}
	return "", errors.Wrap(inference.ErrInference, "classifier output is empty")
}
