// Package recognize - captcha recognition pipelines over pretrained ONNX
// models.
//
// Two pipelines implement the Recognizer contract. Segmentation splits the
// binarized captcha into per-character sub-images and classifies each one
// with a compact model; WholeImage feeds the whole binarized bitmap through
// a convolutional model once and argmax-decodes its outputs. Both are pure
// functions of the input bytes and the model weights.
package recognize

// Recognizer turns the raw bytes of an encoded captcha image into plain
// text.
type Recognizer interface {
	// Recognize predicts the captcha rendered in img.
	//
	// Arguments:
	//   - img: Raw bytes of an encoded captcha image (PNG, JPEG, GIF or
	//     BMP).
	//
	// Returns:
	//   - string: The predicted captcha text.
	//   - error: images.ErrDecode for undecodable bytes, or
	//     inference.ErrInference when the model rejects the prepared
	//     input.
	Recognize(img []byte) (string, error)
}
