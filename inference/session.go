// Package inference - ONNX Runtime session layer.
package inference

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

var (
	// ErrModelLoad indicates the model file is missing, corrupt, or
	// incompatible with the runtime. Raised at construction time only.
	ErrModelLoad = errors.New("load model")
	// ErrInference indicates the prepared input does not match what the
	// loaded model expects, or that the run itself failed.
	ErrInference = errors.New("run inference")
)

// Output is a dense copy of one model output tensor. Exactly one of Floats
// and Ints is populated, depending on the model's declared element type.
type Output struct {
	// Shape is the output tensor's shape.
	Shape []int64
	// Floats holds the flattened data of a float32 output.
	Floats []float32
	// Ints holds the flattened data of an int64 output.
	Ints []int64
}

// Session executes a loaded model on float32 array inputs.
//
// A Session is read-only after construction and owns its model exclusively.
type Session interface {
	// InputName returns the model's first input binding name.
	InputName() string
	// Run executes the model on the named inputs and returns every model
	// output in declaration order.
	Run(inputs map[string]*tensor.Dense) ([]Output, error)
	// Close releases native resources held by the session.
	Close() error
}

var (
	// libraryPath overrides the platform default shared library location
	// when set before the first session is opened.
	libraryPath string

	ortOnce sync.Once
	ortErr  error
)

// SetLibraryPath overrides the ONNX Runtime shared library location. It has
// no effect once the first session has been opened.
func SetLibraryPath(path string) {
	libraryPath = path
}

func initEnvironment() error {
	ortOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		path := libraryPath
		if path == "" {
			path = SharedLibraryPath()
		}
		ort.SetSharedLibraryPath(path)
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ORTSession is a Session backed by an ONNX Runtime dynamic session. Run
// calls are serialized internally, so a single instance may be shared
// between goroutines.
type ORTSession struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputNames []string
	mu          sync.Mutex
}

// OpenSession loads the ONNX model at modelPath and prepares it for
// inference, binding the model's first declared input and every declared
// output.
//
// Arguments:
//   - modelPath: Path to the serialized ONNX model file.
//
// Returns:
//   - *ORTSession: The ready session.
//   - error: Wraps ErrModelLoad when the file is missing, corrupt, or
//     rejected by the runtime.
func OpenSession(modelPath string) (*ORTSession, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "model file %s: %v", modelPath, err)
	}
	if err := initEnvironment(); err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "initialize onnxruntime: %v", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "inspect %s: %v", modelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.Wrapf(ErrModelLoad, "model %s declares no inputs or outputs", modelPath)
	}

	inputNames := []string{inputs[0].Name}
	outputNames := make([]string, len(outputs))
	for i, info := range outputs {
		outputNames[i] = info.Name
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "session options: %v", err)
	}
	defer options.Destroy()

	// A value of 0 uses the runtime's default number of threads.
	options.SetIntraOpNumThreads(0)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "create session for %s: %v", modelPath, err)
	}

	return &ORTSession{
		session:     session,
		inputName:   inputNames[0],
		outputNames: outputNames,
	}, nil
}

// InputName implements Session.
func (s *ORTSession) InputName() string {
	return s.inputName
}

// Run implements Session. The input under the model's first input name is
// fed as the sole model input; runtime allocated outputs are copied out and
// their native backing released before returning.
func (s *ORTSession) Run(inputs map[string]*tensor.Dense) ([]Output, error) {
	input, ok := inputs[s.inputName]
	if !ok {
		return nil, errors.Wrapf(ErrInference, "missing input %q", s.inputName)
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrInference, "input %q must be float32, got %v", s.inputName, input.Dtype())
	}

	shape := make([]int64, len(input.Shape()))
	for i, dim := range input.Shape() {
		shape[i] = int64(dim)
	}

	in, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, errors.Wrapf(ErrInference, "input tensor %v: %v", shape, err)
	}
	defer in.Destroy()

	outputs := make([]ort.Value, len(s.outputNames))
	s.mu.Lock()
	err = s.session.Run([]ort.Value{in}, outputs)
	s.mu.Unlock()
	if err != nil {
		return nil, errors.Wrapf(ErrInference, "%v", err)
	}

	results := make([]Output, 0, len(outputs))
	for _, out := range outputs {
		if out == nil {
			continue
		}
		results = append(results, copyOutput(out))
		out.Destroy()
	}
	return results, nil
}

// Close implements Session.
func (s *ORTSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func copyOutput(value ort.Value) Output {
	out := Output{Shape: append([]int64(nil), value.GetShape()...)}
	switch t := value.(type) {
	case *ort.Tensor[float32]:
		out.Floats = append([]float32(nil), t.GetData()...)
	case *ort.Tensor[int64]:
		out.Ints = append([]int64(nil), t.GetData()...)
	}
	return out
}
