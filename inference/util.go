// Package inference - Utility functions.
package inference

import "runtime"

// SharedLibraryPath returns the path to the ONNX Runtime shared library for
// the current platform, relative to the working directory.
//
// Returns:
//   - string: The path to the shared library.
func SharedLibraryPath() string {
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
