// Package providers - Utility functions.
package providers

import "runtime"

// GetSharedLibPath returns the path to the onnxruntime shared library.
//
// Arguments:
//   - override: An explicit path, returned as is when set.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath(override string) string {
	if override != "" {
		return override
	}

	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "./third_party/onnxruntime_arm64.so"
	}
	return "./third_party/onnxruntime.so"
}
