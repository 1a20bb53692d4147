// Package providers - Inference sessions.
package providers

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var runtimeMu sync.Mutex

// InitializeRuntime loads the onnxruntime shared library once per process.
//
// Arguments:
//   - libPath: The shared library path, see GetSharedLibPath.
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func InitializeRuntime(libPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	// Check if the shared library exists before trying to use it.
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}

	// Point ONNX Runtime to the exact shared library path (overrides default search).
	ort.SetSharedLibraryPath(libPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// Session represents a model session from the onnxruntime with one bound input and one
// bound output tensor.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// Run executes the session over the currently bound tensors.
func (s *Session) Run() error {
	return s.Session.Run()
}

// Close releases the resources associated with the Session.
//
// Returns:
//   - error: The first error encountered while destroying native resources.
func (s *Session) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if s.Session != nil {
		keep(s.Session.Destroy())
		s.Session = nil
	}
	if s.Input != nil {
		keep(s.Input.Destroy())
		s.Input = nil
	}
	if s.Output != nil {
		keep(s.Output.Destroy())
		s.Output = nil
	}

	if first != nil {
		return fmt.Errorf("error destroying ORT session: %w", first)
	}
	return nil
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The path to the onnxruntime shared library.
	LibraryPath string
	// The name of the model's input node.
	InputName string
	// The name of the model's output node.
	OutputName string
	// The input shape, e.g. [1, 3, 512, 512].
	InputShape []int64
	// The output shape, e.g. [1, 19, 512, 512].
	OutputShape []int64
	// Session settings.
	Optimization OptimizationConfig
}

// NewSession creates a new ONNX Runtime session with preallocated input and output tensors.
//
// Order of operations:
//  1. Runtime setup: loads the native library once per process.
//  2. Tensor allocation: fixed-shape float32 buffers for input and output.
//  3. Session options: threading, optimization level and the execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - provider: The provider for the session.
//   - args: The arguments for the session.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(provider ExecutionProvider, args NewSessionArgs) (*Session, error) {
	if _, err := os.Stat(args.ModelPath); err != nil {
		return nil, fmt.Errorf("model not found: %w", err)
	}

	if err := InitializeRuntime(args.LibraryPath); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	options, err := OptimizedSessionOptions(provider, args.Optimization)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{
		Session: session,
		Input:   input,
		Output:  output,
	}, nil
}
