// Package inference - Inference engine interface and implementations
package inference

import (
	"fmt"

	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/inference/providers"
	"github.com/nvr-ai/go-deeplab/models/deeplab"
)

// EngineType is the type of the engine
type EngineType = config.Backend

const (
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = config.BackendONNX
	// EngineReference is the gorgonia palette head, which needs no network
	EngineReference EngineType = config.BackendReference
)

// RuntimeOptions are the engine settings that are not part of the network spec.
type RuntimeOptions struct {
	// LibraryPath is the onnxruntime shared library.
	LibraryPath string
	// Optimization is the onnxruntime session configuration.
	Optimization providers.OptimizationConfig
}

// NewModel creates the model of an engine type.
//
// Arguments:
//   - engine: The engine type.
//   - provider: The execution provider, used by EngineONNX.
//   - spec: The network spec.
//   - opts: Runtime settings.
//
// Returns:
//   - Model: The model. The caller must Close it.
//   - error: An error if the engine is unknown or the model fails to load.
func NewModel(engine EngineType, provider providers.ExecutionProvider, spec deeplab.Spec, opts RuntimeOptions) (Model, error) {
	switch engine {
	case EngineONNX:
		return NewONNXModel(provider, NewONNXModelArgs{
			Spec:         spec,
			LibraryPath:  opts.LibraryPath,
			Optimization: opts.Optimization,
		})
	case EngineReference:
		return NewPaletteHead(spec.Classes, spec.Width, spec.Height)
	default:
		return nil, fmt.Errorf("unsupported engine: %s", engine)
	}
}
