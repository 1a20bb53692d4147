// Package inference - Inference engine builder.
package inference

import (
	"errors"

	"github.com/nvr-ai/go-deeplab/inference/providers"
	"github.com/nvr-ai/go-deeplab/models/deeplab"
)

// EngineBuilder assembles a Predictor with a fluent API. The first error sticks and is
// returned by Build.
type EngineBuilder struct {
	engine   EngineType
	provider providers.ExecutionProvider
	spec     *deeplab.Spec
	options  RuntimeOptions
	model    Model
	err      error
}

// NewEngineBuilder creates a new engine builder for the onnx engine.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		engine:  EngineONNX,
		options: RuntimeOptions{Optimization: providers.DefaultOptimizationConfig()},
	}
}

// WithProvider selects the execution provider for an execution context.
//
// Arguments:
//   - exec: The devices available to the run.
//   - gpuIDs: The requested device ids.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithProvider(exec providers.ExecutionContext, gpuIDs []int) *EngineBuilder {
	if b.HasError() {
		return b
	}

	provider, err := providers.NewProvider(exec, gpuIDs)
	if err != nil {
		b.err = err
		return b
	}
	b.provider = provider
	return b
}

// WithEngine sets the engine type.
func (b *EngineBuilder) WithEngine(engine EngineType) *EngineBuilder {
	b.engine = engine
	return b
}

// WithRuntime sets the runtime options.
func (b *EngineBuilder) WithRuntime(opts RuntimeOptions) *EngineBuilder {
	b.options = opts
	return b
}

// WithModel sets the network spec.
//
// Arguments:
//   - spec: The network spec.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(spec deeplab.Spec) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if spec.Classes == nil {
		b.err = errors.New("model spec has no class set")
		return b
	}
	b.spec = &spec
	return b
}

// WithLoadedModel uses an already constructed model instead of loading one from a spec.
func (b *EngineBuilder) WithLoadedModel(model Model) *EngineBuilder {
	b.model = model
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build loads the model and wraps it in a Predictor.
//
// Returns:
//   - *Predictor: The predictor. The caller must Close it.
//   - error: The first builder error, or a model loading error.
func (b *EngineBuilder) Build() (*Predictor, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.spec == nil {
		return nil, errors.New("model not configured")
	}

	model := b.model
	if model == nil {
		if b.engine == EngineONNX && b.provider == nil {
			return nil, errors.New("provider not configured")
		}
		m, err := NewModel(b.engine, b.provider, *b.spec, b.options)
		if err != nil {
			return nil, err
		}
		model = m
	}

	if model.NumClasses() != b.spec.NumClasses() {
		model.Close()
		return nil, errors.New("model class count does not match the network spec")
	}

	return NewPredictor(model, b.spec.Width, b.spec.Height), nil
}
