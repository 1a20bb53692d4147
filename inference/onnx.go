package inference

import (
	"context"
	"fmt"

	"github.com/nvr-ai/go-deeplab/inference/providers"
	"github.com/nvr-ai/go-deeplab/models/deeplab"
	"gorgonia.org/tensor"
)

// ONNXModel runs an exported DeepLab graph through onnxruntime.
//
// Input and output tensors are allocated once; each Forward copies the frame into the
// bound input and the scores out of the bound output.
type ONNXModel struct {
	session     *providers.Session
	numClasses  int
	inputShape  tensor.Shape
	outputShape tensor.Shape
}

// NewONNXModelArgs represents the arguments for creating an ONNXModel.
type NewONNXModelArgs struct {
	Spec         deeplab.Spec
	LibraryPath  string
	Optimization providers.OptimizationConfig
}

// NewONNXModel creates a session for spec on provider.
//
// Arguments:
//   - provider: The execution provider.
//   - args: The network spec and runtime settings.
//
// Returns:
//   - *ONNXModel: The model. The caller must Close it.
//   - error: An error if the session cannot be created.
func NewONNXModel(provider providers.ExecutionProvider, args NewONNXModelArgs) (*ONNXModel, error) {
	spec := args.Spec
	session, err := providers.NewSession(provider, providers.NewSessionArgs{
		ModelPath:    spec.WeightsPath,
		LibraryPath:  args.LibraryPath,
		InputName:    spec.InputName,
		OutputName:   spec.OutputName,
		InputShape:   spec.InputShape(),
		OutputShape:  spec.OutputShape(),
		Optimization: args.Optimization,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating session for %s: %w", spec.Name, err)
	}

	return &ONNXModel{
		session:     session,
		numClasses:  spec.NumClasses(),
		inputShape:  toShape(spec.InputShape()),
		outputShape: toShape(spec.OutputShape()),
	}, nil
}

// Forward implements Model.
func (m *ONNXModel) Forward(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !input.Shape().Eq(m.inputShape) {
		return nil, fmt.Errorf("expected input shape %v, got %v", m.inputShape, input.Shape())
	}
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 input, got %v", input.Dtype())
	}

	copy(m.session.Input.GetData(), data)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("error running session: %w", err)
	}

	out := make([]float32, m.outputShape.TotalSize())
	copy(out, m.session.Output.GetData())

	return tensor.New(tensor.WithShape(m.outputShape...), tensor.WithBacking(out)), nil
}

// NumClasses implements Model.
func (m *ONNXModel) NumClasses() int {
	return m.numClasses
}

// Close implements Model.
func (m *ONNXModel) Close() error {
	return m.session.Close()
}

func toShape(dims []int64) tensor.Shape {
	s := make(tensor.Shape, len(dims))
	for i, d := range dims {
		s[i] = int(d)
	}
	return s
}
