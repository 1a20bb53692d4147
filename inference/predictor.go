package inference

import (
	"context"
	"fmt"

	"github.com/nvr-ai/go-deeplab/models"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Predictor turns normalized frames into class maps: it runs the model and takes the
// arg-max over the class axis.
type Predictor struct {
	model  Model
	width  int
	height int
}

// NewPredictor wraps a model expecting width x height inputs.
func NewPredictor(model Model, width, height int) *Predictor {
	return &Predictor{model: model, width: width, height: height}
}

// NumClasses returns the model's class count.
func (p *Predictor) NumClasses() int {
	return p.model.NumClasses()
}

// Predict runs one frame through the model.
//
// Arguments:
//   - ctx: Checked before the forward pass.
//   - input: A float32 tensor of shape (1, 3, height, width).
//
// Returns:
//   - *models.ClassMap: The per-pixel arg-max class, height x width.
//   - error: A shape error, the context's error or the model's error.
func (p *Predictor) Predict(ctx context.Context, input *tensor.Dense) (*models.ClassMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkShape(input, 3, p.height, p.width); err != nil {
		return nil, errors.Wrap(err, "input")
	}

	scores, err := p.model.Forward(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "forward")
	}
	if err := checkShape(scores, p.model.NumClasses(), p.height, p.width); err != nil {
		return nil, errors.Wrap(err, "output")
	}

	return ArgmaxClasses(scores)
}

// Close releases the model.
func (p *Predictor) Close() error {
	return p.model.Close()
}

// ArgmaxClasses reduces (1, C, H, W) scores to a class map. Ties go to the lowest index.
func ArgmaxClasses(scores *tensor.Dense) (*models.ClassMap, error) {
	shape := scores.Shape()
	if len(shape) != 4 || shape[0] != 1 {
		return nil, fmt.Errorf("expected (1, C, H, W) scores, got %v", shape)
	}

	idx, err := scores.Argmax(1)
	if err != nil {
		return nil, errors.Wrap(err, "argmax")
	}
	data, ok := idx.Data().([]int)
	if !ok {
		return nil, fmt.Errorf("argmax produced %v, expected int", idx.Dtype())
	}

	m := models.NewClassMap(shape[3], shape[2])
	copy(m.Index, data)
	return m, nil
}

func checkShape(t *tensor.Dense, channels, height, width int) error {
	if t == nil {
		return fmt.Errorf("nil tensor")
	}
	if t.Dtype() != tensor.Float32 {
		return fmt.Errorf("expected float32, got %v", t.Dtype())
	}
	want := tensor.Shape{1, channels, height, width}
	if !t.Shape().Eq(want) {
		return fmt.Errorf("expected shape %v, got %v", want, t.Shape())
	}
	return nil
}
