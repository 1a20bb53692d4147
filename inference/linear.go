package inference

import (
	"context"
	"fmt"

	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/preprocess"
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// features per pixel: the three normalized channels and a constant 1 for the bias.
const features = images.RGBChannels + 1

// LinearHead is a per-pixel linear classifier evaluated as a gorgonia graph: the (N, 4)
// pixel matrix times a (4, C) weight matrix, where the last weight row is the bias.
type LinearHead struct {
	g          *gorgonia.ExprGraph
	x          *gorgonia.Node
	out        *gorgonia.Node
	vm         gorgonia.VM
	numClasses int
	width      int
	height     int
	pixels     []float32
}

// NewLinearHead compiles a head for width x height frames.
//
// Arguments:
//   - weights: Row-major (4, numClasses) weights; row 3 is the bias.
//   - numClasses: The class count.
//   - width: The frame width.
//   - height: The frame height.
//
// Returns:
//   - *LinearHead: The head. The caller must Close it.
//   - error: An error if the weights do not match numClasses or the graph fails to build.
func NewLinearHead(weights []float32, numClasses, width, height int) (*LinearHead, error) {
	if numClasses <= 0 || len(weights) != features*numClasses {
		return nil, fmt.Errorf("expected %dx%d weights, got %d values", features, numClasses, len(weights))
	}

	n := width * height
	g := gorgonia.NewGraph()
	x := gorgonia.NewMatrix(g, tensor.Float32, gorgonia.WithShape(n, features), gorgonia.WithName("pixels"))
	w := gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(features, numClasses),
		gorgonia.WithName("weights"),
		gorgonia.WithValue(tensor.New(tensor.WithShape(features, numClasses), tensor.WithBacking(append([]float32(nil), weights...)))),
	)

	out, err := gorgonia.Mul(x, w)
	if err != nil {
		return nil, errors.Wrap(err, "build linear head")
	}

	return &LinearHead{
		g:          g,
		x:          x,
		out:        out,
		vm:         gorgonia.NewTapeMachine(g),
		numClasses: numClasses,
		width:      width,
		height:     height,
		pixels:     make([]float32, n*features),
	}, nil
}

// NewPaletteHead builds a head that scores each pixel by its closeness to the class
// colours of set, so the arg-max is the nearest palette colour in normalized space.
//
// For a normalized pixel x and normalized class colour p, the score 2x.p - |p|^2 differs
// from -|x-p|^2 only by |x|^2, which is the same for every class.
func NewPaletteHead(set *models.OutputClassSet, width, height int) (*LinearHead, error) {
	c := set.NumClasses()
	weights := make([]float32, features*c)
	for k, class := range set.Classes {
		var norm float32
		for ch := 0; ch < images.RGBChannels; ch++ {
			p := preprocess.Normalize(class.Color[ch], ch)
			weights[ch*c+k] = 2 * p
			norm += p * p
		}
		weights[images.RGBChannels*c+k] = -norm
	}
	return NewLinearHead(weights, c, width, height)
}

// Forward implements Model.
func (h *LinearHead) Forward(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkShape(input, images.RGBChannels, h.height, h.width); err != nil {
		return nil, err
	}
	chw := input.Data().([]float32)

	// CHW planes to (N, 4) rows.
	n := h.width * h.height
	for i := 0; i < n; i++ {
		row := h.pixels[i*features : i*features+features]
		row[0], row[1], row[2], row[3] = chw[i], chw[n+i], chw[2*n+i], 1
	}

	defer h.vm.Reset()
	if err := gorgonia.Let(h.x, tensor.New(tensor.WithShape(n, features), tensor.WithBacking(h.pixels))); err != nil {
		return nil, errors.Wrap(err, "bind pixels")
	}
	if err := h.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "run linear head")
	}

	nc, ok := h.out.Value().Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", h.out.Value().Data())
	}

	// (N, C) rows to CHW planes.
	scores := make([]float32, h.numClasses*n)
	for i := 0; i < n; i++ {
		for k := 0; k < h.numClasses; k++ {
			scores[k*n+i] = nc[i*h.numClasses+k]
		}
	}

	return tensor.New(tensor.WithShape(1, h.numClasses, h.height, h.width), tensor.WithBacking(scores)), nil
}

// NumClasses implements Model.
func (h *LinearHead) NumClasses() int {
	return h.numClasses
}

// Close implements Model.
func (h *LinearHead) Close() error {
	return h.vm.Close()
}
