// Package inference - Segmentation models and the prediction adapter around them.
package inference

import (
	"context"

	"gorgonia.org/tensor"
)

// Model is a segmentation network.
//
// Forward takes a float32 (1, 3, H, W) tensor and returns float32 per-class scores of
// shape (1, NumClasses, H, W). Implementations are not safe for concurrent use.
type Model interface {
	Forward(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)
	NumClasses() int
	Close() error
}
