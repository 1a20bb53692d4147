// Package pipeline holds the per-frame transforms run by the video driver.
package pipeline

import (
	"context"
	"time"

	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/inference"
	"github.com/nvr-ai/go-deeplab/metrics"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/preprocess"
	"github.com/pkg/errors"
)

// Pass names, used as metric labels and in logs.
const (
	PassSegment = "segment"
	PassPreview = "preview"
)

// Config carries everything a frame transform needs. Metrics may be nil.
type Config struct {
	Preprocessor *preprocess.Preprocessor
	Predictor    *inference.Predictor
	Decoder      *models.Decoder
	Metrics      *metrics.Pipeline
}

// Segment turns a frame into its colourised 512x512 segmentation.
//
// Arguments:
//   - ctx: The context of the run.
//   - f: An RGB frame of any size.
//   - cfg: The preprocessor, predictor and decoder to use.
//
// Returns:
//   - images.Frame: The decoded segmentation.
//   - error: A preprocessing, prediction or decoding error.
func Segment(ctx context.Context, f images.Frame, cfg Config) (images.Frame, error) {
	start := time.Now()
	input, err := cfg.Preprocessor.Preprocess(f)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "preprocess")
	}
	cfg.Metrics.ObserveStage(metrics.StagePreprocess, start)

	start = time.Now()
	classes, err := cfg.Predictor.Predict(ctx, input)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "predict")
	}
	cfg.Metrics.ObserveStage(metrics.StagePredict, start)

	start = time.Now()
	out, err := cfg.Decoder.Decode(classes)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "decode")
	}
	cfg.Metrics.ObserveStage(metrics.StageDecode, start)

	return out, nil
}

// Preview resizes a frame to the network resolution without normalizing it.
func Preview(ctx context.Context, f images.Frame, cfg Config) (images.Frame, error) {
	if err := ctx.Err(); err != nil {
		return images.Frame{}, err
	}

	start := time.Now()
	raw, err := cfg.Preprocessor.Raw(f)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "resize")
	}
	out, err := preprocess.ToFrame(raw)
	if err != nil {
		return images.Frame{}, err
	}
	cfg.Metrics.ObserveStage(metrics.StageResize, start)

	return out, nil
}

// Bind fixes cfg so a transform can be handed to the driver.
func Bind(fn func(context.Context, images.Frame, Config) (images.Frame, error), cfg Config) func(context.Context, images.Frame) (images.Frame, error) {
	return func(ctx context.Context, f images.Frame) (images.Frame, error) {
		return fn(ctx, f, cfg)
	}
}
