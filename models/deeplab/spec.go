// Package deeplab describes DeepLab networks and their training checkpoints.
package deeplab

import (
	"fmt"

	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/preprocess"
)

// Spec is everything needed to bind a DeepLab network to a session.
type Spec struct {
	// Name is the run's checkname, e.g. deeplab-resnet.
	Name      string          `json:"name"       yaml:"name"`
	Dataset   config.Dataset  `json:"dataset"    yaml:"dataset"`
	Backbone  config.Backbone `json:"backbone"   yaml:"backbone"`
	OutStride int             `json:"out_stride" yaml:"out_stride"`
	// Classes is the class set the network predicts.
	Classes *models.OutputClassSet `json:"-" yaml:"-"`
	// WeightsPath is the exported ONNX graph.
	WeightsPath string `json:"weights"     yaml:"weights"`
	InputName   string `json:"input_name"  yaml:"input_name"`
	OutputName  string `json:"output_name" yaml:"output_name"`
	Width       int    `json:"width"       yaml:"width"`
	Height      int    `json:"height"      yaml:"height"`
}

// NewSpec derives the network spec of a resolved run.
//
// Arguments:
//   - cfg: The resolved configuration. cfg.Model, when empty, falls back to
//     config.DefaultModel.
//   - env: Deployment settings carrying the graph's tensor names.
//
// Returns:
//   - Spec: The network spec.
//   - error: An error if the dataset has no class set.
func NewSpec(cfg config.Config, env config.Env) (Spec, error) {
	classes, err := models.ClassSetFor(cfg.Dataset)
	if err != nil {
		return Spec{}, err
	}

	weights := cfg.Model
	if weights == "" {
		weights = config.DefaultModel
	}

	return Spec{
		Name:        cfg.Checkname,
		Dataset:     cfg.Dataset,
		Backbone:    cfg.Backbone,
		OutStride:   cfg.OutStride,
		Classes:     classes,
		WeightsPath: weights,
		InputName:   env.InputName,
		OutputName:  env.OutputName,
		Width:       preprocess.TargetWidth,
		Height:      preprocess.TargetHeight,
	}, nil
}

// NumClasses returns the number of predicted classes.
func (s Spec) NumClasses() int {
	return s.Classes.NumClasses()
}

// InputShape is the NCHW shape of one normalized frame.
func (s Spec) InputShape() []int64 {
	return []int64{1, 3, int64(s.Height), int64(s.Width)}
}

// OutputShape is the NCHW shape of the per-class scores.
func (s Spec) OutputShape() []int64 {
	return []int64{1, int64(s.NumClasses()), int64(s.Height), int64(s.Width)}
}

func (s Spec) String() string {
	return fmt.Sprintf("%s (%s, %s, os %d, %d classes, %q)",
		s.Name, s.Backbone, s.Dataset, s.OutStride, s.NumClasses(), s.WeightsPath)
}
