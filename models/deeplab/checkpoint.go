package deeplab

import (
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/config"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrCheckpointNotFound is returned when a resume path does not name a file.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is a training snapshot manifest.
//
// The weights themselves are an exported ONNX graph referenced by StateDict. Optimizer
// state belongs to the training framework and is carried through untouched.
type Checkpoint struct {
	Epoch     int       `yaml:"epoch"`
	StateDict string    `yaml:"state_dict"`
	Optimizer yaml.Node `yaml:"optimizer,omitempty"`
	BestPred  float64   `yaml:"best_pred"`

	// Path is the manifest the checkpoint was loaded from.
	Path string `yaml:"-"`
}

// LoadCheckpoint reads a checkpoint manifest.
//
// Arguments:
//   - path: The manifest path.
//
// Returns:
//   - *Checkpoint: The checkpoint.
//   - error: ErrCheckpointNotFound (wrapped) if path is missing or a directory, or a
//     parse error.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrCheckpointNotFound, "no checkpoint found at %q", path)
		}
		return nil, errors.Wrapf(err, "stat checkpoint %q", path)
	}
	if info.IsDir() {
		return nil, errors.Wrapf(ErrCheckpointNotFound, "%q is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read checkpoint %q", path)
	}

	var c Checkpoint
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "parse checkpoint %q", path)
	}
	if c.StateDict == "" {
		return nil, errors.Errorf("checkpoint %q has no state_dict", path)
	}
	if c.Epoch < 0 {
		return nil, errors.Errorf("checkpoint %q has negative epoch %d", path, c.Epoch)
	}
	c.Path = path

	return &c, nil
}

// Save writes the manifest to path.
func (c *Checkpoint) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode checkpoint")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write checkpoint %q", path)
}

// WeightsPath resolves StateDict relative to the manifest's directory.
func (c *Checkpoint) WeightsPath() string {
	if filepath.IsAbs(c.StateDict) || c.Path == "" {
		return c.StateDict
	}
	return filepath.Join(filepath.Dir(c.Path), c.StateDict)
}

// HasOptimizerState reports whether the manifest carries optimizer state.
func (c *Checkpoint) HasOptimizerState() bool {
	return !c.Optimizer.IsZero()
}

// Resume is the outcome of applying a checkpoint to a run.
type Resume struct {
	// Epoch is the checkpoint's epoch.
	Epoch      int
	StartEpoch int
	BestPred   float64
	// WeightsPath is the checkpoint's weights, empty when --model overrides them.
	WeightsPath string
	// OptimizerRestored is false when fine-tuning or when the manifest has none.
	OptimizerRestored bool
}

// Apply folds the checkpoint into cfg: the start epoch comes from the checkpoint unless
// fine-tuning, and the weights path unless a model was named explicitly.
func (c *Checkpoint) Apply(cfg config.Config) (config.Config, Resume) {
	r := Resume{
		Epoch:             c.Epoch,
		StartEpoch:        c.Epoch,
		BestPred:          c.BestPred,
		OptimizerRestored: !cfg.FT && c.HasOptimizerState(),
	}
	if cfg.FT {
		r.StartEpoch = 0
	}
	cfg.StartEpoch = r.StartEpoch

	if cfg.Model == "" {
		r.WeightsPath = c.WeightsPath()
		cfg.Model = r.WeightsPath
	}

	return cfg, r
}

// Log reports a loaded checkpoint.
func (r Resume) Log(log logs.Log, path string) {
	log.Infof("Loaded checkpoint '%v' (epoch %v, best pred %.4f)", path, r.Epoch, r.BestPred)
	if !r.OptimizerRestored {
		log.Infof("Optimizer state not restored")
	}
}
