package deeplab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/inference/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `epoch: 42
state_dict: weights/deeplab-resnet.onnx
best_pred: 0.7312
optimizer:
  momentum: 0.9
  state:
    - step: 1200
`

func writeManifest(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "checkpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resolved(t *testing.T, mutate func(*config.Args)) config.Config {
	a := config.DefaultArgs()
	if mutate != nil {
		mutate(&a)
	}
	cfg, err := config.Resolve(a, providers.CPU())
	require.NoError(t, err)
	return cfg
}

func TestLoadCheckpointNotFound(t *testing.T) {
	_, err := LoadCheckpoint("/nonexistent/path")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)

	_, err = LoadCheckpoint(t.TempDir())
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestLoadCheckpoint(t *testing.T) {
	path := writeManifest(t, manifest)

	c, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 42, c.Epoch)
	assert.InDelta(t, 0.7312, c.BestPred, 1e-9)
	assert.True(t, c.HasOptimizerState())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "weights", "deeplab-resnet.onnx"), c.WeightsPath())
}

func TestLoadCheckpointInvalid(t *testing.T) {
	for _, content := range []string{
		"epoch: [1, 2]\nstate_dict: a.onnx\n",
		"epoch: 3\n",
		"epoch: -1\nstate_dict: a.onnx\n",
	} {
		_, err := LoadCheckpoint(writeManifest(t, content))
		require.Error(t, err, content)
		assert.NotErrorIs(t, err, ErrCheckpointNotFound)
	}
}

func TestCheckpointSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := &Checkpoint{Epoch: 3, StateDict: "/abs/model.onnx", BestPred: 0.5}
	require.NoError(t, c.Save(path))

	back, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Epoch)
	assert.Equal(t, "/abs/model.onnx", back.WeightsPath())
	assert.False(t, back.HasOptimizerState())
}

// TestCheckpointApply covers resume and fine-tune semantics.
func TestCheckpointApply(t *testing.T) {
	c, err := LoadCheckpoint(writeManifest(t, manifest))
	require.NoError(t, err)

	cfg, r := c.Apply(resolved(t, nil))
	assert.Equal(t, 42, cfg.StartEpoch)
	assert.Equal(t, c.WeightsPath(), cfg.Model)
	assert.True(t, r.OptimizerRestored)
	r.Log(logs.NewTestingLog(t), c.Path)

	cfg, r = c.Apply(resolved(t, func(a *config.Args) {
		a.FT = true
		a.Model = "explicit.onnx"
	}))
	assert.Equal(t, 0, cfg.StartEpoch)
	assert.Equal(t, 42, r.Epoch)
	assert.Equal(t, "explicit.onnx", cfg.Model)
	assert.Empty(t, r.WeightsPath)
	assert.False(t, r.OptimizerRestored)
}

func TestNewSpec(t *testing.T) {
	env, err := config.LoadEnv()
	require.NoError(t, err)

	spec, err := NewSpec(resolved(t, nil), env)
	require.NoError(t, err)
	assert.Equal(t, "deeplab-resnet", spec.Name)
	assert.Equal(t, 19, spec.NumClasses())
	assert.Equal(t, config.DefaultModel, spec.WeightsPath)
	assert.Equal(t, []int64{1, 3, 512, 512}, spec.InputShape())
	assert.Equal(t, []int64{1, 19, 512, 512}, spec.OutputShape())
	assert.Equal(t, "input", spec.InputName)

	spec, err = NewSpec(resolved(t, func(a *config.Args) { a.Dataset = "pascal" }), env)
	require.NoError(t, err)
	assert.Equal(t, 21, spec.NumClasses())
	assert.Contains(t, spec.String(), "pascal")
}
