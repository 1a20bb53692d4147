package video

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/inference"
	"github.com/nvr-ai/go-deeplab/metrics"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/pipeline"
	"github.com/nvr-ai/go-deeplab/preprocess"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource replays frames from memory.
type memorySource struct {
	frames []images.Frame
	next   int
	closed bool
}

func (s *memorySource) Next() (images.Frame, error) {
	if s.next >= len(s.frames) {
		return images.Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *memorySource) FPS() float64 { return 10 }

func (s *memorySource) Close() error {
	s.closed = true
	return nil
}

// memorySink records written frames.
type memorySink struct {
	width, height int
	frames        []images.Frame
	closed        bool
}

func (s *memorySink) Write(f images.Frame) error {
	if f.Width != s.width || f.Height != s.height {
		return errors.New("size changed")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

// memoryFiles wires a Driver to in-memory sources and sinks keyed by path.
type memoryFiles struct {
	input   []images.Frame
	sources []*memorySource
	sinks   map[string]*memorySink
}

func (m *memoryFiles) driver(t *testing.T, p *metrics.Pipeline) *Driver {
	m.sinks = map[string]*memorySink{}
	return &Driver{
		Open: func(path string) (FrameSource, error) {
			if path != "in.mp4" {
				return nil, os.ErrNotExist
			}
			src := &memorySource{frames: m.input}
			m.sources = append(m.sources, src)
			return src, nil
		},
		Create: func(path string, fps float64, width, height int) (FrameSink, error) {
			s := &memorySink{width: width, height: height}
			m.sinks[path] = s
			return s, nil
		},
		Log:     logs.NewTestingLog(t),
		Metrics: p,
	}
}

func colourFrame(width, height int, c [3]uint8) images.Frame {
	f := images.NewFrame(width, height)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c[0], c[1], c[2]
	}
	return f
}

var (
	black = [3]uint8{0, 0, 0}
	white = [3]uint8{255, 255, 255}
)

// twoClassConfig is a pipeline whose palette has only black and white.
func twoClassConfig(t *testing.T, m *metrics.Pipeline) pipeline.Config {
	set, err := models.NewClassSet(models.ModelFamilyVOC, []string{"dark", "light"}, [][3]uint8{black, white})
	require.NoError(t, err)
	dec, err := models.NewDecoder(set)
	require.NoError(t, err)
	head, err := inference.NewPaletteHead(set, preprocess.TargetWidth, preprocess.TargetHeight)
	require.NoError(t, err)
	p := inference.NewPredictor(head, preprocess.TargetWidth, preprocess.TargetHeight)
	t.Cleanup(func() { p.Close() })

	return pipeline.Config{Preprocessor: preprocess.New(), Predictor: p, Decoder: dec, Metrics: m}
}

// TestDriverThreeFrames runs both passes over three 100x50 frames.
func TestDriverThreeFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)
	cfg := twoClassConfig(t, m)

	files := &memoryFiles{input: []images.Frame{
		colourFrame(100, 50, [3]uint8{20, 20, 20}),
		colourFrame(100, 50, [3]uint8{240, 230, 250}),
		colourFrame(100, 50, [3]uint8{10, 30, 5}),
	}}
	d := files.driver(t, m)

	stats, err := d.Run(context.Background(), "in.mp4",
		Pass{Name: pipeline.PassSegment, Output: "out.mp4", Fn: pipeline.Bind(pipeline.Segment, cfg)},
		Pass{Name: pipeline.PassPreview, Output: "preview.mp4", Fn: pipeline.Bind(pipeline.Preview, cfg)},
	)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	for _, s := range stats {
		assert.Equal(t, 3, s.Frames, s.Pass)
		assert.Equal(t, preprocess.TargetWidth, s.Width)
		assert.Equal(t, preprocess.TargetHeight, s.Height)
		assert.Equal(t, 10.0, s.FPS)
	}

	out := files.sinks["out.mp4"]
	require.NotNil(t, out)
	require.Len(t, out.frames, 3)
	assert.True(t, out.closed)

	// Order is preserved: dark, light, dark.
	for i, want := range [][3]uint8{black, white, black} {
		r, g, b := out.frames[i].RGB(200, 200)
		assert.Equal(t, want, [3]uint8{r, g, b}, "frame %d", i)
	}

	preview := files.sinks["preview.mp4"]
	require.NotNil(t, preview)
	require.Len(t, preview.frames, 3)
	r, g, b := preview.frames[1].RGB(0, 0)
	assert.Equal(t, [3]uint8{240, 230, 250}, [3]uint8{r, g, b})

	for _, src := range files.sources {
		assert.True(t, src.closed)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesProcessed.WithLabelValues(pipeline.PassSegment)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesProcessed.WithLabelValues(pipeline.PassPreview)))
}

// TestDriverStopsOnFirstError checks that a failing frame aborts the run and still
// closes everything.
func TestDriverStopsOnFirstError(t *testing.T) {
	files := &memoryFiles{input: []images.Frame{
		colourFrame(8, 8, black),
		{Width: 8, Height: 8, Channels: 1, Pix: make([]uint8, 64)},
		colourFrame(8, 8, black),
	}}
	d := files.driver(t, nil)
	cfg := pipeline.Config{Preprocessor: preprocess.New()}

	calls := 0
	stats, err := d.Run(context.Background(), "in.mp4",
		Pass{Name: "first", Output: "a.mp4", Fn: func(ctx context.Context, f images.Frame) (images.Frame, error) {
			calls++
			return pipeline.Preview(ctx, f, cfg)
		}},
		Pass{Name: "second", Output: "b.mp4", Fn: pipeline.Bind(pipeline.Preview, cfg)},
	)
	assert.ErrorIs(t, err, images.ErrUnsupportedChannelCount)
	assert.Empty(t, stats)
	assert.Equal(t, 2, calls)

	require.Len(t, files.sources, 1, "the second pass never starts")
	assert.True(t, files.sources[0].closed)
	assert.Len(t, files.sinks["a.mp4"].frames, 1)
	assert.True(t, files.sinks["a.mp4"].closed)
	assert.Nil(t, files.sinks["b.mp4"])
}

func TestDriverErrors(t *testing.T) {
	files := &memoryFiles{}
	d := files.driver(t, nil)
	identity := func(ctx context.Context, f images.Frame) (images.Frame, error) { return f, nil }

	_, err := d.Run(context.Background(), "missing.mp4", Pass{Name: "p", Output: "o.mp4", Fn: identity})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = d.Run(context.Background(), "in.mp4", Pass{Name: "p", Output: "o.mp4", Fn: identity})
	assert.ErrorIs(t, err, ErrNoFrames)

	files.input = []images.Frame{colourFrame(4, 4, white)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Run(ctx, "in.mp4", Pass{Name: "p", Output: "o.mp4", Fn: identity})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestCaptureWriterRoundTrip encodes and decodes a short clip with gocv. It is skipped
// where no encoder for the codec is available.
func TestCaptureWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	w, err := CreateWriter(path, "MJPG", 5, 64, 32)
	if err != nil {
		t.Skipf("no MJPG encoder: %v", err)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(colourFrame(64, 32, [3]uint8{200, 40, 40})))
	}
	assert.Error(t, w.Write(colourFrame(8, 8, black)), "size mismatch")
	require.NoError(t, w.Close())

	env, err := config.LoadEnv()
	require.NoError(t, err)

	c, err := OpenCapture(path, env.FallbackFPS)
	require.NoError(t, err)
	defer c.Close()
	assert.Greater(t, c.FPS(), 0.0)

	n := 0
	for {
		f, err := c.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, 64, f.Width)
		assert.Equal(t, 32, f.Height)
		r, _, b := f.RGB(32, 16)
		assert.Greater(t, r, b, "channels come back in RGB order")
		n++
	}
	assert.Equal(t, 3, n)
}
