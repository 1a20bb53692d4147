package video

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/metrics"
	pkgerrors "github.com/pkg/errors"
)

// ErrNoFrames is returned when the input yields no frame at all.
var ErrNoFrames = errors.New("input video has no frames")

// FrameFunc transforms one frame. Every output of a pass must have the same size.
type FrameFunc func(ctx context.Context, f images.Frame) (images.Frame, error)

// Pass is one read-transform-write sweep over the input.
type Pass struct {
	Name   string
	Output string
	Fn     FrameFunc
}

// Stats describes a completed pass.
type Stats struct {
	Pass    string
	Output  string
	Frames  int
	Width   int
	Height  int
	FPS     float64
	Elapsed time.Duration
}

// Driver runs passes over a video file, one frame at a time in source order.
type Driver struct {
	// Open opens the input.
	Open func(path string) (FrameSource, error)
	// Create opens an output once the first frame's size is known.
	Create func(path string, fps float64, width, height int) (FrameSink, error)

	Log     logs.Log
	Metrics *metrics.Pipeline
}

// NewDriver returns a Driver backed by gocv capture and writer.
func NewDriver(env config.Env, log logs.Log, m *metrics.Pipeline) *Driver {
	return &Driver{
		Open: func(path string) (FrameSource, error) {
			return OpenCapture(path, env.FallbackFPS)
		},
		Create: func(path string, fps float64, width, height int) (FrameSink, error) {
			return CreateWriter(path, env.FourCC, fps, width, height)
		},
		Log:     log,
		Metrics: m,
	}
}

// Run applies each pass to input in turn and stops at the first error.
//
// Arguments:
//   - ctx: Checked before every frame.
//   - input: The input video.
//   - passes: The passes to run.
//
// Returns:
//   - []Stats: Stats of the passes that completed.
//   - error: The first source, transform or sink error.
func (d *Driver) Run(ctx context.Context, input string, passes ...Pass) ([]Stats, error) {
	stats := make([]Stats, 0, len(passes))
	for _, p := range passes {
		s, err := d.runPass(ctx, input, p)
		if err != nil {
			return stats, pkgerrors.Wrapf(err, "%s pass", p.Name)
		}
		d.Log.Infof("%s pass: wrote %d frames of %dx%d to %s in %v",
			p.Name, s.Frames, s.Width, s.Height, s.Output, s.Elapsed.Round(time.Millisecond))
		stats = append(stats, s)
	}
	return stats, nil
}

func (d *Driver) runPass(ctx context.Context, input string, p Pass) (stats Stats, err error) {
	start := time.Now()
	stats = Stats{Pass: p.Name, Output: p.Output}

	src, err := d.Open(input)
	if err != nil {
		return stats, err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()
	stats.FPS = src.FPS()

	d.Log.Infof("%s pass: reading %s at %.2f fps", p.Name, input, stats.FPS)

	var sink FrameSink
	defer func() {
		if sink != nil {
			err = errors.Join(err, sink.Close())
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, pkgerrors.Wrapf(err, "read frame %d", stats.Frames)
		}

		frameStart := time.Now()
		out, err := p.Fn(ctx, frame)
		if err != nil {
			return stats, pkgerrors.Wrapf(err, "frame %d", stats.Frames)
		}

		if sink == nil {
			sink, err = d.Create(p.Output, stats.FPS, out.Width, out.Height)
			if err != nil {
				return stats, err
			}
			stats.Width, stats.Height = out.Width, out.Height
		}
		if err := sink.Write(out); err != nil {
			return stats, pkgerrors.Wrapf(err, "write frame %d", stats.Frames)
		}

		stats.Frames++
		d.Metrics.ObserveFrame(p.Name, time.Since(frameStart))
		if stats.Frames%100 == 0 {
			d.Log.Debugf("%s pass: %d frames", p.Name, stats.Frames)
		}
	}

	if stats.Frames == 0 {
		return stats, ErrNoFrames
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}
