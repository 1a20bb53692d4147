// Command deeplab runs a DeepLab segmentation network over a video and writes the
// colourised segmentation and a resized preview of the input.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/config"
	"github.com/nvr-ai/go-deeplab/inference"
	"github.com/nvr-ai/go-deeplab/inference/providers"
	"github.com/nvr-ai/go-deeplab/metrics"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/models/deeplab"
	"github.com/nvr-ai/go-deeplab/pipeline"
	"github.com/nvr-ai/go-deeplab/preprocess"
	"github.com/nvr-ai/go-deeplab/video"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Error creating log: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, os.Args, log)
	stop()

	if err != nil {
		log.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

// app is everything built from the command line before the first frame is read.
type app struct {
	cfg      config.Config
	env      config.Env
	spec     deeplab.Spec
	registry *prometheus.Registry
	metrics  *metrics.Pipeline
	pipeline pipeline.Config
}

func (a *app) Close() error {
	if a.pipeline.Predictor != nil {
		return a.pipeline.Predictor.Close()
	}
	return nil
}

// setup resolves the configuration, applies a checkpoint and builds the predictor.
// Every argument error surfaces here, before any video is opened.
func setup(argv []string, log logs.Log) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	cli := config.NewCLI()
	args, err := cli.Parse(argv)
	if err != nil {
		fmt.Print(cli.Usage(err))
		return nil, err
	}

	exec, err := providers.Probe(env.Device, env.DeviceCount)
	if err != nil {
		return nil, err
	}
	log.Infof("Execution context: %v", exec)

	cfg, err := config.Resolve(args, exec)
	if err != nil {
		return nil, err
	}

	if cfg.Resume != "" {
		ckpt, err := deeplab.LoadCheckpoint(cfg.Resume)
		if err != nil {
			return nil, err
		}
		var resume deeplab.Resume
		cfg, resume = ckpt.Apply(cfg)
		resume.Log(log, cfg.Resume)
	}
	cfg.Log(log)

	spec, err := deeplab.NewSpec(cfg, env)
	if err != nil {
		return nil, err
	}
	log.Infof("Model: %v", spec)

	decoder, err := models.NewDecoderFor(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	exec = cfg.Exec
	if !cfg.CUDA {
		exec = providers.CPU()
	}
	predictor, err := inference.NewEngineBuilder().
		WithProvider(exec, cfg.GPUIDs).
		WithEngine(cfg.Backend).
		WithRuntime(inference.RuntimeOptions{
			LibraryPath:  providers.GetSharedLibPath(env.ORTLibrary),
			Optimization: providers.DefaultOptimizationConfig(),
		}).
		WithModel(spec).
		Build()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewPipeline(registry)

	return &app{
		cfg:      cfg,
		env:      env,
		spec:     spec,
		registry: registry,
		metrics:  m,
		pipeline: pipeline.Config{
			Preprocessor: preprocess.New(),
			Predictor:    predictor,
			Decoder:      decoder,
			Metrics:      m,
		},
	}, nil
}

func run(ctx context.Context, argv []string, log logs.Log) (err error) {
	a, err := setup(argv, log)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	if a.cfg.MetricsAddr != "" {
		if _, err := metrics.StartServer(ctx, a.cfg.MetricsAddr, a.registry, log); err != nil {
			return err
		}
	}

	driver := video.NewDriver(a.env, log, a.metrics)
	stats, err := driver.Run(ctx, a.cfg.Input,
		video.Pass{Name: pipeline.PassSegment, Output: a.cfg.Output, Fn: pipeline.Bind(pipeline.Segment, a.pipeline)},
		video.Pass{Name: pipeline.PassPreview, Output: a.cfg.PreviewOutput, Fn: pipeline.Bind(pipeline.Preview, a.pipeline)},
	)
	if err != nil {
		return err
	}

	for _, s := range stats {
		log.Infof("%s: %d frames, %dx%d @ %.2f fps", s.Output, s.Frames, s.Width, s.Height, s.FPS)
	}
	return nil
}
