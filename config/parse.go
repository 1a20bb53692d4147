package config

import (
	"strconv"
	"strings"

	"github.com/akamensky/argparse"
)

// CLI is the argument parser of the segmentation driver.
type CLI struct {
	parser *argparse.Parser

	dataset   *string
	backbone  *string
	outStride *int
	lossType  *string
	freezeBN  *bool

	workers            *int
	baseSize           *int
	cropSize           *int
	useSBD             *bool
	useBalancedWeights *bool

	epochs        *string
	startEpoch    *int
	startEpochAlt *int
	batchSize     *string
	testBatchSize *string
	lr            *string
	lrScheduler   *string
	momentum      *float64
	weightDecay   *float64
	nesterov      *bool
	seed          *int
	evalInterval  *int
	noVal         *bool

	gpuIDs *string
	noCUDA *bool
	syncBN *string

	resume    *string
	checkname *string
	ft        *bool

	input         *string
	output        *string
	previewOutput *string
	model         *string
	backend       *string
	metricsAddr   *string
}

// NewCLI declares every flag of the driver.
func NewCLI() *CLI {
	d := DefaultArgs()
	p := argparse.NewParser("deeplab", "Run a DeepLab segmentation network over a video")
	c := &CLI{parser: p}

	c.dataset = p.String("", "dataset", &argparse.Options{Help: "Dataset name (pascal, coco, cityscapes, kitti)", Default: d.Dataset})
	c.backbone = p.Selector("", "backbone", names(Backbones), &argparse.Options{Help: "Backbone network", Default: d.Backbone})
	c.outStride = p.Int("", "out-stride", &argparse.Options{Help: "Network output stride", Default: d.OutStride})
	c.lossType = p.Selector("", "loss-type", []string{string(LossCrossEntropy), string(LossFocal)}, &argparse.Options{Help: "Loss function", Default: d.LossType})
	c.freezeBN = p.Flag("", "freeze-bn", &argparse.Options{Help: "Freeze batch norm parameters", Default: false})

	c.workers = p.Int("", "workers", &argparse.Options{Help: "Data loader threads", Default: d.Workers})
	c.baseSize = p.Int("", "base-size", &argparse.Options{Help: "Base image size", Default: d.BaseSize})
	c.cropSize = p.Int("", "crop-size", &argparse.Options{Help: "Crop image size", Default: d.CropSize})
	c.useSBD = p.Flag("", "use-sbd", &argparse.Options{Help: "Use the SBD dataset (always on)", Default: d.UseSBD})
	c.useBalancedWeights = p.Flag("", "use-balanced-weights", &argparse.Options{Help: "Use balanced class weights", Default: false})

	c.epochs = p.String("", "epochs", &argparse.Options{Help: "Number of epochs (default: per dataset)"})
	c.startEpoch = p.Int("", "start-epoch", &argparse.Options{Help: "Start epoch", Default: 0})
	c.startEpochAlt = p.Int("", "start_epoch", &argparse.Options{Help: "Same as --start-epoch", Default: 0})
	c.batchSize = p.String("", "batch-size", &argparse.Options{Help: "Training batch size (default: 4 per gpu)"})
	c.testBatchSize = p.String("", "test-batch-size", &argparse.Options{Help: "Evaluation batch size (default: batch size)"})
	c.lr = p.String("", "lr", &argparse.Options{Help: "Learning rate (default: per dataset, scaled with batch size)"})
	c.lrScheduler = p.Selector("", "lr-scheduler", names(LRSchedulers), &argparse.Options{Help: "Learning rate schedule", Default: d.LRScheduler})
	c.momentum = p.Float("", "momentum", &argparse.Options{Help: "SGD momentum", Default: d.Momentum})
	c.weightDecay = p.Float("", "weight-decay", &argparse.Options{Help: "Weight decay", Default: d.WeightDecay})
	c.nesterov = p.Flag("", "nesterov", &argparse.Options{Help: "Use Nesterov momentum", Default: false})
	c.seed = p.Int("", "seed", &argparse.Options{Help: "Random seed", Default: d.Seed})
	c.evalInterval = p.Int("", "eval-interval", &argparse.Options{Help: "Evaluation interval in epochs", Default: d.EvalInterval})
	c.noVal = p.Flag("", "no-val", &argparse.Options{Help: "Skip validation during training", Default: false})

	c.gpuIDs = p.String("", "gpu-ids", &argparse.Options{Help: "Comma-separated gpu ids, e.g. 0,1,2", Default: d.GPUIDs})
	c.noCUDA = p.Flag("", "no-cuda", &argparse.Options{Help: "Disable CUDA even when GPUs are present", Default: false})
	c.syncBN = p.Selector("", "sync-bn", []string{"true", "false", "auto"}, &argparse.Options{Help: "Synchronized batch norm (default: auto, on for multi-gpu CUDA)", Default: "auto"})

	c.resume = p.String("", "resume", &argparse.Options{Help: "Checkpoint manifest to resume from", Default: ""})
	c.checkname = p.String("", "checkname", &argparse.Options{Help: "Checkpoint name (default: deeplab-<backbone>)", Default: ""})
	c.ft = p.Flag("", "ft", &argparse.Options{Help: "Fine-tune: reset start epoch and ignore optimizer state", Default: false})

	c.input = p.String("i", "input", &argparse.Options{Help: "Input video", Default: d.Input})
	c.output = p.String("o", "output", &argparse.Options{Help: "Segmentation output video", Default: d.Output})
	c.previewOutput = p.String("", "preview-output", &argparse.Options{Help: "Resized input preview video", Default: d.PreviewOutput})
	c.model = p.String("m", "model", &argparse.Options{Help: "ONNX model file (default: checkpoint state_dict or " + DefaultModel + ")", Default: ""})
	c.backend = p.Selector("", "backend", []string{string(BackendONNX), string(BackendReference)}, &argparse.Options{Help: "Inference backend", Default: d.Backend})
	c.metricsAddr = p.String("", "metrics-addr", &argparse.Options{Help: "Serve Prometheus metrics on this address, e.g. :9090", Default: ""})

	return c
}

// Parse parses argv (including the program name, as in os.Args).
//
// Returns:
//   - Args: The raw arguments.
//   - error: ErrInvalidArgument (wrapped) for unknown flags or malformed values.
func (c *CLI) Parse(argv []string) (Args, error) {
	if err := c.parser.Parse(argv); err != nil {
		return Args{}, invalid("%v", err)
	}

	a := Args{
		Dataset:   *c.dataset,
		Backbone:  *c.backbone,
		OutStride: *c.outStride,
		LossType:  *c.lossType,
		FreezeBN:  *c.freezeBN,

		Workers:            *c.workers,
		BaseSize:           *c.baseSize,
		CropSize:           *c.cropSize,
		UseSBD:             *c.useSBD,
		UseBalancedWeights: *c.useBalancedWeights,

		StartEpoch:   *c.startEpoch,
		LRScheduler:  *c.lrScheduler,
		Momentum:     *c.momentum,
		WeightDecay:  *c.weightDecay,
		Nesterov:     *c.nesterov,
		Seed:         *c.seed,
		EvalInterval: *c.evalInterval,
		NoVal:        *c.noVal,

		GPUIDs:        *c.gpuIDs,
		NoCUDA:        *c.noCUDA,
		Resume:        *c.resume,
		FT:            *c.ft,
		Input:         *c.input,
		Output:        *c.output,
		PreviewOutput: *c.previewOutput,
		Model:         *c.model,
		Backend:       *c.backend,
		MetricsAddr:   *c.metricsAddr,
	}

	if a.StartEpoch == 0 {
		a.StartEpoch = *c.startEpochAlt
	}

	var err error
	if a.Epochs, err = optionalInt("epochs", *c.epochs); err != nil {
		return Args{}, err
	}
	if a.BatchSize, err = optionalInt("batch-size", *c.batchSize); err != nil {
		return Args{}, err
	}
	if a.TestBatchSize, err = optionalInt("test-batch-size", *c.testBatchSize); err != nil {
		return Args{}, err
	}
	if a.LR, err = optionalFloat("lr", *c.lr); err != nil {
		return Args{}, err
	}

	switch *c.syncBN {
	case "true":
		a.SyncBN = boolPtr(true)
	case "false":
		a.SyncBN = boolPtr(false)
	}

	if name := *c.checkname; name != "" {
		a.Checkname = &name
	}

	return a, nil
}

// Usage renders the help text with msg on top.
func (c *CLI) Usage(msg interface{}) string {
	return c.parser.Usage(msg)
}

// Parse parses argv with a fresh CLI.
func Parse(argv []string) (Args, error) {
	return NewCLI().Parse(argv)
}

func optionalInt(name, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid("--%s %q is not an integer", name, s)
	}
	return &v, nil
}

func optionalFloat(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, invalid("--%s %q is not a number", name, s)
	}
	return &v, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
