package config

import (
	"strconv"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/inference/providers"
)

// Config is the fully resolved run configuration. It is a value; nothing mutates it
// after Resolve returns.
type Config struct {
	Dataset   Dataset
	Backbone  Backbone
	OutStride int
	LossType  LossType
	FreezeBN  bool

	Workers            int
	BaseSize           int
	CropSize           int
	UseSBD             bool
	UseBalancedWeights bool

	Epochs        int
	StartEpoch    int
	BatchSize     int
	TestBatchSize int
	LR            float64
	LRScheduler   LRScheduler
	Momentum      float64
	WeightDecay   float64
	Nesterov      bool
	Seed          int
	EvalInterval  int
	NoVal         bool

	GPUIDs []int
	CUDA   bool
	SyncBN bool
	Exec   providers.ExecutionContext

	Resume    string
	Checkname string
	FT        bool

	Input         string
	Output        string
	PreviewOutput string
	Model         string
	Backend       Backend
	MetricsAddr   string
}

// Resolve validates args and fills in every derived default.
//
// Derived values, applied only when the corresponding override is unset:
//   - Epochs from the per-dataset table.
//   - BatchSize = BaseBatchPerGPU * len(GPUIDs).
//   - TestBatchSize = BatchSize.
//   - LR = base_lr / (BaseBatchPerGPU * len(GPUIDs)) * BatchSize.
//   - SyncBN = CUDA && len(GPUIDs) > 1.
//   - Checkname = "deeplab-" + backbone.
//
// Arguments:
//   - args: The raw arguments.
//   - exec: The devices available to the run.
//
// Returns:
//   - Config: The resolved configuration.
//   - error: ErrInvalidArgument or ErrUnsupportedDataset (wrapped).
func Resolve(args Args, exec providers.ExecutionContext) (Config, error) {
	gpuIDs, err := ParseGPUIDs(args.GPUIDs)
	if err != nil {
		return Config{}, err
	}

	dataset, err := ParseDataset(args.Dataset)
	if err != nil {
		return Config{}, err
	}
	hp, err := HyperparametersFor(dataset)
	if err != nil {
		return Config{}, err
	}

	backbone, err := parseBackbone(args.Backbone)
	if err != nil {
		return Config{}, err
	}
	loss, err := parseLossType(args.LossType)
	if err != nil {
		return Config{}, err
	}
	backend, err := parseBackend(args.Backend)
	if err != nil {
		return Config{}, err
	}
	if args.OutStride <= 0 {
		return Config{}, invalid("out-stride must be positive, got %d", args.OutStride)
	}
	if args.StartEpoch < 0 {
		return Config{}, invalid("start-epoch must not be negative, got %d", args.StartEpoch)
	}
	scheduler, err := parseLRScheduler(args.LRScheduler)
	if err != nil {
		return Config{}, err
	}
	if err := checkTraining(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Dataset:   dataset,
		Backbone:  backbone,
		OutStride: args.OutStride,
		LossType:  loss,
		FreezeBN:  args.FreezeBN,

		Workers:            args.Workers,
		BaseSize:           args.BaseSize,
		CropSize:           args.CropSize,
		UseSBD:             args.UseSBD,
		UseBalancedWeights: args.UseBalancedWeights,

		StartEpoch:   args.StartEpoch,
		LRScheduler:  scheduler,
		Momentum:     args.Momentum,
		WeightDecay:  args.WeightDecay,
		Nesterov:     args.Nesterov,
		Seed:         args.Seed,
		EvalInterval: args.EvalInterval,
		NoVal:        args.NoVal,

		GPUIDs:        gpuIDs,
		Exec:          exec,
		Resume:        args.Resume,
		FT:            args.FT,
		Input:         args.Input,
		Output:        args.Output,
		PreviewOutput: args.PreviewOutput,
		Model:         args.Model,
		Backend:       backend,
		MetricsAddr:   args.MetricsAddr,
	}

	cfg.Epochs = hp.Epochs
	if args.Epochs != nil {
		if *args.Epochs <= 0 {
			return Config{}, invalid("epochs must be positive, got %d", *args.Epochs)
		}
		cfg.Epochs = *args.Epochs
	}

	cfg.BatchSize = BaseBatchPerGPU * len(gpuIDs)
	if args.BatchSize != nil {
		if *args.BatchSize <= 0 {
			return Config{}, invalid("batch-size must be positive, got %d", *args.BatchSize)
		}
		cfg.BatchSize = *args.BatchSize
	}

	cfg.TestBatchSize = cfg.BatchSize
	if args.TestBatchSize != nil {
		if *args.TestBatchSize <= 0 {
			return Config{}, invalid("test-batch-size must be positive, got %d", *args.TestBatchSize)
		}
		cfg.TestBatchSize = *args.TestBatchSize
	}

	cfg.LR = hp.ScaledLR(cfg.BatchSize, len(gpuIDs))
	if args.LR != nil {
		if *args.LR <= 0 {
			return Config{}, invalid("lr must be positive, got %g", *args.LR)
		}
		cfg.LR = *args.LR
	}

	cfg.CUDA = !args.NoCUDA && exec.CUDAAvailable()
	cfg.SyncBN = cfg.CUDA && len(gpuIDs) > 1
	if args.SyncBN != nil {
		cfg.SyncBN = *args.SyncBN
	}

	cfg.Checkname = "deeplab-" + string(backbone)
	if args.Checkname != nil && *args.Checkname != "" {
		cfg.Checkname = *args.Checkname
	}

	if args.FT {
		cfg.StartEpoch = 0
	}

	return cfg, nil
}

// ParseGPUIDs parses a comma-separated list of device ids.
//
// Returns:
//   - []int: The ids in the given order.
//   - error: ErrInvalidArgument (wrapped) for an empty list, a non-integer or negative
//     token, or a repeated id.
func ParseGPUIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, invalid("gpu-ids must not be empty")
	}

	tokens := strings.Split(s, ",")
	ids := make([]int, 0, len(tokens))
	seen := make(map[int]bool, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		id, err := strconv.Atoi(tok)
		if err != nil {
			return nil, invalid("gpu id %q is not an integer", tok)
		}
		if id < 0 {
			return nil, invalid("gpu id %d is negative", id)
		}
		if seen[id] {
			return nil, invalid("gpu id %d is repeated", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Log writes the resolved configuration, one line per group.
func (c Config) Log(log logs.Log) {
	log.Infof("Dataset %v, backbone %v, output stride %v, loss %v, freeze bn %v",
		c.Dataset, c.Backbone, c.OutStride, c.LossType, c.FreezeBN)
	log.Infof("Workers %v, base size %v, crop size %v, sbd %v, balanced weights %v",
		c.Workers, c.BaseSize, c.CropSize, c.UseSBD, c.UseBalancedWeights)
	log.Infof("Epochs %v (start %v), batch %v, test batch %v, lr %v (%v), seed %v",
		c.Epochs, c.StartEpoch, c.BatchSize, c.TestBatchSize, c.LR, c.LRScheduler, c.Seed)
	log.Infof("Momentum %v, weight decay %v, nesterov %v, eval interval %v, no val %v",
		c.Momentum, c.WeightDecay, c.Nesterov, c.EvalInterval, c.NoVal)
	log.Infof("Devices %v, gpu ids %v, cuda %v, sync bn %v", c.Exec, c.GPUIDs, c.CUDA, c.SyncBN)
	log.Infof("Checkname %v, resume %q, fine-tune %v", c.Checkname, c.Resume, c.FT)
	log.Infof("Backend %v, model %q, input %q, output %q, preview %q",
		c.Backend, c.Model, c.Input, c.Output, c.PreviewOutput)
}

func parseBackbone(s string) (Backbone, error) {
	b := Backbone(strings.ToLower(s))
	for _, known := range Backbones {
		if b == known {
			return b, nil
		}
	}
	return "", invalid("unknown backbone %q", s)
}

func parseLossType(s string) (LossType, error) {
	switch l := LossType(strings.ToLower(s)); l {
	case LossCrossEntropy, LossFocal:
		return l, nil
	}
	return "", invalid("unknown loss type %q", s)
}

func parseLRScheduler(s string) (LRScheduler, error) {
	l := LRScheduler(strings.ToLower(s))
	for _, known := range LRSchedulers {
		if l == known {
			return l, nil
		}
	}
	return "", invalid("unknown lr scheduler %q", s)
}

// checkTraining validates the training knobs that are carried but not derived.
func checkTraining(args Args) error {
	switch {
	case args.Workers < 0:
		return invalid("workers must not be negative, got %d", args.Workers)
	case args.BaseSize <= 0:
		return invalid("base-size must be positive, got %d", args.BaseSize)
	case args.CropSize <= 0:
		return invalid("crop-size must be positive, got %d", args.CropSize)
	case args.Momentum < 0:
		return invalid("momentum must not be negative, got %g", args.Momentum)
	case args.WeightDecay < 0:
		return invalid("weight-decay must not be negative, got %g", args.WeightDecay)
	case args.EvalInterval <= 0:
		return invalid("eval-interval must be positive, got %d", args.EvalInterval)
	}
	return nil
}

func parseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case BackendONNX, BackendReference:
		return b, nil
	}
	return "", invalid("unknown backend %q", s)
}
