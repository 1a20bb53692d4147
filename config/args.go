// Package config resolves command line arguments into a run configuration.
package config

// Backbone names the DeepLab feature extractor.
type Backbone string

const (
	BackboneResNet    Backbone = "resnet"
	BackboneXception  Backbone = "xception"
	BackboneDRN       Backbone = "drn"
	BackboneMobileNet Backbone = "mobilenet"
)

// Backbones lists the supported backbones.
var Backbones = []Backbone{BackboneResNet, BackboneXception, BackboneDRN, BackboneMobileNet}

// LossType names the training loss.
type LossType string

const (
	LossCrossEntropy LossType = "ce"
	LossFocal        LossType = "focal"
)

// LRScheduler names the learning rate schedule.
type LRScheduler string

const (
	LRSchedulerPoly LRScheduler = "poly"
	LRSchedulerStep LRScheduler = "step"
	LRSchedulerCos  LRScheduler = "cos"
)

// LRSchedulers lists the supported schedules.
var LRSchedulers = []LRScheduler{LRSchedulerPoly, LRSchedulerStep, LRSchedulerCos}

// Backend names the inference backend used by the driver.
type Backend string

const (
	// BackendONNX runs an exported DeepLab network through onnxruntime.
	BackendONNX Backend = "onnx"
	// BackendReference runs a nearest-palette-colour linear head, no network required.
	BackendReference Backend = "reference"
)

const (
	DefaultInput         = "Clip_KITTI_dataset.mp4"
	DefaultOutput        = "Processed_Clip_KITTI_dataset.mp4"
	DefaultPreviewOutput = "Input_Clip_KITTI_dataset.mp4"
	DefaultModel         = "deeplab.onnx"
	DefaultOutStride     = 16
	DefaultSeed          = 1
	DefaultGPUIDs        = "0"
	DefaultWorkers       = 4
	DefaultBaseSize      = 512
	DefaultCropSize      = 512
	DefaultMomentum      = 0.9
	DefaultWeightDecay   = 5e-4
	DefaultEvalInterval  = 1
)

// Args holds raw argument values. Pointer fields are optional overrides; nil means
// the value is derived by Resolve.
type Args struct {
	Dataset   string
	Backbone  string
	OutStride int
	LossType  string
	FreezeBN  bool

	Workers            int
	BaseSize           int
	CropSize           int
	UseSBD             bool
	UseBalancedWeights bool

	Epochs        *int
	StartEpoch    int
	BatchSize     *int
	TestBatchSize *int
	LR            *float64
	LRScheduler   string
	Momentum      float64
	WeightDecay   float64
	Nesterov      bool
	Seed          int
	EvalInterval  int
	NoVal         bool

	GPUIDs string
	NoCUDA bool
	SyncBN *bool

	Resume    string
	Checkname *string
	FT        bool

	Input         string
	Output        string
	PreviewOutput string
	// Model is the ONNX weights path. Empty falls back to the checkpoint's state_dict,
	// then DefaultModel.
	Model       string
	Backend     string
	MetricsAddr string
}

// DefaultArgs returns the arguments a bare invocation produces.
func DefaultArgs() Args {
	return Args{
		Dataset:       string(DatasetKITTI),
		Backbone:      string(BackboneResNet),
		OutStride:     DefaultOutStride,
		LossType:      string(LossCrossEntropy),
		Workers:       DefaultWorkers,
		BaseSize:      DefaultBaseSize,
		CropSize:      DefaultCropSize,
		UseSBD:        true,
		LRScheduler:   string(LRSchedulerPoly),
		Momentum:      DefaultMomentum,
		WeightDecay:   DefaultWeightDecay,
		Seed:          DefaultSeed,
		EvalInterval:  DefaultEvalInterval,
		GPUIDs:        DefaultGPUIDs,
		Input:         DefaultInput,
		Output:        DefaultOutput,
		PreviewOutput: DefaultPreviewOutput,
		Backend:       string(BackendONNX),
	}
}
