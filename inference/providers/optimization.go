package providers

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains the ONNX Runtime session settings.
type OptimizationConfig struct {
	// GraphOptimizationLevel controls the level of graph optimization
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level"`

	// ExecutionMode controls sequential vs parallel execution
	ExecutionMode ort.ExecutionMode `json:"execution_mode"`

	// IntraOpNumThreads sets threads for parallelizing ops
	IntraOpNumThreads int `json:"intra_op_num_threads"`

	// InterOpNumThreads sets threads for parallelizing independent ops
	InterOpNumThreads int `json:"inter_op_num_threads"`
}

// DefaultOptimizationConfig returns the settings used for segmentation sessions.
//
// A single 512x512 frame is in flight at a time, so graph-level parallelism is off and
// the CPU budget goes to intra-op threads.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
		ExecutionMode:          ort.ExecutionModeSequential,
		IntraOpNumThreads:      max(1, runtime.NumCPU()/2),
		InterOpNumThreads:      1,
	}
}

// OptimizedSessionOptions creates ONNX Runtime session options for a provider.
//
// Arguments:
//   - provider: The execution provider to append.
//   - config: The optimization settings.
//
// Returns:
//   - *ort.SessionOptions: The options. The caller must Destroy them.
//   - error: An error if an option or execution provider cannot be applied.
//
// Example:
//
//	options, err := OptimizedSessionOptions(provider, DefaultOptimizationConfig())
//	if err != nil {
//	    return err
//	}
//	defer options.Destroy()
func OptimizedSessionOptions(provider ExecutionProvider, config OptimizationConfig) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if err := applyOptimization(options, config); err != nil {
		options.Destroy()
		return nil, err
	}

	if err := applyExecutionProvider(options, provider); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to configure execution provider: %w", err)
	}

	return options, nil
}

func applyOptimization(options *ort.SessionOptions, config OptimizationConfig) error {
	if err := options.SetGraphOptimizationLevel(config.GraphOptimizationLevel); err != nil {
		return fmt.Errorf("set graph optimization level: %w", err)
	}
	if err := options.SetExecutionMode(config.ExecutionMode); err != nil {
		return fmt.Errorf("set execution mode: %w", err)
	}
	if err := options.SetIntraOpNumThreads(config.IntraOpNumThreads); err != nil {
		return fmt.Errorf("set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(config.InterOpNumThreads); err != nil {
		return fmt.Errorf("set inter-op threads: %w", err)
	}
	return nil
}

func applyExecutionProvider(options *ort.SessionOptions, provider ExecutionProvider) error {
	switch provider.Backend() {
	case CPUProviderBackend:
		// CPU kernels are always registered.
		opts, ok := provider.Options().(CPUOptions)
		if ok && opts.IntraOpNumThreads > 0 {
			return options.SetIntraOpNumThreads(opts.IntraOpNumThreads)
		}
		return nil

	case CUDAProviderBackend:
		opts, ok := provider.Options().(CUDAOptions)
		if !ok {
			return fmt.Errorf("invalid options type for CUDA: %T", provider.Options())
		}
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return fmt.Errorf("error converting CUDA options: %w", err)
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported execution provider: %s", provider.Backend())
	}
}
