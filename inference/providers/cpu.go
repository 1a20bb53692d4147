// Package providers - CPU based execution provider.
package providers

const (
	// CPUProviderBackend uses the default ONNX Runtime CPU kernels.
	CPUProviderBackend ProviderBackend = "cpu"
)

// CPUOptions contains arguments for the CPU provider.
type CPUOptions struct {
	// Threads used inside a single op. Zero lets the runtime decide.
	IntraOpNumThreads int `json:"intraOpNumThreads" yaml:"intraOpNumThreads"`
}

func (CPUOptions) isProviderOptions() {}

// CPUProvider represents the CPU execution provider
type CPUProvider struct {
	options CPUOptions
}

// Backend returns the backend of the CPU provider.
func (p *CPUProvider) Backend() ProviderBackend {
	return CPUProviderBackend
}

// Options returns the options of the CPU provider.
func (p *CPUProvider) Options() ProviderOptions {
	return p.options
}

// NewCPUProvider creates a new CPU provider
func NewCPUProvider(args CPUOptions) *CPUProvider {
	return &CPUProvider{options: args}
}
