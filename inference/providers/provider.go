// Package providers - Provider interface for execution providers.
package providers

import (
	"fmt"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
}

// NewProvider creates the execution provider for an execution context.
//
// Arguments:
//   - exec: The execution context.
//   - deviceIDs: The requested GPU ids. Only the first is bound; multi-device data
//     parallelism is left to the runtime.
//
// Returns:
//   - ExecutionProvider: A CUDA provider when exec has GPUs, a CPU provider otherwise.
//   - error: An error if any requested device id is outside the context.
func NewProvider(exec ExecutionContext, deviceIDs []int) (ExecutionProvider, error) {
	if !exec.CUDAAvailable() {
		return NewCPUProvider(CPUOptions{}), nil
	}

	for _, id := range deviceIDs {
		if id < 0 || id >= exec.Count {
			return nil, fmt.Errorf("gpu %d requested but only %d visible", id, exec.Count)
		}
	}

	id := 0
	if len(deviceIDs) > 0 {
		id = deviceIDs[0]
	}

	return NewCUDAProvider(CUDAOptions{DeviceID: id, DoCopyInDefaultStream: true}), nil
}
