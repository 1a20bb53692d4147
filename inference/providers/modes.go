package providers

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DeviceKind represents the kind of device inference runs on.
type DeviceKind string

const (
	// DeviceCPU uses CPU for inference.
	DeviceCPU DeviceKind = "cpu"

	// DeviceCUDA uses NVIDIA GPUs for inference.
	DeviceCUDA DeviceKind = "cuda"

	// DeviceAuto defers the choice to Probe.
	DeviceAuto DeviceKind = "auto"
)

// nvidiaDevices matches the per-GPU device nodes the NVIDIA driver creates.
const nvidiaDevices = "/dev/nvidia[0-9]*"

// ExecutionContext describes the devices available to a run. It is passed explicitly
// to configuration resolution and session construction instead of being read from
// process-wide state.
type ExecutionContext struct {
	// Kind is the device kind, DeviceCPU or DeviceCUDA.
	Kind DeviceKind `json:"kind" yaml:"kind"`
	// Count is the number of visible devices of Kind.
	Count int `json:"count" yaml:"count"`
}

// CPU returns a single-device CPU context.
func CPU() ExecutionContext {
	return ExecutionContext{Kind: DeviceCPU, Count: 1}
}

// CUDA returns a context with count visible GPUs.
func CUDA(count int) ExecutionContext {
	return ExecutionContext{Kind: DeviceCUDA, Count: count}
}

// CUDAAvailable reports whether at least one GPU is usable.
func (e ExecutionContext) CUDAAvailable() bool {
	return e.Kind == DeviceCUDA && e.Count > 0
}

func (e ExecutionContext) String() string {
	return fmt.Sprintf("%s x%d", e.Kind, e.Count)
}

// Probe determines the execution context.
//
// Arguments:
//   - override: "auto" (or empty) to detect, "cpu" or "cuda" to force a kind.
//   - count: Forced device count, ignored when not positive.
//
// Returns:
//   - ExecutionContext: The detected or forced context.
//   - error: An error if override is not a known device kind.
func Probe(override string, count int) (ExecutionContext, error) {
	return probe(nvidiaDevices, override, count)
}

func probe(pattern, override string, count int) (ExecutionContext, error) {
	switch DeviceKind(strings.ToLower(override)) {
	case DeviceCPU:
		return CPU(), nil
	case DeviceCUDA:
		if count <= 0 {
			count = max(countDevices(pattern), 1)
		}
		return CUDA(count), nil
	case DeviceAuto, "":
		n := countDevices(pattern)
		if count > 0 {
			n = min(n, count)
		}
		if n == 0 {
			return CPU(), nil
		}
		return CUDA(n), nil
	default:
		return ExecutionContext{}, fmt.Errorf("unknown device kind %q", override)
	}
}

func countDevices(pattern string) int {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0
	}
	return len(matches)
}
