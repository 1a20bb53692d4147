package config

import (
	"github.com/caarlos0/env/v11"
)

// Env holds deployment settings read from the environment.
type Env struct {
	// ORTLibrary is the onnxruntime shared library. Empty picks a per-platform default.
	ORTLibrary string `env:"DEEPLAB_ORT_LIBRARY"`
	// Device forces the device kind: auto, cpu or cuda.
	Device string `env:"DEEPLAB_DEVICE"       envDefault:"auto"`
	// DeviceCount caps (auto) or sets (cuda) the visible GPU count when positive.
	DeviceCount int `env:"DEEPLAB_DEVICE_COUNT" envDefault:"0"`

	InputName  string `env:"DEEPLAB_INPUT_NAME"  envDefault:"input"`
	OutputName string `env:"DEEPLAB_OUTPUT_NAME" envDefault:"output"`

	// FourCC is the codec of both output videos.
	FourCC string `env:"DEEPLAB_FOURCC"       envDefault:"mp4v"`
	// FallbackFPS is used when the input container reports no frame rate.
	FallbackFPS float64 `env:"DEEPLAB_FALLBACK_FPS" envDefault:"25"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, invalid("environment: %v", err)
	}
	if len(e.FourCC) != 4 {
		return Env{}, invalid("DEEPLAB_FOURCC must be 4 characters, got %q", e.FourCC)
	}
	if e.FallbackFPS <= 0 {
		return Env{}, invalid("DEEPLAB_FALLBACK_FPS must be positive, got %v", e.FallbackFPS)
	}
	return e, nil
}
