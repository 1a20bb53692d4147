package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/nvr-ai/go-deeplab/inference"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/nvr-ai/go-deeplab/preprocess"
)

// Input sizes of common KITTI and dashcam footage.
var benchResolutions = []struct {
	Name          string
	Width, Height int
}{
	{"kitti", 1242, 375},
	{"720p", 1280, 720},
	{"1080p", 1920, 1080},
}

func benchConfig(b *testing.B) Config {
	head, err := inference.NewPaletteHead(&models.CityscapesClasses, preprocess.TargetWidth, preprocess.TargetHeight)
	if err != nil {
		b.Fatal(err)
	}
	dec, err := models.NewDecoder(&models.CityscapesClasses)
	if err != nil {
		b.Fatal(err)
	}
	p := inference.NewPredictor(head, preprocess.TargetWidth, preprocess.TargetHeight)
	b.Cleanup(func() { p.Close() })
	return Config{Preprocessor: preprocess.New(), Predictor: p, Decoder: dec}
}

func BenchmarkSegment(b *testing.B) {
	cfg := benchConfig(b)
	for _, res := range benchResolutions {
		frame := solid(res.Width, res.Height, [3]uint8{128, 64, 128})
		b.Run(fmt.Sprintf("%s_%dx%d", res.Name, res.Width, res.Height), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Segment(context.Background(), frame, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPreview(b *testing.B) {
	cfg := Config{Preprocessor: preprocess.New()}
	for _, res := range benchResolutions {
		frame := solid(res.Width, res.Height, [3]uint8{70, 130, 180})
		b.Run(res.Name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Preview(context.Background(), frame, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
