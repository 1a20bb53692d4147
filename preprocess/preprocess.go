// Package preprocess turns video frames into the tensors a DeepLab network consumes.
package preprocess

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-deeplab/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const (
	// TargetWidth is the network input width. Frames are resized to it without
	// preserving aspect ratio.
	TargetWidth = 512
	// TargetHeight is the network input height.
	TargetHeight = 512
	// PixelScale maps 8-bit samples to [0, 1].
	PixelScale = 255
)

var (
	// Mean is the per-channel (R, G, B) mean subtracted after scaling.
	Mean = [images.RGBChannels]float32{0.485, 0.456, 0.406}
	// Std is the per-channel (R, G, B) standard deviation divided out after centering.
	Std = [images.RGBChannels]float32{0.229, 0.224, 0.225}
)

// normalized[c][p] is Normalize(p, c), computed once.
var normalized = func() (lut [images.RGBChannels][256]float32) {
	for c := 0; c < images.RGBChannels; c++ {
		for p := 0; p < 256; p++ {
			lut[c][p] = Normalize(uint8(p), c)
		}
	}
	return lut
}()

// Normalize maps an 8-bit sample of channel c to (p/255 - mean) / std.
func Normalize(p uint8, c int) float32 {
	return (float32(p)/PixelScale - Mean[c]) / Std[c]
}

// Denormalize inverts Normalize, rounding and clamping to [0, 255].
func Denormalize(v float32, c int) uint8 {
	return toUint8((v*Std[c] + Mean[c]) * PixelScale)
}

func toUint8(v float32) uint8 {
	v = math32.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Preprocessor converts frames to network input. The zero value is not usable, use New.
type Preprocessor struct {
	width  int
	height int
}

// New returns a Preprocessor targeting TargetWidth x TargetHeight.
func New() *Preprocessor {
	return &Preprocessor{width: TargetWidth, height: TargetHeight}
}

// Preprocess resizes, normalizes and transposes a frame.
//
// Steps, in order: bilinear resize to 512x512, scale by 1/255, subtract Mean, divide by
// Std, HWC to CHW, add a batch axis.
//
// Arguments:
//   - f: An RGB frame of any size.
//
// Returns:
//   - *tensor.Dense: A float32 tensor of shape (1, 3, 512, 512).
//   - error: images.ErrUnsupportedChannelCount (wrapped) for non-RGB frames, or a
//     resize error.
func (p *Preprocessor) Preprocess(f images.Frame) (*tensor.Dense, error) {
	resized, err := p.resize(f)
	if err != nil {
		return nil, err
	}

	plane := p.width * p.height
	data := make([]float32, images.RGBChannels*plane)
	for i := 0; i < plane; i++ {
		px := resized.Pix[i*images.RGBChannels : i*images.RGBChannels+images.RGBChannels]
		data[i] = normalized[0][px[0]]
		data[plane+i] = normalized[1][px[1]]
		data[2*plane+i] = normalized[2][px[2]]
	}

	return tensor.New(
		tensor.WithShape(1, images.RGBChannels, p.height, p.width),
		tensor.WithBacking(data),
	), nil
}

// Raw resizes a frame and casts it to float32, without normalization. The result keeps
// the HWC layout so it can be turned straight back into a frame with ToFrame.
//
// Returns:
//   - *tensor.Dense: A float32 tensor of shape (512, 512, 3) with values in [0, 255].
//   - error: images.ErrUnsupportedChannelCount (wrapped) for non-RGB frames.
func (p *Preprocessor) Raw(f images.Frame) (*tensor.Dense, error) {
	resized, err := p.resize(f)
	if err != nil {
		return nil, err
	}

	data := make([]float32, len(resized.Pix))
	for i, v := range resized.Pix {
		data[i] = float32(v)
	}

	return tensor.New(
		tensor.WithShape(p.height, p.width, images.RGBChannels),
		tensor.WithBacking(data),
	), nil
}

func (p *Preprocessor) resize(f images.Frame) (images.Frame, error) {
	if err := f.Validate(); err != nil {
		return images.Frame{}, err
	}
	resized, err := images.ResizeBilinear(f, p.width, p.height)
	if err != nil {
		return images.Frame{}, errors.Wrap(err, "resize")
	}
	return resized, nil
}

// ToFrame converts an HWC float32 tensor with values in [0, 255] to an 8-bit frame.
// Values are rounded and clamped.
func ToFrame(raw *tensor.Dense) (images.Frame, error) {
	shape := raw.Shape()
	if len(shape) != 3 || shape[2] != images.RGBChannels {
		return images.Frame{}, fmt.Errorf("expected an (H, W, 3) tensor, got %v", shape)
	}
	data, ok := raw.Data().([]float32)
	if !ok {
		return images.Frame{}, fmt.Errorf("expected float32 data, got %v", raw.Dtype())
	}

	f := images.NewFrame(shape[1], shape[0])
	for i, v := range data {
		f.Pix[i] = toUint8(v)
	}
	return f, nil
}
