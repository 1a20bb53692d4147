package preprocess

import (
	"fmt"
	"testing"

	"github.com/nvr-ai/go-deeplab/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func gradientFrame(width, height int) images.Frame {
	f := images.NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.SetRGB(x, y, uint8((x*7+y)%256), uint8((y*3)%256), uint8((x+y*5)%256))
		}
	}
	return f
}

func uniformFrame(width, height int, r, g, b uint8) images.Frame {
	f := images.NewFrame(width, height)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
	}
	return f
}

// TestPreprocessShape validates the output shape for arbitrary input geometry.
func TestPreprocessShape(t *testing.T) {
	p := New()
	for _, size := range [][2]int{{100, 50}, {512, 512}, {1920, 1080}, {1, 1}, {37, 600}} {
		out, err := p.Preprocess(gradientFrame(size[0], size[1]))
		require.NoError(t, err, "%v", size)
		assert.Equal(t, tensor.Shape{1, 3, TargetHeight, TargetWidth}, out.Shape(), "%v", size)
		assert.Equal(t, tensor.Float32, out.Dtype())
	}
}

// TestPreprocessNormalization checks elements against (p/255 - mean)/std.
func TestPreprocessNormalization(t *testing.T) {
	out, err := New().Preprocess(uniformFrame(TargetWidth, TargetHeight, 10, 128, 250))
	require.NoError(t, err)

	data := out.Data().([]float32)
	plane := TargetWidth * TargetHeight
	want := []float32{
		(10.0/255 - 0.485) / 0.229,
		(128.0/255 - 0.456) / 0.224,
		(250.0/255 - 0.406) / 0.225,
	}
	for c := 0; c < 3; c++ {
		for i := 0; i < plane; i += 997 {
			assert.InDelta(t, want[c], data[c*plane+i], 1e-5, "channel %d index %d", c, i)
		}
	}
}

// TestPreprocessNormalizesResizedPixels compares against the bilinear resize of the source.
func TestPreprocessNormalizesResizedPixels(t *testing.T) {
	src := gradientFrame(100, 50)
	out, err := New().Preprocess(src)
	require.NoError(t, err)

	resized, err := images.ResizeBilinear(src, TargetWidth, TargetHeight)
	require.NoError(t, err)

	for _, xy := range [][2]int{{0, 0}, {256, 256}, {511, 511}, {13, 400}} {
		r, g, b := resized.RGB(xy[0], xy[1])
		for c, v := range []uint8{r, g, b} {
			got, err := out.At(0, c, xy[1], xy[0])
			require.NoError(t, err)
			assert.InDelta(t, (float32(v)/255-Mean[c])/Std[c], got, 1e-5)
		}
	}
}

// TestPreprocessLayout checks CHW ordering on an unresized frame.
func TestPreprocessLayout(t *testing.T) {
	f := gradientFrame(TargetWidth, TargetHeight)
	out, err := New().Preprocess(f)
	require.NoError(t, err)

	for _, xy := range [][2]int{{0, 0}, {5, 9}, {511, 0}, {300, 511}} {
		r, g, b := f.RGB(xy[0], xy[1])
		for c, v := range []uint8{r, g, b} {
			got, err := out.At(0, c, xy[1], xy[0])
			require.NoError(t, err)
			assert.Equal(t, Normalize(v, c), got)
		}
	}
}

// TestDenormalizeRoundTrip reconstructs every 8-bit level within one step.
func TestDenormalizeRoundTrip(t *testing.T) {
	for c := 0; c < 3; c++ {
		for p := 0; p < 256; p++ {
			got := Denormalize(Normalize(uint8(p), c), c)
			assert.InDelta(t, p, int(got), 1, "channel %d level %d", c, p)
		}
	}

	assert.Equal(t, uint8(0), Denormalize(-100, 0))
	assert.Equal(t, uint8(255), Denormalize(100, 2))
}

func TestDenormalizeTensor(t *testing.T) {
	f := gradientFrame(TargetWidth, TargetHeight)
	out, err := New().Preprocess(f)
	require.NoError(t, err)

	back, err := denormalizeTensor(out)
	require.NoError(t, err)
	for i := range f.Pix {
		if d := int(f.Pix[i]) - int(back.Pix[i]); d > 1 || d < -1 {
			t.Fatalf("pixel byte %d: %d vs %d", i, f.Pix[i], back.Pix[i])
		}
	}
}

func TestPreprocessRejectsChannelCounts(t *testing.T) {
	p := New()
	for _, channels := range []int{1, 2, 4} {
		f := images.Frame{Width: 8, Height: 8, Channels: channels, Pix: make([]uint8, 64*channels)}

		_, err := p.Preprocess(f)
		assert.ErrorIs(t, err, images.ErrUnsupportedChannelCount, "%d channels", channels)

		_, err = p.Raw(f)
		assert.ErrorIs(t, err, images.ErrUnsupportedChannelCount, "%d channels", channels)
	}
}

// TestRawRoundTrip resizes without normalizing and converts back.
func TestRawRoundTrip(t *testing.T) {
	raw, err := New().Raw(uniformFrame(100, 50, 3, 140, 255))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{TargetHeight, TargetWidth, 3}, raw.Shape())
	assert.Equal(t, tensor.Float32, raw.Dtype())

	v, err := raw.At(17, 300, 1)
	require.NoError(t, err)
	assert.InDelta(t, 140, v, 1)

	f, err := ToFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, TargetWidth, f.Width)
	assert.Equal(t, TargetHeight, f.Height)
	r, g, b := f.RGB(200, 100)
	assert.InDelta(t, 3, int(r), 1)
	assert.InDelta(t, 140, int(g), 1)
	assert.InDelta(t, 255, int(b), 1)
}

func TestToFrameClamps(t *testing.T) {
	raw := tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking([]float32{-5, 0.4, 0.6, 254.5, 300, 128}))
	f, err := ToFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 1, 255, 255, 128}, f.Pix)

	_, err = ToFrame(tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float32{1, 2, 3, 4})))
	assert.Error(t, err)
}

// denormalizeTensor inverts Preprocess, returning the resized frame it was built from.
func denormalizeTensor(t *tensor.Dense) (images.Frame, error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] != images.RGBChannels {
		return images.Frame{}, fmt.Errorf("expected a (1, 3, H, W) tensor, got %v", shape)
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return images.Frame{}, fmt.Errorf("expected float32 data, got %v", t.Dtype())
	}

	h, w := shape[2], shape[3]
	plane := h * w
	f := images.NewFrame(w, h)
	for i := 0; i < plane; i++ {
		for c := 0; c < images.RGBChannels; c++ {
			f.Pix[i*images.RGBChannels+c] = Denormalize(data[c*plane+i], c)
		}
	}
	return f, nil
}
