// Package images - Frame definition for processing utilities.
package images

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// RGBChannels is the channel count every frame must carry before preprocessing.
const RGBChannels = 3

// ErrUnsupportedChannelCount is returned when a frame is not 3-channel RGB.
var ErrUnsupportedChannelCount = errors.New("unsupported channel count")

// Frame represents a single 8-bit image stored row-major in HWC layout.
//
// Pixels are always in RGB order regardless of where the frame came from; the
// gocv bridge swaps BGR on the way in and out.
type Frame struct {
	// The width of the frame in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the frame in pixels.
	Height int `json:"height" yaml:"height"`
	// The number of interleaved channels per pixel.
	Channels int `json:"channels" yaml:"channels"`
	// The pixel data, len(Pix) == Width*Height*Channels.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewFrame allocates a black RGB frame.
//
// Arguments:
//   - width: The width of the frame.
//   - height: The height of the frame.
//
// Returns:
//   - Frame: The allocated frame.
func NewFrame(width, height int) Frame {
	return Frame{
		Width:    width,
		Height:   height,
		Channels: RGBChannels,
		Pix:      make([]uint8, width*height*RGBChannels),
	}
}

// Validate checks that the frame is a well-formed 3-channel image.
//
// Returns:
//   - error: ErrUnsupportedChannelCount (wrapped) for non-RGB frames, or a
//     dimension error for empty or inconsistent buffers.
func (f Frame) Validate() error {
	if f.Channels != RGBChannels {
		return errors.Wrapf(ErrUnsupportedChannelCount, "expected %d channels, got %d", RGBChannels, f.Channels)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions: %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return fmt.Errorf("frame buffer holds %d bytes, %dx%dx%d needs %d",
			len(f.Pix), f.Width, f.Height, f.Channels, f.Width*f.Height*f.Channels)
	}
	return nil
}

// Bounds returns the frame rectangle anchored at the origin.
func (f Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// RGB returns the pixel at (x, y).
func (f Frame) RGB(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * f.Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// SetRGB writes the pixel at (x, y).
func (f Frame) SetRGB(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * f.Channels
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
}

// RGBA converts the frame to an opaque *image.RGBA.
//
// Returns:
//   - *image.RGBA: The converted image.
//   - error: An error if the frame is not a valid RGB frame.
func (f Frame) RGBA() (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(f.Bounds())
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		dst.Pix[j] = f.Pix[i]
		dst.Pix[j+1] = f.Pix[i+1]
		dst.Pix[j+2] = f.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst, nil
}

// FromImage converts any image.Image into an RGB frame. Alpha is dropped.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - Frame: The converted frame.
func FromImage(img image.Image) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())

	// Fast path for the type nfnt/resize hands back.
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < f.Height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+f.Width*4]
			for x := 0; x < f.Width; x++ {
				f.SetRGB(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return f
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			f.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return f
}
