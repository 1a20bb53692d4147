package images

import (
	"fmt"

	"github.com/nfnt/resize"
)

// ResizeBilinear resizes a frame to exactly width x height with bilinear
// interpolation. The aspect ratio is not preserved.
//
// Arguments:
//   - f: The frame to resize.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - Frame: The resized frame.
//   - error: An error if the frame is invalid or the target size is not positive.
func ResizeBilinear(f Frame, width, height int) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	src, err := f.RGBA()
	if err != nil {
		return Frame{}, err
	}

	if f.Width == width && f.Height == height {
		out := NewFrame(width, height)
		copy(out.Pix, f.Pix)
		return out, nil
	}

	return FromImage(resize.Resize(uint(width), uint(height), src, resize.Bilinear)), nil
}
