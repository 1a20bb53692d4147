package images

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FromMat copies an 8-bit gocv.Mat into a Frame.
//
// 3-channel mats are assumed to be BGR (what VideoCapture produces) and are swapped to
// RGB. Other channel counts are copied verbatim so that Validate can reject them with
// ErrUnsupportedChannelCount instead of silently converting.
//
// Arguments:
//   - mat: The source Mat.
//
// Returns:
//   - Frame: The copied frame.
//   - error: An error if the Mat is empty or not 8 bits per channel.
func FromMat(mat gocv.Mat) (Frame, error) {
	if mat.Empty() {
		return Frame{}, fmt.Errorf("mat is empty")
	}

	rows, cols, channels := mat.Rows(), mat.Cols(), mat.Channels()
	data := mat.ToBytes()
	if len(data) != rows*cols*channels {
		return Frame{}, fmt.Errorf("unsupported mat type %v: %d bytes for %dx%dx%d",
			mat.Type(), len(data), cols, rows, channels)
	}

	f := Frame{Width: cols, Height: rows, Channels: channels, Pix: data}
	if channels == RGBChannels {
		swapRedBlue(f.Pix)
	}
	return f, nil
}

// ToMat copies an RGB frame into a new BGR gocv.Mat. The caller owns the Mat.
//
// Arguments:
//   - f: The frame to convert.
//
// Returns:
//   - gocv.Mat: A CV_8UC3 Mat in BGR order.
//   - error: An error if the frame is invalid.
func ToMat(f Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	bgr := make([]uint8, len(f.Pix))
	copy(bgr, f.Pix)
	swapRedBlue(bgr)

	return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, bgr)
}

func swapRedBlue(pix []uint8) {
	for i := 0; i+2 < len(pix); i += 3 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
