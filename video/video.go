// Package video reads and writes video files frame by frame.
package video

import (
	"io"

	"github.com/nvr-ai/go-deeplab/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameSource yields decoded frames in source order.
type FrameSource interface {
	// Next returns the next frame, or io.EOF after the last one.
	Next() (images.Frame, error)
	// FPS is the frame rate of the source.
	FPS() float64
	Close() error
}

// FrameSink accepts frames of a fixed size.
type FrameSink interface {
	Write(f images.Frame) error
	Close() error
}

// Capture is a FrameSource over a video file.
type Capture struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
	fps float64
}

// OpenCapture opens a video file for reading.
//
// Arguments:
//   - path: The video file.
//   - fallbackFPS: Used when the container reports no frame rate.
//
// Returns:
//   - *Capture: The capture. The caller must Close it.
//   - error: An error if the file cannot be opened.
func OpenCapture(path string, fallbackFPS float64) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("open %s: capture not opened", path)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = fallbackFPS
	}
	return &Capture{cap: vc, mat: gocv.NewMat(), fps: fps}, nil
}

// Next decodes the next frame as RGB.
func (c *Capture) Next() (images.Frame, error) {
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return images.Frame{}, io.EOF
	}
	return images.FromMat(c.mat)
}

// FPS returns the source frame rate.
func (c *Capture) FPS() float64 {
	return c.fps
}

// Close releases the capture.
func (c *Capture) Close() error {
	matErr := c.mat.Close()
	if err := c.cap.Close(); err != nil {
		return err
	}
	return matErr
}

// Writer is a FrameSink encoding to a video file. It carries no audio track.
type Writer struct {
	w      *gocv.VideoWriter
	width  int
	height int
}

// CreateWriter opens path for writing frames of width x height.
//
// Arguments:
//   - path: The output file; the container follows its extension.
//   - fourcc: The four character codec code, e.g. "mp4v".
//   - fps: The output frame rate.
//   - width: The frame width.
//   - height: The frame height.
//
// Returns:
//   - *Writer: The writer. The caller must Close it.
//   - error: An error if the encoder cannot be opened.
func CreateWriter(path, fourcc string, fps float64, width, height int) (*Writer, error) {
	vw, err := gocv.VideoWriterFile(path, fourcc, fps, width, height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, errors.Errorf("create %s: writer not opened (fourcc %s)", path, fourcc)
	}
	return &Writer{w: vw, width: width, height: height}, nil
}

// Write encodes one RGB frame.
func (w *Writer) Write(f images.Frame) error {
	if f.Width != w.width || f.Height != w.height {
		return errors.Errorf("frame is %dx%d, writer expects %dx%d", f.Width, f.Height, w.width, w.height)
	}
	mat, err := images.ToMat(f)
	if err != nil {
		return err
	}
	defer mat.Close()
	return w.w.Write(mat)
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	return w.w.Close()
}
