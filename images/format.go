package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
)

// ErrUnsupportedFormat is returned for file extensions no decoder is registered for.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromPath picks the image format from a file extension.
func FormatFromPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", path)
	}
}

// Decode decodes encoded image bytes of the given format into an RGB frame.
//
// Arguments:
//   - data: The encoded image.
//   - format: The encoding of data.
//
// Returns:
//   - Frame: The decoded frame.
//   - error: An error if the format is unknown or decoding fails.
func Decode(data []byte, format ImageFormat) (Frame, error) {
	var (
		img image.Image
		err error
	)

	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return Frame{}, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	if err != nil {
		return Frame{}, errors.Wrapf(err, "decode %s", format)
	}

	return FromImage(img), nil
}

// Shape reads the stored dimensions of an encoded image without decoding the pixels.
// Gray images report (height, width), colour images (height, width, 3).
func Shape(data []byte, format ImageFormat) ([]int, error) {
	var (
		cfg image.Config
		err error
	)

	switch format {
	case FormatJPEG:
		cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	case FormatPNG:
		cfg, err = png.DecodeConfig(bytes.NewReader(data))
	case FormatWebP:
		cfg, err = webp.DecodeConfig(bytes.NewReader(data))
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s header", format)
	}

	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		return []int{cfg.Height, cfg.Width}, nil
	default:
		return []int{cfg.Height, cfg.Width, RGBChannels}, nil
	}
}

// EncodePNG encodes a frame as PNG.
func EncodePNG(f Frame) ([]byte, error) {
	img, err := f.RGBA()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}
