package models

import (
	"github.com/nvr-ai/go-deeplab/images"
	"github.com/pkg/errors"
)

// ErrUnknownClassIndex is returned when a class index has no palette entry.
var ErrUnknownClassIndex = errors.New("unknown class index")

// NoIgnoreIndex disables the ignore label of a Decoder.
const NoIgnoreIndex = -1

// Decoder paints class maps with a class set's palette. It is stateless after
// construction and safe for concurrent use.
type Decoder struct {
	palette [][3]uint8
	// IgnoreIndex, when not NoIgnoreIndex, is painted black instead of failing. Ground
	// truth uses 255 for unlabeled pixels.
	IgnoreIndex int
}

// NewDecoder builds a decoder over a class set.
func NewDecoder(set *OutputClassSet) (*Decoder, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	palette := make([][3]uint8, len(set.Classes))
	for i, c := range set.Classes {
		palette[i] = c.Color
	}
	return &Decoder{palette: palette, IgnoreIndex: NoIgnoreIndex}, nil
}

// NumClasses returns the size of the palette.
func (d *Decoder) NumClasses() int {
	return len(d.palette)
}

// Color returns the colour of a class index.
//
// Returns:
//   - [3]uint8: The RGB colour.
//   - error: ErrUnknownClassIndex (wrapped) if idx is outside [0, NumClasses) and is not
//     the ignore index.
func (d *Decoder) Color(idx int) ([3]uint8, error) {
	if idx >= 0 && idx < len(d.palette) {
		return d.palette[idx], nil
	}
	if d.IgnoreIndex != NoIgnoreIndex && idx == d.IgnoreIndex {
		return [3]uint8{}, nil
	}
	return [3]uint8{}, errors.Wrapf(ErrUnknownClassIndex, "%d not in [0, %d)", idx, len(d.palette))
}

// Decode paints a class map. The first unknown index fails the whole map.
//
// Arguments:
//   - m: The class map.
//
// Returns:
//   - images.Frame: An RGB frame the size of m.
//   - error: ErrUnknownClassIndex (wrapped), or a geometry error.
func (d *Decoder) Decode(m *ClassMap) (images.Frame, error) {
	if err := m.Validate(); err != nil {
		return images.Frame{}, err
	}

	f := images.NewFrame(m.Width, m.Height)
	for i, idx := range m.Index {
		c, err := d.Color(idx)
		if err != nil {
			return images.Frame{}, errors.Wrapf(err, "pixel (%d, %d)", i%m.Width, i/m.Width)
		}
		copy(f.Pix[i*images.RGBChannels:], c[:])
	}
	return f, nil
}
