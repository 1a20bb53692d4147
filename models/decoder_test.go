package models

import (
	"testing"

	"github.com/nvr-ai/go-deeplab/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoClassDecoder(t *testing.T) *Decoder {
	set, err := NewClassSet("test", []string{"background", "object"}, [][3]uint8{{0, 0, 0}, {255, 128, 0}})
	require.NoError(t, err)
	d, err := NewDecoder(set)
	require.NoError(t, err)
	return d
}

// TestDecoderTotal checks that every index in range has a colour and nothing else does.
func TestDecoderTotal(t *testing.T) {
	for _, dataset := range config.Datasets {
		d, err := NewDecoderFor(dataset)
		require.NoError(t, err)

		for i := 0; i < d.NumClasses(); i++ {
			_, err := d.Color(i)
			assert.NoError(t, err, "%s class %d", dataset, i)
		}
		for _, i := range []int{-1, d.NumClasses(), 255, 1 << 20} {
			_, err := d.Color(i)
			assert.ErrorIs(t, err, ErrUnknownClassIndex, "%s class %d", dataset, i)
		}
	}
}

// TestDecoderIdempotent decodes the same map twice.
func TestDecoderIdempotent(t *testing.T) {
	d, err := NewDecoderFor(config.DatasetKITTI)
	require.NoError(t, err)

	m := NewClassMap(19, 3)
	for i := range m.Index {
		m.Index[i] = i % d.NumClasses()
	}

	a, err := d.Decode(m)
	require.NoError(t, err)
	b, err := d.Decode(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for i := 0; i < d.NumClasses(); i++ {
		c1, _ := d.Color(i)
		c2, _ := d.Color(i)
		assert.Equal(t, c1, c2)
	}
}

func TestDecodePaintsPalette(t *testing.T) {
	d := twoClassDecoder(t)
	m := NewClassMap(3, 2)
	m.Set(1, 0, 1)
	m.Set(2, 1, 1)

	f, err := d.Decode(m)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 2, f.Height)

	r, g, b := f.RGB(1, 0)
	assert.Equal(t, [3]uint8{255, 128, 0}, [3]uint8{r, g, b})
	r, g, b = f.RGB(0, 1)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestDecodeUnknownIndex(t *testing.T) {
	d := twoClassDecoder(t)
	m := NewClassMap(2, 2)
	m.Set(1, 1, 2)

	_, err := d.Decode(m)
	assert.ErrorIs(t, err, ErrUnknownClassIndex)
}

func TestDecoderIgnoreIndex(t *testing.T) {
	d := twoClassDecoder(t)
	d.IgnoreIndex = IgnoreTrainID

	c, err := d.Color(IgnoreTrainID)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{}, c)

	_, err = d.Color(254)
	assert.ErrorIs(t, err, ErrUnknownClassIndex)
}

func TestDecodeRejectsBadGeometry(t *testing.T) {
	d := twoClassDecoder(t)
	_, err := d.Decode(&ClassMap{Width: 2, Height: 2, Index: []int{0}})
	assert.Error(t, err)
}

func TestClassSetFor(t *testing.T) {
	set, err := ClassSetFor(config.DatasetKITTI)
	require.NoError(t, err)
	assert.Equal(t, 19, set.NumClasses())
	assert.Equal(t, ModelFamilyCityscapes, set.Style)

	set, err = ClassSetFor(config.DatasetPascal)
	require.NoError(t, err)
	assert.Equal(t, 21, set.NumClasses())

	_, err = ClassSetFor("imagenet")
	assert.ErrorIs(t, err, config.ErrUnsupportedDataset)
}

func TestPalettes(t *testing.T) {
	assert.NoError(t, VOCClasses.Validate())
	assert.NoError(t, CityscapesClasses.Validate())

	assert.Equal(t, [3]uint8{0, 0, 0}, VOCClasses.Classes[0].Color)
	assert.Equal(t, [3]uint8{128, 0, 0}, VOCClasses.Classes[1].Color)
	assert.Equal(t, [3]uint8{192, 128, 128}, VOCClasses.Classes[15].Color)

	name, err := VOCClasses.GetName(15)
	require.NoError(t, err)
	assert.Equal(t, "person", name)
	_, err = VOCClasses.GetName(21)
	assert.Error(t, err)
}

func TestCoverage(t *testing.T) {
	m := &ClassMap{Width: 3, Height: 2, Index: []int{13, 13, 0, IgnoreTrainID, 10, 13}}
	assert.Equal(t, []ClassCount{
		{Index: 0, Name: "road", Pixels: 1},
		{Index: 10, Name: "sky", Pixels: 1},
		{Index: 13, Name: "car", Pixels: 3},
	}, CityscapesClasses.Coverage(m))

	assert.Empty(t, VOCClasses.Coverage(&ClassMap{Width: 1, Height: 1, Index: []int{-1}}))
}

func TestNewClassSetErrors(t *testing.T) {
	_, err := NewClassSet("x", []string{"a"}, nil)
	assert.Error(t, err)
	_, err = NewClassSet("x", nil, nil)
	assert.Error(t, err)
}

func TestCityscapesTrainID(t *testing.T) {
	assert.Equal(t, 0, CityscapesTrainID(7))
	assert.Equal(t, 10, CityscapesTrainID(23))
	assert.Equal(t, 13, CityscapesTrainID(26))
	assert.Equal(t, 18, CityscapesTrainID(33))
	for _, id := range []int{-1, 0, 6, 9, 29, 34, 255} {
		assert.Equal(t, IgnoreTrainID, CityscapesTrainID(id), "label %d", id)
	}

	m := &ClassMap{Width: 2, Height: 1, Index: []int{26, 0}}
	assert.Equal(t, []int{13, IgnoreTrainID}, ToTrainIDs(m).Index)
	assert.Equal(t, []int{1, 0}, (&ClassMap{Width: 2, Height: 1, Index: []int{0, 13}}).Histogram(2)[0:2])
}
