package models

import "fmt"

// OutputClass represents one segmentation label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
	// The RGB colour the class is painted with.
	Color [3]uint8
}

// OutputClassSet ties a style to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style ModelFamily
	// Classes indexed by OutputClass.Index, which must equal the slice position.
	Classes []OutputClass
}

// NumClasses returns the number of classes.
func (s *OutputClassSet) NumClasses() int {
	return len(s.Classes)
}

// Validate checks that indices are dense and zero-based.
func (s *OutputClassSet) Validate() error {
	if len(s.Classes) == 0 {
		return fmt.Errorf("class set %q is empty", s.Style)
	}
	for i, c := range s.Classes {
		if c.Index != i {
			return fmt.Errorf("class set %q: class %q at position %d has index %d", s.Style, c.Name, i, c.Index)
		}
	}
	return nil
}

// GetName returns the class name for an index.
func (s *OutputClassSet) GetName(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", fmt.Errorf("index %d out of range for style %q", idx, s.Style)
	}
	return s.Classes[idx].Name, nil
}

// ClassCount is the number of pixels of one class in a class map.
type ClassCount struct {
	Index  int
	Name   string
	Pixels int
}

// Coverage counts the pixels of every class present in m, in index order. Indices
// outside the set, such as an ignore label, are not counted.
func (s *OutputClassSet) Coverage(m *ClassMap) []ClassCount {
	var out []ClassCount
	for idx, n := range m.Histogram(s.NumClasses()) {
		if n == 0 {
			continue
		}
		name, err := s.GetName(idx)
		if err != nil {
			continue
		}
		out = append(out, ClassCount{Index: idx, Name: name, Pixels: n})
	}
	return out
}

// NewClassSet builds a set from names and colours given in index order.
func NewClassSet(style ModelFamily, names []string, colors [][3]uint8) (*OutputClassSet, error) {
	if len(names) != len(colors) {
		return nil, fmt.Errorf("%d names but %d colours", len(names), len(colors))
	}
	s := &OutputClassSet{Style: style, Classes: make([]OutputClass, len(names))}
	for i := range names {
		s.Classes[i] = OutputClass{Index: i, Name: names[i], Color: colors[i]}
	}
	return s, s.Validate()
}

// vocColor is entry i of the Pascal VOC colour map: the bits of i are spread, three at a
// time, from the most significant bit of R, G and B downwards.
func vocColor(i int) [3]uint8 {
	var c [3]uint8
	for shift := 7; i > 0; shift-- {
		c[0] |= uint8(i&1) << shift
		c[1] |= uint8((i>>1)&1) << shift
		c[2] |= uint8((i>>2)&1) << shift
		i >>= 3
	}
	return c
}

var vocNames = []string{
	"background", "aeroplane", "bicycle", "bird", "boat", "bottle", "bus", "car", "cat", "chair",
	"cow", "diningtable", "dog", "horse", "motorbike", "person", "pottedplant", "sheep", "sofa",
	"train", "tvmonitor",
}

// VOCClasses is the 20 Pascal VOC classes plus "background" at index 0. DeepLab's
// pascal and coco heads share it.
var VOCClasses = func() OutputClassSet {
	s := OutputClassSet{Style: ModelFamilyVOC, Classes: make([]OutputClass, len(vocNames))}
	for i, name := range vocNames {
		s.Classes[i] = OutputClass{Index: i, Name: name, Color: vocColor(i)}
	}
	return s
}()

// CityscapesClasses is the 19 Cityscapes train ids with their official colours.
var CityscapesClasses = OutputClassSet{
	Style: ModelFamilyCityscapes,
	Classes: []OutputClass{
		{0, "road", [3]uint8{128, 64, 128}},
		{1, "sidewalk", [3]uint8{244, 35, 232}},
		{2, "building", [3]uint8{70, 70, 70}},
		{3, "wall", [3]uint8{102, 102, 156}},
		{4, "fence", [3]uint8{190, 153, 153}},
		{5, "pole", [3]uint8{153, 153, 153}},
		{6, "traffic light", [3]uint8{250, 170, 30}},
		{7, "traffic sign", [3]uint8{220, 220, 0}},
		{8, "vegetation", [3]uint8{107, 142, 35}},
		{9, "terrain", [3]uint8{152, 251, 152}},
		{10, "sky", [3]uint8{70, 130, 180}},
		{11, "person", [3]uint8{220, 20, 60}},
		{12, "rider", [3]uint8{255, 0, 0}},
		{13, "car", [3]uint8{0, 0, 142}},
		{14, "truck", [3]uint8{0, 0, 70}},
		{15, "bus", [3]uint8{0, 60, 100}},
		{16, "train", [3]uint8{0, 80, 100}},
		{17, "motorcycle", [3]uint8{0, 0, 230}},
		{18, "bicycle", [3]uint8{119, 11, 32}},
	},
}
