package models

import "fmt"

// ClassMap is a per-pixel class index map stored row-major.
type ClassMap struct {
	Width  int
	Height int
	Index  []int
}

// NewClassMap allocates a map filled with class 0.
func NewClassMap(width, height int) *ClassMap {
	return &ClassMap{Width: width, Height: height, Index: make([]int, width*height)}
}

// At returns the class at (x, y).
func (m *ClassMap) At(x, y int) int {
	return m.Index[y*m.Width+x]
}

// Set writes the class at (x, y).
func (m *ClassMap) Set(x, y, class int) {
	m.Index[y*m.Width+x] = class
}

// Validate checks the geometry against the buffer length.
func (m *ClassMap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("invalid class map dimensions: %dx%d", m.Width, m.Height)
	}
	if len(m.Index) != m.Width*m.Height {
		return fmt.Errorf("class map holds %d entries, %dx%d needs %d",
			len(m.Index), m.Width, m.Height, m.Width*m.Height)
	}
	return nil
}

// Histogram counts pixels per class index. Indices outside [0, numClasses) are ignored.
func (m *ClassMap) Histogram(numClasses int) []int {
	h := make([]int, numClasses)
	for _, c := range m.Index {
		if c >= 0 && c < numClasses {
			h[c]++
		}
	}
	return h
}
