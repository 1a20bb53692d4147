// Package models - Definitions for segmentation class sets and their palettes.
package models

// ModelFamily identifies the label convention a network was trained with.
type ModelFamily string

const (
	// ModelFamilyVOC is the 20 Pascal VOC classes + background.
	ModelFamilyVOC ModelFamily = "voc"
	// ModelFamilyCityscapes is the 19 Cityscapes train ids.
	ModelFamilyCityscapes ModelFamily = "cityscapes"
)
