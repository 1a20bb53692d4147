// Package models - registry of class sets per dataset.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-deeplab/config"
)

// ClassSetFor returns the class set a network trained on dataset predicts.
//
// KITTI networks are trained on Cityscapes train ids, and the coco head of DeepLab is
// restricted to the VOC categories.
//
// Arguments:
//   - dataset: A resolved dataset.
//
// Returns:
//   - *OutputClassSet: The shared, read-only class set.
//   - error: config.ErrUnsupportedDataset (wrapped) for unknown datasets.
func ClassSetFor(dataset config.Dataset) (*OutputClassSet, error) {
	switch dataset {
	case config.DatasetCityscapes, config.DatasetKITTI:
		return &CityscapesClasses, nil
	case config.DatasetPascal, config.DatasetCOCO:
		return &VOCClasses, nil
	default:
		return nil, fmt.Errorf("no class set for %q: %w", dataset, config.ErrUnsupportedDataset)
	}
}

// NewDecoderFor builds the palette decoder of a dataset.
func NewDecoderFor(dataset config.Dataset) (*Decoder, error) {
	set, err := ClassSetFor(dataset)
	if err != nil {
		return nil, err
	}
	return NewDecoder(set)
}
