package config

import (
	"github.com/pkg/errors"
)

// Dataset names a training dataset. It keys the hyperparameter tables and the class palette.
type Dataset string

const (
	DatasetPascal     Dataset = "pascal"
	DatasetCOCO       Dataset = "coco"
	DatasetCityscapes Dataset = "cityscapes"
	DatasetKITTI      Dataset = "kitti"
)

// Datasets lists the supported datasets in flag order.
var Datasets = []Dataset{DatasetPascal, DatasetCOCO, DatasetCityscapes, DatasetKITTI}

// BaseBatchPerGPU is the reference batch size per device the base learning rates are tuned for.
const BaseBatchPerGPU = 4

// Hyperparameters are the per-dataset training defaults.
type Hyperparameters struct {
	// Epochs is the default epoch count.
	Epochs int `json:"epochs" yaml:"epochs"`
	// BaseLR is the learning rate for a batch of BaseBatchPerGPU on every device.
	BaseLR float64 `json:"base_lr" yaml:"base_lr"`
}

var hyperparameters = map[Dataset]Hyperparameters{
	DatasetCOCO:       {Epochs: 30, BaseLR: 0.1},
	DatasetCityscapes: {Epochs: 200, BaseLR: 0.01},
	DatasetPascal:     {Epochs: 50, BaseLR: 0.007},
	DatasetKITTI:      {Epochs: 20, BaseLR: 0.01},
}

// ParseDataset checks a dataset name. Names must match exactly, "Cityscapes" is
// rejected.
//
// Returns:
//   - Dataset: The canonical dataset.
//   - error: ErrUnsupportedDataset (wrapped) if the name is not supported.
func ParseDataset(name string) (Dataset, error) {
	d := Dataset(name)
	if _, ok := hyperparameters[d]; !ok {
		return "", errors.Wrapf(ErrUnsupportedDataset, "%q", name)
	}
	return d, nil
}

// HyperparametersFor returns the defaults for a dataset.
func HyperparametersFor(d Dataset) (Hyperparameters, error) {
	h, ok := hyperparameters[d]
	if !ok {
		return Hyperparameters{}, errors.Wrapf(ErrUnsupportedDataset, "%q", d)
	}
	return h, nil
}

// ScaledLR scales the base learning rate linearly with the batch size, relative to
// BaseBatchPerGPU samples on each of gpus devices.
func (h Hyperparameters) ScaledLR(batchSize, gpus int) float64 {
	return h.BaseLR / float64(BaseBatchPerGPU*gpus) * float64(batchSize)
}
