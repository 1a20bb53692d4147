package config

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned for malformed flag values such as a non-integer gpu id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedDataset is returned for dataset names outside the supported set.
	ErrUnsupportedDataset = errors.New("unsupported dataset")
)

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
