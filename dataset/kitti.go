// Package dataset reads KITTI semantic segmentation samples.
package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/models"
	"github.com/pkg/errors"
)

// Directory layout of data_semantics/training.
const (
	ImageDir    = "image_2"
	SemanticDir = "semantic"
)

// Extensions tried, in order, when looking up a sample by name.
var extensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// ImageFile is an encoded image read from disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
}

// Decode decodes the file according to its extension.
func (f ImageFile) Decode() (images.Frame, error) {
	format, err := images.FormatFromPath(f.Path)
	if err != nil {
		return images.Frame{}, err
	}
	frame, err := images.Decode(f.Data, format)
	if err != nil {
		return images.Frame{}, errors.Wrapf(err, "decode %s", f.Path)
	}
	return frame, nil
}

// Shape returns the stored shape of the image, e.g. (375, 1242) for a label image.
func (f ImageFile) Shape() ([]int, error) {
	format, err := images.FormatFromPath(f.Path)
	if err != nil {
		return nil, err
	}
	return images.Shape(f.Data, format)
}

// Sample is an input image with its label image.
type Sample struct {
	Name     string
	Image    ImageFile
	Semantic ImageFile
}

// KITTI is a KITTI semantics split rooted at e.g. data_semantics/training.
type KITTI struct {
	Root string
}

// Names lists the sample names present in both image_2 and semantic, sorted.
//
// Returns:
//   - []string: The sample names without extension.
//   - error: An error if either directory cannot be read.
func (k KITTI) Names() ([]string, error) {
	imgs, err := listNames(filepath.Join(k.Root, ImageDir))
	if err != nil {
		return nil, err
	}
	labels, err := listNames(filepath.Join(k.Root, SemanticDir))
	if err != nil {
		return nil, err
	}

	var names []string
	for name := range imgs {
		if labels[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the image and label files of one sample.
//
// Arguments:
//   - name: The sample name, e.g. "000000_10".
//
// Returns:
//   - Sample: The encoded sample.
//   - error: os.ErrNotExist (wrapped) if either file is missing.
func (k KITTI) Load(name string) (Sample, error) {
	img, err := readImage(filepath.Join(k.Root, ImageDir), name)
	if err != nil {
		return Sample{}, err
	}
	sem, err := readImage(filepath.Join(k.Root, SemanticDir), name)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Name: name, Image: img, Semantic: sem}, nil
}

// LabelMap decodes a semantic image into label ids. The ids are stored in the first
// channel; gray and colour encodings both work since FromImage expands gray to RGB.
func LabelMap(f images.Frame) (*models.ClassMap, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m := models.NewClassMap(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			m.Set(x, y, int(f.Pix[(y*f.Width+x)*f.Channels]))
		}
	}
	return m, nil
}

func readImage(dir, name string) (ImageFile, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return ImageFile{}, err
		}
		return ImageFile{Path: path, Data: data}, nil
	}
	return ImageFile{}, errors.Wrapf(os.ErrNotExist, "%s in %s", name, dir)
}

func listNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, known := range extensions {
			if ext == known {
				names[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = true
				break
			}
		}
	}
	return names, nil
}
