// Command gtview colourises a KITTI semantic ground-truth image with the Cityscapes
// palette and optionally shows it next to its input image.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/nvr-ai/go-deeplab/dataset"
	"github.com/nvr-ai/go-deeplab/images"
	"github.com/nvr-ai/go-deeplab/models"
	"gocv.io/x/gocv"
)

func main() {
	parser := argparse.NewParser("gtview", "View KITTI semantic ground truth")
	root := parser.String("", "root", &argparse.Options{Help: "KITTI semantics split", Default: filepath.Join("data_semantics", "training")})
	name := parser.String("", "name", &argparse.Options{Help: "Sample name; empty picks the first sample of the split", Default: "000000_10"})
	out := parser.String("", "out", &argparse.Options{Help: "Output PNG (default: <name>_gt.png)", Default: ""})
	show := parser.Flag("", "show", &argparse.Options{Help: "Show the input and ground truth in a window", Default: false})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	log, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Error creating log: %v\n", err)
		os.Exit(1)
	}

	err = run(log, *root, *name, *out, *show)
	if err != nil {
		log.Errorf("%v", err)
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(log logs.Log, root, name, out string, show bool) error {
	split := dataset.KITTI{Root: root}
	if name == "" {
		names, err := split.Names()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no samples in %s", root)
		}
		name = names[0]
	}

	sample, err := split.Load(name)
	if err != nil {
		return err
	}

	shape, err := sample.Semantic.Shape()
	if err != nil {
		return err
	}
	fmt.Println(formatShape(shape))

	sem, err := sample.Semantic.Decode()
	if err != nil {
		return err
	}

	labels, err := dataset.LabelMap(sem)
	if err != nil {
		return err
	}
	dec, err := models.NewDecoder(&models.CityscapesClasses)
	if err != nil {
		return err
	}
	dec.IgnoreIndex = models.IgnoreTrainID

	train := models.ToTrainIDs(labels)
	gt, err := dec.Decode(train)
	if err != nil {
		return err
	}
	for _, c := range models.CityscapesClasses.Coverage(train) {
		log.Infof("%-14s %6.2f%%", c.Name, 100*float64(c.Pixels)/float64(len(train.Index)))
	}

	if out == "" {
		out = name + "_gt.png"
	}
	data, err := images.EncodePNG(gt)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	log.Infof("Wrote %s (%s)", out, images.Checksum(gt))

	if show {
		img, err := sample.Image.Decode()
		if err != nil {
			return err
		}
		return display(name, img, gt)
	}
	return nil
}

// formatShape prints a shape the way numpy does: (375, 1242).
func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// display shows both frames until a key is pressed.
func display(title string, img, gt images.Frame) error {
	window := gocv.NewWindow(title)
	defer window.Close()

	for _, f := range []images.Frame{img, gt} {
		mat, err := images.ToMat(f)
		if err != nil {
			return err
		}
		window.IMShow(mat)
		window.WaitKey(0)
		mat.Close()
	}
	return nil
}
