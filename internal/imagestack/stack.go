// Package imagestack reads a directory of 2D image slices as one 3D grid.
//
// Slices are ordered by the number embedded in their filename, so
// "mask_2.png" comes before "mask_10.png". Every slice must have the same
// dimensions; slice k becomes plane z = k.
package imagestack

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"voxelseg/internal/models"
	"voxelseg/pkg/voxel"
)

// Stack is an ordered list of slice files in one directory
type Stack struct {
	dir    string
	slices []models.Slice
	logger logrus.FieldLogger
}

// Open lists the PNG and JPEG files in dir. Nothing is decoded yet. A nil
// logger discards output.
func Open(dir string, logger logrus.FieldLogger) (*Stack, error) {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read slice directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no PNG or JPEG images found in %s", dir)
	}

	// Order by the number in the filename, falling back to the name itself
	sort.SliceStable(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	s := &Stack{dir: dir, logger: logger.WithField("dir", dir)}
	for i, name := range names {
		s.slices = append(s.slices, models.Slice{Index: i, Number: extractNumber(name), Filename: name})
	}
	return s, nil
}

// Slices returns the slice metadata in z order. Dimensions are filled in
// once the stack has been loaded.
func (s *Stack) Slices() []models.Slice {
	return s.slices
}

// Mask loads the stack as a binary mask: any non-zero pixel is on
func (s *Stack) Mask() (*voxel.Mask, error) {
	var mask *voxel.Mask
	err := s.load(func(e voxel.Extent) {
		mask = voxel.NewMask(e, voxel.DefaultBinaryValues)
	}, func(x, y, z int, v uint16) {
		if v > 0 {
			mask.SetOn(x, y, z)
		}
	})
	if err != nil {
		return nil, err
	}
	return mask, nil
}

// Labels loads the stack as a label grid. 8-bit images keep their raw pixel
// values, so label 3 stored as an 8-bit PNG reads back as 3.
func (s *Stack) Labels() (*voxel.Grid[uint16], error) {
	var labels *voxel.Grid[uint16]
	err := s.load(func(e voxel.Extent) {
		labels = voxel.NewGrid[uint16](e)
	}, func(x, y, z int, v uint16) {
		labels.Set(x, y, z, v)
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// load decodes every slice in order. alloc is called once with the stack's
// extent after the first slice is read; set receives every pixel.
func (s *Stack) load(alloc func(voxel.Extent), set func(x, y, z int, v uint16)) error {
	var extent voxel.Extent
	for z := range s.slices {
		sl := &s.slices[z]
		img, err := loadImage(filepath.Join(s.dir, sl.Filename))
		if err != nil {
			return fmt.Errorf("failed to load image %s: %w", sl.Filename, err)
		}

		bounds := img.Bounds()
		sl.Width, sl.Height = bounds.Dx(), bounds.Dy()

		// Store dimensions from first image
		if z == 0 {
			extent = voxel.Extent{X: sl.Width, Y: sl.Height, Z: len(s.slices)}
			if !extent.Valid() {
				return fmt.Errorf("%w: slice %s is empty", voxel.ErrConfiguration, sl.Filename)
			}
			alloc(extent)
		} else if sl.Width != extent.X || sl.Height != extent.Y {
			return fmt.Errorf("%w: slice %s is %dx%d, expected %dx%d",
				voxel.ErrConfiguration, sl.Filename, sl.Width, sl.Height, extent.X, extent.Y)
		}

		for y := 0; y < sl.Height; y++ {
			for x := 0; x < sl.Width; x++ {
				set(x, y, z, pixelValue(img, bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"slices": len(s.slices),
		"extent": extent.String(),
	}).Debug("loaded slice stack")
	return nil
}

// pixelValue reads a pixel as an unsigned integer. Gray images give their
// stored value; anything else is converted to 16-bit luminance.
func pixelValue(img image.Image, x, y int) uint16 {
	switch g := img.(type) {
	case *image.Gray:
		return uint16(g.GrayAt(x, y).Y)
	case *image.Gray16:
		return g.Gray16At(x, y).Y
	default:
		return color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y
	}
}

// extractNumber extracts the numeric part from a filename. Digits are read
// from the base name without its extension; names without digits give -1.
func extractNumber(filename string) int {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return -1
}

// loadImage loads a PNG or JPEG image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(file)
	default:
		return jpeg.Decode(file)
	}
}
