// Package visualization exports voxel grids as 16-bit slice images. It is
// where real-valued distances are rescaled and converted to a fixed-width
// integer representation for downstream tools.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"voxelseg/pkg/voxel"
)

// Viewer extracts and saves slices of a scalar field
type Viewer struct {
	// field holds the values to export
	field *voxel.Field

	// scale multiplies every value before conversion to 16 bits
	scale float64
}

// NewViewer creates a viewer over field. Values are multiplied by scale and
// clamped to [0, 65535]; +Inf saturates.
func NewViewer(field *voxel.Field, scale float64) *Viewer {
	return &Viewer{field: field, scale: scale}
}

// DistanceScale is the export multiplier for a distance field: multiplyBy,
// further multiplied by the x voxel size when applyResolution is set.
func DistanceScale(multiplyBy float64, applyResolution bool, res *voxel.Resolution) (float64, error) {
	if !applyResolution {
		return multiplyBy, nil
	}
	if res == nil || res.X <= 0 || math.IsNaN(res.X) {
		return 0, fmt.Errorf("%w: applying resolution to distances needs an x resolution", voxel.ErrResolutionUnavailable)
	}
	return multiplyBy * res.X, nil
}

// toGray16 converts a field value to a pixel
func (v *Viewer) toGray16(value float64) color.Gray16 {
	scaled := value * v.scale
	if math.IsNaN(scaled) {
		return color.Gray16{}
	}
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(scaled))))}
}

// ExtractSlice extracts a 2D slice from the field along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	e := v.field.Extent

	var img *image.Gray16
	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= e.X {
			return nil, fmt.Errorf("position %d exceeds width %d", position, e.X)
		}
		img = image.NewGray16(image.Rect(0, 0, e.Z, e.Y))
		for y := 0; y < e.Y; y++ {
			for z := 0; z < e.Z; z++ {
				img.SetGray16(z, y, v.toGray16(v.field.Get(position, y, z)))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= e.Y {
			return nil, fmt.Errorf("position %d exceeds height %d", position, e.Y)
		}
		img = image.NewGray16(image.Rect(0, 0, e.X, e.Z))
		for z := 0; z < e.Z; z++ {
			for x := 0; x < e.X; x++ {
				img.SetGray16(x, z, v.toGray16(v.field.Get(x, position, z)))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= e.Z {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, e.Z)
		}
		img = image.NewGray16(image.Rect(0, 0, e.X, e.Y))
		for y := 0; y < e.Y; y++ {
			for x := 0; x < e.X; x++ {
				img.SetGray16(x, y, v.toGray16(v.field.Get(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a PNG image
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence extracts and saves a sequence of slices along the specified axis
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.field.Extent.X
	case "y", "Y":
		maxPos = v.field.Extent.Y
	case "z", "Z":
		maxPos = v.field.Extent.Z
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// SaveLabels writes every z slice of a label grid as a 16-bit PNG, keeping
// label values unchanged
func SaveLabels(labels *voxel.Grid[uint16], outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	e := labels.Extent
	for z := 0; z < e.Z; z++ {
		img := image.NewGray16(image.Rect(0, 0, e.X, e.Y))
		for y := 0; y < e.Y; y++ {
			for x := 0; x < e.X; x++ {
				img.SetGray16(x, y, color.Gray16{Y: labels.Get(x, y, z)})
			}
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("labels_%03d.png", z))
		if err := SaveSlice(img, filename); err != nil {
			return fmt.Errorf("failed to save label slice %d: %w", z, err)
		}
	}
	return nil
}
